package crud

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"warbler/domain"
	"warbler/errs"
)

// LikeService manages Likes.
// It implements the domain.LikeService interface.
type LikeService struct {
	likeValidator
}

// likeValidator runs validations on incoming Like data.
// On success, it passes the data on to likeGorm.
// Otherwise, it returns the error of the validation that has failed.
type likeValidator struct {
	likeGorm
}

// likeGorm runs CRUD operations on the database using incoming Like data.
// It assumes that data has been validated. On success, it returns nil.
// Otherwise, it returns the error of the operation that has failed.
type likeGorm struct {
	db *gorm.DB
}

// NewLikeService returns an instance of LikeService.
func NewLikeService(db *gorm.DB) *LikeService {
	return &LikeService{
		likeValidator{
			likeGorm{
				db: db,
			},
		},
	}
}

// Ensure the LikeService struct properly implements the domain.LikeService interface.
// If it does not, then this expression becomes invalid and won't compile.
var _ domain.LikeService = &LikeService{}

// Toggle runs validations needed for liking or unliking a message.
func (lv *likeValidator) Toggle(ctx context.Context, userID, messageID int) (bool, error) {
	like := &domain.Like{UserID: userID, MessageID: messageID}
	err := runLikeValFns(ctx, like,
		lv.userIdValid,
		lv.likedMessageExists,
		lv.notOwnMessage)
	if err != nil {
		return false, err
	}
	return lv.likeGorm.Toggle(ctx, like)
}

// runLikeValFns runs any number of functions of type likeValFn on the passed in Like object.
// If none of them returns an error, it returns nil. Otherwise, it returns the respective error.
func runLikeValFns(ctx context.Context, like *domain.Like, fns ...likeValFn) error {
	for _, fn := range fns {
		if err := fn(ctx, like); err != nil {
			return err
		}
	}
	return nil
}

// A likeValFn is any function that takes in a pointer to a domain.Like object and returns an error.
type likeValFn func(ctx context.Context, like *domain.Like) error

// likedMessageExists makes sure that the message to be liked actually exists.
// It keeps the loaded message on the like for the checks that follow.
func (lv *likeValidator) likedMessageExists(ctx context.Context, like *domain.Like) error {
	err := lv.db.WithContext(ctx).First(&like.Message, "id = ?", like.MessageID).Error
	if err != nil {
		return storeError(err, "The liked message does not exist.")
	}
	return nil
}

// notOwnMessage makes sure that users don't like their own messages.
func (lv *likeValidator) notOwnMessage(ctx context.Context, like *domain.Like) error {
	if like.Message.UserID == like.UserID {
		return errs.AccessUnauthorized
	}
	return nil
}

// userIdValid ensures that the userId is not empty.
func (lv *likeValidator) userIdValid(ctx context.Context, like *domain.Like) error {
	if like.UserID <= 0 {
		return errs.UserIdValid
	}
	return nil
}

// LikedMessages returns the messages the user likes, most recently liked first.
func (lg *likeGorm) LikedMessages(ctx context.Context, userID int) ([]domain.Message, error) {
	var messages []domain.Message
	err := lg.db.WithContext(ctx).
		Joins("JOIN likes ON likes.message_id = messages.id").
		Where("likes.user_id = ?", userID).
		Preload("User").
		Order("likes.created_at desc, likes.id desc").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// LikedIDs reports which of the given messages the user likes.
// Messages the user doesn't like are absent from the returned map.
func (lg *likeGorm) LikedIDs(ctx context.Context, userID int, messageIDs []int) (map[int]bool, error) {
	liked := make(map[int]bool)
	if len(messageIDs) == 0 {
		return liked, nil
	}
	var ids []int
	err := lg.db.WithContext(ctx).
		Model(&domain.Like{}).
		Where("user_id = ? AND message_id IN ?", userID, messageIDs).
		Pluck("message_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		liked[id] = true
	}
	return liked, nil
}

// Toggle deletes the like if it is stored and creates it otherwise.
// It returns whether the like exists afterwards.
func (lg *likeGorm) Toggle(ctx context.Context, like *domain.Like) (bool, error) {
	var liked bool
	err := lg.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing domain.Like
		err := tx.Where("user_id = ? AND message_id = ?", like.UserID, like.MessageID).First(&existing).Error
		switch {
		case err == nil:
			liked = false
			return tx.Delete(&existing).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			liked = true
			return tx.Omit("User", "Message").Create(like).Error
		default:
			return err
		}
	})
	if err != nil {
		return false, storeError(err, "The liked message does not exist.")
	}
	return liked, nil
}
