package crud

import (
	"context"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"warbler/domain"
	"warbler/errs"
)

// MessageService manages Messages.
// It implements the domain.MessageService interface.
type MessageService struct {
	messageValidator
}

// messageValidator runs validations on incoming Message data.
// On success, it passes the data on to messageGorm.
// Otherwise, it returns the error of the validation that has failed.
type messageValidator struct {
	messageGorm
}

// messageGorm runs CRUD operations on the database using incoming Message data.
// It assumes that data has been validated. On success, it returns nil.
// Otherwise, it returns the error of the operation that has failed.
type messageGorm struct {
	db *gorm.DB
}

// NewMessageService returns an instance of MessageService.
func NewMessageService(db *gorm.DB) *MessageService {
	return &MessageService{
		messageValidator{
			messageGorm{
				db: db,
			},
		},
	}
}

// Ensure the MessageService struct properly implements the domain.MessageService interface.
// If it does not, then this expression becomes invalid and won't compile.
var _ domain.MessageService = &MessageService{}

// Create runs validations needed for creating new Message database records.
func (mv *messageValidator) Create(ctx context.Context, message *domain.Message) error {
	err := runMessageValFns(ctx, message,
		mv.userIdValid,
		mv.userExists,
		mv.textRequired,
		mv.textMaxLength)
	if err != nil {
		return err
	}
	return mv.messageGorm.Create(ctx, message)
}

// Delete runs validations needed for deleting existing Message database records.
// The UserID of the passed in message is the user asking for the deletion,
// which has to be the owner of the stored message.
func (mv *messageValidator) Delete(ctx context.Context, message *domain.Message) error {
	err := runMessageValFns(ctx, message,
		mv.idValid,
		mv.userIdValid,
		mv.ownerMatches)
	if err != nil {
		return err
	}
	return mv.messageGorm.Delete(ctx, message)
}

// runMessageValFns runs any number of functions of type messageValFn on the passed in Message object.
// If none of them returns an error, it returns nil. Otherwise, it returns the respective error.
func runMessageValFns(ctx context.Context, message *domain.Message, fns ...messageValFn) error {
	for _, fn := range fns {
		if err := fn(ctx, message); err != nil {
			return err
		}
	}
	return nil
}

// A messageValFn is any function that takes in a pointer to a domain.Message object and returns an error.
type messageValFn = func(ctx context.Context, message *domain.Message) error

// idValid makes sure that the passed in ID of a Message to be deleted is greater than 0.
func (mv *messageValidator) idValid(ctx context.Context, message *domain.Message) error {
	if message.ID <= 0 {
		return errs.IdInvalid
	}
	return nil
}

// ownerMatches loads the stored message and makes sure it belongs to message.UserID.
func (mv *messageValidator) ownerMatches(ctx context.Context, message *domain.Message) error {
	stored, err := mv.messageGorm.ByID(ctx, message.ID)
	if err != nil {
		return err
	}
	if stored.UserID != message.UserID {
		return errs.AccessUnauthorized
	}
	*message = *stored
	return nil
}

// textMaxLength makes sure that the text does not exceed domain.MessageMaxLength characters.
func (mv *messageValidator) textMaxLength(ctx context.Context, message *domain.Message) error {
	if utf8.RuneCountInString(message.Text) > domain.MessageMaxLength {
		return errs.Errorf(errs.EINVALID, "Message text max length is %d characters.", domain.MessageMaxLength)
	}
	return nil
}

// textRequired makes sure that the text is not empty or whitespace only.
func (mv *messageValidator) textRequired(ctx context.Context, message *domain.Message) error {
	if strings.TrimSpace(message.Text) == "" {
		return errs.Errorf(errs.EINVALID, "Message text must not be empty.")
	}
	return nil
}

// userExists makes sure the owning user is stored. SQLite only checks foreign keys
// when told to, so this doesn't rely on the constraint alone.
func (mv *messageValidator) userExists(ctx context.Context, message *domain.Message) error {
	var count int64
	err := mv.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", message.UserID).Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return errs.Errorf(errs.ENOTFOUND, "The user does not exist.")
	}
	return nil
}

// userIdValid ensures that the userId is not empty.
func (mv *messageValidator) userIdValid(ctx context.Context, message *domain.Message) error {
	if message.UserID <= 0 {
		return errs.UserIdValid
	}
	return nil
}

// ByID retrieves a single Message by ID, along with its author.
// If the record doesn't exist, it returns errs.ENOTFOUND.
func (mg *messageGorm) ByID(ctx context.Context, id int) (*domain.Message, error) {
	var message domain.Message
	err := mg.db.WithContext(ctx).
		Preload("User").
		First(&message, "id = ?", id).
		Error
	if err != nil {
		return nil, storeError(err, "The message does not exist.")
	}
	return &message, nil
}

// ByUserID returns all messages of a user, newest first.
func (mg *messageGorm) ByUserID(ctx context.Context, userID int) ([]domain.Message, error) {
	var messages []domain.Message
	err := mg.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("User").
		Order("created_at desc, id desc").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// Feed returns the messages of the user and of everyone the user follows,
// newest first, at most limit of them.
func (mg *messageGorm) Feed(ctx context.Context, userID, limit int) ([]domain.Message, error) {
	db := mg.db.WithContext(ctx)
	followed := db.Model(&domain.Follow{}).Select("followed_id").Where("follower_id = ?", userID)
	var messages []domain.Message
	err := db.
		Where("user_id = ? OR user_id IN (?)", userID, followed).
		Preload("User").
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// Create stores the data from the Message object in a new database record
// and loads its author.
func (mg *messageGorm) Create(ctx context.Context, message *domain.Message) error {
	db := mg.db.WithContext(ctx)
	if err := db.Omit("User").Create(message).Error; err != nil {
		return storeError(err, "The user does not exist.")
	}
	if err := db.First(&message.User, "id = ?", message.UserID).Error; err != nil {
		return storeError(err, "The user does not exist.")
	}
	return nil
}

// Delete permanently deletes a Message record along with the likes it got.
func (mg *messageGorm) Delete(ctx context.Context, message *domain.Message) error {
	return mg.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("message_id = ?", message.ID).Delete(&domain.Like{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&domain.Message{}, message.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errs.Errorf(errs.ENOTFOUND, "The message does not exist.")
		}
		return nil
	})
}
