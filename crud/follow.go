package crud

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"warbler/domain"
	"warbler/errs"
)

// FollowService manages Follows.
// It implements the domain.FollowService interface.
type FollowService struct {
	followValidator
}

type followValidator struct {
	followGorm
}

type followGorm struct {
	db *gorm.DB
}

// NewFollowService returns an instance of FollowService.
func NewFollowService(db *gorm.DB) *FollowService {
	return &FollowService{
		followValidator{
			followGorm{
				db: db,
			},
		},
	}
}

var _ domain.FollowService = &FollowService{}

// Create starts a follow. Following someone already followed changes nothing.
func (fv *followValidator) Create(ctx context.Context, follow *domain.Follow) error {
	err := runFollowValFns(ctx, follow,
		fv.followerIdValid,
		fv.followedIsNotFollower,
		fv.followedUserExists)
	if err != nil {
		return err
	}
	return fv.followGorm.Create(ctx, follow)
}

// Delete ends a follow. It's an error to unfollow a user that isn't followed.
func (fv *followValidator) Delete(ctx context.Context, follow *domain.Follow) error {
	err := runFollowValFns(ctx, follow,
		fv.followerIdValid,
		fv.followExists)
	if err != nil {
		return err
	}
	return fv.followGorm.Delete(ctx, follow)
}

func runFollowValFns(ctx context.Context, follow *domain.Follow, fns ...followValFn) error {
	for _, fn := range fns {
		if err := fn(ctx, follow); err != nil {
			return err
		}
	}
	return nil
}

type followValFn func(ctx context.Context, follow *domain.Follow) error

func (fv *followValidator) followExists(ctx context.Context, follow *domain.Follow) error {
	ok, err := fv.IsFollowing(ctx, follow.FollowerID, follow.FollowedID)
	if err != nil {
		return err
	}
	if !ok {
		return errs.Errorf(errs.EINVALID, "You are not following this user.")
	}
	return nil
}

func (fv *followValidator) followedIsNotFollower(ctx context.Context, follow *domain.Follow) error {
	if follow.FollowerID == follow.FollowedID {
		return errs.Errorf(errs.EINVALID, "You cannot follow yourself.")
	}
	return nil
}

func (fv *followValidator) followedUserExists(ctx context.Context, follow *domain.Follow) error {
	var count int64
	err := fv.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", follow.FollowedID).Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return errs.Errorf(errs.ENOTFOUND, "The user to follow does not exist.")
	}
	return nil
}

func (fv *followValidator) followerIdValid(ctx context.Context, follow *domain.Follow) error {
	if follow.FollowerID <= 0 {
		return errs.UserIdValid
	}
	return nil
}

// IsFollowing reports whether followerID follows followedID.
func (fg *followGorm) IsFollowing(ctx context.Context, followerID, followedID int) (bool, error) {
	var count int64
	err := fg.db.WithContext(ctx).
		Model(&domain.Follow{}).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Following returns the users the given user follows.
func (fg *followGorm) Following(ctx context.Context, userID int) ([]domain.User, error) {
	var users []domain.User
	err := fg.db.WithContext(ctx).
		Joins("JOIN follows ON follows.followed_id = users.id").
		Where("follows.follower_id = ?", userID).
		Order("follows.created_at desc, follows.id desc").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// Followers returns the users following the given user.
func (fg *followGorm) Followers(ctx context.Context, userID int) ([]domain.User, error) {
	var users []domain.User
	err := fg.db.WithContext(ctx).
		Joins("JOIN follows ON follows.follower_id = users.id").
		Where("follows.followed_id = ?", userID).
		Order("follows.created_at desc, follows.id desc").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// Create inserts the follow unless the pair is already stored.
func (fg *followGorm) Create(ctx context.Context, follow *domain.Follow) error {
	err := fg.db.WithContext(ctx).
		Omit("Follower", "Followed").
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(follow).Error
	if err != nil {
		return storeError(err, "The user to follow does not exist.")
	}
	return nil
}

// Delete removes the follow matching the follower and followed pair.
func (fg *followGorm) Delete(ctx context.Context, follow *domain.Follow) error {
	return fg.db.WithContext(ctx).
		Where("follower_id = ? AND followed_id = ?", follow.FollowerID, follow.FollowedID).
		Delete(&domain.Follow{}).Error
}
