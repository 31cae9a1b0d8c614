package domain

import (
	"context"
	"time"
)

// Follow represents a self-referential many-to-many relationship between two users.
// A Follow is created when one user decides to follow another user.
// The FollowerID is the ID of the user that follows, and the FollowedID is the ID of the
// user that is being followed. Each pair exists at most once.
type Follow struct {
	ID         int  `json:"id"`
	FollowerID int  `json:"follower_id" gorm:"not null;index;uniqueIndex:idx_follow_pair"`
	Follower   User `json:"-" gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE"`
	FollowedID int  `json:"followed_id" gorm:"not null;index;uniqueIndex:idx_follow_pair"`
	Followed   User `json:"-" gorm:"foreignKey:FollowedID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"created_at"`
}

// FollowService is a set of methods to manipulate and work with the Follow model.
type FollowService interface {
	Create(ctx context.Context, follow *Follow) error
	Delete(ctx context.Context, follow *Follow) error
	IsFollowing(ctx context.Context, followerID, followedID int) (bool, error)
	Following(ctx context.Context, userID int) ([]User, error)
	Followers(ctx context.Context, userID int) ([]User, error)
}
