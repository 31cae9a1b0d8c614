package domain

import (
	"context"
	"time"
)

// Like represents a many-to-many relationship between a User and a Message.
// A Like is created when a user likes someone else's message, and destroyed when
// the same user likes it again, or when either the user or the message gets deleted.
type Like struct {
	ID        int     `json:"id"`
	UserID    int     `json:"user_id" gorm:"not null;index;uniqueIndex:idx_like_pair"`
	User      User    `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	MessageID int     `json:"message_id" gorm:"not null;index;uniqueIndex:idx_like_pair"`
	Message   Message `json:"-" gorm:"constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"created_at"`
}

// LikeService is a set of methods to manipulate and work with the Like model.
type LikeService interface {
	// Toggle likes the message if the user doesn't like it yet and unlikes it otherwise.
	// It reports whether the user likes the message afterwards.
	Toggle(ctx context.Context, userID, messageID int) (bool, error)
	LikedMessages(ctx context.Context, userID int) ([]Message, error)
	LikedIDs(ctx context.Context, userID int, messageIDs []int) (map[int]bool, error)
}
