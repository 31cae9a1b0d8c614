package domain

import (
	"context"
	"time"
)

const (
	// MessageMaxLength is the maximum number of characters a message may have.
	MessageMaxLength = 140
	// FeedLimit is the maximum number of messages shown on the home page.
	FeedLimit = 100
)

// Message is a short text posted by a User. It always belongs to exactly one user,
// whose deletion deletes the message as well. CreatedAt doubles as the message's
// timestamp and defaults to the moment it is stored.
type Message struct {
	ID     int    `json:"id"`
	Text   string `json:"text" gorm:"type:varchar(140);not null"`
	UserID int    `json:"user_id" gorm:"not null;index"`
	User   User   `json:"user" gorm:"constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MessageService is a set of methods to manipulate and work with the Message model.
type MessageService interface {
	ByID(ctx context.Context, id int) (*Message, error)
	ByUserID(ctx context.Context, userID int) ([]Message, error)
	Feed(ctx context.Context, userID, limit int) ([]Message, error)
	Create(ctx context.Context, message *Message) error
	Delete(ctx context.Context, message *Message) error
}
