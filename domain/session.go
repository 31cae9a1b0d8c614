package domain

import (
	"context"
	"time"
)

// Session is a server side login. The browser holds Token inside a signed
// cookie, the database only holds its HMAC.
type Session struct {
	ID        int    `json:"-"`
	UserID    int    `json:"-" gorm:"not null;index"`
	User      User   `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Token     string `json:"-" gorm:"-"`
	TokenHash string `json:"-" gorm:"not null;uniqueIndex"`

	CreatedAt time.Time `json:"-"`
}

// SessionService is a set of methods to manipulate and work with the Session model.
type SessionService interface {
	Create(ctx context.Context, userID int) (*Session, error)
	UserByToken(ctx context.Context, token string) (*User, error)
	Delete(ctx context.Context, token string) error
}
