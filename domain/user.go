package domain

import (
	"context"
	"time"
)

const (
	// DefaultImageURL is the profile image of users who didn't provide one.
	DefaultImageURL = "/static/images/default-pic.png"
	// DefaultHeaderImageURL is the profile header image of users who didn't provide one.
	DefaultHeaderImageURL = "/static/images/warbler-hero.jpg"
	// DefaultBio is the bio of users who didn't write one.
	DefaultBio = ""
	// DefaultLocation is the location of users who didn't provide one.
	DefaultLocation = ""
)

// User represents a registered Warbler account. Password only ever lives in
// memory between a form submission and the moment it gets hashed into PasswordHash.
// The count fields aren't stored, they're set when a profile gets rendered.
type User struct {
	ID             int    `json:"id"`
	Username       string `json:"username" gorm:"type:varchar(30);not null;uniqueIndex"`
	Email          string `json:"email" gorm:"type:varchar(50);not null;uniqueIndex"`
	Password       string `json:"-" gorm:"-"`
	PasswordHash   string `json:"-" gorm:"not null"`
	ImageURL       string `json:"image_url" gorm:"type:varchar(255)"`
	HeaderImageURL string `json:"header_image_url" gorm:"type:varchar(255)"`
	Bio            string `json:"bio" gorm:"type:text"`
	Location       string `json:"location" gorm:"type:varchar(30)"`

	MessageCount   int `json:"message_count" gorm:"-"`
	FollowerCount  int `json:"follower_count" gorm:"-"`
	FollowingCount int `json:"following_count" gorm:"-"`
	LikeCount      int `json:"like_count" gorm:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserService is a set of methods to manipulate and work with the User model.
type UserService interface {
	ByID(ctx context.Context, id int) (*User, error)
	ByUsername(ctx context.Context, username string) (*User, error)
	Search(ctx context.Context, term string) ([]User, error)
	Authenticate(ctx context.Context, username, password string) (*User, error)
	Signup(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, id int) error
	CountMessages(ctx context.Context, id int) (int, error)
	CountFollowers(ctx context.Context, id int) (int, error)
	CountFollowing(ctx context.Context, id int) (int, error)
	CountLikes(ctx context.Context, id int) (int, error)
}
