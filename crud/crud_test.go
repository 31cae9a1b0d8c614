package crud

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"warbler/domain"
)

const testPassword = "password"

// newTestServices opens a fresh in-memory database named after the test,
// migrates it and returns all services on top of it.
func newTestServices(t *testing.T) *Services {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	s, err := NewServices(db,
		WithUser("test-pepper"),
		WithMessage(),
		WithFollow(),
		WithLike(),
		WithSession("test-hmac-key"))
	require.NoError(t, err)
	require.NoError(t, s.AutoMigrate())
	t.Cleanup(func() { s.Close() })
	return s
}

func mustSignup(t *testing.T, s *Services, username string) *domain.User {
	t.Helper()
	user := &domain.User{
		Username: username,
		Email:    username + "@test.com",
		Password: testPassword,
	}
	require.NoError(t, s.User.Signup(context.Background(), user))
	return user
}

func mustPost(t *testing.T, s *Services, user *domain.User, text string) *domain.Message {
	t.Helper()
	message := &domain.Message{UserID: user.ID, Text: text}
	require.NoError(t, s.Message.Create(context.Background(), message))
	return message
}

func mustFollow(t *testing.T, s *Services, follower, followed *domain.User) {
	t.Helper()
	err := s.Follow.Create(context.Background(), &domain.Follow{FollowerID: follower.ID, FollowedID: followed.ID})
	require.NoError(t, err)
}
