package crud

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warbler/domain"
	"warbler/errs"
)

func TestUserService_Signup(t *testing.T) {
	ctx := context.Background()

	t.Run("applies defaults", func(t *testing.T) {
		s := newTestServices(t)
		user := &domain.User{Username: " testuser ", Email: " Test@Test.COM ", Password: testPassword}
		require.NoError(t, s.User.Signup(ctx, user))

		stored, err := s.User.ByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "testuser", stored.Username)
		assert.Equal(t, "test@test.com", stored.Email)
		assert.Equal(t, domain.DefaultImageURL, stored.ImageURL)
		assert.Equal(t, domain.DefaultHeaderImageURL, stored.HeaderImageURL)
		assert.Equal(t, domain.DefaultBio, stored.Bio)
		assert.Equal(t, domain.DefaultLocation, stored.Location)
	})

	t.Run("hashes the password", func(t *testing.T) {
		s := newTestServices(t)
		user := mustSignup(t, s, "testuser")
		assert.Empty(t, user.Password)

		stored, err := s.User.ByID(ctx, user.ID)
		require.NoError(t, err)
		assert.NotEmpty(t, stored.PasswordHash)
		assert.NotEqual(t, testPassword, stored.PasswordHash)
		assert.True(t, strings.HasPrefix(stored.PasswordHash, "$2a$"))
	})

	t.Run("keeps a given image url", func(t *testing.T) {
		s := newTestServices(t)
		user := &domain.User{Username: "testuser", Email: "test@test.com", Password: testPassword, ImageURL: "http://img/x.png"}
		require.NoError(t, s.User.Signup(ctx, user))
		assert.Equal(t, "http://img/x.png", user.ImageURL)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		s := newTestServices(t)
		for name, user := range map[string]*domain.User{
			"empty password":      {Username: "a", Email: "a@test.com"},
			"empty username":      {Email: "a@test.com", Password: testPassword},
			"empty email":         {Username: "a", Password: testPassword},
			"bad email":           {Username: "a", Email: "not-an-email", Password: testPassword},
			"long username":       {Username: strings.Repeat("a", 31), Email: "a@test.com", Password: testPassword},
			"long location":       {Username: "a", Email: "a@test.com", Password: testPassword, Location: strings.Repeat("l", 31)},
			"whitespace username": {Username: "   ", Email: "a@test.com", Password: testPassword},
		} {
			err := s.User.Signup(ctx, user)
			assert.Equal(t, errs.EINVALID, errs.ErrorCode(err), name)
		}
		users, err := s.User.Search(ctx, "")
		require.NoError(t, err)
		assert.Empty(t, users)
	})

	t.Run("rejects taken credentials", func(t *testing.T) {
		s := newTestServices(t)
		mustSignup(t, s, "testuser")

		err := s.User.Signup(ctx, &domain.User{Username: "testuser", Email: "other@test.com", Password: testPassword})
		assert.Equal(t, errs.ECONFLICT, errs.ErrorCode(err))
		assert.Equal(t, "Username or email already in use", errs.ErrorMessage(err))

		err = s.User.Signup(ctx, &domain.User{Username: "other", Email: "TESTUSER@test.com", Password: testPassword})
		assert.Equal(t, errs.ECONFLICT, errs.ErrorCode(err))

		users, err := s.User.Search(ctx, "")
		require.NoError(t, err)
		assert.Len(t, users, 1)
	})
}

func TestUserService_Authenticate(t *testing.T) {
	ctx := context.Background()
	s := newTestServices(t)
	user := mustSignup(t, s, "testuser")

	found, err := s.User.Authenticate(ctx, "testuser", testPassword)
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	for _, c := range []struct{ username, password string }{
		{"testuser", "wrong"},
		{"nobody", testPassword},
		{"testuser", ""},
		{"", ""},
	} {
		found, err := s.User.Authenticate(ctx, c.username, c.password)
		assert.Nil(t, found)
		assert.Equal(t, errs.InvalidCredentials, err)
	}
}

func TestUserService_Update(t *testing.T) {
	ctx := context.Background()
	s := newTestServices(t)
	user := mustSignup(t, s, "testuser")
	other := mustSignup(t, s, "other")

	user.Bio = "hello there"
	user.Location = "Berlin"
	user.ImageURL = ""
	require.NoError(t, s.User.Update(ctx, user))

	stored, err := s.User.ByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello there", stored.Bio)
	assert.Equal(t, "Berlin", stored.Location)
	assert.Equal(t, domain.DefaultImageURL, stored.ImageURL)
	assert.Equal(t, user.PasswordHash, stored.PasswordHash)

	// Saving without changes doesn't conflict with the user's own credentials.
	require.NoError(t, s.User.Update(ctx, stored))

	stored.Username = other.Username
	err = s.User.Update(ctx, stored)
	assert.Equal(t, errs.ECONFLICT, errs.ErrorCode(err))
}

func TestUserService_Search(t *testing.T) {
	ctx := context.Background()
	s := newTestServices(t)
	mustSignup(t, s, "alice")
	mustSignup(t, s, "alicia")
	mustSignup(t, s, "bob")

	users, err := s.User.Search(ctx, "")
	require.NoError(t, err)
	assert.Len(t, users, 3)

	users, err = s.User.Search(ctx, "ali")
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, "alicia", users[1].Username)

	users, err = s.User.Search(ctx, "zed")
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestUserService_ByID_NotFound(t *testing.T) {
	s := newTestServices(t)
	_, err := s.User.ByID(context.Background(), 42)
	assert.Equal(t, errs.ENOTFOUND, errs.ErrorCode(err))
}

func TestUserService_Delete(t *testing.T) {
	ctx := context.Background()
	s := newTestServices(t)
	u1 := mustSignup(t, s, "u1")
	u2 := mustSignup(t, s, "u2")

	m1 := mustPost(t, s, u1, "hello")
	m2 := mustPost(t, s, u2, "world")
	mustFollow(t, s, u1, u2)
	mustFollow(t, s, u2, u1)
	_, err := s.Like.Toggle(ctx, u2.ID, m1.ID)
	require.NoError(t, err)
	_, err = s.Like.Toggle(ctx, u1.ID, m2.ID)
	require.NoError(t, err)
	session, err := s.Session.Create(ctx, u1.ID)
	require.NoError(t, err)

	require.NoError(t, s.User.Delete(ctx, u1.ID))

	_, err = s.User.ByID(ctx, u1.ID)
	assert.Equal(t, errs.ENOTFOUND, errs.ErrorCode(err))
	_, err = s.Message.ByID(ctx, m1.ID)
	assert.Equal(t, errs.ENOTFOUND, errs.ErrorCode(err))
	_, err = s.Session.UserByToken(ctx, session.Token)
	assert.Equal(t, errs.SessionInvalid, err)

	// u2 and its message survive, without any edge to u1.
	messages, err := s.Message.ByUserID(ctx, u2.ID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, m2.ID, messages[0].ID)

	followers, err := s.User.CountFollowers(ctx, u2.ID)
	require.NoError(t, err)
	assert.Zero(t, followers)
	following, err := s.User.CountFollowing(ctx, u2.ID)
	require.NoError(t, err)
	assert.Zero(t, following)
	likes, err := s.User.CountLikes(ctx, u2.ID)
	require.NoError(t, err)
	assert.Zero(t, likes)

	err = s.User.Delete(ctx, u1.ID)
	assert.Equal(t, errs.ENOTFOUND, errs.ErrorCode(err))
}

func TestUserService_Counts(t *testing.T) {
	ctx := context.Background()
	s := newTestServices(t)
	u1 := mustSignup(t, s, "u1")
	u2 := mustSignup(t, s, "u2")
	u3 := mustSignup(t, s, "u3")

	mustPost(t, s, u1, "one")
	mustPost(t, s, u1, "two")
	m := mustPost(t, s, u2, "three")
	mustFollow(t, s, u2, u1)
	mustFollow(t, s, u3, u1)
	mustFollow(t, s, u1, u3)
	_, err := s.Like.Toggle(ctx, u1.ID, m.ID)
	require.NoError(t, err)

	count, err := s.User.CountMessages(ctx, u1.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = s.User.CountFollowers(ctx, u1.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = s.User.CountFollowing(ctx, u1.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = s.User.CountLikes(ctx, u1.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
