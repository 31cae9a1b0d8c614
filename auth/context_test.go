package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"warbler/domain"
)

func TestUserContext(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, GetUser(ctx))

	user := &domain.User{ID: 7, Username: "testuser"}
	ctx = SetUser(ctx, user)
	assert.Same(t, user, GetUser(ctx))

	// A plain string key doesn't collide with the private one.
	ctx = context.WithValue(context.Background(), "user", user)
	assert.Nil(t, GetUser(ctx))
}
