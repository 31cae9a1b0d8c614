package crud

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warbler/domain"
	"warbler/errs"
)

func TestSessionService(t *testing.T) {
	ctx := context.Background()
	s := newTestServices(t)
	user := mustSignup(t, s, "testuser")

	session, err := s.Session.Create(ctx, user.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.NotEqual(t, session.Token, session.TokenHash)

	n, err := nBytes(session.Token)
	require.NoError(t, err)
	assert.Equal(t, SessionTokenBytes, n)

	found, err := s.Session.UserByToken(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	var stored domain.Session
	require.NoError(t, s.db.First(&stored, session.ID).Error)
	assert.Equal(t, session.TokenHash, stored.TokenHash)
	assert.Empty(t, stored.Token)

	require.NoError(t, s.Session.Delete(ctx, session.Token))
	_, err = s.Session.UserByToken(ctx, session.Token)
	assert.Equal(t, errs.SessionInvalid, err)
}

func TestSessionService_InvalidTokens(t *testing.T) {
	ctx := context.Background()
	s := newTestServices(t)
	mustSignup(t, s, "testuser")

	other, err := bytesToString(SessionTokenBytes)
	require.NoError(t, err)

	for _, token := range []string{"", "short", "not base64!", other} {
		_, err := s.Session.UserByToken(ctx, token)
		assert.Equal(t, errs.SessionInvalid, err, token)
		assert.NoError(t, s.Session.Delete(ctx, token))
	}

	_, err = s.Session.Create(ctx, 0)
	assert.Equal(t, errs.EINVALID, errs.ErrorCode(err))
}

func TestTokenHMAC(t *testing.T) {
	a := newTokenHMAC("key-a")
	b := newTokenHMAC("key-b")
	assert.Equal(t, a.hash("token"), a.hash("token"))
	assert.NotEqual(t, a.hash("token"), b.hash("token"))
	assert.NotEqual(t, a.hash("token"), a.hash("other"))
}
