package crud

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"

	"gorm.io/gorm"

	"warbler/domain"
	"warbler/errs"
)

// SessionTokenBytes is the amount of randomness in a session token.
const SessionTokenBytes = 32

// SessionService manages Sessions, the part of the auth system that keeps
// users logged in between requests.
// It implements the domain.SessionService interface.
type SessionService struct {
	sessionValidator
}

type sessionValidator struct {
	hmac tokenHMAC
	sessionGorm
}

type sessionGorm struct {
	db *gorm.DB
}

// NewSessionService returns an instance of SessionService.
func NewSessionService(db *gorm.DB, hmacKey string) *SessionService {
	return &SessionService{
		sessionValidator{
			hmac: newTokenHMAC(hmacKey),
			sessionGorm: sessionGorm{
				db: db,
			},
		},
	}
}

var _ domain.SessionService = &SessionService{}

// Create starts a session for the user. The returned Session carries the plain
// token, which is never stored and can't be recovered later.
func (sv *sessionValidator) Create(ctx context.Context, userID int) (*domain.Session, error) {
	session := &domain.Session{UserID: userID}
	err := runSessionValFns(session,
		sv.userIdValid,
		sv.tokenSetIfUnset,
		sv.tokenMinBytes,
		sv.tokenHmac)
	if err != nil {
		return nil, err
	}
	if err := sv.sessionGorm.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// UserByToken looks up the user owning the session the token belongs to.
// Unknown and malformed tokens both result in errs.SessionInvalid.
func (sv *sessionValidator) UserByToken(ctx context.Context, token string) (*domain.User, error) {
	session := &domain.Session{Token: token}
	if err := runSessionValFns(session, sv.tokenMinBytes, sv.tokenHmac); err != nil {
		return nil, errs.SessionInvalid
	}
	return sv.sessionGorm.UserByTokenHash(ctx, session.TokenHash)
}

// Delete ends the session the token belongs to. Deleting an unknown session is a no-op.
func (sv *sessionValidator) Delete(ctx context.Context, token string) error {
	session := &domain.Session{Token: token}
	if err := runSessionValFns(session, sv.tokenMinBytes, sv.tokenHmac); err != nil {
		return nil
	}
	return sv.sessionGorm.Delete(ctx, session.TokenHash)
}

func runSessionValFns(session *domain.Session, fns ...sessionValFn) error {
	for _, fn := range fns {
		if err := fn(session); err != nil {
			return err
		}
	}
	return nil
}

type sessionValFn func(session *domain.Session) error

// tokenHmac hashes the token with the secret key the service was created with.
func (sv *sessionValidator) tokenHmac(session *domain.Session) error {
	if session.Token == "" {
		return nil
	}
	session.TokenHash = sv.hmac.hash(session.Token)
	return nil
}

// tokenMinBytes makes sure the token carries at least SessionTokenBytes of randomness.
func (sv *sessionValidator) tokenMinBytes(session *domain.Session) error {
	n, err := nBytes(session.Token)
	if err != nil {
		return errs.TokenTooShort
	}
	if n < SessionTokenBytes {
		return errs.TokenTooShort
	}
	return nil
}

func (sv *sessionValidator) tokenSetIfUnset(session *domain.Session) error {
	if session.Token != "" {
		return nil
	}
	token, err := bytesToString(SessionTokenBytes)
	if err != nil {
		return err
	}
	session.Token = token
	return nil
}

func (sv *sessionValidator) userIdValid(session *domain.Session) error {
	if session.UserID <= 0 {
		return errs.UserIdValid
	}
	return nil
}

// Create stores the session.
func (sg *sessionGorm) Create(ctx context.Context, session *domain.Session) error {
	err := sg.db.WithContext(ctx).Omit("User").Create(session).Error
	if err != nil {
		return storeError(err, "The user does not exist.")
	}
	return nil
}

// UserByTokenHash returns the user of the session with the given token hash.
func (sg *sessionGorm) UserByTokenHash(ctx context.Context, tokenHash string) (*domain.User, error) {
	var user domain.User
	err := sg.db.WithContext(ctx).
		Joins("JOIN sessions ON sessions.user_id = users.id").
		Where("sessions.token_hash = ?", tokenHash).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.SessionInvalid
		}
		return nil, err
	}
	return &user, nil
}

// Delete removes the session with the given token hash.
func (sg *sessionGorm) Delete(ctx context.Context, tokenHash string) error {
	return sg.db.WithContext(ctx).Where("token_hash = ?", tokenHash).Delete(&domain.Session{}).Error
}

// tokenHMAC hashes session tokens with a secret key. A new hash.Hash is created
// on every call, so a single tokenHMAC can be shared by concurrent requests.
type tokenHMAC struct {
	key []byte
}

func newTokenHMAC(key string) tokenHMAC {
	return tokenHMAC{key: []byte(key)}
}

func (h tokenHMAC) hash(input string) string {
	mac := hmac.New(sha256.New, h.key)
	mac.Write([]byte(input))
	return base64.URLEncoding.EncodeToString(mac.Sum(nil))
}

// bytes generates n random bytes or returns an error. It uses the
// crypto/rand package, so it can be used for things like session tokens.
func bytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// nBytes returns the number of bytes used in a base64 URL encoded string.
func nBytes(base64String string) (int, error) {
	b, err := base64.URLEncoding.DecodeString(base64String)
	if err != nil {
		return -1, err
	}
	return len(b), nil
}

// bytesToString generates nBytes random bytes and returns them base64 URL encoded.
func bytesToString(nBytes int) (string, error) {
	b, err := bytes(nBytes)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
