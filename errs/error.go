package errs

import (
	"errors"
	"fmt"
)

// Application error codes. They're deliberately generic, so that the http
// layer can map them onto a response without knowing which service failed.
const (
	ECONFLICT     = "conflict"
	EINTERNAL     = "internal"
	EINVALID      = "invalid"
	ENOTFOUND     = "not_found"
	EUNAUTHORIZED = "unauthorized"
)

// Error represents an application-specific error. Its Message is meant
// to be shown to the end user, so it must never contain internal details.
type Error struct {
	Code    string
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("warbler error: code=%s message=%s", e.Code, e.Message)
}

// Errorf is a helper for creating an *Error with a code and a formatted message.
func Errorf(code string, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// ErrorCode unwraps an application error and returns its code.
// Non-application errors always return EINTERNAL, nil returns the empty string.
func ErrorCode(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage unwraps an application error and returns its message.
// Non-application errors always return a generic message.
func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Message
	}
	return "Internal error."
}

// Predefined errors that are returned by more than one service.
var (
	// IdInvalid is returned when an ID that is not greater than 0 is used to look up a record.
	IdInvalid = Errorf(EINVALID, "The ID provided is invalid.")
	// UserIdValid is returned when a record without a valid owning user ID is about to be stored.
	UserIdValid = Errorf(EINVALID, "A valid user ID is required.")
	// InvalidCredentials is returned by authentication, whatever part of the credentials was wrong.
	InvalidCredentials = Errorf(EUNAUTHORIZED, "Invalid credentials.")
	// CredentialsTaken is returned when a username or email address is used by another user.
	CredentialsTaken = Errorf(ECONFLICT, "Username or email already in use")
	// AccessUnauthorized is returned when a user acts on a record that isn't theirs to act on.
	AccessUnauthorized = Errorf(EUNAUTHORIZED, "Access unauthorized.")
	// SessionInvalid is returned when a session token does not match any stored session.
	SessionInvalid = Errorf(EUNAUTHORIZED, "Access unauthorized.")
	// TokenTooShort is returned when a session token carries less than 32 bytes of randomness.
	TokenTooShort = Errorf(EINVALID, "The session token must be at least 32 bytes.")
)
