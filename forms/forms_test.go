package forms

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postForm(values url.Values) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(values.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func TestParse(t *testing.T) {
	r := postForm(url.Values{
		"username":   {"testuser"},
		"email":      {"test@test.com"},
		"password":   {"password"},
		"csrf_token": {"ignored"},
	})
	var form SignupForm
	require.NoError(t, Parse(r, &form))
	assert.Equal(t, SignupForm{Username: "testuser", Email: "test@test.com", Password: "password"}, form)
	assert.Nil(t, Validate(&form))
}

func TestValidate_Signup(t *testing.T) {
	errors := Validate(&SignupForm{
		Username: strings.Repeat("u", 31),
		Email:    "not an email",
		Password: "short",
	})
	require.NotNil(t, errors)
	assert.Equal(t, "Field cannot be longer than 30 characters.", errors["username"])
	assert.Equal(t, "Invalid email address.", errors["email"])
	assert.Equal(t, "Field must be at least 6 characters long.", errors["password"])
	assert.False(t, errors.Has("image_url"))
}

func TestValidate_Required(t *testing.T) {
	errors := Validate(&LoginForm{})
	assert.Equal(t, Errors{
		"username": "This field is required.",
		"password": "This field is required.",
	}, errors)

	errors = Validate(&MessageForm{})
	assert.True(t, errors.Has("text"))
}

func TestValidate_Message(t *testing.T) {
	assert.Nil(t, Validate(&MessageForm{Text: strings.Repeat("x", 140)}))
	errors := Validate(&MessageForm{Text: strings.Repeat("x", 141)})
	assert.Equal(t, "Field cannot be longer than 140 characters.", errors["text"])
}

func TestValidate_UserEdit(t *testing.T) {
	form := UserEditForm{
		Username: "testuser",
		Email:    "test@test.com",
		Password: "password",
	}
	assert.Nil(t, Validate(&form))

	form.Location = strings.Repeat("l", 31)
	form.Password = ""
	errors := Validate(&form)
	assert.True(t, errors.Has("location"))
	assert.True(t, errors.Has("password"))
	assert.Len(t, errors, 2)
}
