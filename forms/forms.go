// Package forms decodes and validates the html forms of the app.
package forms

import (
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
)

var (
	decoder  = newDecoder()
	validate = newValidate()
)

func newDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	// The csrf token and the submit button are posted along with every form.
	d.IgnoreUnknownKeys(true)
	return d
}

func newValidate() *validator.Validate {
	v := validator.New()
	// Report fields by their form name, so errors can be shown next to the inputs.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("schema"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Errors maps form field names to a message describing what's wrong with them.
type Errors map[string]string

// Has reports whether the field failed validation.
func (e Errors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

// Parse decodes the posted form values of r into dst, which must be a pointer to a form struct.
func Parse(r *http.Request, dst interface{}) error {
	if err := r.ParseForm(); err != nil {
		return err
	}
	return decoder.Decode(dst, r.PostForm)
}

// Validate checks dst against its validate tags. It returns nil if dst is valid.
func Validate(dst interface{}) Errors {
	err := validate.Struct(dst)
	if err == nil {
		return nil
	}
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return Errors{"": err.Error()}
	}
	errors := make(Errors, len(validationErrors))
	for _, fe := range validationErrors {
		if _, seen := errors[fe.Field()]; !seen {
			errors[fe.Field()] = message(fe)
		}
	}
	return errors
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Invalid email address."
	case "url":
		return "Invalid URL."
	case "min":
		return fmt.Sprintf("Field must be at least %s characters long.", fe.Param())
	case "max":
		return fmt.Sprintf("Field cannot be longer than %s characters.", fe.Param())
	}
	return "Invalid value."
}

// SignupForm is posted to create a new account.
type SignupForm struct {
	Username string `schema:"username" validate:"required,max=30"`
	Email    string `schema:"email" validate:"required,email,max=50"`
	Password string `schema:"password" validate:"required,min=6"`
	ImageURL string `schema:"image_url" validate:"omitempty,max=255"`
}

// LoginForm is posted to log in.
type LoginForm struct {
	Username string `schema:"username" validate:"required"`
	Password string `schema:"password" validate:"required,min=6"`
}

// MessageForm is posted to write a new message.
type MessageForm struct {
	Text string `schema:"text" validate:"required,max=140"`
}

// UserEditForm is posted to update the current user's profile.
// Password is the current password, which has to be confirmed for any change.
type UserEditForm struct {
	Username       string `schema:"username" validate:"required,max=30"`
	Email          string `schema:"email" validate:"required,email,max=50"`
	ImageURL       string `schema:"image_url" validate:"omitempty,max=255"`
	HeaderImageURL string `schema:"header_image_url" validate:"omitempty,max=255"`
	Bio            string `schema:"bio"`
	Location       string `schema:"location" validate:"omitempty,max=30"`
	Password       string `schema:"password" validate:"required,min=6"`
}
