package crud

import (
	"errors"

	"gorm.io/gorm"

	"warbler/errs"
)

// storeError converts the errors gorm reports for integrity problems into application
// errors. notFound is the message used when the record (or a record it references)
// doesn't exist. Any other error is returned unchanged and ends up as a 500.
// gorm has to be opened with TranslateError for the constraint errors to be recognized.
func storeError(err error, notFound string) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errs.Errorf(errs.ENOTFOUND, notFound)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return errs.Errorf(errs.ENOTFOUND, notFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return errs.CredentialsTaken
	}
	return err
}
