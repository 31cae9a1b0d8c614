package crud

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"warbler/domain"
	"warbler/errs"
)

const (
	usernameMaxLength = 30
	emailMaxLength    = 50
	locationMaxLength = 30
)

// UserService manages Users. It also contains the signup and authentication part of the
// auth system, while the session tokens are handled by the SessionService and the cookies
// by http/auth.go. It implements the domain.UserService interface.
type UserService struct {
	userValidator
}

// userValidator runs validations on incoming User data.
// On success, it passes the data on to userGorm.
// Otherwise, it returns the error of the validation that has failed.
type userValidator struct {
	pepper     string
	emailRegex *regexp.Regexp
	userGorm
}

// userGorm runs CRUD operations on the database using incoming User data.
// It assumes that data has been validated. On success, it returns nil.
// Otherwise, it returns the error of the operation that has failed.
type userGorm struct {
	db *gorm.DB
}

// NewUserService returns an instance of UserService.
func NewUserService(db *gorm.DB, pepper string) *UserService {
	return &UserService{
		userValidator{
			pepper:     pepper,
			emailRegex: regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,16}$`),
			userGorm: userGorm{
				db: db,
			},
		},
	}
}

// Ensure the UserService struct properly implements the domain.UserService interface.
// If it does not, then this expression becomes invalid and won't compile.
var _ domain.UserService = &UserService{}

// Authenticate checks a submitted username and password for existence and correctness.
// Both an unknown username and a wrong password result in errs.InvalidCredentials,
// so callers can't tell which one it was.
func (uv *userValidator) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	found, err := uv.userGorm.ByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errs.ErrorCode(err) == errs.ENOTFOUND {
			return nil, errs.InvalidCredentials
		}
		return nil, err
	}

	// Append the pepper to the submitted password and compare it to the stored bcrypt hash.
	err = bcrypt.CompareHashAndPassword([]byte(found.PasswordHash), []byte(password+uv.pepper))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, errs.InvalidCredentials
		}
		return nil, err
	}
	return found, nil
}

// Signup runs validations needed for creating new User database records.
// It hashes the password and applies the profile defaults.
func (uv *userValidator) Signup(ctx context.Context, user *domain.User) error {
	err := runUserValFns(ctx, user,
		uv.usernameNormalize,
		uv.usernameRequired,
		uv.usernameMaxLength,
		uv.passwordRequired,
		uv.passwordBcrypt,
		uv.passwordHashRequired,
		uv.emailNormalize,
		uv.emailRequired,
		uv.emailMaxLength,
		uv.emailFormat,
		uv.locationMaxLength,
		uv.defaultsSetIfUnset,
		uv.credentialsAvail)
	if err != nil {
		return err
	}
	return uv.userGorm.Create(ctx, user)
}

// Update runs validations needed for updating a User record in the database.
// A new password is only hashed if one is provided.
func (uv *userValidator) Update(ctx context.Context, user *domain.User) error {
	err := runUserValFns(ctx, user,
		uv.idValid,
		uv.usernameNormalize,
		uv.usernameRequired,
		uv.usernameMaxLength,
		uv.passwordBcrypt,
		uv.passwordHashRequired,
		uv.emailNormalize,
		uv.emailRequired,
		uv.emailMaxLength,
		uv.emailFormat,
		uv.locationMaxLength,
		uv.defaultsSetIfUnset,
		uv.credentialsAvail)
	if err != nil {
		return err
	}
	return uv.userGorm.Update(ctx, user)
}

// Delete runs validations needed for deleting a User record.
func (uv *userValidator) Delete(ctx context.Context, id int) error {
	if id <= 0 {
		return errs.IdInvalid
	}
	return uv.userGorm.Delete(ctx, id)
}

// runUserValFns runs any number of functions of type userValFn on the passed in User object.
// If none of them returns an error, it returns nil. Otherwise, it returns the respective error.
func runUserValFns(ctx context.Context, user *domain.User, fns ...userValFn) error {
	for _, fn := range fns {
		if err := fn(ctx, user); err != nil {
			return err
		}
	}
	return nil
}

// A userValFn is any function that takes in a pointer to a domain.User object and returns an error.
type userValFn func(ctx context.Context, user *domain.User) error

// credentialsAvail makes sure that neither the username nor the email address
// is used by another user.
func (uv *userValidator) credentialsAvail(ctx context.Context, user *domain.User) error {
	var count int64
	err := uv.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("(username = ? OR email = ?) AND id <> ?", user.Username, user.Email, user.ID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return errs.CredentialsTaken
	}
	return nil
}

// defaultsSetIfUnset applies the default profile images, bio and location.
func (uv *userValidator) defaultsSetIfUnset(ctx context.Context, user *domain.User) error {
	if strings.TrimSpace(user.ImageURL) == "" {
		user.ImageURL = domain.DefaultImageURL
	}
	if strings.TrimSpace(user.HeaderImageURL) == "" {
		user.HeaderImageURL = domain.DefaultHeaderImageURL
	}
	if strings.TrimSpace(user.Bio) == "" {
		user.Bio = domain.DefaultBio
	}
	if strings.TrimSpace(user.Location) == "" {
		user.Location = domain.DefaultLocation
	}
	return nil
}

// emailFormat makes sure that a provided email address matches a predefined regex pattern.
func (uv *userValidator) emailFormat(ctx context.Context, user *domain.User) error {
	if user.Email == "" {
		return nil
	}
	if !uv.emailRegex.MatchString(user.Email) {
		return errs.Errorf(errs.EINVALID, "The email address is invalid.")
	}
	return nil
}

// emailMaxLength makes sure that the email address fits into its column.
func (uv *userValidator) emailMaxLength(ctx context.Context, user *domain.User) error {
	if utf8.RuneCountInString(user.Email) > emailMaxLength {
		return errs.Errorf(errs.EINVALID, "The email address must not have more than %d characters.", emailMaxLength)
	}
	return nil
}

// emailNormalize converts the email to all lowercase and trims its whitespaces.
func (uv *userValidator) emailNormalize(ctx context.Context, user *domain.User) error {
	user.Email = strings.ToLower(user.Email)
	user.Email = strings.TrimSpace(user.Email)
	return nil
}

// emailRequired makes sure that the email is not the empty string.
func (uv *userValidator) emailRequired(ctx context.Context, user *domain.User) error {
	if user.Email == "" {
		return errs.Errorf(errs.EINVALID, "An email address is required.")
	}
	return nil
}

// idValid makes sure that the user to be updated has an ID.
func (uv *userValidator) idValid(ctx context.Context, user *domain.User) error {
	if user.ID <= 0 {
		return errs.IdInvalid
	}
	return nil
}

func (uv *userValidator) locationMaxLength(ctx context.Context, user *domain.User) error {
	if utf8.RuneCountInString(user.Location) > locationMaxLength {
		return errs.Errorf(errs.EINVALID, "The location must not have more than %d characters.", locationMaxLength)
	}
	return nil
}

// passwordBcrypt hashes a user's password with a predefined pepper.
// It bcrypts it, if the Password field is not the empty string.
// It then clears the password on the user object in memory.
func (uv *userValidator) passwordBcrypt(ctx context.Context, user *domain.User) error {
	if user.Password == "" {
		return nil
	}
	pwBytes := []byte(user.Password + uv.pepper)
	hashedBytes, err := bcrypt.GenerateFromPassword(pwBytes, bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hashedBytes)
	user.Password = ""
	return nil
}

// passwordHashRequired makes sure that the user's password hash is not the empty string.
func (uv *userValidator) passwordHashRequired(ctx context.Context, user *domain.User) error {
	if user.PasswordHash == "" {
		return errs.Errorf(errs.EINVALID, "A password is required.")
	}
	return nil
}

// passwordRequired makes sure that the user's password is not the empty string.
func (uv *userValidator) passwordRequired(ctx context.Context, user *domain.User) error {
	if user.Password == "" {
		return errs.Errorf(errs.EINVALID, "A password is required.")
	}
	return nil
}

func (uv *userValidator) usernameMaxLength(ctx context.Context, user *domain.User) error {
	if utf8.RuneCountInString(user.Username) > usernameMaxLength {
		return errs.Errorf(errs.EINVALID, "The username must not have more than %d characters.", usernameMaxLength)
	}
	return nil
}

func (uv *userValidator) usernameNormalize(ctx context.Context, user *domain.User) error {
	user.Username = strings.TrimSpace(user.Username)
	return nil
}

func (uv *userValidator) usernameRequired(ctx context.Context, user *domain.User) error {
	if user.Username == "" {
		return errs.Errorf(errs.EINVALID, "A username is required.")
	}
	return nil
}

// ByID retrieves a User database record by ID.
func (ug *userGorm) ByID(ctx context.Context, id int) (*domain.User, error) {
	var user domain.User
	err := ug.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		return nil, storeError(err, "The user does not exist.")
	}
	return &user, nil
}

// ByUsername retrieves a User database record by username.
func (ug *userGorm) ByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	err := ug.db.WithContext(ctx).First(&user, "username = ?", username).Error
	if err != nil {
		return nil, storeError(err, "The user does not exist.")
	}
	return &user, nil
}

// Search returns all users whose username contains the term, or every user if the term is empty.
func (ug *userGorm) Search(ctx context.Context, term string) ([]domain.User, error) {
	var users []domain.User
	db := ug.db.WithContext(ctx)
	if term = strings.TrimSpace(term); term != "" {
		db = db.Where("username LIKE ?", "%"+term+"%")
	}
	if err := db.Order("id").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// CountMessages returns the number of messages the user has posted.
func (ug *userGorm) CountMessages(ctx context.Context, id int) (int, error) {
	return ug.count(ctx, &domain.Message{}, "user_id = ?", id)
}

// CountFollowers returns the number of users following the user.
func (ug *userGorm) CountFollowers(ctx context.Context, id int) (int, error) {
	return ug.count(ctx, &domain.Follow{}, "followed_id = ?", id)
}

// CountFollowing returns the number of users the user follows.
func (ug *userGorm) CountFollowing(ctx context.Context, id int) (int, error) {
	return ug.count(ctx, &domain.Follow{}, "follower_id = ?", id)
}

// CountLikes returns the number of messages the user likes.
func (ug *userGorm) CountLikes(ctx context.Context, id int) (int, error) {
	return ug.count(ctx, &domain.Like{}, "user_id = ?", id)
}

func (ug *userGorm) count(ctx context.Context, model interface{}, query string, args ...interface{}) (int, error) {
	var count int64
	err := ug.db.WithContext(ctx).Model(model).Where(query, args...).Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// Create stores the data from the User object in a new database record.
func (ug *userGorm) Create(ctx context.Context, user *domain.User) error {
	err := ug.db.WithContext(ctx).Create(user).Error
	if err != nil {
		return storeError(err, "The user does not exist.")
	}
	return nil
}

// Update saves changes to an existing user record in the database.
func (ug *userGorm) Update(ctx context.Context, user *domain.User) error {
	err := ug.db.WithContext(ctx).Save(user).Error
	if err != nil {
		return storeError(err, "The user does not exist.")
	}
	return nil
}

// Delete permanently deletes a user along with everything that references it: its messages
// and the likes on them, its likes, follows in both directions and its sessions.
// It all happens in one transaction, so a failure leaves the user untouched.
func (ug *userGorm) Delete(ctx context.Context, id int) error {
	return ug.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ownMessages := tx.Model(&domain.Message{}).Select("id").Where("user_id = ?", id)
		if err := tx.Where("user_id = ? OR message_id IN (?)", id, ownMessages).Delete(&domain.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("follower_id = ? OR followed_id = ?", id, id).Delete(&domain.Follow{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&domain.Session{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&domain.Message{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&domain.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errs.Errorf(errs.ENOTFOUND, "The user does not exist.")
		}
		return nil
	})
}
