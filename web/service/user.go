package service

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/mapavioleta/mapavioleta/database"
	"github.com/mapavioleta/mapavioleta/database/model"
	"github.com/mapavioleta/mapavioleta/util/common"
	"github.com/mapavioleta/mapavioleta/util/crypto"

	"gorm.io/gorm"
)

const (
	minPasswordLength = 6
	maxHandleLength   = 50
	maxEmailLength    = 100
	maxPronounsLength = 20
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Registration is the input of UserService.Register.
type Registration struct {
	Handle   string
	Email    string
	Password string
	Pronouns string
}

// UserService is the credential store: it registers accounts, checks
// passwords and resolves session principals.
type UserService struct{}

// ValidateEmail reports whether email looks like a deliverable address.
func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidatePassword enforces the minimum length in characters and the
// bcrypt input limit in bytes.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return common.ErrWeakPassword
	}
	if len(password) > crypto.MaxPasswordBytes {
		return common.ErrPasswordTooLong
	}
	return nil
}

func (r *Registration) normalize() {
	r.Handle = strings.TrimSpace(r.Handle)
	r.Email = strings.TrimSpace(r.Email)
	r.Pronouns = strings.TrimSpace(r.Pronouns)
}

func (r *Registration) validate() error {
	switch {
	case r.Handle == "":
		return common.WithField(common.ErrMissingField, "handle")
	case r.Email == "":
		return common.WithField(common.ErrMissingField, "email")
	case r.Password == "":
		return common.WithField(common.ErrMissingField, "password")
	case utf8.RuneCountInString(r.Handle) > maxHandleLength:
		return common.WithField(common.ErrFieldTooLong, "handle")
	case utf8.RuneCountInString(r.Email) > maxEmailLength:
		return common.WithField(common.ErrFieldTooLong, "email")
	case utf8.RuneCountInString(r.Pronouns) > maxPronounsLength:
		return common.WithField(common.ErrFieldTooLong, "pronouns")
	case !ValidateEmail(r.Email):
		return common.ErrInvalidEmail
	}
	return ValidatePassword(r.Password)
}

// Register creates a non-admin account. The email is checked for
// duplicates before the handle; a unique-index race surfaces as a generic
// account conflict.
func (s *UserService) Register(ctx context.Context, reg Registration) (*model.User, error) {
	reg.normalize()
	if err := reg.validate(); err != nil {
		return nil, err
	}

	hash, err := crypto.HashPassword(reg.Password)
	if err != nil {
		return nil, common.StoreError(err)
	}
	user := &model.User{
		Handle:       reg.Handle,
		Email:        reg.Email,
		PasswordHash: hash,
		Pronouns:     reg.Pronouns,
	}

	err = database.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.User{}).Where("email = ?", user.Email).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return common.ErrDuplicateEmail
		}
		if err := tx.Model(&model.User{}).Where("handle = ?", user.Handle).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return common.ErrDuplicateHandle
		}
		return tx.Create(user).Error
	})
	if database.IsDuplicate(err) {
		return nil, common.ErrDuplicateAccount
	}
	if err != nil {
		return nil, common.StoreError(err)
	}
	return user, nil
}

// Authenticate checks an email/password pair. Unknown emails and wrong
// passwords fail identically.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, common.ErrInvalidCredentials
	}

	user := &model.User{}
	err := database.GetDB().WithContext(ctx).
		Where("email = ?", email).
		First(user).
		Error
	if database.IsNotFound(err) {
		return nil, common.ErrInvalidCredentials
	} else if err != nil {
		return nil, common.StoreError(err)
	}

	if !crypto.CheckPasswordHash(user.PasswordHash, password) {
		return nil, common.ErrInvalidCredentials
	}
	return user, nil
}

// GetUser loads a user by id.
func (s *UserService) GetUser(ctx context.Context, id int) (*model.User, error) {
	user := &model.User{}
	err := database.GetDB().WithContext(ctx).First(user, id).Error
	if database.IsNotFound(err) {
		return nil, common.ErrNotFound
	} else if err != nil {
		return nil, common.StoreError(err)
	}
	return user, nil
}

// RequireIdentity resolves the session principal. A missing id or an id
// whose account no longer exists is unauthenticated.
func (s *UserService) RequireIdentity(ctx context.Context, id int, ok bool) (*model.User, error) {
	if !ok || id <= 0 {
		return nil, common.ErrUnauthenticated
	}
	user, err := s.GetUser(ctx, id)
	if common.KindOf(err) == common.KindNotFound {
		return nil, common.ErrUnauthenticated
	}
	return user, err
}

// CreateAdmin registers an account and grants it administrator rights.
func (s *UserService) CreateAdmin(ctx context.Context, reg Registration) (*model.User, error) {
	user, err := s.Register(ctx, reg)
	if err != nil {
		return nil, err
	}
	if err := s.SetAdmin(ctx, user.Email, true); err != nil {
		return nil, err
	}
	user.IsAdmin = true
	return user, nil
}

// SetAdmin grants or revokes administrator rights by email.
func (s *UserService) SetAdmin(ctx context.Context, email string, admin bool) error {
	result := database.GetDB().WithContext(ctx).
		Model(&model.User{}).
		Where("email = ?", strings.TrimSpace(email)).
		Update("is_admin", admin)
	if result.Error != nil {
		return common.StoreError(result.Error)
	}
	if result.RowsAffected == 0 {
		return common.ErrNotFound
	}
	return nil
}
