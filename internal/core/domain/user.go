package domain

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/setrow/taskboard-backend/internal/core/errors"
)

// Credential constraints for registration.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 64
	MinPasswordLength = 4
	MaxPasswordLength = 128
)

type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// UserRegistrationParams holds parameters for user registration
type UserRegistrationParams struct {
	Username string
	Password string
}

// Validate validates user registration parameters
func (p *UserRegistrationParams) Validate() error {
	errs := apperrors.NewValidationErrors()

	switch {
	case p.Username == "":
		errs.Add("username", "Username is required")
	case len(p.Username) < MinUsernameLength:
		errs.Add("username", "Username must be at least 3 characters")
	case len(p.Username) > MaxUsernameLength:
		errs.Add("username", "Username must be 64 characters or less")
	}

	switch {
	case p.Password == "":
		errs.Add("password", "Password is required")
	case len(p.Password) < MinPasswordLength:
		errs.Add("password", "Password must be at least 4 characters")
	case len(p.Password) > MaxPasswordLength:
		errs.Add("password", "Password must be 128 characters or less")
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// CheckPassword verifies if the provided password matches the stored hash
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// NewUser creates a new user with validated parameters
func NewUser(params UserRegistrationParams) (*User, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	hash, err := HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	return &User{
		Username:     params.Username,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}, nil
}
