package services

import (
	"context"
	"errors"

	"github.com/setrow/taskboard-backend/internal/core/domain"
	apperrors "github.com/setrow/taskboard-backend/internal/core/errors"
	"github.com/setrow/taskboard-backend/internal/core/ports"
)

// AuthService implements authentication business logic
type AuthService struct {
	userRepo ports.UserRepository
}

var _ ports.AuthService = (*AuthService)(nil)

// NewAuthService creates a new authentication service
func NewAuthService(userRepo ports.UserRepository) ports.AuthService {
	return &AuthService{userRepo: userRepo}
}

// Register creates a new user account with validated credentials
func (s *AuthService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	params := domain.UserRegistrationParams{
		Username: username,
		Password: password,
	}

	if err := params.Validate(); err != nil {
		return nil, err
	}

	// Check if the username is already taken
	_, err := s.userRepo.GetByUsername(ctx, username)
	if err == nil {
		return nil, apperrors.ErrUserExists
	}
	if !errors.Is(err, apperrors.ErrUserNotFound) {
		return nil, err // An actual DB error occurred
	}

	user, err := domain.NewUser(params)
	if err != nil {
		return nil, err
	}

	return s.userRepo.Create(ctx, user)
}

// Login verifies credentials and returns the matching user
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			// Same response as a bad password so usernames cannot be probed
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.CheckPassword(password) {
		return nil, apperrors.ErrInvalidCredentials
	}

	return user, nil
}
