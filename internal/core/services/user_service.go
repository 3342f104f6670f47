package services

import (
	"context"
	"fmt"

	"github.com/setrow/taskboard-backend/internal/core/domain"
	"github.com/setrow/taskboard-backend/internal/core/ports"
)

// UserService implements user management business logic
type UserService struct {
	userRepo  ports.UserRepository
	publisher ports.EventPublisher
}

var _ ports.UserService = (*UserService)(nil)

// NewUserService creates a new user service
func NewUserService(userRepo ports.UserRepository, publisher ports.EventPublisher) ports.UserService {
	return &UserService{
		userRepo:  userRepo,
		publisher: publisher,
	}
}

// GetUser retrieves a single user
func (s *UserService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// ListUsers returns all users, oldest first
func (s *UserService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.userRepo.List(ctx)
}

// DeleteUser removes a user. Their tasks are unassigned, not deleted, so the
// board's history stays intact. The user_deleted event fires only after the
// transaction commits.
func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.publisher.Publish(domain.NewEvent(
		domain.EventUserDeleted,
		fmt.Sprintf("User %q removed", user.Username),
		map[string]any{"user_id": id},
	))

	return nil
}
