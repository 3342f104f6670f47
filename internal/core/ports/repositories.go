package ports

import (
	"context"

	"github.com/setrow/taskboard-backend/internal/core/domain"
)

// UserRepository is the port for user persistence.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	// Delete removes the user and unassigns their tasks in one transaction,
	// keeping task history intact.
	Delete(ctx context.Context, id int64) error
}

// TaskRepository is the port for task persistence. Reads return tasks with
// the assignee's username joined in.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	GetByID(ctx context.Context, id int64) (*domain.Task, error)
	Update(ctx context.Context, task *domain.Task) (*domain.Task, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*domain.Task, error)
}
