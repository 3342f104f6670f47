package ports

import (
	"context"
	"time"

	"github.com/setrow/taskboard-backend/internal/core/domain"
)

// AuthService defines the port for authentication business logic.
type AuthService interface {
	Register(ctx context.Context, username, password string) (*domain.User, error)
	Login(ctx context.Context, username, password string) (*domain.User, error)
}

// UserService defines the port for user management.
type UserService interface {
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// CreateTaskParams defines the required input for creating a new task.
type CreateTaskParams struct {
	Title          string
	AssignedUserID *int64
	DueDate        *time.Time
}

// OptionalAssignee carries a tri-state assignee change: absent, clear, or set.
type OptionalAssignee struct {
	Set    bool
	UserID *int64 // nil means unassign
}

// OptionalDueDate carries a tri-state due date change: absent, clear, or set.
type OptionalDueDate struct {
	Set  bool
	Date *time.Time // nil means clear
}

// UpdateTaskParams defines a partial task update. Nil pointer fields and
// unset optionals are left unchanged.
type UpdateTaskParams struct {
	TaskID    int64
	Title     *string
	Completed *bool
	Assignee  OptionalAssignee
	DueDate   OptionalDueDate
}

// IsEmpty reports whether the update changes nothing.
func (p UpdateTaskParams) IsEmpty() bool {
	return p.Title == nil && p.Completed == nil && !p.Assignee.Set && !p.DueDate.Set
}

// TaskService defines the core business operations for managing tasks.
type TaskService interface {
	CreateTask(ctx context.Context, params CreateTaskParams) (*domain.Task, error)
	GetTask(ctx context.Context, id int64) (*domain.Task, error)
	UpdateTask(ctx context.Context, params UpdateTaskParams) (*domain.Task, error)
	DeleteTask(ctx context.Context, id int64) error
	ListTasks(ctx context.Context) ([]*domain.Task, error)
}

// EventPublisher is the port mutation handlers use to fan an event out to
// every connected listener. Publish enqueues and returns; it never blocks on
// a consumer and never reports delivery outcome to the caller.
type EventPublisher interface {
	Publish(event domain.Event)
}
