package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/setrow/taskboard-backend/internal/core/domain"
	apperrors "github.com/setrow/taskboard-backend/internal/core/errors"
	"github.com/setrow/taskboard-backend/internal/core/ports"
)

// TaskService implements business logic for task management. Every mutation
// publishes its board event synchronously after the repository write
// succeeds; publishing enqueues only, so the caller's response never waits
// on a listener.
type TaskService struct {
	taskRepo  ports.TaskRepository
	userRepo  ports.UserRepository
	publisher ports.EventPublisher
}

var _ ports.TaskService = (*TaskService)(nil)

// NewTaskService creates a new task service
func NewTaskService(
	taskRepo ports.TaskRepository,
	userRepo ports.UserRepository,
	publisher ports.EventPublisher,
) ports.TaskService {
	return &TaskService{
		taskRepo:  taskRepo,
		userRepo:  userRepo,
		publisher: publisher,
	}
}

// CreateTask handles the use case for adding a new task to the board
func (s *TaskService) CreateTask(ctx context.Context, params ports.CreateTaskParams) (*domain.Task, error) {
	if params.AssignedUserID != nil {
		if err := s.checkAssignee(ctx, *params.AssignedUserID); err != nil {
			return nil, err
		}
	}

	task, err := domain.NewTask(params.Title, params.AssignedUserID, params.DueDate)
	if err != nil {
		return nil, err // Validation errors are returned here
	}

	created, err := s.taskRepo.Create(ctx, task)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(domain.NewEvent(
		domain.EventTaskCreated,
		fmt.Sprintf("%q added", created.Title),
		map[string]any{
			"task_id":          created.ID,
			"assigned_user_id": optionalID(created.AssignedUserID),
		},
	))

	return created, nil
}

// GetTask retrieves a single task
func (s *TaskService) GetTask(ctx context.Context, id int64) (*domain.Task, error) {
	return s.taskRepo.GetByID(ctx, id)
}

// UpdateTask applies a partial update and publishes one event per change
// kind: completed/reopened for a completion toggle, assigned for an assignee
// change. Both may fire for a single update, in that order.
func (s *TaskService) UpdateTask(ctx context.Context, params ports.UpdateTaskParams) (*domain.Task, error) {
	if params.IsEmpty() {
		return nil, apperrors.ErrNothingToUpdate
	}

	task, err := s.taskRepo.GetByID(ctx, params.TaskID)
	if err != nil {
		return nil, err
	}

	if params.Title != nil {
		if err := task.Rename(*params.Title); err != nil {
			return nil, err
		}
	}

	if params.Completed != nil {
		task.SetCompleted(*params.Completed)
	}

	if params.Assignee.Set {
		if params.Assignee.UserID != nil {
			if err := s.checkAssignee(ctx, *params.Assignee.UserID); err != nil {
				return nil, err
			}
		}
		task.Assign(params.Assignee.UserID)
	}

	if params.DueDate.Set {
		task.DueDate = params.DueDate.Date
	}

	updated, err := s.taskRepo.Update(ctx, task)
	if err != nil {
		return nil, err
	}

	if params.Completed != nil {
		kind := domain.EventTaskCompleted
		verb := "completed"
		if !*params.Completed {
			kind = domain.EventTaskReopened
			verb = "reopened"
		}
		s.publisher.Publish(domain.NewEvent(
			kind,
			fmt.Sprintf("%q %s", updated.Title, verb),
			map[string]any{"task_id": updated.ID},
		))
	}

	if params.Assignee.Set {
		s.publisher.Publish(domain.NewEvent(
			domain.EventTaskAssigned,
			fmt.Sprintf("%q assigned", updated.Title),
			map[string]any{
				"task_id":           updated.ID,
				"assigned_user_id":  optionalID(updated.AssignedUserID),
				"assigned_username": optionalName(updated.AssignedUsername),
			},
		))
	}

	return updated, nil
}

// DeleteTask removes a task from the board
func (s *TaskService) DeleteTask(ctx context.Context, id int64) error {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.taskRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.publisher.Publish(domain.NewEvent(
		domain.EventTaskDeleted,
		fmt.Sprintf("%q removed", task.Title),
		map[string]any{"task_id": id},
	))

	return nil
}

// ListTasks returns the board in display order: due date first (tasks
// without one last), newest created after that
func (s *TaskService) ListTasks(ctx context.Context) ([]*domain.Task, error) {
	return s.taskRepo.List(ctx)
}

// checkAssignee verifies the target user exists before assignment
func (s *TaskService) checkAssignee(ctx context.Context, userID int64) error {
	_, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return apperrors.ErrAssigneeNotFound
		}
		return err
	}
	return nil
}

// optionalID flattens a nullable ID into a JSON-compatible payload value
func optionalID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

func optionalName(name *string) any {
	if name == nil {
		return nil
	}
	return *name
}
