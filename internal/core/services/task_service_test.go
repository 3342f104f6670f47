package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/setrow/taskboard-backend/internal/core/domain"
	apperrors "github.com/setrow/taskboard-backend/internal/core/errors"
	"github.com/setrow/taskboard-backend/internal/core/mocks"
	"github.com/setrow/taskboard-backend/internal/core/ports"
	"github.com/setrow/taskboard-backend/internal/core/services"
)

func int64Ptr(v int64) *int64 { return &v }
func strPtr(v string) *string { return &v }
func boolPtr(v bool) *bool    { return &v }

// publishedOfType matches a Publish call carrying an event of the given kind.
func publishedOfType(kind domain.EventType) any {
	return mock.MatchedBy(func(e domain.Event) bool {
		return e.Type == kind
	})
}

func TestTaskService_CreateTask(t *testing.T) {
	ctx := context.Background()

	t.Run("success publishes created event with task and assignee ids", func(t *testing.T) {
		mockTasks := mocks.NewMockTaskRepository()
		mockUsers := mocks.NewMockUserRepository()
		mockPublisher := mocks.NewMockEventPublisher()

		svc := services.NewTaskService(mockTasks, mockUsers, mockPublisher)

		mockUsers.On("GetByID", ctx, int64(7)).Return(&domain.User{ID: 7, Username: "dana"}, nil)
		mockTasks.On("Create", ctx, mock.AnythingOfType("*domain.Task")).
			Return(&domain.Task{
				ID:             1,
				Title:          "Buy milk",
				AssignedUserID: int64Ptr(7),
			}, nil)

		var published domain.Event
		mockPublisher.On("Publish", publishedOfType(domain.EventTaskCreated)).
			Run(func(args mock.Arguments) {
				published = args.Get(0).(domain.Event)
			}).Return()

		task, err := svc.CreateTask(ctx, ports.CreateTaskParams{
			Title:          "Buy milk",
			AssignedUserID: int64Ptr(7),
		})

		require.NoError(t, err)
		assert.Equal(t, int64(1), task.ID)

		assert.Equal(t, `"Buy milk" added`, published.Message)
		assert.Equal(t, int64(1), published.Payload["task_id"])
		assert.Equal(t, int64(7), published.Payload["assigned_user_id"])
		assert.True(t, strings.HasSuffix(published.Timestamp, "Z"))

		mockTasks.AssertExpectations(t)
		mockPublisher.AssertExpectations(t)
	})

	t.Run("unassigned task carries null assignee in payload", func(t *testing.T) {
		mockTasks := mocks.NewMockTaskRepository()
		mockUsers := mocks.NewMockUserRepository()
		mockPublisher := mocks.NewMockEventPublisher()

		svc := services.NewTaskService(mockTasks, mockUsers, mockPublisher)

		mockTasks.On("Create", ctx, mock.AnythingOfType("*domain.Task")).
			Return(&domain.Task{ID: 2, Title: "Water plants"}, nil)

		var published domain.Event
		mockPublisher.On("Publish", publishedOfType(domain.EventTaskCreated)).
			Run(func(args mock.Arguments) {
				published = args.Get(0).(domain.Event)
			}).Return()

		_, err := svc.CreateTask(ctx, ports.CreateTaskParams{Title: "Water plants"})

		require.NoError(t, err)
		assert.Nil(t, published.Payload["assigned_user_id"])
		mockUsers.AssertNotCalled(t, "GetByID")
	})

	t.Run("no event when repository create fails", func(t *testing.T) {
		mockTasks := mocks.NewMockTaskRepository()
		mockUsers := mocks.NewMockUserRepository()
		mockPublisher := mocks.NewMockEventPublisher()

		svc := services.NewTaskService(mockTasks, mockUsers, mockPublisher)

		mockTasks.On("Create", ctx, mock.AnythingOfType("*domain.Task")).
			Return(nil, errors.New("connection reset"))

		_, err := svc.CreateTask(ctx, ports.CreateTaskParams{Title: "Doomed"})

		assert.Error(t, err)
		mockPublisher.AssertNotCalled(t, "Publish", mock.Anything)
	})

	t.Run("unknown assignee is rejected before persisting", func(t *testing.T) {
		mockTasks := mocks.NewMockTaskRepository()
		mockUsers := mocks.NewMockUserRepository()
		mockPublisher := mocks.NewMockEventPublisher()

		svc := services.NewTaskService(mockTasks, mockUsers, mockPublisher)

		mockUsers.On("GetByID", ctx, int64(99)).Return(nil, apperrors.ErrUserNotFound)

		_, err := svc.CreateTask(ctx, ports.CreateTaskParams{
			Title:          "Orphan",
			AssignedUserID: int64Ptr(99),
		})

		assert.ErrorIs(t, err, apperrors.ErrAssigneeNotFound)
		mockTasks.AssertNotCalled(t, "Create")
		mockPublisher.AssertNotCalled(t, "Publish", mock.Anything)
	})

	t.Run("empty title fails validation", func(t *testing.T) {
		mockTasks := mocks.NewMockTaskRepository()
		mockUsers := mocks.NewMockUserRepository()
		mockPublisher := mocks.NewMockEventPublisher()

		svc := services.NewTaskService(mockTasks, mockUsers, mockPublisher)

		_, err := svc.CreateTask(ctx, ports.CreateTaskParams{Title: "   "})

		assert.ErrorIs(t, err, apperrors.ErrTitleRequired)
		mockTasks.AssertNotCalled(t, "Create")
	})
}

func TestTaskService_UpdateTask(t *testing.T) {
	ctx := context.Background()
	taskID := int64(5)

	t.Run("completing publishes completed event", func(t *testing.T) {
		mockTasks := mocks.NewMockTaskRepository()
		mockUsers := mocks.NewMockUserRepository()
		mockPublisher := mocks.NewMockEventPublisher()

		svc := services.NewTaskService(mockTasks, mockUsers, mockPublisher)

		mockTasks.On("GetByID", ctx, taskID).Return(&domain.Task{ID: taskID, Title: "Ship release"}, nil)
		mockTasks.On("Update", ctx, mock.AnythingOfType("*domain.Task")).
			Return(&domain.Task{ID: taskID, Title: "Ship release", Completed: true}, nil)

		var published domain.Event
		mockPublisher.On("Publish", publishedOfType(domain.EventTaskCompleted)).
			Run(func(args mock.Arguments) {
				published = args.Get(0).(domain.Event)
			}).Return()

		task, err := svc.UpdateTask(ctx, ports.UpdateTaskParams{
			TaskID:    taskID,
			Completed: boolPtr(true),
		})

		require.NoError(t, err)
		assert.True(t, task.Completed)
		assert.Equal(t, `"Ship release" completed`, published.Message)
		assert.Equal(t, map[string]any{"task_id": taskID}, published.Payload)
		mockPublisher.AssertNumberOfCalls(t, "Publish", 1)
	})

	t.Run("reopening publishes reopened event", func(t *testing.T) {
		mockTasks := mocks.NewMockTaskRepository()
		mockUsers := mocks.NewMockUserRepository()
		mockPublisher := mocks.NewMockEventPublisher()

		svc := services.NewTaskService(mockTasks, mockUsers, mockPublisher)

		completedAt := time.Now().UTC()
		mockTasks.On("GetByID", ctx, taskID).
			Return(&domain.Task{ID: taskID, Title: "Ship release", Completed: true, CompletedAt: &completedAt}, nil)
		mockTasks.On("Update", ctx, mock.AnythingOfType("*domain.Task")).
			Return(&domain.Task{ID: taskID, Title: "Ship release"}, nil)

		var published domain.Event
		mockPublisher.On("Publish", publishedOfType(domain.EventTaskReopened)).
			Run(func(args mock.Arguments) {
				published = args.Get(0).(domain.Event)
			}).Return()

		_, err := svc.UpdateTask(ctx, ports.UpdateTaskParams{
			TaskID:    taskID,
			Completed: boolPtr(false),
		})

		require.NoError(t, err)
		assert.Equal(t, `"Ship release" reopened`, published.Message)
	})

	t.Run("assignment publishes assigned event with username", func(t *testing.T) {
		mockTasks := mocks.NewMockTaskRepository()
		mockUsers := mocks.NewMockUserRepository()
		mockPublisher := mocks.NewMockEventPublisher()

		svc := services.NewTaskService(mockTasks, mockUsers, mockPublisher)

		mockUsers.On("GetByID", ctx, int64(3)).Return(&domain.User{ID: 3, Username: "morgan"}, nil)
		mockTasks.On("GetByID", ctx, taskID).Return(&domain.Task{ID: taskID, Title: "Review PR"}, nil)
		mockTasks.On("Update", ctx, mock.AnythingOfType("*domain.Task")).
			Return(&domain.Task{
				ID:               taskID,
				Title:            "Review PR",
				AssignedUserID:   int64Ptr(3),
				AssignedUsername: strPtr("morgan"),
			}, nil)

		var published domain.Event
		mockPublisher.On("Publish", publishedOfType(domain.EventTaskAssigned)).
			Run(func(args mock.Arguments) {
				published = args.Get(0).(domain.Event)
			}).Return()

		_, err := svc.UpdateTask(ctx, ports.UpdateTaskParams{
			TaskID:   taskID,
			Assignee: ports.OptionalAssignee{Set: true, UserID: int64Ptr(3)},
		})

		require.NoError(t, err)
		assert.Equal(t, `"Review PR" assigned`, published.Message)
		assert.Equal(t, taskID, published.Payload["task_id"])
		assert.Equal(t, int64(3), published.Payload["assigned_user_id"])
		assert.Equal(t, "morgan", published.Payload["assigned_username"])
	})

	t.Run("unassignment publishes assigned event with nulls", func(t *testing.T) {
		mockTasks := mocks.NewMockTaskRepository()
		mockUsers := mocks.NewMockUserRepository()
		mockPublisher := mocks.NewMockEventPublisher()

		svc := services.NewTaskService(mockTasks, mockUsers, mockPublisher)

		mockTasks.On("GetByID", ctx, taskID).
			Return(&domain.Task{ID: taskID, Title: "Review PR", AssignedUserID: int64Ptr(3)}, nil)
		mockTasks.On("Update", ctx, mock.AnythingOfType("*domain.Task")).
			Return(&domain.Task{ID: taskID, Title: "Review PR"}, nil)

		var published domain.Event
		mockPublisher.On("Publish", publishedOfType(domain.EventTaskAssigned)).
			Run(func(args mock.Arguments) {
				published = args.Get(0).(domain.Event)
			}).Return()

		_, err := svc.UpdateTask(ctx, ports.UpdateTaskParams{
			TaskID:   taskID,
			Assignee: ports.OptionalAssignee{Set: true},
		})

		require.NoError(t, err)
		assert.Nil(t, published.Payload["assigned_user_id"])
		assert.Nil(t, published.Payload["assigned_username"])
		mockUsers.AssertNotCalled(t, "GetByID")
	})

	t.Run("completion toggle and assignment fire two events in order", func(t *testing.T) {
		mockTasks := mocks.NewMockTaskRepository()
		mockUsers := mocks.NewMockUserRepository()
		mockPublisher := mocks.NewMockEventPublisher()

		svc := services.NewTaskService(mockTasks, mockUsers, mockPublisher)

		mockUsers.On("GetByID", ctx, int64(3)).Return(&domain.User{ID: 3, Username: "morgan"}, nil)
		mockTasks.On("GetByID", ctx, taskID).Return(&domain.Task{ID: taskID, Title: "Review PR"}, nil)
		mockTasks.On("Update", ctx, mock.AnythingOfType("*domain.Task")).
			Return(&domain.Task{
				ID:               taskID,
				Title:            "Review PR",
				Completed:        true,
				AssignedUserID:   int64Ptr(3),
				AssignedUsername: strPtr("morgan"),
			}, nil)

		var order []domain.EventType
		mockPublisher.On("Publish", mock.AnythingOfType("domain.Event")).
			Run(func(args mock.Arguments) {
				order = append(order, args.Get(0).(domain.Event).Type)
			}).Return()

		_, err := svc.UpdateTask(ctx, ports.UpdateTaskParams{
			TaskID:    taskID,
			Completed: boolPtr(true),
			Assignee:  ports.OptionalAssignee{Set: true, UserID: int64Ptr(3)},
		})

		require.NoError(t, err)
		assert.Equal(t, []domain.EventType{domain.EventTaskCompleted, domain.EventTaskAssigned}, order)
	})

	t.Run("empty update is rejected", func(t *testing.T) {
		mockTasks := mocks.NewMockTaskRepository()
		mockUsers := mocks.NewMockUserRepository()
		mockPublisher := mocks.NewMockEventPublisher()

		svc := services.NewTaskService(mockTasks, mockUsers, mockPublisher)

		_, err := svc.UpdateTask(ctx, ports.UpdateTaskParams{TaskID: taskID})

		assert.ErrorIs(t, err, apperrors.ErrNothingToUpdate)
		mockTasks.AssertNotCalled(t, "GetByID")
	})

	t.Run("no event when update fails to persist", func(t *testing.T) {
		mockTasks := mocks.NewMockTaskRepository()
		mockUsers := mocks.NewMockUserRepository()
		mockPublisher := mocks.NewMockEventPublisher()

		svc := services.NewTaskService(mockTasks, mockUsers, mockPublisher)

		mockTasks.On("GetByID", ctx, taskID).Return(&domain.Task{ID: taskID, Title: "Ship release"}, nil)
		mockTasks.On("Update", ctx, mock.AnythingOfType("*domain.Task")).
			Return(nil, errors.New("deadlock detected"))

		_, err := svc.UpdateTask(ctx, ports.UpdateTaskParams{
			TaskID:    taskID,
			Completed: boolPtr(true),
		})

		assert.Error(t, err)
		mockPublisher.AssertNotCalled(t, "Publish", mock.Anything)
	})

	t.Run("task not found", func(t *testing.T) {
		mockTasks := mocks.NewMockTaskRepository()
		mockUsers := mocks.NewMockUserRepository()
		mockPublisher := mocks.NewMockEventPublisher()

		svc := services.NewTaskService(mockTasks, mockUsers, mockPublisher)

		mockTasks.On("GetByID", ctx, taskID).Return(nil, apperrors.ErrTaskNotFound)

		_, err := svc.UpdateTask(ctx, ports.UpdateTaskParams{
			TaskID:    taskID,
			Completed: boolPtr(true),
		})

		assert.ErrorIs(t, err, apperrors.ErrTaskNotFound)
	})
}

func TestTaskService_DeleteTask(t *testing.T) {
	ctx := context.Background()
	taskID := int64(11)

	t.Run("success publishes deleted event", func(t *testing.T) {
		mockTasks := mocks.NewMockTaskRepository()
		mockUsers := mocks.NewMockUserRepository()
		mockPublisher := mocks.NewMockEventPublisher()

		svc := services.NewTaskService(mockTasks, mockUsers, mockPublisher)

		mockTasks.On("GetByID", ctx, taskID).Return(&domain.Task{ID: taskID, Title: "Old chore"}, nil)
		mockTasks.On("Delete", ctx, taskID).Return(nil)

		var published domain.Event
		mockPublisher.On("Publish", publishedOfType(domain.EventTaskDeleted)).
			Run(func(args mock.Arguments) {
				published = args.Get(0).(domain.Event)
			}).Return()

		err := svc.DeleteTask(ctx, taskID)

		require.NoError(t, err)
		assert.Equal(t, `"Old chore" removed`, published.Message)
		assert.Equal(t, map[string]any{"task_id": taskID}, published.Payload)
	})

	t.Run("no event when delete fails", func(t *testing.T) {
		mockTasks := mocks.NewMockTaskRepository()
		mockUsers := mocks.NewMockUserRepository()
		mockPublisher := mocks.NewMockEventPublisher()

		svc := services.NewTaskService(mockTasks, mockUsers, mockPublisher)

		mockTasks.On("GetByID", ctx, taskID).Return(&domain.Task{ID: taskID, Title: "Old chore"}, nil)
		mockTasks.On("Delete", ctx, taskID).Return(errors.New("connection reset"))

		err := svc.DeleteTask(ctx, taskID)

		assert.Error(t, err)
		mockPublisher.AssertNotCalled(t, "Publish", mock.Anything)
	})
}
