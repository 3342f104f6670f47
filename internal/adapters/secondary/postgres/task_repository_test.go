package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/setrow/taskboard-backend/internal/core/domain"
	"github.com/setrow/taskboard-backend/internal/core/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskRepository_CreateGet(t *testing.T) {
	ctx := context.Background()
	taskRepo, userRepo := newTestRepos(t)

	user := createTestUser(t, userRepo)
	due := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)

	created, err := taskRepo.Create(ctx, &domain.Task{
		Title:          "Write the report",
		AssignedUserID: &user.ID,
		CreatedAt:      time.Now().UTC(),
		DueDate:        &due,
	})
	require.NoError(t, err, "Failed to create task")

	assert.NotZero(t, created.ID)
	assert.Equal(t, "Write the report", created.Title)
	assert.False(t, created.Completed)
	require.NotNil(t, created.AssignedUserID)
	assert.Equal(t, user.ID, *created.AssignedUserID)
	require.NotNil(t, created.AssignedUsername, "username should be joined in on reads")
	assert.Equal(t, user.Username, *created.AssignedUsername)
	require.NotNil(t, created.DueDate)
	assert.Equal(t, due.Format("2006-01-02"), created.DueDate.Format("2006-01-02"))

	found, err := taskRepo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
}

func TestTaskRepository_Create_UnknownAssignee(t *testing.T) {
	ctx := context.Background()
	taskRepo, _ := newTestRepos(t)

	missing := int64(999999999)
	_, err := taskRepo.Create(ctx, &domain.Task{
		Title:          "Orphan",
		AssignedUserID: &missing,
		CreatedAt:      time.Now().UTC(),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrAssigneeNotFound)
}

func TestTaskRepository_Update(t *testing.T) {
	ctx := context.Background()
	taskRepo, userRepo := newTestRepos(t)

	user := createTestUser(t, userRepo)

	task, err := taskRepo.Create(ctx, &domain.Task{
		Title:     "Draft",
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	task.Title = "Final"
	task.SetCompleted(true)
	task.Assign(&user.ID)

	updated, err := taskRepo.Update(ctx, task)
	require.NoError(t, err, "Failed to update task")

	assert.Equal(t, "Final", updated.Title)
	assert.True(t, updated.Completed)
	require.NotNil(t, updated.CompletedAt)
	require.NotNil(t, updated.AssignedUserID)
	assert.Equal(t, user.ID, *updated.AssignedUserID)
	require.NotNil(t, updated.AssignedUsername)
	assert.Equal(t, user.Username, *updated.AssignedUsername)
}

func TestTaskRepository_Update_NotFound(t *testing.T) {
	ctx := context.Background()
	taskRepo, _ := newTestRepos(t)

	_, err := taskRepo.Update(ctx, &domain.Task{ID: 999999999, Title: "Ghost"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrTaskNotFound)
}

func TestTaskRepository_Delete(t *testing.T) {
	ctx := context.Background()
	taskRepo, _ := newTestRepos(t)

	task, err := taskRepo.Create(ctx, &domain.Task{
		Title:     "Short lived",
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	require.NoError(t, taskRepo.Delete(ctx, task.ID))

	_, err = taskRepo.GetByID(ctx, task.ID)
	assert.ErrorIs(t, err, errors.ErrTaskNotFound)

	err = taskRepo.Delete(ctx, task.ID)
	assert.ErrorIs(t, err, errors.ErrTaskNotFound)
}

func TestTaskRepository_List_Ordering(t *testing.T) {
	ctx := context.Background()
	taskRepo, _ := newTestRepos(t)

	base := time.Now().UTC()
	near := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	far := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)

	undated, err := taskRepo.Create(ctx, &domain.Task{
		Title: "No due date", CreatedAt: base,
	})
	require.NoError(t, err)

	farTask, err := taskRepo.Create(ctx, &domain.Task{
		Title: "Due later", CreatedAt: base.Add(time.Second), DueDate: &far,
	})
	require.NoError(t, err)

	nearTask, err := taskRepo.Create(ctx, &domain.Task{
		Title: "Due soon", CreatedAt: base.Add(2 * time.Second), DueDate: &near,
	})
	require.NoError(t, err)

	tasks, err := taskRepo.List(ctx)
	require.NoError(t, err)

	// Dated tasks come first ordered by due date; undated tasks sort last.
	positions := make(map[int64]int)
	for i, task := range tasks {
		positions[task.ID] = i
	}

	require.Contains(t, positions, undated.ID)
	require.Contains(t, positions, farTask.ID)
	require.Contains(t, positions, nearTask.ID)

	assert.Less(t, positions[nearTask.ID], positions[farTask.ID])
	assert.Less(t, positions[farTask.ID], positions[undated.ID])
}
