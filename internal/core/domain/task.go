package domain

import (
	"strings"
	"time"

	apperrors "github.com/setrow/taskboard-backend/internal/core/errors"
)

const MaxTitleLength = 255

// Task is the core domain entity of the board.
type Task struct {
	ID             int64
	Title          string
	Completed      bool
	AssignedUserID *int64
	// AssignedUsername is the display name joined from the users table.
	// It is populated on reads and reflects committed state.
	AssignedUsername *string
	CreatedAt        time.Time
	CompletedAt      *time.Time
	DueDate          *time.Time
}

// NewTask is a factory function to create a valid new task.
func NewTask(title string, assignedUserID *int64, dueDate *time.Time) (*Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperrors.ErrTitleRequired
	}
	if len(title) > MaxTitleLength {
		return nil, apperrors.ErrTitleTooLong
	}

	return &Task{
		Title:          title,
		AssignedUserID: assignedUserID,
		DueDate:        dueDate,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// Rename changes the task title, enforcing the same rules as creation.
func (t *Task) Rename(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return apperrors.ErrTitleRequired
	}
	if len(title) > MaxTitleLength {
		return apperrors.ErrTitleTooLong
	}
	t.Title = title
	return nil
}

// SetCompleted marks the task done or not done, stamping CompletedAt.
func (t *Task) SetCompleted(completed bool) {
	t.Completed = completed
	if completed {
		now := time.Now().UTC()
		t.CompletedAt = &now
	} else {
		t.CompletedAt = nil
	}
}

// Assign sets or clears the assignee. A nil ID unassigns the task.
func (t *Task) Assign(userID *int64) {
	t.AssignedUserID = userID
	if userID == nil {
		t.AssignedUsername = nil
	}
}

// IsAssignedTo reports whether the task is assigned to the given user.
func (t *Task) IsAssignedTo(userID int64) bool {
	return t.AssignedUserID != nil && *t.AssignedUserID == userID
}
