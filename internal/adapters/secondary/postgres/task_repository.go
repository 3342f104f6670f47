package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/setrow/taskboard-backend/internal/core/domain"
	apperrors "github.com/setrow/taskboard-backend/internal/core/errors"
	"github.com/setrow/taskboard-backend/internal/core/ports"
)

// foreignKeyViolation is the postgres error code for foreign key violations
const foreignKeyViolation = "23503"

// taskColumns is the select list shared by every task read. The assignee
// username is joined in so responses and event payloads reflect committed
// state without a second query.
const taskColumns = `
	t.id, t.title, t.completed, t.assigned_user_id, u.username,
	t.created_at, t.completed_at, t.due_date`

type TaskRepository struct {
	pool *pgxpool.Pool
}

var _ ports.TaskRepository = (*TaskRepository)(nil)

func NewTaskRepository(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{pool: pool}
}

func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	const query = `
		INSERT INTO tasks (title, completed, assigned_user_id, created_at, due_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	var id int64
	err := r.pool.QueryRow(ctx, query,
		task.Title, task.Completed, task.AssignedUserID, task.CreatedAt, task.DueDate,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return nil, apperrors.ErrAssigneeNotFound
		}
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return r.GetByID(ctx, id)
}

func (r *TaskRepository) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	query := `
		SELECT` + taskColumns + `
		FROM tasks t
		LEFT JOIN users u ON u.id = t.assigned_user_id
		WHERE t.id = $1`

	task, err := scanTask(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

func (r *TaskRepository) Update(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	const query = `
		UPDATE tasks
		SET title = $2, completed = $3, assigned_user_id = $4,
		    completed_at = $5, due_date = $6
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query,
		task.ID, task.Title, task.Completed, task.AssignedUserID,
		task.CompletedAt, task.DueDate,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return nil, apperrors.ErrAssigneeNotFound
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, apperrors.ErrTaskNotFound
	}

	return r.GetByID(ctx, task.ID)
}

func (r *TaskRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrTaskNotFound
	}
	return nil
}

// List returns all tasks, soonest due first with undated tasks last, newest
// created first within the same due date.
func (r *TaskRepository) List(ctx context.Context) ([]*domain.Task, error) {
	query := `
		SELECT` + taskColumns + `
		FROM tasks t
		LEFT JOIN users u ON u.id = t.assigned_user_id
		ORDER BY t.due_date ASC NULLS LAST, t.created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]*domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}

	return tasks, rows.Err()
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	task := &domain.Task{}
	err := row.Scan(
		&task.ID, &task.Title, &task.Completed, &task.AssignedUserID,
		&task.AssignedUsername, &task.CreatedAt, &task.CompletedAt, &task.DueDate,
	)
	if err != nil {
		return nil, err
	}
	return task, nil
}
