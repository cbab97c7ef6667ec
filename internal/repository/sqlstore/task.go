package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sakif/taskapi/internal/apperror"
	"github.com/sakif/taskapi/internal/model"
	"github.com/sakif/taskapi/internal/repository"
)

var _ repository.TaskRepository = (*TaskStore)(nil)

// TaskStore reads and writes the tasks table.
type TaskStore struct {
	db *DB
}

const selectTask = `SELECT id, task, description, user_id FROM tasks`

func scanTask(row rowScanner) (*model.Task, error) {
	var (
		t      model.Task
		userID sql.NullInt64
	)
	if err := row.Scan(&t.ID, &t.Task, &t.Description, &userID); err != nil {
		return nil, err
	}
	if userID.Valid {
		id := userID.Int64
		t.UserID = &id
	}
	return &t, nil
}

// nullableID converts an optional reference into a driver value.
func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

// Create inserts a new task and sets task.ID. UserID is stored as given;
// it is not checked against the users table.
func (s *TaskStore) Create(ctx context.Context, task *model.Task) error {
	id, err := s.db.insert(ctx,
		`INSERT INTO tasks (task, description, user_id) VALUES (?, ?, ?)`,
		task.Task,
		task.Description,
		nullableID(task.UserID),
	)
	if err != nil {
		return fmt.Errorf("sqlstore: inserting task: %w", err)
	}

	task.ID = id
	return nil
}

func (s *TaskStore) GetByID(ctx context.Context, id int64) (*model.Task, error) {
	t, err := scanTask(s.db.queryRow(ctx, selectTask+` WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("task", id)
		}
		return nil, fmt.Errorf("sqlstore: getting task %d: %w", id, err)
	}
	return t, nil
}

func (s *TaskStore) List(ctx context.Context) ([]model.Task, error) {
	rows, err := s.db.query(ctx, selectTask+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]model.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: scanning task row: %w", err)
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating tasks: %w", err)
	}

	return tasks, nil
}

// Update writes the non-nil title and description of patch to the row id.
// The owner is not changed by updates.
func (s *TaskStore) Update(ctx context.Context, id int64, patch model.TaskPatch) error {
	n, err := s.db.updateColumns(ctx, "tasks", id,
		column{"task", patch.Task},
		column{"description", patch.Description},
	)
	if err != nil {
		return fmt.Errorf("sqlstore: updating task %d: %w", id, err)
	}
	if n == 0 {
		return apperror.NotFound("task", id)
	}
	return nil
}

func (s *TaskStore) Delete(ctx context.Context, id int64) error {
	n, err := s.db.execAffecting(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlstore: deleting task %d: %w", id, err)
	}
	if n == 0 {
		return apperror.NotFound("task", id)
	}
	return nil
}
