// Package repository declares the persistence contracts used by the
// service layer. internal/repository/sqlstore implements them on
// database/sql.
//
// Implementations translate storage outcomes into apperror values:
// a missing row is apperror.ErrNotFound and a uniqueness violation is
// apperror.ErrConflict.
//
// Updates name the columns they change instead of rewriting a whole row
// read earlier, so two requests touching different columns of the same
// row cannot undo each other.
package repository

import (
	"context"

	"github.com/sakif/taskapi/internal/model"
)

type UserRepository interface {
	// Create inserts the user and sets user.ID.
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	// List returns every user ordered by id.
	List(ctx context.Context) ([]model.User, error)
	// UpdateProfile writes the non-nil fields of patch to the row id and
	// leaves every other column, including the password hash, untouched.
	UpdateProfile(ctx context.Context, id int64, patch model.UserPatch) error
	// UpdatePassword replaces only the stored hash of the row id.
	UpdatePassword(ctx context.Context, id int64, hash string) error
	Delete(ctx context.Context, id int64) error
}

type TaskRepository interface {
	// Create inserts the task and sets task.ID.
	Create(ctx context.Context, task *model.Task) error
	GetByID(ctx context.Context, id int64) (*model.Task, error)
	// List returns every task ordered by id.
	List(ctx context.Context) ([]model.Task, error)
	// Update writes the non-nil fields of patch to the row id.
	Update(ctx context.Context, id int64, patch model.TaskPatch) error
	Delete(ctx context.Context, id int64) error
}
