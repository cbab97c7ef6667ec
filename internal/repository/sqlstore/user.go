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

// compile-time check that *UserStore implements repository.UserRepository
var _ repository.UserRepository = (*UserStore)(nil)

const duplicateUserMessage = "username or email already taken"

// UserStore reads and writes the users table.
type UserStore struct {
	db *DB
}

const selectUser = `SELECT id, username, password, email FROM users`

func scanUser(row rowScanner) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Email); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user and sets user.ID.
// A duplicate username or email yields apperror.ErrConflict.
func (s *UserStore) Create(ctx context.Context, user *model.User) error {
	id, err := s.db.insert(ctx,
		`INSERT INTO users (username, password, email) VALUES (?, ?, ?)`,
		user.Username,
		user.PasswordHash,
		user.Email,
	)
	if err != nil {
		if s.db.dialect.isUniqueViolation(err) {
			return apperror.Conflict("user", duplicateUserMessage)
		}
		return fmt.Errorf("sqlstore: inserting user %q: %w", user.Username, err)
	}

	user.ID = id
	return nil
}

// GetByID returns apperror.ErrNotFound if no user has that id.
func (s *UserStore) GetByID(ctx context.Context, id int64) (*model.User, error) {
	u, err := scanUser(s.db.queryRow(ctx, selectUser+` WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlstore: getting user %d: %w", id, err)
	}
	return u, nil
}

// GetByUsername returns apperror.ErrNotFound if no user has that username.
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	u, err := scanUser(s.db.queryRow(ctx, selectUser+` WHERE username = ?`, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFoundBy("user", "username", username)
		}
		return nil, fmt.Errorf("sqlstore: getting user by username: %w", err)
	}
	return u, nil
}

func (s *UserStore) List(ctx context.Context) ([]model.User, error) {
	rows, err := s.db.query(ctx, selectUser+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: scanning user row: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating users: %w", err)
	}

	return users, nil
}

// UpdateProfile writes the non-nil username and email of patch to the row
// id. The password column is never part of the statement.
// Zero affected rows means the user does not exist.
func (s *UserStore) UpdateProfile(ctx context.Context, id int64, patch model.UserPatch) error {
	n, err := s.db.updateColumns(ctx, "users", id,
		column{"username", patch.Username},
		column{"email", patch.Email},
	)
	if err != nil {
		if s.db.dialect.isUniqueViolation(err) {
			return apperror.Conflict("user", duplicateUserMessage)
		}
		return fmt.Errorf("sqlstore: updating user %d: %w", id, err)
	}
	if n == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}

// UpdatePassword replaces the stored hash of the row id and nothing else.
func (s *UserStore) UpdatePassword(ctx context.Context, id int64, hash string) error {
	n, err := s.db.execAffecting(ctx, `UPDATE users SET password = ? WHERE id = ?`, hash, id)
	if err != nil {
		return fmt.Errorf("sqlstore: updating password of user %d: %w", id, err)
	}
	if n == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}

// Delete removes the user row. Tasks that reference it are not touched.
func (s *UserStore) Delete(ctx context.Context, id int64) error {
	n, err := s.db.execAffecting(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlstore: deleting user %d: %w", id, err)
	}
	if n == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}
