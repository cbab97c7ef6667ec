package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"

	"github.com/sakif/taskapi/internal/apperror"
	"github.com/sakif/taskapi/internal/model"
)

// =========================================================================
// FAKE REPOSITORIES
// =========================================================================
//
// In-memory implementations of the repository interfaces. They mirror the
// uniqueness and not-found behaviour of the SQL store, and each can be told
// to fail with err to simulate a broken database.

type fakeUserRepo struct {
	users  map[int64]model.User
	nextID int64
	err    error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]model.User)}
}

func (f *fakeUserRepo) taken(u *model.User) bool {
	for id, other := range f.users {
		if id != u.ID && (other.Username == u.Username || other.Email == u.Email) {
			return true
		}
	}
	return false
}

func (f *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	if f.err != nil {
		return f.err
	}
	if f.taken(u) {
		return apperror.Conflict("user", "username or email already taken")
	}
	f.nextID++
	u.ID = f.nextID
	f.users[u.ID] = *u
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int64) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	return &u, nil
}

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, apperror.NotFoundBy("user", "username", username)
}

func (f *fakeUserRepo) List(_ context.Context) ([]model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]model.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeUserRepo) UpdateProfile(_ context.Context, id int64, patch model.UserPatch) error {
	if f.err != nil {
		return f.err
	}
	u, ok := f.users[id]
	if !ok {
		return apperror.NotFound("user", id)
	}
	if patch.Username != nil {
		u.Username = *patch.Username
	}
	if patch.Email != nil {
		u.Email = *patch.Email
	}
	if f.taken(&u) {
		return apperror.Conflict("user", "username or email already taken")
	}
	f.users[id] = u
	return nil
}

func (f *fakeUserRepo) UpdatePassword(_ context.Context, id int64, hash string) error {
	if f.err != nil {
		return f.err
	}
	u, ok := f.users[id]
	if !ok {
		return apperror.NotFound("user", id)
	}
	u.PasswordHash = hash
	f.users[id] = u
	return nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id int64) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := f.users[id]; !ok {
		return apperror.NotFound("user", id)
	}
	delete(f.users, id)
	return nil
}

type fakeTaskRepo struct {
	tasks  map[int64]model.Task
	nextID int64
	err    error
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: make(map[int64]model.Task)}
}

func (f *fakeTaskRepo) Create(_ context.Context, t *model.Task) error {
	if f.err != nil {
		return f.err
	}
	f.nextID++
	t.ID = f.nextID
	f.tasks[t.ID] = *t
	return nil
}

func (f *fakeTaskRepo) GetByID(_ context.Context, id int64) (*model.Task, error) {
	if f.err != nil {
		return nil, f.err
	}
	t, ok := f.tasks[id]
	if !ok {
		return nil, apperror.NotFound("task", id)
	}
	return &t, nil
}

func (f *fakeTaskRepo) List(_ context.Context) ([]model.Task, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]model.Task, 0, len(f.tasks))
	for _, t := range f.tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeTaskRepo) Update(_ context.Context, id int64, patch model.TaskPatch) error {
	if f.err != nil {
		return f.err
	}
	t, ok := f.tasks[id]
	if !ok {
		return apperror.NotFound("task", id)
	}
	if patch.Task != nil {
		t.Task = *patch.Task
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	f.tasks[id] = t
	return nil
}

func (f *fakeTaskRepo) Delete(_ context.Context, id int64) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := f.tasks[id]; !ok {
		return apperror.NotFound("task", id)
	}
	delete(f.tasks, id)
	return nil
}

var errDatabaseDown = errors.New("database is down")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
