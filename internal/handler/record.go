package handler

import "github.com/sakif/taskapi/internal/model"

// UserRecord is the outward representation of a user. It deliberately has
// no password field: credential material never leaves the service.
type UserRecord struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// TaskRecord is the outward representation of a task. UserID encodes as
// null for an unassigned task.
type TaskRecord struct {
	ID          int64  `json:"id"`
	Task        string `json:"task"`
	Description string `json:"description"`
	UserID      *int64 `json:"user_id"`
}

func NewUserRecord(u *model.User) UserRecord {
	return UserRecord{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
	}
}

// NewUserRecords keeps input order and never returns nil, so an empty
// list encodes as [] rather than null.
func NewUserRecords(users []model.User) []UserRecord {
	out := make([]UserRecord, 0, len(users))
	for i := range users {
		out = append(out, NewUserRecord(&users[i]))
	}
	return out
}

func NewTaskRecord(t *model.Task) TaskRecord {
	return TaskRecord{
		ID:          t.ID,
		Task:        t.Task,
		Description: t.Description,
		UserID:      t.UserID,
	}
}

func NewTaskRecords(tasks []model.Task) []TaskRecord {
	out := make([]TaskRecord, 0, len(tasks))
	for i := range tasks {
		out = append(out, NewTaskRecord(&tasks[i]))
	}
	return out
}
