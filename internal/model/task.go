package model

// Task is a unit of work, optionally assigned to a user.
//
// UserID is a nullable reference to User.ID. It is not enforced by the
// store: a task may point at a user that does not exist (or no longer
// exists), and deleting a user leaves its tasks in place.
type Task struct {
	ID          int64  `json:"id"          db:"id"`
	Task        string `json:"task"        db:"task"`
	Description string `json:"description" db:"description"`
	UserID      *int64 `json:"user_id"     db:"user_id"`
}

// UserPatch lists the profile fields of a partial user update.
// A nil field is left unchanged.
type UserPatch struct {
	Username *string
	Email    *string
}

// TaskPatch lists the fields of a partial task update.
// A nil field is left unchanged.
type TaskPatch struct {
	Task        *string
	Description *string
}
