package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/taskapi/internal/model"
)

const msgTaskDeleted = "Task Deleted!"

type TaskService interface {
	Add(ctx context.Context, title, description string, userID *int64) (*model.Task, error)
	List(ctx context.Context) ([]model.Task, error)
	Delete(ctx context.Context, id int64) error
	Update(ctx context.Context, id int64, patch model.TaskPatch) (*model.Task, error)
}

type addTaskRequest struct {
	Task        string `json:"task" validate:"required"`
	Description string `json:"description" validate:"required"`
	UserID      *int64 `json:"user_id" validate:"omitnil,gt=0"`
}

type updateTaskRequest struct {
	Task        *string `json:"task" validate:"omitnil,min=1"`
	Description *string `json:"description" validate:"omitnil,min=1"`
}

// TaskHandler serves the /task routes.
type TaskHandler struct {
	tasks  TaskService
	logger *slog.Logger
}

func NewTaskHandler(tasks TaskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, logger: logger}
}

// HandleAdd creates a task. user_id is optional and not checked against
// the users table.
//
// HTTP: POST /task/add
// REQUEST BODY: {"task": "T", "description": "D", "user_id": 1}
func (h *TaskHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	var req addTaskRequest
	if err := decodeJSON(r, &req, "task add"); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	task, err := h.tasks.Add(r.Context(), req.Task, req.Description, req.UserID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, NewTaskRecord(task))
}

// HTTP: GET /task/get
func (h *TaskHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.tasks.List(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, NewTaskRecords(tasks))
}

// HTTP: DELETE /task/delete/{id}
func (h *TaskHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.tasks.Delete(r.Context(), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, msgTaskDeleted)
}

// HandleUpdate changes the title and/or description.
//
// HTTP: PUT /task/update/{id}
func (h *TaskHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req updateTaskRequest
	if err := decodeJSON(r, &req, "task update"); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	task, err := h.tasks.Update(r.Context(), id, model.TaskPatch{
		Task:        req.Task,
		Description: req.Description,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, NewTaskRecord(task))
}
