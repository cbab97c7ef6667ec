package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/taskapi/internal/apperror"
	"github.com/sakif/taskapi/internal/model"
	"github.com/sakif/taskapi/internal/repository"
)

// TaskService handles task records.
type TaskService struct {
	tasks  repository.TaskRepository
	logger *slog.Logger
}

func NewTaskService(tasks repository.TaskRepository, logger *slog.Logger) *TaskService {
	return &TaskService{
		tasks:  tasks,
		logger: logger,
	}
}

// Add creates a task. userID may be nil; when set it is stored without
// checking that the user exists.
func (s *TaskService) Add(ctx context.Context, title, description string, userID *int64) (*model.Task, error) {
	title, err := requireText("task", title)
	if err != nil {
		return nil, err
	}
	description, err = requireText("description", description)
	if err != nil {
		return nil, err
	}
	if userID != nil {
		if err := requireID("user", *userID); err != nil {
			return nil, err
		}
	}

	task := &model.Task{
		Task:        title,
		Description: description,
		UserID:      userID,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		s.logger.Error("failed to create task", slog.String("error", err.Error()))
		return nil, fmt.Errorf("creating task: %w", err)
	}

	s.logger.Info("task created", slog.Int64("id", task.ID))
	return task, nil
}

// List returns every task ordered by id.
func (s *TaskService) List(ctx context.Context) ([]model.Task, error) {
	tasks, err := s.tasks.List(ctx)
	if err != nil {
		s.logger.Error("failed to list tasks", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) Delete(ctx context.Context, id int64) error {
	if err := requireID("task", id); err != nil {
		return err
	}
	if err := s.tasks.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("task deleted", slog.Int64("id", id))
	return nil
}

// Update changes the title and/or description. Nil patch fields are left
// as they are and are not written.
func (s *TaskService) Update(ctx context.Context, id int64, patch model.TaskPatch) (*model.Task, error) {
	if err := requireID("task", id); err != nil {
		return nil, err
	}

	var clean model.TaskPatch
	if patch.Task != nil {
		title, err := requireText("task", *patch.Task)
		if err != nil {
			return nil, err
		}
		clean.Task = &title
	}
	if patch.Description != nil {
		description, err := requireText("description", *patch.Description)
		if err != nil {
			return nil, err
		}
		clean.Description = &description
	}

	if clean.Task != nil || clean.Description != nil {
		if err := s.tasks.Update(ctx, id, clean); err != nil {
			if !errors.Is(err, apperror.ErrNotFound) {
				s.logger.Error("failed to update task",
					slog.Int64("id", id),
					slog.String("error", err.Error()),
				)
			}
			return nil, fmt.Errorf("updating task: %w", err)
		}
		s.logger.Info("task updated", slog.Int64("id", id))
	}

	return s.tasks.GetByID(ctx, id)
}
