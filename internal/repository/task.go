package repository

import (
	"context"

	"github.com/jaekwang-park/task-sync/internal/model"
)

type TaskRepository interface {
	Create(ctx context.Context, task model.Task) (model.Task, error)
	Patch(ctx context.Context, userID, taskID string, patch model.TaskPatch) (model.Task, error)
	// Delete removes the task and reports whether a row existed.
	// A missing row is not an error.
	Delete(ctx context.Context, userID, taskID string) (bool, error)
	ListByOwner(ctx context.Context, userID string) ([]model.Task, error)
}
