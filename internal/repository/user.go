package repository

import (
	"context"

	"github.com/jaekwang-park/task-sync/internal/model"
)

type UserRepository interface {
	GetOrCreate(ctx context.Context, id, email string) (model.User, error)
	Get(ctx context.Context, id string) (model.User, error)
	SaveProfile(ctx context.Context, user model.User) (model.User, error)
}
