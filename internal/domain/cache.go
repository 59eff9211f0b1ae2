package domain

import (
	"context"

	"shareit/internal/models"
)

// UserCache is a read-through cache over user records. Get returns
// (nil, nil) on a miss. Implementations live in internal/repository.
type UserCache interface {
	Get(ctx context.Context, id int64) (*models.User, error)
	Set(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id int64) error
}
