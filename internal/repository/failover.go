package repository

import (
	"context"
	"sync/atomic"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

// FailoverUserCache routes through the primary cache until it fails, then
// serves from the fallback and retries the primary after a minute.
type FailoverUserCache struct {
	primary   domain.UserCache
	fallback  domain.UserCache
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck time.Time
}

func NewFailoverUserCache(primary, fallback domain.UserCache, logger *zerolog.Logger) *FailoverUserCache {
	return &FailoverUserCache{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverUserCache) markDown(err error) {
	r.logger.Error().Err(err).Msg("Primary user cache failed, falling back to memory")
	r.isDown.Store(true)
	r.lastCheck = time.Now()
}

func (r *FailoverUserCache) Get(ctx context.Context, id int64) (*models.User, error) {
	if !r.isDown.Load() {
		user, err := r.primary.Get(ctx, id)
		if err == nil {
			return user, nil
		}
		r.markDown(err)
	}

	// Try to recover after 1 minute
	if r.isDown.Load() && time.Since(r.lastCheck) > time.Minute {
		user, err := r.primary.Get(ctx, id)
		if err == nil {
			r.isDown.Store(false)
			return user, nil
		}
		r.lastCheck = time.Now()
	}

	return r.fallback.Get(ctx, id)
}

func (r *FailoverUserCache) Set(ctx context.Context, user *models.User) error {
	if !r.isDown.Load() {
		err := r.primary.Set(ctx, user)
		if err == nil {
			return nil
		}
		r.markDown(err)
	}

	return r.fallback.Set(ctx, user)
}

func (r *FailoverUserCache) Delete(ctx context.Context, id int64) error {
	if !r.isDown.Load() {
		err := r.primary.Delete(ctx, id)
		if err == nil {
			return nil
		}
		r.markDown(err)
	}

	return r.fallback.Delete(ctx, id)
}
