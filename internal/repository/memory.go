package repository

import (
	"context"
	"sync"
	"time"

	"shareit/internal/models"
)

type memoryEntry struct {
	user      *models.User
	expiresAt time.Time
}

type MemoryUserCache struct {
	entries sync.Map
	ttl     time.Duration
}

func NewMemoryUserCache(ttl time.Duration) *MemoryUserCache {
	return &MemoryUserCache{
		ttl: ttl,
	}
}

func (r *MemoryUserCache) Get(ctx context.Context, id int64) (*models.User, error) {
	val, ok := r.entries.Load(id)
	if !ok {
		return nil, nil
	}
	entry := val.(*memoryEntry)
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		r.entries.Delete(id)
		return nil, nil
	}
	return entry.user, nil
}

func (r *MemoryUserCache) Set(ctx context.Context, user *models.User) error {
	entry := &memoryEntry{user: user}
	if r.ttl > 0 {
		entry.expiresAt = time.Now().Add(r.ttl)
	}
	r.entries.Store(user.ID, entry)
	return nil
}

func (r *MemoryUserCache) Delete(ctx context.Context, id int64) error {
	r.entries.Delete(id)
	return nil
}
