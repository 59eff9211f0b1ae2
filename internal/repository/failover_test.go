package repository

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"shareit/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockCache) Set(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockCache) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func TestFailoverUserCache(t *testing.T) {
	primary := new(mockCache)
	fallback := new(mockCache)
	logger := zerolog.New(io.Discard)
	cache := NewFailoverUserCache(primary, fallback, &logger)
	ctx := context.Background()

	t.Run("PrimarySuccess", func(t *testing.T) {
		user := &models.User{ID: 1}
		primary.On("Get", ctx, int64(1)).Return(user, nil).Once()

		got, err := cache.Get(ctx, 1)
		assert.NoError(t, err)
		assert.Equal(t, user, got)
		primary.AssertExpectations(t)
	})

	t.Run("PrimaryFailFallbackSuccess", func(t *testing.T) {
		user := &models.User{ID: 2}
		primary.On("Get", ctx, int64(2)).Return(nil, errors.New("fail")).Once()
		fallback.On("Get", ctx, int64(2)).Return(user, nil).Once()

		got, err := cache.Get(ctx, 2)
		assert.NoError(t, err)
		assert.Equal(t, user, got)
		assert.True(t, cache.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("RecoveryAttempt", func(t *testing.T) {
		cache.isDown.Store(true)
		cache.lastCheck = time.Now().Add(-2 * time.Minute)

		user := &models.User{ID: 3}
		primary.On("Get", ctx, int64(3)).Return(user, nil).Once()

		got, err := cache.Get(ctx, 3)
		assert.NoError(t, err)
		assert.Equal(t, user, got)
		assert.False(t, cache.isDown.Load())
		primary.AssertExpectations(t)
	})

	t.Run("RecoveryAttemptFail", func(t *testing.T) {
		cache.isDown.Store(true)
		cache.lastCheck = time.Now().Add(-2 * time.Minute)

		primary.On("Get", ctx, int64(33)).Return(nil, errors.New("still fail")).Once()
		fallback.On("Get", ctx, int64(33)).Return(nil, nil).Once()

		_, err := cache.Get(ctx, 33)
		assert.NoError(t, err)
		assert.True(t, cache.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("SetSuccess", func(t *testing.T) {
		cache.isDown.Store(false)
		user := &models.User{ID: 77}
		primary.On("Set", ctx, user).Return(nil).Once()

		err := cache.Set(ctx, user)
		assert.NoError(t, err)
		primary.AssertExpectations(t)
	})

	t.Run("DeleteSuccess", func(t *testing.T) {
		cache.isDown.Store(false)
		primary.On("Delete", ctx, int64(88)).Return(nil).Once()

		err := cache.Delete(ctx, 88)
		assert.NoError(t, err)
		primary.AssertExpectations(t)
	})

	t.Run("SetFailover", func(t *testing.T) {
		cache.isDown.Store(false)
		user := &models.User{ID: 4}
		primary.On("Set", ctx, user).Return(errors.New("fail")).Once()
		fallback.On("Set", ctx, user).Return(nil).Once()

		err := cache.Set(ctx, user)
		assert.NoError(t, err)
		assert.True(t, cache.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("DeleteFailover", func(t *testing.T) {
		cache.isDown.Store(false)
		primary.On("Delete", ctx, int64(5)).Return(errors.New("fail")).Once()
		fallback.On("Delete", ctx, int64(5)).Return(nil).Once()

		err := cache.Delete(ctx, 5)
		assert.NoError(t, err)
		assert.True(t, cache.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("SetAlreadyDown", func(t *testing.T) {
		cache.isDown.Store(true)
		cache.lastCheck = time.Now()
		user := &models.User{ID: 44}
		fallback.On("Set", ctx, user).Return(nil).Once()

		err := cache.Set(ctx, user)
		assert.NoError(t, err)
		fallback.AssertExpectations(t)
	})

	t.Run("DeleteAlreadyDown", func(t *testing.T) {
		cache.isDown.Store(true)
		cache.lastCheck = time.Now()
		fallback.On("Delete", ctx, int64(55)).Return(nil).Once()

		err := cache.Delete(ctx, 55)
		assert.NoError(t, err)
		fallback.AssertExpectations(t)
	})
}
