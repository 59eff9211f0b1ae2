package service

import (
	"context"

	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/metrics"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

// UserService is the user directory. Reads go through the user cache;
// cache failures are logged and degrade to the database, never to a
// request failure.
type UserService struct {
	db    *database.DB
	cache domain.UserCache
	log   zerolog.Logger
}

func NewUserService(db *database.DB, cache domain.UserCache, logger *zerolog.Logger) *UserService {
	var log zerolog.Logger
	if logger != nil {
		log = logger.With().Str("component", "user-service").Logger()
	}
	return &UserService{db: db, cache: cache, log: log}
}

func (s *UserService) GetAll(ctx context.Context) ([]models.User, error) {
	return s.db.ListUsers(ctx)
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, id)
		if err != nil {
			metrics.IncCacheLookup("error")
			s.log.Warn().Err(err).Int64("user_id", id).Msg("user cache get failed")
		} else if cached != nil {
			metrics.IncCacheLookup("hit")
			return cached, nil
		} else {
			metrics.IncCacheLookup("miss")
		}
	}

	user, err := s.db.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.NotFound("user not found: %d", id)
	}

	s.cachePut(ctx, user)
	return user, nil
}

func (s *UserService) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if err := s.db.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) Update(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error) {
	user, err := s.db.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.NotFound("user not found: %d", id)
	}

	if patch.Name != nil {
		user.Name = *patch.Name
	}
	if patch.Email != nil {
		user.Email = *patch.Email
	}

	if err := s.db.UpdateUser(ctx, user); err != nil {
		return nil, err
	}

	s.cachePut(ctx, user)
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, id int64) error {
	exists, err := s.db.UserExists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return domain.NotFound("user not found: %d", id)
	}
	if err := s.db.DeleteUser(ctx, id); err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, id); err != nil {
			s.log.Warn().Err(err).Int64("user_id", id).Msg("user cache evict failed")
		}
	}
	return nil
}

func (s *UserService) cachePut(ctx context.Context, user *models.User) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, user); err != nil {
		s.log.Warn().Err(err).Int64("user_id", user.ID).Msg("user cache set failed")
	}
}
