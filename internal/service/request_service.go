package service

import (
	"context"
	"strings"
	"time"

	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

// RequestService is the item-request board.
type RequestService struct {
	db  *database.DB
	log zerolog.Logger
}

func NewRequestService(db *database.DB, logger *zerolog.Logger) *RequestService {
	var log zerolog.Logger
	if logger != nil {
		log = logger.With().Str("component", "request-service").Logger()
	}
	return &RequestService{db: db, log: log}
}

func (s *RequestService) Create(ctx context.Context, userID int64, description string) (*models.ItemRequest, error) {
	if strings.TrimSpace(description) == "" {
		return nil, domain.BadRequest("request description must not be blank")
	}

	user, err := s.db.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.NotFound("user not found: %d", userID)
	}

	request := &models.ItemRequest{
		Description: description,
		RequestorID: userID,
		Created:     time.Now().UTC(),
	}
	if err := s.db.CreateRequest(ctx, request); err != nil {
		return nil, err
	}
	request.Items = []models.Item{}
	return request, nil
}

// GetOwn returns the user's requests, newest first, with fulfilling items.
func (s *RequestService) GetOwn(ctx context.Context, userID int64) ([]models.ItemRequest, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	requests, err := s.db.ListRequestsByRequestor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.attachItems(ctx, requests)
}

// GetAll returns other users' requests, newest first, paginated.
func (s *RequestService) GetAll(ctx context.Context, userID int64, page *database.Page) ([]models.ItemRequest, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	requests, err := s.db.ListRequestsExcluding(ctx, userID, page)
	if err != nil {
		return nil, err
	}
	return s.attachItems(ctx, requests)
}

func (s *RequestService) GetByID(ctx context.Context, requestID, userID int64) (*models.ItemRequest, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	request, err := s.db.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, domain.NotFound("request not found: %d", requestID)
	}

	attached, err := s.attachItems(ctx, []models.ItemRequest{*request})
	if err != nil {
		return nil, err
	}
	return &attached[0], nil
}

func (s *RequestService) requireUser(ctx context.Context, userID int64) error {
	exists, err := s.db.UserExists(ctx, userID)
	if err != nil {
		return err
	}
	if !exists {
		return domain.NotFound("user not found: %d", userID)
	}
	return nil
}

func (s *RequestService) attachItems(ctx context.Context, requests []models.ItemRequest) ([]models.ItemRequest, error) {
	ids := make([]int64, len(requests))
	for i := range requests {
		ids[i] = requests[i].ID
	}

	itemsByRequest, err := s.db.ListItemsByRequests(ctx, ids)
	if err != nil {
		return nil, err
	}

	for i := range requests {
		items := itemsByRequest[requests[i].ID]
		if items == nil {
			items = []models.Item{}
		}
		requests[i].Items = items
	}
	return requests, nil
}
