package service

import (
	"context"
	"strings"
	"time"

	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

// ItemService is the catalog. Owner-only enrichment: lastBooking and
// nextBooking are attached only when the viewer owns the item; comments
// are attached for everyone.
type ItemService struct {
	db  *database.DB
	bus *events.EventBus
	log zerolog.Logger
	now func() time.Time
}

func NewItemService(db *database.DB, bus *events.EventBus, logger *zerolog.Logger) *ItemService {
	var log zerolog.Logger
	if logger != nil {
		log = logger.With().Str("component", "item-service").Logger()
	}
	return &ItemService{db: db, bus: bus, log: log, now: time.Now}
}

func (s *ItemService) Create(ctx context.Context, ownerID int64, item *models.Item) (*models.Item, error) {
	owner, err := s.db.GetUser(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		return nil, domain.NotFound("user not found: %d", ownerID)
	}

	if item.RequestID != nil {
		request, err := s.db.GetRequest(ctx, *item.RequestID)
		if err != nil {
			return nil, err
		}
		if request == nil {
			return nil, domain.NotFound("request not found: %d", *item.RequestID)
		}
	}

	item.OwnerID = ownerID
	if err := s.db.CreateItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *ItemService) GetByID(ctx context.Context, itemID, viewerID int64) (*models.ItemDetail, error) {
	item, err := s.db.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.NotFound("item not found: %d", itemID)
	}

	comments, err := s.db.ListCommentsByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	detail := &models.ItemDetail{Item: *item, Comments: comments}
	if item.OwnerID == viewerID {
		if err := s.enrich(ctx, []*models.ItemDetail{detail}); err != nil {
			return nil, err
		}
	}
	return detail, nil
}

// GetAllForOwner returns the owner's items with last/next bookings and
// comments, both loaded in single batched queries.
func (s *ItemService) GetAllForOwner(ctx context.Context, ownerID int64) ([]models.ItemDetail, error) {
	items, err := s.db.ListItemsByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	itemIDs := make([]int64, len(items))
	details := make([]*models.ItemDetail, len(items))
	for i := range items {
		itemIDs[i] = items[i].ID
		details[i] = &models.ItemDetail{Item: items[i]}
	}

	commentsByItem, err := s.db.ListCommentsByItems(ctx, itemIDs)
	if err != nil {
		return nil, err
	}
	for _, d := range details {
		comments := commentsByItem[d.ID]
		if comments == nil {
			comments = []models.Comment{}
		}
		d.Comments = comments
	}

	if err := s.enrich(ctx, details); err != nil {
		return nil, err
	}

	result := make([]models.ItemDetail, len(details))
	for i, d := range details {
		result[i] = *d
	}
	return result, nil
}

// enrich fills lastBooking/nextBooking from one approved-bookings query:
// last is the latest booking already started, next the earliest one still
// ahead, relative to now.
func (s *ItemService) enrich(ctx context.Context, details []*models.ItemDetail) error {
	if len(details) == 0 {
		return nil
	}

	itemIDs := make([]int64, len(details))
	byID := make(map[int64]*models.ItemDetail, len(details))
	for i, d := range details {
		itemIDs[i] = d.ID
		byID[d.ID] = d
	}

	bookings, err := s.db.ListApprovedBookingsForItems(ctx, itemIDs)
	if err != nil {
		return err
	}

	now := s.now()
	for i := range bookings {
		b := &bookings[i]
		d := byID[b.Item.ID]
		if d == nil {
			continue
		}
		switch {
		case !b.Start.After(now):
			if d.LastBooking == nil || b.Start.After(d.LastBooking.Start) {
				d.LastBooking = b.Ref()
			}
		default:
			if d.NextBooking == nil || b.Start.Before(d.NextBooking.Start) {
				d.NextBooking = b.Ref()
			}
		}
	}
	return nil
}

// Search matches available items by name or description. Blank text
// returns nothing rather than everything.
func (s *ItemService) Search(ctx context.Context, text string) ([]models.Item, error) {
	if strings.TrimSpace(text) == "" {
		return []models.Item{}, nil
	}
	return s.db.SearchItems(ctx, text)
}

func (s *ItemService) Update(ctx context.Context, itemID, userID int64, patch models.ItemPatch) (*models.Item, error) {
	item, err := s.db.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.NotFound("item not found: %d", itemID)
	}

	// Non-owners get NotFound, not Forbidden: from their point of view
	// the item is not theirs to see as editable.
	if item.OwnerID != userID {
		return nil, domain.NotFound("user %d has no item %d", userID, itemID)
	}

	if patch.Name != nil {
		item.Name = *patch.Name
	}
	if patch.Description != nil {
		item.Description = *patch.Description
	}
	if patch.Available != nil {
		item.Available = *patch.Available
	}

	if err := s.db.UpdateItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *ItemService) Delete(ctx context.Context, itemID int64) error {
	item, err := s.db.GetItem(ctx, itemID)
	if err != nil {
		return err
	}
	if item == nil {
		return domain.NotFound("item not found: %d", itemID)
	}
	return s.db.DeleteItem(ctx, itemID)
}

// AddComment requires a completed approved booking of the item by the
// author: status APPROVED and end strictly before now.
func (s *ItemService) AddComment(ctx context.Context, itemID, authorID int64, text string) (*models.Comment, error) {
	item, err := s.db.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.NotFound("item not found: %d", itemID)
	}

	author, err := s.db.GetUser(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if author == nil {
		return nil, domain.NotFound("user not found: %d", authorID)
	}

	completed, err := s.db.HasCompletedBooking(ctx, authorID, itemID, s.now())
	if err != nil {
		return nil, err
	}
	if !completed {
		return nil, domain.BadRequest("comment requires a completed booking of the item")
	}

	comment := &models.Comment{
		Text:       text,
		ItemID:     itemID,
		AuthorID:   authorID,
		AuthorName: author.Name,
		Created:    s.now().UTC(),
	}
	if err := s.db.CreateComment(ctx, comment); err != nil {
		return nil, err
	}

	if err := s.bus.PublishJSON(events.EventCommentCreated, comment); err != nil {
		s.log.Error().Err(err).Int64("item_id", itemID).Msg("publish comment event")
	}
	return comment, nil
}
