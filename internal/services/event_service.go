package services

import (
	"context"
	"time"

	"github.com/isdelr/incomesense-be/internal/models"
	"github.com/isdelr/incomesense-be/internal/repository"
)

const (
	DefaultEventLimit = 20
	MaxEventLimit     = 100
)

// EventServiceProvider defines the interface for event services.
type EventServiceProvider interface {
	GetRecentEvents(ctx context.Context, ownerID string, limit int) ([]models.Event, error)
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// EventService reads and prunes the activity log.
type EventService struct {
	events repository.EventRepository
}

// NewEventService creates a new EventService.
func NewEventService(events repository.EventRepository) *EventService {
	return &EventService{events: events}
}

// GetRecentEvents returns the owner's newest events. limit is clamped to
// [1, MaxEventLimit]; a non-positive limit means DefaultEventLimit.
func (s *EventService) GetRecentEvents(ctx context.Context, ownerID string, limit int) ([]models.Event, error) {
	if limit <= 0 {
		limit = DefaultEventLimit
	}
	if limit > MaxEventLimit {
		limit = MaxEventLimit
	}
	return s.events.ListEvents(ctx, ownerID, limit)
}

// PruneBefore deletes every event older than cutoff.
func (s *EventService) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return s.events.DeleteEventsBefore(ctx, cutoff)
}
