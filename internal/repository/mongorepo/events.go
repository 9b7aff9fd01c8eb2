package mongorepo

import (
	"context"
	"fmt"
	"time"

	"github.com/isdelr/incomesense-be/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *Store) CreateEvent(ctx context.Context, e models.Event) error {
	_, err := s.events.InsertOne(ctx, eventDoc{
		ID:            e.ID,
		Owner:         e.OwnerID,
		Type:          e.Type,
		TransactionID: e.TransactionID,
		Message:       e.Message,
		CreatedAt:     e.CreatedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (s *Store) ListEvents(ctx context.Context, ownerID string, limit int) ([]models.Event, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(int64(limit))
	cur, err := s.events.Find(ctx, bson.D{{Key: "owner", Value: ownerID}}, opts)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer cur.Close(ctx)

	out := make([]models.Event, 0)
	for cur.Next(ctx) {
		var doc eventDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode event: %w", err)
		}
		out = append(out, models.Event{
			ID:            doc.ID,
			OwnerID:       doc.Owner,
			Type:          doc.Type,
			TransactionID: doc.TransactionID,
			Message:       doc.Message,
			CreatedAt:     doc.CreatedAt.UTC(),
		})
	}
	return out, cur.Err()
}

func (s *Store) DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.events.DeleteMany(ctx, bson.D{{Key: "createdAt", Value: bson.D{{Key: "$lt", Value: cutoff.UTC()}}}})
	if err != nil {
		return 0, fmt.Errorf("prune events: %w", err)
	}
	return res.DeletedCount, nil
}
