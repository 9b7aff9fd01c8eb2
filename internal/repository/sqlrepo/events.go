package sqlrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/isdelr/incomesense-be/internal/models"
)

func (s *Store) CreateEvent(ctx context.Context, e models.Event) error {
	_, err := s.exec(ctx,
		`INSERT INTO events (id, owner_id, type, transaction_id, message, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.OwnerID, e.Type, e.TransactionID, e.Message, utc(e.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (s *Store) ListEvents(ctx context.Context, ownerID string, limit int) ([]models.Event, error) {
	rows, err := s.query(ctx,
		`SELECT id, owner_id, type, transaction_id, message, created_at FROM events
		WHERE owner_id = ? ORDER BY created_at DESC LIMIT ?`, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	out := make([]models.Event, 0)
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.Type, &e.TransactionID, &e.Message, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.CreatedAt = utc(e.CreatedAt)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.exec(ctx, `DELETE FROM events WHERE created_at < ?`, utc(cutoff))
	if err != nil {
		return 0, fmt.Errorf("prune events: %w", err)
	}
	return res.RowsAffected()
}
