// Package memory is an in-process Store used by tests and local tooling.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/isdelr/incomesense-be/internal/models"
	"github.com/isdelr/incomesense-be/internal/repository"
)

// Store keeps everything in maps guarded by a single RWMutex.
type Store struct {
	mu           sync.RWMutex
	users        map[string]models.User
	transactions map[string]models.Transaction
	events       []models.Event
}

var _ repository.Store = (*Store)(nil)

// New creates an empty Store.
func New() *Store {
	return &Store{
		users:        make(map[string]models.User),
		transactions: make(map[string]models.Transaction),
	}
}

func (s *Store) Ping(ctx context.Context) error  { return nil }
func (s *Store) Close(ctx context.Context) error { return nil }

func (s *Store) CreateUser(ctx context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Email clashes win over username clashes.
	for _, u := range s.users {
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	for _, u := range s.users {
		if u.Username == user.Username {
			return repository.ErrDuplicateUsername
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, repository.ErrNotFound
}

func (s *Store) GetUserByID(ctx context.Context, id string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return models.User{}, repository.ErrNotFound
	}
	return u.Sanitized(), nil
}

func (s *Store) CreateTransaction(ctx context.Context, t models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[t.ID] = t
	return nil
}

func (s *Store) GetTransaction(ctx context.Context, id string) (models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.transactions[id]
	if !ok {
		return models.Transaction{}, repository.ErrNotFound
	}
	return t, nil
}

func (s *Store) ListTransactions(ctx context.Context, ownerID string) ([]models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Transaction, 0)
	for _, t := range s.transactions {
		if t.OwnerID == ownerID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) UpdateOwnedTransaction(ctx context.Context, id, ownerID string, patch models.TransactionPatch, updatedAt time.Time) (models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.owned(id, ownerID)
	if err != nil {
		return models.Transaction{}, err
	}
	patch.Apply(&t)
	t.UpdatedAt = updatedAt
	s.transactions[id] = t
	return t, nil
}

func (s *Store) DeleteOwnedTransaction(ctx context.Context, id, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.owned(id, ownerID); err != nil {
		return err
	}
	delete(s.transactions, id)
	return nil
}

// owned must be called with the write lock held.
func (s *Store) owned(id, ownerID string) (models.Transaction, error) {
	t, ok := s.transactions[id]
	if !ok {
		return models.Transaction{}, repository.ErrNotFound
	}
	if t.OwnerID != ownerID {
		return models.Transaction{}, repository.ErrOwnerMismatch
	}
	return t, nil
}

func (s *Store) CreateEvent(ctx context.Context, e models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *Store) ListEvents(ctx context.Context, ownerID string, limit int) ([]models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Event, 0)
	for _, e := range s.events {
		if e.OwnerID == ownerID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.events[:0]
	var removed int64
	for _, e := range s.events {
		if e.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	s.events = kept
	return removed, nil
}
