// Package repository defines the persistence contract shared by the SQL,
// MongoDB and in-memory backends.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/isdelr/incomesense-be/internal/models"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrOwnerMismatch     = errors.New("owned by another user")
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrDuplicateUsername = errors.New("username already taken")
)

// UserRepository persists user accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) error
	// GetUserByEmail is the only lookup that returns the password hash.
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	GetUserByID(ctx context.Context, id string) (models.User, error)
}

// TransactionRepository persists transactions. The *Owned methods only touch
// a row whose owner matches; when nothing matched they report ErrNotFound or
// ErrOwnerMismatch.
type TransactionRepository interface {
	CreateTransaction(ctx context.Context, t models.Transaction) error
	GetTransaction(ctx context.Context, id string) (models.Transaction, error)
	// ListTransactions returns the owner's transactions, newest date first.
	ListTransactions(ctx context.Context, ownerID string) ([]models.Transaction, error)
	UpdateOwnedTransaction(ctx context.Context, id, ownerID string, patch models.TransactionPatch, updatedAt time.Time) (models.Transaction, error)
	DeleteOwnedTransaction(ctx context.Context, id, ownerID string) error
}

// EventRepository persists the activity log.
type EventRepository interface {
	CreateEvent(ctx context.Context, e models.Event) error
	// ListEvents returns the owner's most recent events first.
	ListEvents(ctx context.Context, ownerID string, limit int) ([]models.Event, error)
	DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Store groups every repository behind one handle with a shared lifecycle.
type Store interface {
	UserRepository
	TransactionRepository
	EventRepository
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
