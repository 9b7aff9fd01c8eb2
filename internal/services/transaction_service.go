package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/incomesense-be/internal/models"
	"github.com/isdelr/incomesense-be/internal/repository"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// TransactionServiceProvider defines the interface for transaction services.
type TransactionServiceProvider interface {
	Create(ctx context.Context, ownerID string, in NewTransaction) (models.Transaction, error)
	List(ctx context.Context, ownerID string) ([]models.Transaction, error)
	Update(ctx context.Context, ownerID, id string, patch models.TransactionPatch) (models.Transaction, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// NewTransaction is the input for Create. A nil Date means now.
type NewTransaction struct {
	Type        models.TransactionKind
	Category    string
	Amount      decimal.Decimal
	Date        *time.Time
	Description string
}

type transactionFields struct {
	Type        string `validate:"required,oneof=income expense"`
	Category    string `validate:"required"`
	Description string `validate:"max=200"`
}

// TransactionService owns the transaction lifecycle, the activity log entries
// it produces and the change notifications.
type TransactionService struct {
	transactions repository.TransactionRepository
	events       repository.EventRepository
	notifier     ChangeNotifier
	now          func() time.Time
}

// NewTransactionService creates a new TransactionService. notifier may be nil.
func NewTransactionService(transactions repository.TransactionRepository, events repository.EventRepository, notifier ChangeNotifier) *TransactionService {
	return &TransactionService{
		transactions: transactions,
		events:       events,
		notifier:     notifier,
		now:          time.Now,
	}
}

// Amounts are bounded so they fit Decimal128 and render in bounded time.
const (
	maxAmountExponent = 15
	maxAmountDigits   = 34
)

var maxAmount = decimal.New(1, maxAmountExponent)

// amountProblem reports why a is not an acceptable amount, or "" when it is.
// Exponents are checked before any comparison since decimal comparisons
// rescale both operands.
func amountProblem(a decimal.Decimal) string {
	switch {
	case !a.IsPositive():
		return "Amount must be a positive number"
	case a.Exponent() >= maxAmountExponent:
		return "Amount is too large"
	case a.Exponent() < -maxAmountDigits || a.NumDigits() > maxAmountDigits:
		return "Amount has too many digits"
	case a.GreaterThanOrEqual(maxAmount):
		return "Amount is too large"
	}
	return ""
}

func validateTransaction(t models.Transaction) error {
	var extra []string
	if problem := amountProblem(t.Amount); problem != "" {
		extra = append(extra, problem)
	}
	return check(transactionFields{
		Type:        string(t.Type),
		Category:    t.Category,
		Description: t.Description,
	}, extra...)
}

// Create validates and stores a new transaction for ownerID.
func (s *TransactionService) Create(ctx context.Context, ownerID string, in NewTransaction) (models.Transaction, error) {
	now := s.now().UTC()
	t := models.Transaction{
		ID:          uuid.New().String(),
		OwnerID:     ownerID,
		Type:        in.Type,
		Category:    strings.TrimSpace(in.Category),
		Amount:      in.Amount,
		Date:        now,
		Description: strings.TrimSpace(in.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.Date != nil {
		t.Date = in.Date.UTC()
	}
	if err := validateTransaction(t); err != nil {
		return models.Transaction{}, err
	}

	if err := s.transactions.CreateTransaction(ctx, t); err != nil {
		return models.Transaction{}, err
	}
	s.record(ctx, ownerID, models.EventTransactionCreated, t.ID, describe("Added", t), t)
	return t, nil
}

// List returns every transaction of ownerID, newest first.
func (s *TransactionService) List(ctx context.Context, ownerID string) ([]models.Transaction, error) {
	return s.transactions.ListTransactions(ctx, ownerID)
}

// Update applies patch to the transaction id when ownerID owns it. Ownership
// is checked before the patch is validated.
func (s *TransactionService) Update(ctx context.Context, ownerID, id string, patch models.TransactionPatch) (models.Transaction, error) {
	if _, err := uuid.Parse(id); err != nil {
		return models.Transaction{}, ErrInvalidID
	}
	existing, err := s.transactions.GetTransaction(ctx, id)
	if err != nil {
		return models.Transaction{}, err
	}
	if existing.OwnerID != ownerID {
		return models.Transaction{}, ErrForbidden
	}

	patch = normalizePatch(patch)
	merged := existing
	patch.Apply(&merged)
	if err := validateTransaction(merged); err != nil {
		return models.Transaction{}, err
	}

	updatedAt := s.now().UTC()
	if updatedAt.Before(existing.CreatedAt) {
		updatedAt = existing.CreatedAt
	}
	updated, err := s.transactions.UpdateOwnedTransaction(ctx, id, ownerID, patch, updatedAt)
	if err != nil {
		return models.Transaction{}, err
	}
	s.record(ctx, ownerID, models.EventTransactionUpdated, id, describe("Updated", updated), updated)
	return updated, nil
}

// Delete removes the transaction id when ownerID owns it.
func (s *TransactionService) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidID
	}
	existing, err := s.transactions.GetTransaction(ctx, id)
	if err != nil {
		return err
	}
	if existing.OwnerID != ownerID {
		return ErrForbidden
	}
	if err := s.transactions.DeleteOwnedTransaction(ctx, id, ownerID); err != nil {
		return err
	}
	s.record(ctx, ownerID, models.EventTransactionDeleted, id, describe("Removed", existing), map[string]string{"id": id})
	return nil
}

func normalizePatch(p models.TransactionPatch) models.TransactionPatch {
	if p.Category != nil {
		c := strings.TrimSpace(*p.Category)
		p.Category = &c
	}
	if p.Description != nil {
		d := strings.TrimSpace(*p.Description)
		p.Description = &d
	}
	if p.Date != nil {
		d := p.Date.UTC()
		p.Date = &d
	}
	return p
}

func describe(verb string, t models.Transaction) string {
	return fmt.Sprintf("%s %s of %s in %s", verb, t.Type, t.Amount.StringFixed(2), t.Category)
}

// record appends to the activity log and notifies listeners. Neither may fail the mutation.
func (s *TransactionService) record(ctx context.Context, ownerID, action, transactionID, message string, payload any) {
	ctx = context.WithoutCancel(ctx)

	if s.events != nil {
		err := s.events.CreateEvent(ctx, models.Event{
			ID:            uuid.New().String(),
			OwnerID:       ownerID,
			Type:          action,
			TransactionID: transactionID,
			Message:       message,
			CreatedAt:     s.now().UTC(),
		})
		if err != nil {
			log.Error().Err(err).Str("user_id", ownerID).Str("transaction_id", transactionID).Msg("Failed to record activity event")
		}
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyChange(ctx, ownerID, action, payload); err != nil {
			log.Warn().Err(err).Str("user_id", ownerID).Str("action", action).Msg("Failed to notify change")
		}
	}
}
