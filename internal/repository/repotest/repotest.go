// Package repotest holds the behaviour every repository.Store must share.
// Backend packages embed Suite in their own tests.
package repotest

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/incomesense-be/internal/models"
	"github.com/isdelr/incomesense-be/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

// Suite runs the shared contract against the Store returned by NewStore.
type Suite struct {
	suite.Suite
	NewStore func() repository.Store

	store repository.Store
	ctx   context.Context
}

func (s *Suite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.NewStore()
}

func (s *Suite) TearDownTest() {
	if s.store != nil {
		s.store.Close(s.ctx)
	}
}

// base is truncated to milliseconds so every backend round-trips it exactly.
var base = time.Date(2024, time.January, 15, 10, 0, 0, 0, time.UTC)

func (s *Suite) user(name string) models.User {
	u := models.User{
		ID:           uuid.NewString(),
		Username:     name,
		Email:        name + "@example.com",
		PasswordHash: "$2a$10$hash",
		CreatedAt:    base,
		UpdatedAt:    base,
	}
	s.Require().NoError(s.store.CreateUser(s.ctx, u))
	return u
}

func (s *Suite) transaction(ownerID string, kind models.TransactionKind, amount string, date time.Time) models.Transaction {
	t := models.Transaction{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Type:        kind,
		Category:    "Food",
		Amount:      decimal.RequireFromString(amount),
		Date:        date,
		Description: "groceries",
		CreatedAt:   base,
		UpdatedAt:   base,
	}
	s.Require().NoError(s.store.CreateTransaction(s.ctx, t))
	return t
}

func (s *Suite) TestPing() {
	s.NoError(s.store.Ping(s.ctx))
}

func (s *Suite) TestUserLookups() {
	u := s.user("alice")

	byEmail, err := s.store.GetUserByEmail(s.ctx, "alice@example.com")
	s.Require().NoError(err)
	s.Equal(u.ID, byEmail.ID)
	s.Equal(u.PasswordHash, byEmail.PasswordHash)

	byID, err := s.store.GetUserByID(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Equal("alice", byID.Username)
	s.Empty(byID.PasswordHash)

	_, err = s.store.GetUserByEmail(s.ctx, "nobody@example.com")
	s.ErrorIs(err, repository.ErrNotFound)
	_, err = s.store.GetUserByID(s.ctx, uuid.NewString())
	s.ErrorIs(err, repository.ErrNotFound)
}

func (s *Suite) TestUserUniqueness() {
	u := s.user("alice")

	dupEmail := u
	dupEmail.ID = uuid.NewString()
	dupEmail.Username = "alice2"
	s.ErrorIs(s.store.CreateUser(s.ctx, dupEmail), repository.ErrDuplicateEmail)

	dupName := u
	dupName.ID = uuid.NewString()
	dupName.Email = "other@example.com"
	s.ErrorIs(s.store.CreateUser(s.ctx, dupName), repository.ErrDuplicateUsername)
}

func (s *Suite) TestTransactionRoundTrip() {
	u := s.user("bob")
	t := s.transaction(u.ID, models.Expense, "12.345", base)

	got, err := s.store.GetTransaction(s.ctx, t.ID)
	s.Require().NoError(err)
	s.Equal(t.ID, got.ID)
	s.Equal(u.ID, got.OwnerID)
	s.Equal(models.Expense, got.Type)
	s.Equal("Food", got.Category)
	s.True(t.Amount.Equal(got.Amount), "amount %s != %s", t.Amount, got.Amount)
	s.True(t.Date.Equal(got.Date))
	s.Equal("groceries", got.Description)

	_, err = s.store.GetTransaction(s.ctx, uuid.NewString())
	s.ErrorIs(err, repository.ErrNotFound)
}

func (s *Suite) TestListTransactionsOrderAndScope() {
	alice := s.user("alice")
	bob := s.user("bob")

	older := s.transaction(alice.ID, models.Income, "1000", base.AddDate(0, -1, 0))
	newest := s.transaction(alice.ID, models.Expense, "20", base.AddDate(0, 0, 3))
	middle := s.transaction(alice.ID, models.Expense, "5", base)
	s.transaction(bob.ID, models.Expense, "99", base)

	list, err := s.store.ListTransactions(s.ctx, alice.ID)
	s.Require().NoError(err)
	s.Require().Len(list, 3)
	s.Equal([]string{newest.ID, middle.ID, older.ID}, []string{list[0].ID, list[1].ID, list[2].ID})

	empty, err := s.store.ListTransactions(s.ctx, uuid.NewString())
	s.Require().NoError(err)
	s.Empty(empty)
}

func (s *Suite) TestUpdateOwnedTransaction() {
	u := s.user("carol")
	t := s.transaction(u.ID, models.Expense, "10", base)

	amount := decimal.RequireFromString("42.5")
	empty := ""
	updatedAt := base.Add(time.Hour)
	got, err := s.store.UpdateOwnedTransaction(s.ctx, t.ID, u.ID, models.TransactionPatch{
		Amount:      &amount,
		Description: &empty,
	}, updatedAt)
	s.Require().NoError(err)
	s.True(amount.Equal(got.Amount))
	s.Equal("", got.Description)
	s.Equal("Food", got.Category)
	s.Equal(models.Expense, got.Type)
	s.True(got.UpdatedAt.Equal(updatedAt))
	s.True(got.CreatedAt.Equal(base))

	stored, err := s.store.GetTransaction(s.ctx, t.ID)
	s.Require().NoError(err)
	s.True(amount.Equal(stored.Amount))
	s.Equal("", stored.Description)
}

func (s *Suite) TestUpdateOwnedTransactionRejectsOtherOwner() {
	owner := s.user("dave")
	intruder := s.user("eve")
	t := s.transaction(owner.ID, models.Expense, "10", base)

	category := "Hacked"
	_, err := s.store.UpdateOwnedTransaction(s.ctx, t.ID, intruder.ID, models.TransactionPatch{Category: &category}, base)
	s.True(errors.Is(err, repository.ErrOwnerMismatch), "got %v", err)

	_, err = s.store.UpdateOwnedTransaction(s.ctx, uuid.NewString(), owner.ID, models.TransactionPatch{Category: &category}, base)
	s.ErrorIs(err, repository.ErrNotFound)

	stored, err := s.store.GetTransaction(s.ctx, t.ID)
	s.Require().NoError(err)
	s.Equal("Food", stored.Category)
}

func (s *Suite) TestDeleteOwnedTransaction() {
	owner := s.user("frank")
	intruder := s.user("grace")
	t := s.transaction(owner.ID, models.Income, "10", base)

	s.ErrorIs(s.store.DeleteOwnedTransaction(s.ctx, t.ID, intruder.ID), repository.ErrOwnerMismatch)
	s.NoError(s.store.DeleteOwnedTransaction(s.ctx, t.ID, owner.ID))
	s.ErrorIs(s.store.DeleteOwnedTransaction(s.ctx, t.ID, owner.ID), repository.ErrNotFound)

	_, err := s.store.GetTransaction(s.ctx, t.ID)
	s.ErrorIs(err, repository.ErrNotFound)
}

func (s *Suite) TestEvents() {
	u := s.user("heidi")
	other := s.user("ivan")

	for i := 0; i < 5; i++ {
		s.Require().NoError(s.store.CreateEvent(s.ctx, models.Event{
			ID:            uuid.NewString(),
			OwnerID:       u.ID,
			Type:          models.EventTransactionCreated,
			TransactionID: uuid.NewString(),
			Message:       "created",
			CreatedAt:     base.Add(time.Duration(i) * time.Hour),
		}))
	}
	s.Require().NoError(s.store.CreateEvent(s.ctx, models.Event{
		ID:        uuid.NewString(),
		OwnerID:   other.ID,
		Type:      models.EventTransactionDeleted,
		Message:   "deleted",
		CreatedAt: base,
	}))

	events, err := s.store.ListEvents(s.ctx, u.ID, 3)
	s.Require().NoError(err)
	s.Require().Len(events, 3)
	s.True(events[0].CreatedAt.Equal(base.Add(4 * time.Hour)))
	s.True(events[2].CreatedAt.Equal(base.Add(2 * time.Hour)))
	for _, e := range events {
		s.Equal(u.ID, e.OwnerID)
	}

	removed, err := s.store.DeleteEventsBefore(s.ctx, base.Add(2*time.Hour))
	s.Require().NoError(err)
	s.Equal(int64(3), removed)

	events, err = s.store.ListEvents(s.ctx, u.ID, 10)
	s.Require().NoError(err)
	s.Len(events, 3)
}
