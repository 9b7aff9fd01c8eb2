package sqlrepo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/isdelr/incomesense-be/internal/models"
	"github.com/isdelr/incomesense-be/internal/repository"
)

const transactionColumns = `id, owner_id, type, category, amount, date, description, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(&t.ID, &t.OwnerID, &t.Type, &t.Category, &t.Amount, &t.Date, &t.Description, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return models.Transaction{}, err
	}
	t.Date, t.CreatedAt, t.UpdatedAt = utc(t.Date), utc(t.CreatedAt), utc(t.UpdatedAt)
	return t, nil
}

func (s *Store) CreateTransaction(ctx context.Context, t models.Transaction) error {
	_, err := s.exec(ctx,
		`INSERT INTO transactions (`+transactionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.OwnerID, string(t.Type), t.Category, t.Amount.String(), utc(t.Date), t.Description, utc(t.CreatedAt), utc(t.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (s *Store) GetTransaction(ctx context.Context, id string) (models.Transaction, error) {
	t, err := scanTransaction(s.queryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id))
	if err != nil {
		return models.Transaction{}, notFound(err, "transaction")
	}
	return t, nil
}

func (s *Store) ListTransactions(ctx context.Context, ownerID string) ([]models.Transaction, error) {
	rows, err := s.query(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE owner_id = ? ORDER BY date DESC, created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := make([]models.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) UpdateOwnedTransaction(ctx context.Context, id, ownerID string, patch models.TransactionPatch, updatedAt time.Time) (models.Transaction, error) {
	var (
		sets []string
		args []any
	)
	if patch.Type != nil {
		sets, args = append(sets, "type = ?"), append(args, string(*patch.Type))
	}
	if patch.Category != nil {
		sets, args = append(sets, "category = ?"), append(args, *patch.Category)
	}
	if patch.Amount != nil {
		sets, args = append(sets, "amount = ?"), append(args, patch.Amount.String())
	}
	if patch.Date != nil {
		sets, args = append(sets, "date = ?"), append(args, utc(*patch.Date))
	}
	if patch.Description != nil {
		sets, args = append(sets, "description = ?"), append(args, *patch.Description)
	}
	sets, args = append(sets, "updated_at = ?"), append(args, utc(updatedAt))
	args = append(args, id, ownerID)

	res, err := s.exec(ctx, `UPDATE transactions SET `+strings.Join(sets, ", ")+` WHERE id = ? AND owner_id = ?`, args...)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return models.Transaction{}, fmt.Errorf("update transaction: %w", err)
	} else if n == 0 {
		return models.Transaction{}, s.missOrMismatch(ctx, id)
	}
	return s.GetTransaction(ctx, id)
}

func (s *Store) DeleteOwnedTransaction(ctx context.Context, id, ownerID string) error {
	res, err := s.exec(ctx, `DELETE FROM transactions WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n == 0 {
		return s.missOrMismatch(ctx, id)
	}
	return nil
}

// missOrMismatch explains why a conditional write on id touched no rows.
func (s *Store) missOrMismatch(ctx context.Context, id string) error {
	var owner string
	err := s.queryRow(ctx, `SELECT owner_id FROM transactions WHERE id = ?`, id).Scan(&owner)
	if err != nil {
		return notFound(err, "transaction")
	}
	return repository.ErrOwnerMismatch
}
