package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Amounts travel as JSON numbers, matching what clients send.
	decimal.MarshalJSONWithoutQuotes = true
}

// TransactionKind is either income or expense.
type TransactionKind string

const (
	Income  TransactionKind = "income"
	Expense TransactionKind = "expense"
)

// Valid reports whether k is one of the known kinds.
func (k TransactionKind) Valid() bool {
	return k == Income || k == Expense
}

// Transaction is a single income or expense entry owned by exactly one user.
type Transaction struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"user"`
	Type        TransactionKind `json:"type"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// TransactionPatch carries the fields of a partial update. A nil field is
// left unchanged; a non-nil Description may be empty to clear it.
type TransactionPatch struct {
	Type        *TransactionKind
	Category    *string
	Amount      *decimal.Decimal
	Date        *time.Time
	Description *string
}

// IsEmpty reports whether the patch changes nothing.
func (p TransactionPatch) IsEmpty() bool {
	return p.Type == nil && p.Category == nil && p.Amount == nil && p.Date == nil && p.Description == nil
}

// Apply merges the patch into t.
func (p TransactionPatch) Apply(t *Transaction) {
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
}
