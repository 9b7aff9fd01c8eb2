package models

import "time"

// Event types recorded in the activity log.
const (
	EventTransactionCreated = "transaction.create"
	EventTransactionUpdated = "transaction.update"
	EventTransactionDeleted = "transaction.delete"
)

// Event represents an entry in an owner's activity log.
type Event struct {
	ID            string    `json:"id"`
	OwnerID       string    `json:"-"`
	Type          string    `json:"type"` // e.g., "transaction.create"
	TransactionID string    `json:"transactionId"`
	Message       string    `json:"message"`
	CreatedAt     time.Time `json:"createdAt"`
}
