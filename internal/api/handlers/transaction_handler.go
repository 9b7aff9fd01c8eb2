package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/incomesense-be/internal/models"
	"github.com/isdelr/incomesense-be/internal/services"
	"github.com/shopspring/decimal"
)

// TransactionHandler handles HTTP requests for the transaction resource.
type TransactionHandler struct {
	service services.TransactionServiceProvider
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(service services.TransactionServiceProvider) *TransactionHandler {
	return &TransactionHandler{service: service}
}

// dateLayouts are tried in order when decoding a transaction date.
var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

var errInvalidDate = errors.New("invalid date")

// flexibleTime accepts full timestamps and plain calendar dates (read as UTC midnight).
type flexibleTime struct {
	time.Time
}

func (t *flexibleTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", errInvalidDate, data)
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			if parsed.IsZero() {
				return fmt.Errorf("%w: %q", errInvalidDate, s)
			}
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("%w: %q", errInvalidDate, s)
}

// TransactionPayload is the request body for create and update. Absent or
// null fields decode to nil.
type TransactionPayload struct {
	Type        *string          `json:"type"`
	Category    *string          `json:"category"`
	Amount      *decimal.Decimal `json:"amount"`
	Date        *flexibleTime    `json:"date"`
	Description *string          `json:"description"`
}

func (p TransactionPayload) date() *time.Time {
	if p.Date == nil {
		return nil
	}
	d := p.Date.Time
	return &d
}

func (h *TransactionHandler) decode(w http.ResponseWriter, r *http.Request) (TransactionPayload, bool) {
	var payload TransactionPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		if errors.Is(err, errInvalidDate) {
			writeMessage(w, http.StatusBadRequest, "Invalid date format")
		} else {
			writeMessage(w, http.StatusBadRequest, msgInvalidBody)
		}
		return TransactionPayload{}, false
	}
	return payload, true
}

// GetAll lists the caller's transactions, newest first.
func (h *TransactionHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	txs, err := h.service.List(r.Context(), owner)
	if err != nil {
		writeError(w, r, err, messages{})
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

// Create adds a transaction for the caller.
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	payload, ok := h.decode(w, r)
	if !ok {
		return
	}
	if payload.Type == nil || payload.Category == nil || payload.Amount == nil {
		writeMessage(w, http.StatusBadRequest, "Please include all required fields: type, category, and amount")
		return
	}

	in := services.NewTransaction{
		Type:     models.TransactionKind(*payload.Type),
		Category: *payload.Category,
		Amount:   *payload.Amount,
		Date:     payload.date(),
	}
	if payload.Description != nil {
		in.Description = *payload.Description
	}

	tx, err := h.service.Create(r.Context(), owner, in)
	if err != nil {
		writeError(w, r, err, messages{})
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

// Update applies the fields present in the body to one of the caller's transactions.
func (h *TransactionHandler) Update(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	payload, ok := h.decode(w, r)
	if !ok {
		return
	}

	patch := models.TransactionPatch{
		Category:    payload.Category,
		Amount:      payload.Amount,
		Date:        payload.date(),
		Description: payload.Description,
	}
	if payload.Type != nil {
		kind := models.TransactionKind(*payload.Type)
		patch.Type = &kind
	}

	tx, err := h.service.Update(r.Context(), owner, chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, r, err, messages{
			notFound:  "Transaction not found",
			forbidden: "Not authorized to update this transaction",
		})
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

// Delete removes one of the caller's transactions.
func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	err := h.service.Delete(r.Context(), owner, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err, messages{
			notFound:  "Transaction not found",
			forbidden: "Not authorized to delete this transaction",
		})
		return
	}
	writeMessage(w, http.StatusOK, "Transaction removed")
}
