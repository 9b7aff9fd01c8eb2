package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/isdelr/incomesense-be/internal/ledger"
	"github.com/isdelr/incomesense-be/internal/services"
)

// SummaryHandler serves the period report.
type SummaryHandler struct {
	service services.SummaryServiceProvider
	now     func() time.Time
}

// NewSummaryHandler creates a new SummaryHandler.
func NewSummaryHandler(service services.SummaryServiceProvider) *SummaryHandler {
	return &SummaryHandler{service: service, now: time.Now}
}

// Get handles GET /summary?month=&year=. Missing values default to the current UTC month.
func (h *SummaryHandler) Get(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	current := ledger.PeriodOf(h.now().UTC())
	month, err := intQuery(r, "month", current.Month)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid month")
		return
	}
	year, err := intQuery(r, "year", current.Year)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid year")
		return
	}
	period, err := ledger.NewPeriod(month, year)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.service.Report(r.Context(), owner, period)
	if err != nil {
		writeError(w, r, err, messages{})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func intQuery(r *http.Request, key string, fallback int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
