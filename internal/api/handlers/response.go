package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/isdelr/incomesense-be/internal/auth"
	"github.com/isdelr/incomesense-be/internal/services"
	"github.com/rs/zerolog/log"
)

const (
	msgInvalidBody = "Invalid request body"
	msgServerError = "Server Error"
)

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// writeMessage sends {"message": msg}.
func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// messages overrides the text used for resource-specific errors.
type messages struct {
	notFound  string
	forbidden string
}

// writeError maps a service error to a status code and client message.
// Unexpected errors are logged and hidden behind a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error, m messages) {
	switch {
	case errors.Is(err, services.ErrValidation):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrInvalidID):
		writeMessage(w, http.StatusBadRequest, "Invalid transaction ID format")
	case errors.Is(err, services.ErrDuplicateEmail):
		writeMessage(w, http.StatusBadRequest, "User already exists")
	case errors.Is(err, services.ErrDuplicateUsername):
		writeMessage(w, http.StatusBadRequest, "Username already taken")
	case errors.Is(err, services.ErrInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, services.ErrNotFound) && m.notFound != "":
		writeMessage(w, http.StatusNotFound, m.notFound)
	case errors.Is(err, services.ErrForbidden) && m.forbidden != "":
		writeMessage(w, http.StatusForbidden, m.forbidden)
	default:
		log.Error().Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("Request failed")
		writeMessage(w, http.StatusInternalServerError, msgServerError)
	}
}

// decodeJSON reads the request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	return dec.Decode(v)
}

// ownerID returns the user id placed on the context by the auth middleware.
// Routes using it are always mounted behind that middleware.
func ownerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := auth.OwnerIDFromContext(r.Context())
	if !ok {
		log.Error().Str("path", r.URL.Path).Msg("Could not retrieve user id from context")
		writeMessage(w, http.StatusUnauthorized, auth.MsgMissingToken)
	}
	return id, ok
}
