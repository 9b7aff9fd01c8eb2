package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

type contextKey string

// OwnerIDKey is the context key for the authenticated user id.
const OwnerIDKey = contextKey("ownerID")

// Messages returned to clients for rejected requests.
const (
	MsgMissingToken = "Not authorized, no token"
	MsgInvalidToken = "Invalid token, not authorized"
	MsgExpiredToken = "Token expired, please log in again"
)

// Verifier resolves a bearer token to a user id.
type Verifier interface {
	Verify(token string) (string, error)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(header string) (string, error) {
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", ErrMissingToken
	}
	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}

// Authenticate runs the full gate check against a header value.
func Authenticate(v Verifier, header string) (string, error) {
	token, err := BearerToken(header)
	if err != nil {
		return "", err
	}
	return v.Verify(token)
}

// WithOwnerID returns a copy of ctx carrying the user id.
func WithOwnerID(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, OwnerIDKey, ownerID)
}

// OwnerIDFromContext returns the authenticated user id, if any.
func OwnerIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(OwnerIDKey).(string)
	return id, ok && id != ""
}

// Middleware creates a middleware for protecting routes. The resolved user id
// is trusted downstream without another lookup.
func Middleware(v Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ownerID, err := Authenticate(v, r.Header.Get("Authorization"))
			if err != nil {
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("Rejected unauthenticated request")
				reject(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithOwnerID(r.Context(), ownerID)))
		})
	}
}

// RejectionMessage maps a gate error to the message sent to the client.
func RejectionMessage(err error) string {
	switch {
	case errors.Is(err, ErrMissingToken):
		return MsgMissingToken
	case errors.Is(err, ErrTokenExpired):
		return MsgExpiredToken
	default:
		return MsgInvalidToken
	}
}

func reject(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"message": RejectionMessage(err)})
}
