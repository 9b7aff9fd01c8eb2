package handlers

import (
	"net/http"

	"github.com/isdelr/incomesense-be/internal/models"
	"github.com/isdelr/incomesense-be/internal/services"
	"github.com/rs/zerolog/log"
)

// TokenIssuer signs session tokens for a user id.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

// UserHandler handles registration, login and the current-user lookup.
type UserHandler struct {
	service services.UserServiceProvider
	tokens  TokenIssuer
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider, tokens TokenIssuer) *UserHandler {
	return &UserHandler{service: service, tokens: tokens}
}

// AuthPayload defines the structure for login requests.
type AuthPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterPayload defines the structure for registration requests.
type RegisterPayload struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Token    string `json:"token"`
}

// Register handles new user registration.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		writeMessage(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	user, err := h.service.Register(r.Context(), payload.Username, payload.Email, payload.Password)
	if err != nil {
		log.Warn().Err(err).Str("email", services.NormalizeEmail(payload.Email)).Msg("Failed to register user")
		writeError(w, r, err, messages{})
		return
	}
	h.respondWithToken(w, r, http.StatusCreated, user)
}

// Login handles user authentication and token generation.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload AuthPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		writeMessage(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	user, err := h.service.Authenticate(r.Context(), payload.Email, payload.Password)
	if err != nil {
		log.Warn().Err(err).Str("email", services.NormalizeEmail(payload.Email)).Msg("Failed authentication attempt")
		writeError(w, r, err, messages{})
		return
	}
	h.respondWithToken(w, r, http.StatusOK, user)
}

func (h *UserHandler) respondWithToken(w http.ResponseWriter, r *http.Request, status int, user models.User) {
	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		writeError(w, r, err, messages{})
		return
	}
	writeJSON(w, status, AuthResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Token:    token,
	})
}

// GetMe retrieves the currently authenticated user.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	id, ok := ownerID(w, r)
	if !ok {
		return
	}

	user, err := h.service.GetUserByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err, messages{notFound: "User not found"})
		return
	}
	writeJSON(w, http.StatusOK, user.Sanitized())
}
