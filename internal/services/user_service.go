package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/incomesense-be/internal/models"
	"github.com/isdelr/incomesense-be/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	Register(ctx context.Context, username, email, password string) (models.User, error)
	Authenticate(ctx context.Context, email, password string) (models.User, error)
	GetUserByID(ctx context.Context, id string) (models.User, error)
}

// UserService provides business logic for user management.
type UserService struct {
	users repository.UserRepository
	cost  int
	now   func() time.Time
}

// NewUserService creates a new UserService.
func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users, cost: bcrypt.DefaultCost, now: time.Now}
}

// bcrypt rejects longer passwords.
const maxPasswordBytes = 72

type registration struct {
	Username string `validate:"required,min=3,max=50"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

// NormalizeEmail trims and lower-cases an address the way it is stored.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register validates the input, hashes the password and stores a new user.
// The returned user never carries the hash.
func (s *UserService) Register(ctx context.Context, username, email, password string) (models.User, error) {
	in := registration{
		Username: strings.TrimSpace(username),
		Email:    NormalizeEmail(email),
		Password: password,
	}
	var extra []string
	if len(in.Password) > maxPasswordBytes {
		extra = append(extra, fmt.Sprintf("Password cannot be more than %d bytes", maxPasswordBytes))
	}
	if err := check(in, extra...); err != nil {
		return models.User{}, err
	}

	// A taken email is reported even when the username is taken too.
	if _, err := s.users.GetUserByEmail(ctx, in.Email); err == nil {
		return models.User{}, ErrDuplicateEmail
	} else if !errors.Is(err, repository.ErrNotFound) {
		return models.User{}, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now().UTC()
	user := models.User{
		ID:           uuid.New().String(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hashedPassword),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return models.User{}, err
	}
	return user.Sanitized(), nil
}

// Authenticate verifies a user's credentials. Unknown email and wrong password
// are indistinguishable to the caller.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	user, err := s.users.GetUserByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, err
	}

	if !VerifyPassword(user, password) {
		return models.User{}, ErrInvalidCredentials
	}
	return user.Sanitized(), nil
}

// VerifyPassword reports whether candidate matches the user's stored hash.
func VerifyPassword(user models.User, candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(candidate)) == nil
}

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(ctx context.Context, id string) (models.User, error) {
	return s.users.GetUserByID(ctx, id)
}
