package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/incomesense-be/internal/models"
	"github.com/isdelr/incomesense-be/internal/repository"
	"github.com/isdelr/incomesense-be/internal/repository/repotest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestMemoryStore(t *testing.T) {
	suite.Run(t, &repotest.Suite{NewStore: func() repository.Store { return New() }})
}

func TestCreateUser_EmailClashWins(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	newUser := func(username, email string) models.User {
		return models.User{ID: uuid.NewString(), Username: username, Email: email, PasswordHash: "x", CreatedAt: now, UpdatedAt: now}
	}

	// Map iteration order varies, so repeat against fresh stores.
	for i := 0; i < 50; i++ {
		s := New()
		require.NoError(t, s.CreateUser(ctx, newUser("alice", "alice@example.com")))
		require.NoError(t, s.CreateUser(ctx, newUser("bob", "bob@example.com")))
		for j := 0; j < 5; j++ {
			require.NoError(t, s.CreateUser(ctx, newUser(uuid.NewString(), uuid.NewString()+"@example.com")))
		}

		err := s.CreateUser(ctx, newUser("bob", "alice@example.com"))
		assert.ErrorIs(t, err, repository.ErrDuplicateEmail)
	}
}
