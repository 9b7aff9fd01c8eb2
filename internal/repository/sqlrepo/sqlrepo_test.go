package sqlrepo

import (
	"os"
	"testing"

	"github.com/isdelr/incomesense-be/internal/database"
	"github.com/isdelr/incomesense-be/internal/repository"
	"github.com/isdelr/incomesense-be/internal/repository/repotest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestSQLiteStore(t *testing.T) {
	suite.Run(t, &repotest.Suite{NewStore: func() repository.Store {
		db, err := database.New(database.SQLite, ":memory:")
		require.NoError(t, err)
		require.NoError(t, database.Migrate(db, database.SQLite))
		store, err := New(db, SQLite)
		require.NoError(t, err)
		return store
	}})
}

// TestPostgresStore runs against a disposable database named by TEST_DATABASE_URL.
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	suite.Run(t, &repotest.Suite{NewStore: func() repository.Store {
		db, err := database.New(database.Postgres, dsn)
		require.NoError(t, err)
		require.NoError(t, database.Migrate(db, database.Postgres))
		_, err = db.Exec(`TRUNCATE events, transactions, users`)
		require.NoError(t, err)
		store, err := New(db, Postgres)
		require.NoError(t, err)
		return store
	}})
}

func TestRebind(t *testing.T) {
	pg := &Store{dialect: Postgres}
	lite := &Store{dialect: SQLite}

	q := `UPDATE transactions SET category = ?, updated_at = ? WHERE id = ? AND owner_id = ?`
	assert.Equal(t, `UPDATE transactions SET category = $1, updated_at = $2 WHERE id = $3 AND owner_id = $4`, pg.rebind(q))
	assert.Equal(t, q, lite.rebind(q))
}

func TestNewRejectsUnknownDialect(t *testing.T) {
	_, err := New(nil, "oracle")
	assert.Error(t, err)
}

func TestMigrateIsRepeatable(t *testing.T) {
	db, err := database.New(database.SQLite, ":memory:")
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, database.Migrate(db, database.SQLite))
	require.NoError(t, database.Migrate(db, database.SQLite))

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('users', 'transactions', 'events')`).Scan(&n))
	assert.Equal(t, 3, n)
}
