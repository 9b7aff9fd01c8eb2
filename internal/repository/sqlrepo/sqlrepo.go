// Package sqlrepo implements repository.Store on database/sql for SQLite and Postgres.
// Queries are written with ? placeholders and rebound for Postgres.
package sqlrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/isdelr/incomesense-be/internal/models"
	"github.com/isdelr/incomesense-be/internal/repository"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	SQLite   = "sqlite"
	Postgres = "postgres"
)

// Store is a repository.Store backed by a *sql.DB.
type Store struct {
	db      *sql.DB
	dialect string
}

var _ repository.Store = (*Store)(nil)

// New wraps db. dialect selects placeholder style and error classification.
func New(db *sql.DB, dialect string) (*Store, error) {
	if dialect != SQLite && dialect != Postgres {
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}
	return &Store{db: db, dialect: dialect}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close(ctx context.Context) error {
	return s.db.Close()
}

// rebind rewrites ? placeholders to $1, $2... for Postgres.
func (s *Store) rebind(query string) string {
	if s.dialect != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.rebind(query), args...)
}

func (s *Store) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.rebind(query), args...)
}

func (s *Store) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.rebind(query), args...)
}

// uniqueViolation returns the column named by a unique constraint failure, or "".
func (s *Store) uniqueViolation(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != "23505" {
			return ""
		}
		switch {
		case strings.Contains(pgErr.ConstraintName, "email"):
			return "email"
		case strings.Contains(pgErr.ConstraintName, "username"):
			return "username"
		}
		return pgErr.ConstraintName
	}

	// modernc reports "UNIQUE constraint failed: users.email (2067)".
	msg := err.Error()
	if i := strings.Index(msg, "UNIQUE constraint failed: "); i >= 0 {
		rest := msg[i+len("UNIQUE constraint failed: "):]
		switch {
		case strings.HasPrefix(rest, "users.email"):
			return "email"
		case strings.HasPrefix(rest, "users.username"):
			return "username"
		}
		return rest
	}
	return ""
}

// utc normalises times before they are written so text-encoded SQLite
// timestamps compare in chronological order.
func utc(t time.Time) time.Time {
	return t.UTC()
}

func (s *Store) CreateUser(ctx context.Context, user models.User) error {
	_, err := s.exec(ctx,
		`INSERT INTO users (id, username, email, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID, user.Username, user.Email, user.PasswordHash, utc(user.CreatedAt), utc(user.UpdatedAt),
	)
	if err != nil {
		switch s.uniqueViolation(err) {
		case "email":
			return repository.ErrDuplicateEmail
		case "username":
			return repository.ErrDuplicateUsername
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := s.queryRow(ctx,
		`SELECT id, username, email, password_hash, created_at, updated_at FROM users WHERE email = ?`, email,
	).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return models.User{}, notFound(err, "user")
	}
	u.CreatedAt, u.UpdatedAt = utc(u.CreatedAt), utc(u.UpdatedAt)
	return u, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (models.User, error) {
	var u models.User
	err := s.queryRow(ctx,
		`SELECT id, username, email, created_at, updated_at FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return models.User{}, notFound(err, "user")
	}
	u.CreatedAt, u.UpdatedAt = utc(u.CreatedAt), utc(u.UpdatedAt)
	return u, nil
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	return fmt.Errorf("query %s: %w", what, err)
}
