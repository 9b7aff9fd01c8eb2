// Package mongorepo implements repository.Store on MongoDB.
package mongorepo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/isdelr/incomesense-be/internal/models"
	"github.com/isdelr/incomesense-be/internal/repository"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection        = "users"
	transactionsCollection = "transactions"
	eventsCollection       = "events"

	emailIndex    = "email_unique"
	usernameIndex = "username_unique"
)

type userDoc struct {
	ID           string    `bson:"_id"`
	Username     string    `bson:"username"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password"`
	CreatedAt    time.Time `bson:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt"`
}

type transactionDoc struct {
	ID          string               `bson:"_id"`
	User        string               `bson:"user"`
	Type        string               `bson:"type"`
	Category    string               `bson:"category"`
	Amount      primitive.Decimal128 `bson:"amount"`
	Date        time.Time            `bson:"date"`
	Description string               `bson:"description"`
	CreatedAt   time.Time            `bson:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt"`
}

type eventDoc struct {
	ID            string    `bson:"_id"`
	Owner         string    `bson:"owner"`
	Type          string    `bson:"type"`
	TransactionID string    `bson:"transactionId,omitempty"`
	Message       string    `bson:"message"`
	CreatedAt     time.Time `bson:"createdAt"`
}

// Store is a repository.Store backed by one MongoDB database.
type Store struct {
	db           *mongo.Database
	users        *mongo.Collection
	transactions *mongo.Collection
	events       *mongo.Collection
}

var _ repository.Store = (*Store)(nil)

// New wraps db and makes sure the indexes the store relies on exist.
func New(ctx context.Context, db *mongo.Database) (*Store, error) {
	s := &Store{
		db:           db,
		users:        db.Collection(usersCollection),
		transactions: db.Collection(transactionsCollection),
		events:       db.Collection(eventsCollection),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName(emailIndex)},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true).SetName(usernameIndex)},
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	_, err = s.transactions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user", Value: 1}, {Key: "date", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create transaction indexes: %w", err)
	}
	_, err = s.events.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "createdAt", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create event indexes: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, nil)
}

func (s *Store) Close(ctx context.Context) error {
	return s.db.Client().Disconnect(ctx)
}

func (s *Store) CreateUser(ctx context.Context, user models.User) error {
	_, err := s.users.InsertOne(ctx, userDoc{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt.UTC(),
		UpdatedAt:    user.UpdatedAt.UTC(),
	})
	if mongo.IsDuplicateKeyError(err) {
		if strings.Contains(err.Error(), usernameIndex) {
			return repository.ErrDuplicateUsername
		}
		return repository.ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Store) findUser(ctx context.Context, filter bson.D) (models.User, error) {
	var doc userDoc
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		return models.User{}, notFound(err, "user")
	}
	return models.User{
		ID:           doc.ID,
		Username:     doc.Username,
		Email:        doc.Email,
		PasswordHash: doc.PasswordHash,
		CreatedAt:    doc.CreatedAt.UTC(),
		UpdatedAt:    doc.UpdatedAt.UTC(),
	}, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	return s.findUser(ctx, bson.D{{Key: "email", Value: email}})
}

func (s *Store) GetUserByID(ctx context.Context, id string) (models.User, error) {
	u, err := s.findUser(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return models.User{}, err
	}
	return u.Sanitized(), nil
}

func notFound(err error, what string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return repository.ErrNotFound
	}
	return fmt.Errorf("find %s: %w", what, err)
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	return primitive.ParseDecimal128(d.String())
}

func fromDecimal128(d primitive.Decimal128) (decimal.Decimal, error) {
	return decimal.NewFromString(d.String())
}
