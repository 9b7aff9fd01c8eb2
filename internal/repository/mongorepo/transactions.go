package mongorepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/isdelr/incomesense-be/internal/models"
	"github.com/isdelr/incomesense-be/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (doc transactionDoc) model() (models.Transaction, error) {
	amount, err := fromDecimal128(doc.Amount)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("decode amount of %s: %w", doc.ID, err)
	}
	return models.Transaction{
		ID:          doc.ID,
		OwnerID:     doc.User,
		Type:        models.TransactionKind(doc.Type),
		Category:    doc.Category,
		Amount:      amount,
		Date:        doc.Date.UTC(),
		Description: doc.Description,
		CreatedAt:   doc.CreatedAt.UTC(),
		UpdatedAt:   doc.UpdatedAt.UTC(),
	}, nil
}

func (s *Store) CreateTransaction(ctx context.Context, t models.Transaction) error {
	amount, err := toDecimal128(t.Amount)
	if err != nil {
		return fmt.Errorf("encode amount: %w", err)
	}
	_, err = s.transactions.InsertOne(ctx, transactionDoc{
		ID:          t.ID,
		User:        t.OwnerID,
		Type:        string(t.Type),
		Category:    t.Category,
		Amount:      amount,
		Date:        t.Date.UTC(),
		Description: t.Description,
		CreatedAt:   t.CreatedAt.UTC(),
		UpdatedAt:   t.UpdatedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (s *Store) GetTransaction(ctx context.Context, id string) (models.Transaction, error) {
	var doc transactionDoc
	if err := s.transactions.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc); err != nil {
		return models.Transaction{}, notFound(err, "transaction")
	}
	return doc.model()
}

func (s *Store) ListTransactions(ctx context.Context, ownerID string) ([]models.Transaction, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "createdAt", Value: -1}})
	cur, err := s.transactions.Find(ctx, bson.D{{Key: "user", Value: ownerID}}, opts)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer cur.Close(ctx)

	out := make([]models.Transaction, 0)
	for cur.Next(ctx) {
		var doc transactionDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode transaction: %w", err)
		}
		t, err := doc.model()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, cur.Err()
}

func (s *Store) UpdateOwnedTransaction(ctx context.Context, id, ownerID string, patch models.TransactionPatch, updatedAt time.Time) (models.Transaction, error) {
	set := bson.D{{Key: "updatedAt", Value: updatedAt.UTC()}}
	if patch.Type != nil {
		set = append(set, bson.E{Key: "type", Value: string(*patch.Type)})
	}
	if patch.Category != nil {
		set = append(set, bson.E{Key: "category", Value: *patch.Category})
	}
	if patch.Amount != nil {
		amount, err := toDecimal128(*patch.Amount)
		if err != nil {
			return models.Transaction{}, fmt.Errorf("encode amount: %w", err)
		}
		set = append(set, bson.E{Key: "amount", Value: amount})
	}
	if patch.Date != nil {
		set = append(set, bson.E{Key: "date", Value: patch.Date.UTC()})
	}
	if patch.Description != nil {
		set = append(set, bson.E{Key: "description", Value: *patch.Description})
	}

	var doc transactionDoc
	err := s.transactions.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}, {Key: "user", Value: ownerID}},
		bson.D{{Key: "$set", Value: set}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Transaction{}, s.missOrMismatch(ctx, id)
	}
	if err != nil {
		return models.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	return doc.model()
}

func (s *Store) DeleteOwnedTransaction(ctx context.Context, id, ownerID string) error {
	res, err := s.transactions.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}, {Key: "user", Value: ownerID}})
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if res.DeletedCount == 0 {
		return s.missOrMismatch(ctx, id)
	}
	return nil
}

func (s *Store) missOrMismatch(ctx context.Context, id string) error {
	n, err := s.transactions.CountDocuments(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("count transaction: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return repository.ErrOwnerMismatch
}
