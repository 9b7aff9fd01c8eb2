package services

import (
	"context"

	"github.com/isdelr/incomesense-be/internal/ledger"
	"github.com/isdelr/incomesense-be/internal/repository"
)

// SummaryServiceProvider defines the interface for the reporting service.
type SummaryServiceProvider interface {
	Report(ctx context.Context, ownerID string, p ledger.Period) (ledger.Report, error)
}

// SummaryService computes reports over an owner's full transaction history.
type SummaryService struct {
	transactions repository.TransactionRepository
}

func NewSummaryService(transactions repository.TransactionRepository) *SummaryService {
	return &SummaryService{transactions: transactions}
}

func (s *SummaryService) Report(ctx context.Context, ownerID string, p ledger.Period) (ledger.Report, error) {
	txs, err := s.transactions.ListTransactions(ctx, ownerID)
	if err != nil {
		return ledger.Report{}, err
	}
	return ledger.BuildReport(txs, p), nil
}
