package store

import (
	"context"

	"offsetmarket-buyer-go/internal/models"

	"go.uber.org/zap"
)

// Lister is the part of the API client the stores need.
type Lister interface {
	ListTransactions(ctx context.Context, status string, todayOnly bool) ([]models.Transaction, error)
}

// PendingStore holds today's transactions awaiting payment for the current
// buyer. It is owned by a single session; callers refresh it on mount and
// again after any payment completes. The store never re-sorts: the order is
// whatever the server returned.
type PendingStore struct {
	client       Lister
	transactions []models.Transaction
}

func NewPendingStore(client Lister) *PendingStore {
	return &PendingStore{client: client}
}

// Refresh fetches the pending set. On fetch failure the previous list stays
// untouched and the condition is only logged; nothing is retried and no
// error is surfaced to the user.
func (s *PendingStore) Refresh(ctx context.Context) {
	transactions, err := s.client.ListTransactions(ctx, models.StatusPendingPayment, true)
	if err != nil {
		zap.L().Warn("Pending transaction refresh failed, keeping previous list",
			zap.Int("previous_count", len(s.transactions)),
			zap.Error(err))
		return
	}

	for i := range transactions {
		if err := transactions[i].VerifyTotals(); err != nil {
			zap.L().Warn("Server-computed totals are inconsistent", zap.Error(err))
		}
	}

	s.transactions = transactions
	zap.L().Debug("Pending transactions refreshed", zap.Int("count", len(transactions)))
}

// Transactions returns the current pending list in server order.
func (s *PendingStore) Transactions() []models.Transaction {
	return s.transactions
}

// Find returns the pending transaction with the given id, if present.
func (s *PendingStore) Find(transactionId int64) (*models.Transaction, bool) {
	for i := range s.transactions {
		if s.transactions[i].TransactionId == transactionId {
			return &s.transactions[i], true
		}
	}
	return nil, false
}

// Contains reports whether the id references a currently-pending
// transaction.
func (s *PendingStore) Contains(transactionId int64) bool {
	_, ok := s.Find(transactionId)
	return ok
}
