package store

import (
	"context"
	"time"

	"offsetmarket-buyer-go/internal/models"

	"go.uber.org/zap"
)

// Server timestamp layouts, most common first.
var transactionDateLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02",
}

// PurchaseRecord is a paid transaction projected for display: parsed
// timestamp, formatted date/time strings and a normalized certificate URL.
// The underlying server record is never mutated.
type PurchaseRecord struct {
	models.Transaction

	PurchasedAt    time.Time
	FormattedDate  string
	FormattedTime  string
	CertificateUrl string
}

// HistoryStore holds the buyer's completed purchases.
type HistoryStore struct {
	client    Lister
	todayOnly bool
	records   []PurchaseRecord
}

// NewHistoryStore builds a history store. todayOnly narrows the fetch to
// today's purchases for views that want that.
func NewHistoryStore(client Lister, todayOnly bool) *HistoryStore {
	return &HistoryStore{client: client, todayOnly: todayOnly}
}

// Refresh fetches paid transactions and derives the display projection for
// each record.
func (s *HistoryStore) Refresh(ctx context.Context) error {
	transactions, err := s.client.ListTransactions(ctx, models.StatusPaid, s.todayOnly)
	if err != nil {
		return err
	}

	records := make([]PurchaseRecord, 0, len(transactions))
	for _, transaction := range transactions {
		records = append(records, projectPurchase(transaction))
	}
	s.records = records

	zap.L().Debug("Purchase history refreshed", zap.Int("count", len(records)))
	return nil
}

// Records returns the current history in server order.
func (s *HistoryStore) Records() []PurchaseRecord {
	return s.records
}

func projectPurchase(transaction models.Transaction) PurchaseRecord {
	record := PurchaseRecord{
		Transaction:    transaction,
		CertificateUrl: NormalizeCertificateUrl(transaction.CertificateUrl),
	}

	purchasedAt, ok := parseTransactionDate(transaction.TransactionDate)
	if !ok {
		zap.L().Warn("Unparseable transaction date",
			zap.Int64("transaction_id", transaction.TransactionId),
			zap.String("transaction_date", transaction.TransactionDate))
		return record
	}

	record.PurchasedAt = purchasedAt
	record.FormattedDate = purchasedAt.Format("January 2, 2006")
	record.FormattedTime = purchasedAt.Format("15:04")
	return record
}

func parseTransactionDate(value string) (time.Time, bool) {
	for _, layout := range transactionDateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}
