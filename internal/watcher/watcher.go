package watcher

import (
	"context"
	"fmt"
	"time"

	"offsetmarket-buyer-go/internal/models"
	"offsetmarket-buyer-go/internal/store"

	"go.uber.org/zap"
)

// ANSI color helpers for console output.
const (
	colorReset = "\033[0m"
	colorGreen = "\033[32m"
	colorCyan  = "\033[36m"
)

// Config contains configuration for the transaction watcher.
type Config struct {
	Pending         *store.PendingStore
	History         *store.HistoryStore
	PollingInterval time.Duration
}

// Watcher periodically re-fetches the pending and history stores and
// reports settlements: a transaction that left the pending set and showed
// up as paid. Polls are sequential; a request in flight is not cancelled
// mid-poll, the loop just stops at the next tick.
type Watcher struct {
	pending         *store.PendingStore
	history         *store.HistoryStore
	pollingInterval time.Duration

	knownPending map[int64]models.Transaction

	stopChan chan struct{}
	doneChan chan struct{}
}

func NewWatcher(cfg Config) (*Watcher, error) {
	if cfg.Pending == nil || cfg.History == nil {
		return nil, fmt.Errorf("watcher requires both stores")
	}
	if cfg.PollingInterval <= 0 {
		return nil, fmt.Errorf("polling interval must be positive, got %v", cfg.PollingInterval)
	}
	return &Watcher{
		pending:         cfg.Pending,
		history:         cfg.History,
		pollingInterval: cfg.PollingInterval,
		knownPending:    make(map[int64]models.Transaction),
		stopChan:        make(chan struct{}),
		doneChan:        make(chan struct{}),
	}, nil
}

// Start begins polling until the context is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	zap.L().Info("Starting transaction watcher",
		zap.Duration("polling_interval", w.pollingInterval))
	go w.pollLoop(ctx)
}

// Stop stops the watcher and waits for the loop to exit.
func (w *Watcher) Stop() {
	zap.L().Info("Stopping transaction watcher")
	close(w.stopChan)
	<-w.doneChan
	zap.L().Info("Transaction watcher stopped")
}

func (w *Watcher) pollLoop(ctx context.Context) {
	defer close(w.doneChan)

	ticker := time.NewTicker(w.pollingInterval)
	defer ticker.Stop()

	w.poll(ctx)

	for {
		select {
		case <-ticker.C:
			w.poll(ctx)
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (w *Watcher) poll(ctx context.Context) {
	fmt.Printf("%s[%s] Refreshing transactions%s\n",
		colorCyan, time.Now().Format("15:04:05"), colorReset)

	w.pending.Refresh(ctx)
	if err := w.history.Refresh(ctx); err != nil {
		zap.L().Warn("History refresh failed during watch", zap.Error(err))
	}

	current := make(map[int64]models.Transaction, len(w.pending.Transactions()))
	for _, transaction := range w.pending.Transactions() {
		current[transaction.TransactionId] = transaction
		if _, known := w.knownPending[transaction.TransactionId]; !known {
			fmt.Printf("  new pending: #%d %s (%s, grand total %s)\n",
				transaction.TransactionId, transaction.ZoneName,
				transaction.ZoneLocation, transaction.GrandTotal.String())
		}
	}

	paid := make(map[int64]store.PurchaseRecord, len(w.history.Records()))
	for _, record := range w.history.Records() {
		paid[record.TransactionId] = record
	}

	for transactionId, transaction := range w.knownPending {
		if _, stillPending := current[transactionId]; stillPending {
			continue
		}
		if record, nowPaid := paid[transactionId]; nowPaid {
			fmt.Printf("%s  settled: #%d %s, certificate %s%s\n",
				colorGreen, transactionId, transaction.ZoneName, record.CertificateUrl, colorReset)
			zap.L().Info("Transaction settled",
				zap.Int64("transaction_id", transactionId),
				zap.String("certificate_url", record.CertificateUrl))
		} else {
			zap.L().Info("Transaction left pending set",
				zap.Int64("transaction_id", transactionId))
		}
	}

	w.knownPending = current
}
