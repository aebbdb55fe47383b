package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"offsetmarket-buyer-go/internal/common"
	"offsetmarket-buyer-go/internal/config"
	"offsetmarket-buyer-go/internal/store"
	"offsetmarket-buyer-go/internal/watcher"

	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	if !services.Session.IsAuthenticated() {
		logger.Fatal("Not logged in; run the login command first")
	}

	pending := store.NewPendingStore(services.Client)
	history := store.NewHistoryStore(services.Client, cfg.Watcher.TodayOnly)

	transactionWatcher, err := watcher.NewWatcher(watcher.Config{
		Pending:         pending,
		History:         history,
		PollingInterval: cfg.Watcher.PollingInterval,
	})
	if err != nil {
		logger.Fatal("Failed to build watcher", zap.Error(err))
	}

	common.PrintHeader("TRANSACTION WATCHER", common.DefaultWidth)
	fmt.Printf("Polling every %s. Press Ctrl+C to stop.\n", cfg.Watcher.PollingInterval)

	transactionWatcher.Start(ctx)
	<-ctx.Done()
	transactionWatcher.Stop()

	common.PrintFooter("Watcher stopped.", common.DefaultWidth)
}
