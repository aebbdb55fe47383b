package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"offsetmarket-buyer-go/internal/common"
	"offsetmarket-buyer-go/internal/config"
	"offsetmarket-buyer-go/internal/mockapi"

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

	logger.Info("Connecting to database", zap.String("path", cfg.MockServer.Database.Path))
	storage, err := mockapi.NewStorage(ctx, cfg.MockServer.Database)
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer storage.Close()

	server, err := mockapi.NewServer(cfg.MockServer, storage)
	if err != nil {
		logger.Fatal("Failed to build server", zap.Error(err))
	}

	if err := server.Run(ctx); err != nil {
		logger.Fatal("Server exited with error", zap.Error(err))
	}
	logger.Info("Server stopped")
}
