package main

import (
	"context"
	"fmt"

	"offsetmarket-buyer-go/internal/common"
	"offsetmarket-buyer-go/internal/config"
	"offsetmarket-buyer-go/internal/models"
	"offsetmarket-buyer-go/internal/store"

	"go.uber.org/zap"
)

func printPending(transactions []models.Transaction) {
	for i, transaction := range transactions {
		isLast := i == len(transactions)-1
		fmt.Printf("%s#%-6d %-35s %s\n",
			common.BoxPrefix(isLast),
			transaction.TransactionId,
			transaction.ZoneName,
			transaction.ZoneLocation)
		fmt.Printf("%s        %s @ %s/t = %s (tax %s, total %s)\n",
			common.BoxDetailPrefix(isLast),
			common.FormatTons(transaction.TotalCarbon),
			common.FormatAmount(transaction.PricePerTon),
			common.FormatAmount(transaction.TotalPrice),
			common.FormatAmount(transaction.Tax),
			common.FormatAmount(transaction.GrandTotal))
	}
}

func main() {
	ctx := context.Background()

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

	pending := store.NewPendingStore(services.Client)
	pending.Refresh(ctx)

	common.PrintHeader("PENDING PAYMENTS (TODAY)", common.DefaultWidth)
	transactions := pending.Transactions()
	if len(transactions) == 0 {
		fmt.Println("No pending transactions.")
	} else {
		printPending(transactions)
	}

	summary := fmt.Sprintf("SUMMARY: %d transaction(s) awaiting payment", len(transactions))
	common.PrintFooter(summary, common.DefaultWidth)
}
