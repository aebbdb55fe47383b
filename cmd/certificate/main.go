package main

import (
	"context"
	"flag"
	"fmt"

	"offsetmarket-buyer-go/internal/api"
	"offsetmarket-buyer-go/internal/common"
	"offsetmarket-buyer-go/internal/config"
	"offsetmarket-buyer-go/internal/store"

	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	idFlag := flag.Int64("id", 0, "Paid transaction id (required)")
	outFlag := flag.String("out", "", "Destination file (default certificate-<id>.pdf)")
	flag.Parse()

	if *idFlag <= 0 {
		logger.Fatal("--id is required and must be positive")
	}
	dest := *outFlag
	if dest == "" {
		dest = fmt.Sprintf("certificate-%d.pdf", *idFlag)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}

	history := store.NewHistoryStore(services.Client, false)
	if err := history.Refresh(ctx); err != nil {
		fmt.Println(api.UserMessage(err))
		logger.Fatal("Failed to fetch purchase history", zap.Error(err))
	}

	var certificateUrl string
	for _, record := range history.Records() {
		if record.TransactionId == *idFlag {
			certificateUrl = record.CertificateUrl
			break
		}
	}
	if certificateUrl == "" {
		logger.Fatal("No certificate for that transaction",
			zap.Int64("transaction_id", *idFlag))
	}

	if err := services.Client.DownloadCertificate(ctx, certificateUrl, dest); err != nil {
		fmt.Println(api.UserMessage(err))
		logger.Fatal("Certificate download failed", zap.Error(err))
	}

	fmt.Printf("Saved certificate for transaction #%d to %s\n", *idFlag, dest)
}
