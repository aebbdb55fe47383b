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

func printRecords(records []store.PurchaseRecord) {
	for i, record := range records {
		isLast := i == len(records)-1
		fmt.Printf("%s#%-6d %-35s %s\n",
			common.BoxPrefix(isLast),
			record.TransactionId,
			record.ZoneName,
			record.ZoneLocation)
		fmt.Printf("%s        %s for %s, paid %s at %s\n",
			common.BoxDetailPrefix(isLast),
			common.FormatTons(record.TotalCarbon),
			common.FormatAmount(record.GrandTotal),
			record.FormattedDate,
			record.FormattedTime)
		if record.CertificateUrl != "" {
			fmt.Printf("%s        certificate: %s\n",
				common.BoxDetailPrefix(isLast), record.CertificateUrl)
		}
	}
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	todayFlag := flag.Bool("today", false, "Only show purchases settled today")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}

	history := store.NewHistoryStore(services.Client, *todayFlag)
	if err := history.Refresh(ctx); err != nil {
		fmt.Println(api.UserMessage(err))
		logger.Fatal("Failed to fetch purchase history", zap.Error(err))
	}

	common.PrintHeader("PURCHASE HISTORY", common.DefaultWidth)
	records := history.Records()
	if len(records) == 0 {
		fmt.Println("No completed purchases.")
	} else {
		printRecords(records)
	}

	summary := fmt.Sprintf("SUMMARY: %d completed purchase(s)", len(records))
	common.PrintFooter(summary, common.DefaultWidth)
}
