package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"offsetmarket-buyer-go/internal/api"
	"offsetmarket-buyer-go/internal/common"
	"offsetmarket-buyer-go/internal/config"
	"offsetmarket-buyer-go/internal/needs"

	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	tonsFlag := flag.String("tons", "", "Carbon needs in tons CO2e (required)")
	forestFlag := flag.String("forest", "", "Preferred forest or zone keyword (optional)")
	notesFlag := flag.String("notes", "", "Notes for the marketplace (optional)")
	agreeFlag := flag.Bool("agree", false, "Agree to the marketplace terms (required)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}

	form := needs.NewForm(services.Client)
	fields := map[string]string{
		needs.FieldCarbonNeeds:     *tonsFlag,
		needs.FieldPreferredForest: *forestFlag,
		needs.FieldNotes:           *notesFlag,
		needs.FieldAgreeToTerms:    fmt.Sprintf("%t", *agreeFlag),
	}
	for name, value := range fields {
		if err := form.SetField(name, value); err != nil {
			logger.Fatal("Invalid field", zap.String("field", name), zap.Error(err))
		}
	}

	common.PrintHeader("SUBMIT CARBON NEEDS", common.DefaultWidth)
	if err := form.Submit(ctx); err != nil {
		var validation *needs.ValidationError
		if errors.As(err, &validation) {
			fmt.Printf("Invalid submission: %s\n", validation.Error())
		} else {
			fmt.Println(api.UserMessage(err))
		}
		logger.Fatal("Needs submission failed", zap.Error(err))
	}

	fmt.Printf("Submitted a request for %s tons.\n", *tonsFlag)
	common.PrintFooter("Check pending transactions to complete the payment.", common.DefaultWidth)
}
