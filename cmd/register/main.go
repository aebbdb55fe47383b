package main

import (
	"context"
	"flag"
	"fmt"

	"offsetmarket-buyer-go/internal/api"
	"offsetmarket-buyer-go/internal/common"
	"offsetmarket-buyer-go/internal/config"

	"go.uber.org/zap"
)

func parseFlags() (*api.RegisterParams, error) {
	params := &api.RegisterParams{}

	flag.StringVar(&params.Username, "username", "", "Account username (required)")
	flag.StringVar(&params.Email, "email", "", "Account email (required)")
	flag.StringVar(&params.Password, "password", "", "Password (required)")
	flag.StringVar(&params.PasswordConfirmation, "password-confirmation", "", "Password confirmation (required)")
	flag.StringVar(&params.FirstName, "first-name", "", "Contact first name (required)")
	flag.StringVar(&params.LastName, "last-name", "", "Contact last name (required)")
	flag.StringVar(&params.NationalId, "national-id", "", "Contact national id (required)")
	flag.StringVar(&params.BirthPlace, "birth-place", "", "Contact birth place")
	flag.StringVar(&params.BirthDate, "birth-date", "", "Contact birth date (YYYY-MM-DD)")
	flag.StringVar(&params.Gender, "gender", "", "Contact gender")
	flag.StringVar(&params.PhoneNumber, "phone", "", "Contact phone number (required)")
	flag.StringVar(&params.Address, "address", "", "Company street address (required)")
	flag.StringVar(&params.Village, "village", "", "Village")
	flag.StringVar(&params.Subdistrict, "subdistrict", "", "Subdistrict")
	flag.StringVar(&params.City, "city", "", "City (required)")
	flag.StringVar(&params.Province, "province", "", "Province (required)")
	flag.StringVar(&params.Country, "country", "", "Country (required)")
	flag.StringVar(&params.PostalCode, "postal-code", "", "Postal code (required)")
	flag.StringVar(&params.CompanyName, "company", "", "Company name (required)")
	flag.StringVar(&params.KycPersonalFile, "kyc-personal", "", "Path to personal KYC document")
	flag.StringVar(&params.KycCompanyFile, "kyc-company", "", "Path to company KYC document")
	flag.Parse()

	if params.Email == "" || params.Password == "" || params.CompanyName == "" {
		return nil, fmt.Errorf("at minimum --email, --password and --company are required; the server validates the rest")
	}
	return params, nil
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	params, err := parseFlags()
	if err != nil {
		logger.Fatal("Invalid flags", zap.Error(err))
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}

	common.PrintHeader("COMPANY REGISTRATION", common.DefaultWidth)
	if err := services.Client.Register(ctx, *params); err != nil {
		fmt.Println(api.UserMessage(err))
		logger.Fatal("Registration failed", zap.Error(err))
	}

	fmt.Printf("Registered %s (%s) as a buyer.\n", params.CompanyName, params.Email)
	common.PrintFooter("You can now log in.", common.DefaultWidth)
}
