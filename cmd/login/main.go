package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"offsetmarket-buyer-go/internal/api"
	"offsetmarket-buyer-go/internal/common"
	"offsetmarket-buyer-go/internal/config"

	"go.uber.org/zap"
)

func parseFlags() (email, password string, logout bool, err error) {
	emailFlag := flag.String("email", "", "Account email (required unless --logout)")
	passwordFlag := flag.String("password", "", "Account password (required unless --logout)")
	logoutFlag := flag.Bool("logout", false, "Clear the stored session instead of logging in")
	flag.Parse()

	if *logoutFlag {
		return "", "", true, nil
	}
	if *emailFlag == "" || *passwordFlag == "" {
		return "", "", false, fmt.Errorf("both --email and --password are required")
	}
	return *emailFlag, *passwordFlag, false, nil
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	email, password, logout, err := parseFlags()
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

	if logout {
		if err := services.Session.Clear(); err != nil {
			logger.Fatal("Failed to clear session", zap.Error(err))
		}
		fmt.Println("Logged out.")
		return
	}

	login, err := services.Client.Login(ctx, email, password)
	if err != nil {
		fmt.Println(api.UserMessage(err))
		logger.Fatal("Login failed", zap.Error(err))
	}

	if err := services.Session.Save(login.Token, login.User, login.Roles, login.Permissions); err != nil {
		logger.Fatal("Failed to persist session", zap.Error(err))
	}

	common.PrintHeader("LOGIN", common.DefaultWidth)
	fmt.Printf("Logged in as %s\n", email)
	fmt.Printf("Roles: %s\n", strings.Join(login.Roles, ", "))
	common.PrintFooter("Session saved.", common.DefaultWidth)
}
