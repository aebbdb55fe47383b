package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"offsetmarket-buyer-go/internal/api"
	"offsetmarket-buyer-go/internal/common"
	"offsetmarket-buyer-go/internal/config"
	"offsetmarket-buyer-go/internal/payment"
	"offsetmarket-buyer-go/internal/store"

	"go.uber.org/zap"
)

type payFlags struct {
	transactionId int64
	method        payment.Method

	cardHolder string
	cardNumber string
	expiryDate string
	cvv        string

	bankAccount   string
	routingNumber string

	walletId string

	assumeYes bool
}

func parseFlags() (*payFlags, error) {
	flags := &payFlags{}
	var method string

	flag.Int64Var(&flags.transactionId, "id", 0, "Pending transaction id (required)")
	flag.StringVar(&method, "method", string(payment.DefaultMethod), "Payment method: credit_card, bank_transfer or e_wallet")
	flag.StringVar(&flags.cardHolder, "card-holder", "", "Card holder name (credit_card)")
	flag.StringVar(&flags.cardNumber, "card-number", "", "Card number (credit_card)")
	flag.StringVar(&flags.expiryDate, "expiry", "", "Card expiry date (credit_card)")
	flag.StringVar(&flags.cvv, "cvv", "", "Card CVV (credit_card)")
	flag.StringVar(&flags.bankAccount, "bank-account", "", "Bank account number (bank_transfer)")
	flag.StringVar(&flags.routingNumber, "routing", "", "Routing number (bank_transfer)")
	flag.StringVar(&flags.walletId, "wallet", "", "Wallet id (e_wallet)")
	flag.BoolVar(&flags.assumeYes, "yes", false, "Skip the interactive confirmation prompt")
	flag.Parse()

	if flags.transactionId <= 0 {
		return nil, fmt.Errorf("--id is required and must be positive")
	}
	flags.method = payment.Method(method)
	if !flags.method.Valid() {
		return nil, fmt.Errorf("unknown payment method %q", method)
	}
	return flags, nil
}

func (f *payFlags) fields() payment.Fields {
	switch f.method {
	case payment.MethodCreditCard:
		return payment.CreditCardFields{
			CardHolder: f.cardHolder,
			CardNumber: f.cardNumber,
			ExpiryDate: f.expiryDate,
			CVV:        f.cvv,
		}
	case payment.MethodBankTransfer:
		return payment.BankTransferFields{
			BankAccount:   f.bankAccount,
			RoutingNumber: f.routingNumber,
		}
	default:
		return payment.EWalletFields{WalletId: f.walletId}
	}
}

func confirmPrompt(summary *payment.Summary) bool {
	fmt.Printf("\nPay %s for %s (transaction #%d) via %s? [y/N] ",
		common.FormatAmount(summary.GrandTotal), summary.ZoneName,
		summary.TransactionId, summary.Method.DisplayName())

	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	flags, err := parseFlags()
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

	pending := store.NewPendingStore(services.Client)
	pending.Refresh(ctx)

	history := store.NewHistoryStore(services.Client, false)
	onSettled := func(ctx context.Context) {
		pending.Refresh(ctx)
		if err := history.Refresh(ctx); err != nil {
			zap.L().Warn("History refresh after settlement failed", zap.Error(err))
		}
	}

	workflow := payment.NewWorkflow(services.Client, pending, onSettled)
	if err := workflow.Open(flags.transactionId); err != nil {
		logger.Fatal("Cannot open payment", zap.Error(err))
	}
	if err := workflow.SelectMethod(flags.method); err != nil {
		logger.Fatal("Cannot select method", zap.Error(err))
	}
	if err := workflow.SetFields(flags.fields()); err != nil {
		logger.Fatal("Cannot set payment fields", zap.Error(err))
	}
	if workflow.State() != payment.StateReadyToConfirm {
		logger.Fatal("Payment fields incomplete",
			zap.String("method", string(flags.method)),
			zap.String("state", workflow.State().String()))
	}

	common.PrintHeader("COMPLETE PAYMENT", common.DefaultWidth)
	summary, err := workflow.CompletePayment()
	if err != nil {
		logger.Fatal("Cannot start confirmation", zap.Error(err))
	}

	if !flags.assumeYes && !confirmPrompt(summary) {
		if err := workflow.Cancel(); err != nil {
			logger.Fatal("Cancel failed", zap.Error(err))
		}
		fmt.Println("Payment not confirmed. Nothing was charged.")
		return
	}

	if err := workflow.Confirm(ctx); err != nil {
		fmt.Println(api.UserMessage(err))
		logger.Fatal("Payment failed", zap.Error(err))
	}

	fmt.Printf("Payment for transaction #%d completed.\n", summary.TransactionId)
	for _, record := range history.Records() {
		if record.TransactionId == summary.TransactionId && record.CertificateUrl != "" {
			fmt.Printf("Certificate: %s\n", record.CertificateUrl)
		}
	}
	common.PrintFooter("Your certificate is available in the purchase history.", common.DefaultWidth)
}
