package mockapi

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"offsetmarket-buyer-go/internal/models"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrEmailTaken          = errors.New("email already registered")
	ErrUsernameTaken       = errors.New("username already registered")
	ErrBuyerNotFound       = errors.New("buyer not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrAlreadyPaid         = errors.New("transaction already paid")
)

// Buyer is the stored account a login resolves to.
type Buyer struct {
	Id           int64
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	CompanyName  string
}

// RegisterBuyerParams carries the validated registration form into storage.
type RegisterBuyerParams struct {
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	NationalId   string
	BirthPlace   string
	BirthDate    string
	Gender       string
	PhoneNumber  string
	Address      string
	Village      string
	Subdistrict  string
	City         string
	Province     string
	Country      string
	PostalCode   string
	CompanyName  string
}

// Storage is the marketplace's SQLite persistence: buyer accounts and their
// transactions. Decimal columns are stored as TEXT to keep exact amounts.
type Storage struct {
	db *sql.DB
}

func NewStorage(ctx context.Context, cfg models.DatabaseConfig) (*Storage, error) {
	// Validate configuration
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if cfg.MaxOpenConns <= 0 {
		return nil, fmt.Errorf("max open connections must be positive, got %d", cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns < 0 {
		return nil, fmt.Errorf("max idle connections cannot be negative, got %d", cfg.MaxIdleConns)
	}
	if cfg.PingTimeout <= 0 {
		return nil, fmt.Errorf("ping timeout must be positive, got %v", cfg.PingTimeout)
	}

	zap.L().Info("Opening SQLite database", zap.String("file", cfg.Path))
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=1000")
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, closeErr
		}
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	storage := &Storage{db: db}
	if err := storage.initSchema(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, closeErr
		}
		return nil, fmt.Errorf("unable to initialize schema: %w", err)
	}

	zap.L().Info("Marketplace storage initialized")
	return storage, nil
}

func (s *Storage) Close() {
	if err := s.db.Close(); err != nil {
		zap.L().Warn("Failed to close database connection", zap.Error(err))
	}
}

func (s *Storage) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS buyers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		national_id TEXT NOT NULL,
		birth_place TEXT NOT NULL DEFAULT '',
		birth_date TEXT NOT NULL DEFAULT '',
		gender TEXT NOT NULL DEFAULT '',
		phone_number TEXT NOT NULL,
		address TEXT NOT NULL,
		village TEXT NOT NULL DEFAULT '',
		subdistrict TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL,
		province TEXT NOT NULL,
		country TEXT NOT NULL,
		postal_code TEXT NOT NULL,
		company_name TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_buyers_email ON buyers(email);

	CREATE TABLE IF NOT EXISTS transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		buyer_id INTEGER NOT NULL REFERENCES buyers(id) ON DELETE CASCADE,
		zone_name TEXT NOT NULL,
		zone_location TEXT NOT NULL,
		total_carbon TEXT NOT NULL,
		price_per_ton TEXT NOT NULL,
		total_price TEXT NOT NULL,
		tax TEXT NOT NULL,
		grand_total TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending_payment',
		notes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		paid_at TIMESTAMP,
		certificate_url TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_buyer_status ON transactions(buyer_id, status);
	CREATE INDEX IF NOT EXISTS idx_transactions_created_at ON transactions(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// CreateBuyer inserts a new account. Email and username collisions come back
// as sentinel errors so the handler can map them onto field errors.
func (s *Storage) CreateBuyer(ctx context.Context, params RegisterBuyerParams) (int64, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, queryCountBuyerByEmail, params.Email).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to check email: %w", err)
	}
	if count > 0 {
		return 0, ErrEmailTaken
	}
	if err := s.db.QueryRowContext(ctx, queryCountBuyerByUsername, params.Username).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to check username: %w", err)
	}
	if count > 0 {
		return 0, ErrUsernameTaken
	}

	result, err := s.db.ExecContext(ctx, queryInsertBuyer,
		params.Username, params.Email, params.PasswordHash, params.FirstName,
		params.LastName, params.NationalId, params.BirthPlace, params.BirthDate,
		params.Gender, params.PhoneNumber, params.Address, params.Village,
		params.Subdistrict, params.City, params.Province, params.Country,
		params.PostalCode, params.CompanyName)
	if err != nil {
		return 0, fmt.Errorf("failed to insert buyer: %w", err)
	}

	buyerId, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read buyer id: %w", err)
	}

	zap.L().Info("Buyer registered",
		zap.Int64("buyer_id", buyerId),
		zap.String("email", params.Email),
		zap.String("company_name", params.CompanyName))
	return buyerId, nil
}

func (s *Storage) GetBuyerByEmail(ctx context.Context, email string) (*Buyer, error) {
	var buyer Buyer
	err := s.db.QueryRowContext(ctx, queryGetBuyerByEmail, email).Scan(
		&buyer.Id, &buyer.Username, &buyer.Email, &buyer.PasswordHash,
		&buyer.FirstName, &buyer.LastName, &buyer.CompanyName)
	if err == sql.ErrNoRows {
		return nil, ErrBuyerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get buyer: %w", err)
	}
	return &buyer, nil
}

func (s *Storage) GetBuyerById(ctx context.Context, buyerId int64) (*Buyer, error) {
	var buyer Buyer
	err := s.db.QueryRowContext(ctx, queryGetBuyerById, buyerId).Scan(
		&buyer.Id, &buyer.Username, &buyer.Email, &buyer.PasswordHash,
		&buyer.FirstName, &buyer.LastName, &buyer.CompanyName)
	if err == sql.ErrNoRows {
		return nil, ErrBuyerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get buyer: %w", err)
	}
	return &buyer, nil
}

// InsertTransaction records a new pending_payment transaction and returns
// its id.
func (s *Storage) InsertTransaction(ctx context.Context, buyerId int64, transaction models.Transaction, notes string) (int64, error) {
	result, err := s.db.ExecContext(ctx, queryInsertTransaction,
		buyerId, transaction.ZoneName, transaction.ZoneLocation,
		transaction.TotalCarbon.String(), transaction.PricePerTon.String(),
		transaction.TotalPrice.String(), transaction.Tax.String(),
		transaction.GrandTotal.String(), models.StatusPendingPayment, notes,
		time.Now().Format("2006-01-02 15:04:05"))
	if err != nil {
		return 0, fmt.Errorf("failed to insert transaction: %w", err)
	}
	transactionId, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read transaction id: %w", err)
	}

	zap.L().Info("Transaction created",
		zap.Int64("transaction_id", transactionId),
		zap.Int64("buyer_id", buyerId),
		zap.String("zone", transaction.ZoneName),
		zap.String("grand_total", transaction.GrandTotal.String()))
	return transactionId, nil
}

// ListTransactions returns the buyer's transactions filtered by status,
// optionally restricted to today, newest first.
func (s *Storage) ListTransactions(ctx context.Context, buyerId int64, status string, todayOnly bool) ([]models.Transaction, error) {
	query := queryListTransactions
	if todayOnly {
		query = queryListTransactionsToday
	}

	rows, err := s.db.QueryContext(ctx, query, buyerId, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	transactions := make([]models.Transaction, 0)
	for rows.Next() {
		var transaction models.Transaction
		var totalCarbon, pricePerTon, totalPrice, tax, grandTotal string
		var paidAt, certificateUrl sql.NullString

		err := rows.Scan(&transaction.TransactionId, &transaction.ZoneName,
			&transaction.ZoneLocation, &totalCarbon, &pricePerTon,
			&totalPrice, &tax, &grandTotal, &transaction.Status,
			&paidAt, &certificateUrl)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		if transaction.TotalCarbon, err = decimal.NewFromString(totalCarbon); err != nil {
			return nil, fmt.Errorf("failed to parse total_carbon %q: %w", totalCarbon, err)
		}
		if transaction.PricePerTon, err = decimal.NewFromString(pricePerTon); err != nil {
			return nil, fmt.Errorf("failed to parse price_per_ton %q: %w", pricePerTon, err)
		}
		if transaction.TotalPrice, err = decimal.NewFromString(totalPrice); err != nil {
			return nil, fmt.Errorf("failed to parse total_price %q: %w", totalPrice, err)
		}
		if transaction.Tax, err = decimal.NewFromString(tax); err != nil {
			return nil, fmt.Errorf("failed to parse tax %q: %w", tax, err)
		}
		if transaction.GrandTotal, err = decimal.NewFromString(grandTotal); err != nil {
			return nil, fmt.Errorf("failed to parse grand_total %q: %w", grandTotal, err)
		}
		transaction.TransactionDate = paidAt.String
		transaction.CertificateUrl = certificateUrl.String

		transactions = append(transactions, transaction)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}
	return transactions, nil
}

// CompletePayment flips one pending_payment transaction to paid, recording
// the settlement time and certificate URL. A transaction can settle exactly
// once; a second attempt gets ErrAlreadyPaid.
func (s *Storage) CompletePayment(ctx context.Context, buyerId, transactionId int64, certificateUrl string) error {
	result, err := s.db.ExecContext(ctx, queryMarkTransactionPaid,
		time.Now().Format("2006-01-02 15:04:05"), certificateUrl, transactionId, buyerId)
	if err != nil {
		return fmt.Errorf("failed to mark transaction paid: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected > 0 {
		zap.L().Info("Transaction settled",
			zap.Int64("transaction_id", transactionId),
			zap.Int64("buyer_id", buyerId))
		return nil
	}

	// Distinguish the double-settle case from a missing transaction.
	var status string
	err = s.db.QueryRowContext(ctx, queryGetTransactionStatus, transactionId, buyerId).Scan(&status)
	if err == sql.ErrNoRows {
		return ErrTransactionNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check transaction status: %w", err)
	}
	if status == models.StatusPaid {
		return ErrAlreadyPaid
	}
	return fmt.Errorf("transaction %d in unexpected status %q", transactionId, status)
}
