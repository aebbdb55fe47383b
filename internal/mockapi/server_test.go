package mockapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"offsetmarket-buyer-go/internal/api"
	"offsetmarket-buyer-go/internal/auth"
	"offsetmarket-buyer-go/internal/models"
	"offsetmarket-buyer-go/internal/store"

	"github.com/shopspring/decimal"
)

const testZonesYaml = `zones:
  - name: "Sumatra Peatland Reserve"
    location: "Riau, Indonesia"
    price_per_ton: "25"
    certification: "VCS"
  - name: "Amazon Rainforest Conservancy"
    location: "Para, Brazil"
    price_per_ton: "32.50"
    certification: "Gold Standard"
`

func startTestServer(t *testing.T) (*httptest.Server, *api.Client, *auth.Session) {
	t.Helper()
	dir := t.TempDir()

	zonesFile := filepath.Join(dir, "zones.yaml")
	if err := os.WriteFile(zonesFile, []byte(testZonesYaml), 0o644); err != nil {
		t.Fatalf("unable to write zones file: %v", err)
	}

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("unable to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	storage := &Storage{db: db}
	if err := storage.initSchema(); err != nil {
		t.Fatalf("unable to create schema: %v", err)
	}

	server, err := NewServer(models.MockServerConfig{
		ListenAddr: ":0",
		JWTSecret:  "test-secret",
		TokenTTL:   time.Hour,
		ZonesFile:  zonesFile,
		StorageDir: filepath.Join(dir, "storage"),
	}, storage)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}

	httpServer := httptest.NewServer(server.Handler())
	t.Cleanup(httpServer.Close)

	session, err := auth.NewSession(models.SessionConfig{Path: filepath.Join(dir, "session.json")})
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	client, err := api.NewClient(models.APIConfig{BaseURL: httpServer.URL, Timeout: 5 * time.Second}, session)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return httpServer, client, session
}

func registerAndLogin(t *testing.T, client *api.Client, session *auth.Session) {
	t.Helper()
	ctx := context.Background()

	err := client.Register(ctx, api.RegisterParams{
		Username:             "harlan",
		Email:                "buyer@harlan.example",
		Password:             "correct horse",
		PasswordConfirmation: "correct horse",
		FirstName:            "Ava",
		LastName:             "Harlan",
		NationalId:           "3578011212900001",
		PhoneNumber:          "+62 811 5550 101",
		Address:              "12 Teak Street",
		City:                 "Surabaya",
		Province:             "East Java",
		Country:              "Indonesia",
		PostalCode:           "60241",
		CompanyName:          "Harlan Logistics",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	login, err := client.Login(ctx, "buyer@harlan.example", "correct horse")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if err := session.Save(login.Token, login.User, login.Roles, login.Permissions); err != nil {
		t.Fatalf("session save failed: %v", err)
	}
}

func TestRegistrationValidationErrors(t *testing.T) {
	_, client, _ := startTestServer(t)

	err := client.Register(context.Background(), api.RegisterParams{
		Username: "harlan",
		Email:    "buyer@harlan.example",
	})
	if err == nil {
		t.Fatal("incomplete registration accepted")
	}
	var rejection *api.ServerRejection
	if !errors.As(err, &rejection) {
		t.Fatalf("got %v, want ServerRejection", err)
	}
	if !strings.Contains(rejection.Message, "password: The password field is required.") {
		t.Errorf("field errors not folded into message:\n%s", rejection.Message)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	_, client, session := startTestServer(t)
	registerAndLogin(t, client, session)

	_, err := client.Login(context.Background(), "buyer@harlan.example", "wrong")
	var rejection *api.ServerRejection
	if !errors.As(err, &rejection) {
		t.Fatalf("got %v, want ServerRejection", err)
	}
	if rejection.Message != "These credentials do not match our records." {
		t.Errorf("message = %q", rejection.Message)
	}
}

func TestPurchaseLifecycle(t *testing.T) {
	_, client, session := startTestServer(t)
	registerAndLogin(t, client, session)
	ctx := context.Background()

	// Submit needs for 100 tons against the Sumatra zone.
	err := client.SubmitNeeds(ctx, models.NeedsRequest{
		CarbonNeeds:    decimal.RequireFromString("100"),
		PreferedForest: "sumatra",
		Notes:          "Q3 fleet emissions",
	})
	if err != nil {
		t.Fatalf("SubmitNeeds failed: %v", err)
	}

	pending, err := client.ListTransactions(ctx, models.StatusPendingPayment, true)
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("got %d pending transactions, want 1", len(pending))
	}
	transaction := pending[0]
	if transaction.ZoneName != "Sumatra Peatland Reserve" {
		t.Errorf("zone = %q, want the preferred match", transaction.ZoneName)
	}
	// 100 t * 25/t = 2500, +10% tax = 2750.
	if transaction.GrandTotal.String() != "2750" {
		t.Errorf("grand total = %s, want 2750", transaction.GrandTotal.String())
	}
	if err := transaction.VerifyTotals(); err != nil {
		t.Errorf("server-side totals inconsistent: %v", err)
	}

	if err := client.ProceedPayment(ctx, transaction.TransactionId); err != nil {
		t.Fatalf("ProceedPayment failed: %v", err)
	}

	// A second completion attempt must be rejected, verbatim message intact.
	err = client.ProceedPayment(ctx, transaction.TransactionId)
	var rejection *api.ServerRejection
	if !errors.As(err, &rejection) || rejection.Message != "transaction already paid" {
		t.Errorf("second completion: got %v, want 'transaction already paid'", err)
	}

	history := store.NewHistoryStore(client, false)
	if err := history.Refresh(ctx); err != nil {
		t.Fatalf("history refresh failed: %v", err)
	}
	records := history.Records()
	if len(records) != 1 {
		t.Fatalf("got %d history records, want 1", len(records))
	}
	record := records[0]
	if strings.HasPrefix(record.CertificateUrl, "/app/public/storage/") {
		t.Errorf("storage prefix not stripped: %q", record.CertificateUrl)
	}
	if strings.HasSuffix(record.CertificateUrl, ".pdf.pdf") {
		t.Errorf("doubled extension not collapsed: %q", record.CertificateUrl)
	}
	if record.FormattedDate == "" || record.FormattedTime == "" {
		t.Errorf("settlement timestamps not projected: %+v", record)
	}

	dest := filepath.Join(t.TempDir(), "certificate.pdf")
	if err := client.DownloadCertificate(ctx, record.CertificateUrl, dest); err != nil {
		t.Fatalf("DownloadCertificate failed: %v", err)
	}
	info, err := os.Stat(dest)
	if err != nil || info.Size() == 0 {
		t.Errorf("downloaded certificate empty or missing: %v", err)
	}
}

func TestTransactionsRequireAuth(t *testing.T) {
	_, client, _ := startTestServer(t)

	_, err := client.ListTransactions(context.Background(), models.StatusPendingPayment, false)
	if !errors.Is(err, api.ErrNotAuthenticated) {
		t.Errorf("got %v, want ErrNotAuthenticated", err)
	}
}

func TestZoneCatalogEndpoint(t *testing.T) {
	httpServer, _, _ := startTestServer(t)

	resp, err := http.Get(httpServer.URL + "/api/zones")
	if err != nil {
		t.Fatalf("zones request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var envelope struct {
		Status string `json:"status"`
		Data   []Zone `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("unable to decode zones response: %v", err)
	}
	if envelope.Status != "success" || len(envelope.Data) != 2 {
		t.Errorf("got status %q with %d zones, want success/2", envelope.Status, len(envelope.Data))
	}
}

func TestZoneMatching(t *testing.T) {
	zones := []Zone{
		{Name: "Sumatra Peatland Reserve", Location: "Riau, Indonesia", PricePerTon: "25"},
		{Name: "Amazon Rainforest Conservancy", Location: "Para, Brazil", PricePerTon: "32.50"},
	}

	if got := MatchZone(zones, "amazon"); got.Name != "Amazon Rainforest Conservancy" {
		t.Errorf("MatchZone(amazon) = %q", got.Name)
	}
	if got := MatchZone(zones, ""); got.Name != "Sumatra Peatland Reserve" {
		t.Errorf("MatchZone(empty) = %q, want first zone", got.Name)
	}
	if got := MatchZone(zones, "boreal"); got.Name != "Sumatra Peatland Reserve" {
		t.Errorf("MatchZone(no match) = %q, want first zone", got.Name)
	}
}
