package payment

import (
	"context"
	"errors"
	"testing"

	"offsetmarket-buyer-go/internal/api"
	"offsetmarket-buyer-go/internal/models"

	"github.com/shopspring/decimal"
)

type fakeCompleter struct {
	calls  int
	lastId int64
	err    error
}

func (f *fakeCompleter) ProceedPayment(_ context.Context, transactionId int64) error {
	f.calls++
	f.lastId = transactionId
	return f.err
}

type fakePending struct {
	transactions map[int64]models.Transaction
}

func (f *fakePending) Find(transactionId int64) (*models.Transaction, bool) {
	transaction, ok := f.transactions[transactionId]
	if !ok {
		return nil, false
	}
	return &transaction, true
}

func testTransaction(id int64) models.Transaction {
	price := decimal.RequireFromString("25000")
	tax := decimal.RequireFromString("2500")
	return models.Transaction{
		TransactionId: id,
		ZoneName:      "Sumatra Peatland Reserve",
		ZoneLocation:  "Riau, Indonesia",
		TotalCarbon:   decimal.NewFromInt(1000),
		PricePerTon:   decimal.RequireFromString("25"),
		TotalPrice:    price,
		Tax:           tax,
		GrandTotal:    price.Add(tax),
		Status:        models.StatusPendingPayment,
	}
}

func newTestWorkflow(completer *fakeCompleter, onSettled func(context.Context)) *Workflow {
	pending := &fakePending{transactions: map[int64]models.Transaction{
		41: testTransaction(41),
	}}
	return NewWorkflow(completer, pending, onSettled)
}

func TestOpenSelectsDefaultMethod(t *testing.T) {
	workflow := newTestWorkflow(&fakeCompleter{}, nil)

	if err := workflow.Open(41); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if workflow.State() != StateMethodSelection {
		t.Errorf("state = %s, want method_selection", workflow.State())
	}
	if workflow.Fields().Method() != MethodEWallet {
		t.Errorf("default method = %s, want e_wallet", workflow.Fields().Method())
	}
}

func TestOpenStaleTransaction(t *testing.T) {
	workflow := newTestWorkflow(&fakeCompleter{}, nil)

	err := workflow.Open(999)
	if !errors.Is(err, api.ErrStaleTransaction) {
		t.Fatalf("expected stale transaction error, got %v", err)
	}
	if workflow.State() != StateIdle {
		t.Errorf("state = %s, want idle", workflow.State())
	}
}

func TestSwitchingMethodClearsFields(t *testing.T) {
	workflow := newTestWorkflow(&fakeCompleter{}, nil)
	if err := workflow.Open(41); err != nil {
		t.Fatal(err)
	}

	if err := workflow.SelectMethod(MethodCreditCard); err != nil {
		t.Fatal(err)
	}
	err := workflow.SetFields(CreditCardFields{
		CardHolder: "Acme Corp",
		CardNumber: "4111",
		ExpiryDate: "12/30",
		CVV:        "123",
	})
	if err != nil {
		t.Fatal(err)
	}
	if workflow.State() != StateReadyToConfirm {
		t.Fatalf("state = %s, want ready_to_confirm", workflow.State())
	}

	// Switching to e-wallet must drop the card fields entirely.
	if err := workflow.SelectMethod(MethodEWallet); err != nil {
		t.Fatal(err)
	}
	if workflow.State() != StateFieldEntry {
		t.Errorf("state after switch = %s, want field_entry", workflow.State())
	}
	fields, ok := workflow.Fields().(EWalletFields)
	if !ok {
		t.Fatalf("fields are %T, want EWalletFields", workflow.Fields())
	}
	if fields.WalletId != "" {
		t.Errorf("walletId carried over: %q", fields.WalletId)
	}

	// ReadyToConfirm is only reachable once walletId is non-empty.
	if err := workflow.SetFields(EWalletFields{WalletId: "wallet@example.com"}); err != nil {
		t.Fatal(err)
	}
	if workflow.State() != StateReadyToConfirm {
		t.Errorf("state = %s, want ready_to_confirm", workflow.State())
	}
}

func TestIncompleteFieldsDoNotReachReadyToConfirm(t *testing.T) {
	workflow := newTestWorkflow(&fakeCompleter{}, nil)
	if err := workflow.Open(41); err != nil {
		t.Fatal(err)
	}
	if err := workflow.SelectMethod(MethodBankTransfer); err != nil {
		t.Fatal(err)
	}
	if err := workflow.SetFields(BankTransferFields{BankAccount: "12345"}); err != nil {
		t.Fatal(err)
	}
	if workflow.State() != StateFieldEntry {
		t.Errorf("state = %s, want field_entry with routing number missing", workflow.State())
	}
}

func TestFieldsMustMatchSelectedMethod(t *testing.T) {
	workflow := newTestWorkflow(&fakeCompleter{}, nil)
	if err := workflow.Open(41); err != nil {
		t.Fatal(err)
	}
	if err := workflow.SelectMethod(MethodEWallet); err != nil {
		t.Fatal(err)
	}
	if err := workflow.SetFields(CreditCardFields{CardHolder: "x"}); err == nil {
		t.Error("card fields accepted while e-wallet selected")
	}
}

func TestTwoPhaseConfirmHappyPath(t *testing.T) {
	completer := &fakeCompleter{}
	settled := 0
	workflow := newTestWorkflow(completer, func(context.Context) { settled++ })

	if err := workflow.Open(41); err != nil {
		t.Fatal(err)
	}
	if err := workflow.SelectMethod(MethodEWallet); err != nil {
		t.Fatal(err)
	}
	if err := workflow.SetFields(EWalletFields{WalletId: "wallet@example.com"}); err != nil {
		t.Fatal(err)
	}

	summary, err := workflow.CompletePayment()
	if err != nil {
		t.Fatalf("CompletePayment failed: %v", err)
	}
	if completer.calls != 0 {
		t.Fatal("completion endpoint called before explicit confirm")
	}
	if summary.Method != MethodEWallet || summary.GrandTotal.String() != "27500" {
		t.Errorf("summary = %+v", summary)
	}

	if err := workflow.Confirm(context.Background()); err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}
	if completer.calls != 1 || completer.lastId != 41 {
		t.Errorf("completion called %d times for id %d, want once for 41", completer.calls, completer.lastId)
	}
	if workflow.State() != StateSettled {
		t.Errorf("state = %s, want settled", workflow.State())
	}
	if settled != 1 {
		t.Errorf("onSettled ran %d times, want 1", settled)
	}
	if workflow.Fields() != nil {
		t.Error("selection not destroyed after settlement")
	}
}

func TestCancelAtConfirmingKeepsFields(t *testing.T) {
	workflow := newTestWorkflow(&fakeCompleter{}, nil)
	if err := workflow.Open(41); err != nil {
		t.Fatal(err)
	}
	if err := workflow.SelectMethod(MethodEWallet); err != nil {
		t.Fatal(err)
	}
	if err := workflow.SetFields(EWalletFields{WalletId: "wallet@example.com"}); err != nil {
		t.Fatal(err)
	}
	if _, err := workflow.CompletePayment(); err != nil {
		t.Fatal(err)
	}

	if err := workflow.Cancel(); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if workflow.State() != StateReadyToConfirm {
		t.Errorf("state = %s, want ready_to_confirm", workflow.State())
	}
	fields, ok := workflow.Fields().(EWalletFields)
	if !ok || fields.WalletId != "wallet@example.com" {
		t.Errorf("fields changed by cancel: %+v", workflow.Fields())
	}
}

func TestCancelBeforeConfirmDiscardsSelection(t *testing.T) {
	workflow := newTestWorkflow(&fakeCompleter{}, nil)
	if err := workflow.Open(41); err != nil {
		t.Fatal(err)
	}
	if err := workflow.SelectMethod(MethodEWallet); err != nil {
		t.Fatal(err)
	}
	if err := workflow.SetFields(EWalletFields{WalletId: "wallet@example.com"}); err != nil {
		t.Fatal(err)
	}

	if err := workflow.Cancel(); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if workflow.State() != StateIdle {
		t.Errorf("state = %s, want idle", workflow.State())
	}
	if workflow.Fields() != nil {
		t.Error("fields survived a full cancel")
	}
}

func TestFailedCompletionReturnsToReadyToConfirm(t *testing.T) {
	completer := &fakeCompleter{err: &api.ServerRejection{StatusCode: 409, Message: "transaction already paid"}}
	settled := 0
	workflow := newTestWorkflow(completer, func(context.Context) { settled++ })

	if err := workflow.Open(41); err != nil {
		t.Fatal(err)
	}
	if err := workflow.SelectMethod(MethodEWallet); err != nil {
		t.Fatal(err)
	}
	if err := workflow.SetFields(EWalletFields{WalletId: "wallet@example.com"}); err != nil {
		t.Fatal(err)
	}
	if _, err := workflow.CompletePayment(); err != nil {
		t.Fatal(err)
	}

	err := workflow.Confirm(context.Background())
	if err == nil {
		t.Fatal("expected completion failure")
	}
	var rejection *api.ServerRejection
	if !errors.As(err, &rejection) || rejection.Message != "transaction already paid" {
		t.Errorf("server message not surfaced verbatim: %v", err)
	}
	if workflow.State() != StateReadyToConfirm {
		t.Errorf("state = %s, want ready_to_confirm", workflow.State())
	}
	fields, ok := workflow.Fields().(EWalletFields)
	if !ok || fields.WalletId != "wallet@example.com" {
		t.Error("fields lost after failure; retry would force re-entry")
	}
	if settled != 0 {
		t.Error("onSettled ran for a failed completion")
	}

	// Retry with the same fields succeeds.
	completer.err = nil
	if _, err := workflow.CompletePayment(); err != nil {
		t.Fatal(err)
	}
	if err := workflow.Confirm(context.Background()); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if completer.calls != 2 {
		t.Errorf("completion called %d times, want 2", completer.calls)
	}
	if settled != 1 {
		t.Errorf("onSettled ran %d times, want 1", settled)
	}
}

func TestConfirmRequiresConfirmationStep(t *testing.T) {
	workflow := newTestWorkflow(&fakeCompleter{}, nil)
	if err := workflow.Open(41); err != nil {
		t.Fatal(err)
	}
	if err := workflow.Confirm(context.Background()); err == nil {
		t.Error("Confirm allowed without the confirmation step")
	}
}
