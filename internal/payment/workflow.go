package payment

import (
	"context"
	"fmt"

	"offsetmarket-buyer-go/internal/api"
	"offsetmarket-buyer-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// State is the payment workflow state.
type State int

const (
	StateIdle State = iota
	StateMethodSelection
	StateFieldEntry
	StateReadyToConfirm
	StateConfirming
	StateCompleting
	StateSettled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateMethodSelection:
		return "method_selection"
	case StateFieldEntry:
		return "field_entry"
	case StateReadyToConfirm:
		return "ready_to_confirm"
	case StateConfirming:
		return "confirming"
	case StateCompleting:
		return "completing"
	case StateSettled:
		return "settled"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Completer is the part of the API client the workflow needs.
type Completer interface {
	ProceedPayment(ctx context.Context, transactionId int64) error
}

// PendingIndex looks up a transaction in the current pending set.
type PendingIndex interface {
	Find(transactionId int64) (*models.Transaction, bool)
}

// Summary is what the confirmation step shows: the amount to be charged and
// the chosen method.
type Summary struct {
	TransactionId int64
	ZoneName      string
	GrandTotal    decimal.Decimal
	Method        Method
}

// Workflow orchestrates paying one pending transaction: selecting it,
// choosing a method, filling the method's fields, a two-stage
// confirm/commit, and the completion call. The two-phase confirm guarantees
// the completion endpoint is never invoked without an explicit second user
// acknowledgment, and moving to StateCompleting before the call keeps a
// second attempt from being issued while one is outstanding.
//
// A Workflow belongs to a single session and is not safe for concurrent
// use; there is no shared state between workflow instances.
type Workflow struct {
	client  Completer
	pending PendingIndex

	// onSettled reconciles local state against the server after a
	// completed payment, replacing the wholesale view reload the workflow
	// would otherwise need. Typically it re-fetches the pending and
	// history stores.
	onSettled func(ctx context.Context)

	state       State
	transaction models.Transaction
	fields      Fields
}

func NewWorkflow(client Completer, pending PendingIndex, onSettled func(ctx context.Context)) *Workflow {
	return &Workflow{
		client:    client,
		pending:   pending,
		onSettled: onSettled,
		state:     StateIdle,
	}
}

func (w *Workflow) State() State { return w.state }

// Fields returns the currently entered method fields, nil while idle.
func (w *Workflow) Fields() Fields { return w.fields }

// Transaction returns the selected pending transaction; valid from
// MethodSelection onward.
func (w *Workflow) Transaction() models.Transaction { return w.transaction }

// Open starts the workflow against one pending transaction. The id must
// reference a transaction currently present in the pending set; acting on a
// vanished one is a stale reference. The default method (e-wallet) is
// pre-selected with empty fields.
func (w *Workflow) Open(transactionId int64) error {
	if w.state != StateIdle && w.state != StateSettled {
		return fmt.Errorf("payment already in progress (state %s)", w.state)
	}

	transaction, ok := w.pending.Find(transactionId)
	if !ok {
		return fmt.Errorf("transaction %d: %w", transactionId, api.ErrStaleTransaction)
	}

	w.transaction = *transaction
	w.state = StateMethodSelection
	fields, err := EmptyFields(DefaultMethod)
	if err != nil {
		return err
	}
	w.fields = fields

	zap.L().Info("Payment workflow opened",
		zap.Int64("transaction_id", transactionId),
		zap.String("zone", transaction.ZoneName),
		zap.String("grand_total", transaction.GrandTotal.String()))
	return nil
}

// SelectMethod chooses the payment method. Switching methods always clears
// the entered fields; values from one method are never carried into
// another.
func (w *Workflow) SelectMethod(method Method) error {
	switch w.state {
	case StateMethodSelection, StateFieldEntry, StateReadyToConfirm:
	default:
		return fmt.Errorf("cannot select method in state %s", w.state)
	}
	if !method.Valid() {
		return fmt.Errorf("unknown payment method %q", method)
	}

	if w.fields == nil || w.fields.Method() != method {
		fields, err := EmptyFields(method)
		if err != nil {
			return err
		}
		w.fields = fields
	}
	w.state = StateFieldEntry
	w.recomputeReadiness()
	return nil
}

// SetFields replaces the entered fields. The variant must match the
// selected method; completeness (every required field non-empty) gates the
// transition to ReadyToConfirm.
func (w *Workflow) SetFields(fields Fields) error {
	switch w.state {
	case StateFieldEntry, StateReadyToConfirm:
	default:
		return fmt.Errorf("cannot enter fields in state %s", w.state)
	}
	if fields == nil || w.fields == nil || fields.Method() != w.fields.Method() {
		return fmt.Errorf("fields do not match selected method")
	}

	w.fields = fields
	w.recomputeReadiness()
	return nil
}

func (w *Workflow) recomputeReadiness() {
	if w.fields != nil && w.fields.Complete() {
		w.state = StateReadyToConfirm
	} else if w.state == StateReadyToConfirm {
		w.state = StateFieldEntry
	}
}

// CompletePayment opens the confirmation step. No server call happens yet;
// the returned summary is what the user acknowledges.
func (w *Workflow) CompletePayment() (*Summary, error) {
	if w.state != StateReadyToConfirm {
		return nil, fmt.Errorf("payment not ready to confirm (state %s)", w.state)
	}
	w.state = StateConfirming
	return &Summary{
		TransactionId: w.transaction.TransactionId,
		ZoneName:      w.transaction.ZoneName,
		GrandTotal:    w.transaction.GrandTotal,
		Method:        w.fields.Method(),
	}, nil
}

// Cancel backs out. From the confirmation step it returns to
// ReadyToConfirm with the entered fields unchanged; from anywhere earlier
// it discards the selection entirely and returns to Idle.
func (w *Workflow) Cancel() error {
	switch w.state {
	case StateConfirming:
		w.state = StateReadyToConfirm
		return nil
	case StateMethodSelection, StateFieldEntry, StateReadyToConfirm:
		w.reset()
		return nil
	}
	return fmt.Errorf("nothing to cancel in state %s", w.state)
}

// Confirm is the explicit second acknowledgment: it fires the completion
// call exactly once. On success the workflow settles, the selection is
// destroyed, and local state is reconciled against the server. On any
// failure the server (or connectivity) error is returned and the workflow
// goes back to ReadyToConfirm with the method and fields intact, so the
// user can retry without re-entering them.
func (w *Workflow) Confirm(ctx context.Context) error {
	if w.state != StateConfirming {
		return fmt.Errorf("no confirmation pending (state %s)", w.state)
	}

	w.state = StateCompleting
	if err := w.client.ProceedPayment(ctx, w.transaction.TransactionId); err != nil {
		zap.L().Warn("Payment completion failed",
			zap.Int64("transaction_id", w.transaction.TransactionId),
			zap.Error(err))
		w.state = StateReadyToConfirm
		return err
	}

	transactionId := w.transaction.TransactionId
	w.reset()
	w.state = StateSettled

	zap.L().Info("Payment settled", zap.Int64("transaction_id", transactionId))
	if w.onSettled != nil {
		w.onSettled(ctx)
	}
	return nil
}

func (w *Workflow) reset() {
	w.state = StateIdle
	w.transaction = models.Transaction{}
	w.fields = nil
}
