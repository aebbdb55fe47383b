package needs

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"offsetmarket-buyer-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Form field names.
const (
	FieldCarbonNeeds     = "carbonNeeds"
	FieldPreferredForest = "preferredForest"
	FieldNotes           = "notes"
	FieldAgreeToTerms    = "agreeToTerms"
)

// Validation failure reasons.
const (
	ReasonMissingField    = "MissingField"
	ReasonConsentRequired = "ConsentRequired"
)

// ValidationError blocks submission locally; it never reaches the network.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	switch e.Reason {
	case ReasonConsentRequired:
		return "you must agree to the terms and conditions before submitting"
	default:
		return fmt.Sprintf("%s is required and must be a positive number of tons", e.Field)
	}
}

// Submitter is the part of the API client the form needs.
type Submitter interface {
	SubmitNeeds(ctx context.Context, needs models.NeedsRequest) error
}

// Form holds the carbon-needs input while the user fills it in. Fields are
// mutated one at a time, validated locally, and only serialized to the wire
// on a successful Submit. Nothing is persisted client-side.
type Form struct {
	client Submitter

	carbonNeeds     string
	preferredForest string
	notes           string
	agreeToTerms    bool
}

func NewForm(client Submitter) *Form {
	return &Form{client: client}
}

// SetField updates one field from its raw textual input. No I/O happens
// here; bad values surface later in Validate.
func (f *Form) SetField(name, value string) error {
	switch name {
	case FieldCarbonNeeds:
		f.carbonNeeds = strings.TrimSpace(value)
	case FieldPreferredForest:
		f.preferredForest = strings.TrimSpace(value)
	case FieldNotes:
		f.notes = value
	case FieldAgreeToTerms:
		agreed, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			agreed = false
		}
		f.agreeToTerms = agreed
	default:
		return fmt.Errorf("unknown form field %q", name)
	}
	return nil
}

// Validate checks the form without touching the network. carbonNeeds must be
// a positive decimal and the terms must be agreed to; preferredForest and
// notes are optional and never fail.
func (f *Form) Validate() error {
	if f.carbonNeeds == "" {
		return &ValidationError{Field: FieldCarbonNeeds, Reason: ReasonMissingField}
	}
	amount, err := decimal.NewFromString(f.carbonNeeds)
	if err != nil || amount.LessThanOrEqual(decimal.Zero) {
		return &ValidationError{Field: FieldCarbonNeeds, Reason: ReasonMissingField}
	}
	if !f.agreeToTerms {
		return &ValidationError{Field: FieldAgreeToTerms, Reason: ReasonConsentRequired}
	}
	return nil
}

// Submit validates, serializes and posts the request. On success every field
// resets to empty; on failure the fields stay so the user can retry without
// re-entering them.
func (f *Form) Submit(ctx context.Context) error {
	if err := f.Validate(); err != nil {
		return err
	}

	// Validate guarantees this parses.
	amount, err := decimal.NewFromString(f.carbonNeeds)
	if err != nil {
		return &ValidationError{Field: FieldCarbonNeeds, Reason: ReasonMissingField}
	}

	request := models.NeedsRequest{
		CarbonNeeds:    amount,
		PreferedForest: f.preferredForest,
		Notes:          f.notes,
	}
	if err := f.client.SubmitNeeds(ctx, request); err != nil {
		return err
	}

	f.Reset()
	zap.L().Info("Needs form submitted and reset")
	return nil
}

// Reset clears every field back to its mount state.
func (f *Form) Reset() {
	f.carbonNeeds = ""
	f.preferredForest = ""
	f.notes = ""
	f.agreeToTerms = false
}
