package needs

import (
	"context"
	"errors"
	"testing"

	"offsetmarket-buyer-go/internal/models"
)

type fakeSubmitter struct {
	calls    int
	lastBody models.NeedsRequest
	err      error
}

func (f *fakeSubmitter) SubmitNeeds(_ context.Context, needs models.NeedsRequest) error {
	f.calls++
	f.lastBody = needs
	return f.err
}

func fillValidForm(t *testing.T, form *Form) {
	t.Helper()
	mustSet := func(name, value string) {
		if err := form.SetField(name, value); err != nil {
			t.Fatalf("SetField(%s) failed: %v", name, err)
		}
	}
	mustSet(FieldCarbonNeeds, "1000")
	mustSet(FieldPreferredForest, "Peatlands")
	mustSet(FieldNotes, "")
	mustSet(FieldAgreeToTerms, "true")
}

func TestSubmitWithoutConsentNeverHitsNetwork(t *testing.T) {
	client := &fakeSubmitter{}
	form := NewForm(client)
	fillValidForm(t, form)
	if err := form.SetField(FieldAgreeToTerms, "false"); err != nil {
		t.Fatal(err)
	}

	err := form.Submit(context.Background())
	var validation *ValidationError
	if !errors.As(err, &validation) || validation.Reason != ReasonConsentRequired {
		t.Fatalf("expected ConsentRequired, got %v", err)
	}
	if client.calls != 0 {
		t.Errorf("network was called %d times, want 0", client.calls)
	}
}

func TestSubmitNonNumericNeedsNeverHitsNetwork(t *testing.T) {
	client := &fakeSubmitter{}
	form := NewForm(client)
	fillValidForm(t, form)
	if err := form.SetField(FieldCarbonNeeds, "abc"); err != nil {
		t.Fatal(err)
	}

	err := form.Submit(context.Background())
	var validation *ValidationError
	if !errors.As(err, &validation) || validation.Reason != ReasonMissingField {
		t.Fatalf("expected MissingField, got %v", err)
	}
	if client.calls != 0 {
		t.Errorf("network was called %d times, want 0", client.calls)
	}
}

func TestValidateRejectsNonPositiveNeeds(t *testing.T) {
	for _, value := range []string{"", "0", "-5", "12.3.4"} {
		form := NewForm(&fakeSubmitter{})
		fillValidForm(t, form)
		if err := form.SetField(FieldCarbonNeeds, value); err != nil {
			t.Fatal(err)
		}
		if err := form.Validate(); err == nil {
			t.Errorf("Validate accepted carbonNeeds=%q", value)
		}
	}
}

func TestOptionalFieldsNeverFailValidation(t *testing.T) {
	form := NewForm(&fakeSubmitter{})
	fillValidForm(t, form)
	if err := form.SetField(FieldPreferredForest, ""); err != nil {
		t.Fatal(err)
	}
	if err := form.SetField(FieldNotes, ""); err != nil {
		t.Fatal(err)
	}
	if err := form.Validate(); err != nil {
		t.Errorf("Validate failed with optional fields empty: %v", err)
	}
}

func TestSubmitSerializesAndResets(t *testing.T) {
	client := &fakeSubmitter{}
	form := NewForm(client)
	fillValidForm(t, form)
	if err := form.SetField(FieldNotes, "quarterly offset"); err != nil {
		t.Fatal(err)
	}

	if err := form.Submit(context.Background()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if client.calls != 1 {
		t.Fatalf("network called %d times, want 1", client.calls)
	}
	if client.lastBody.CarbonNeeds.String() != "1000" {
		t.Errorf("carbon_needs = %s, want 1000", client.lastBody.CarbonNeeds)
	}
	if client.lastBody.PreferedForest != "Peatlands" {
		t.Errorf("prefered_forest = %q, want Peatlands", client.lastBody.PreferedForest)
	}
	if client.lastBody.Notes != "quarterly offset" {
		t.Errorf("notes = %q", client.lastBody.Notes)
	}

	// Fields reset: a second submit must fail validation locally.
	if err := form.Submit(context.Background()); err == nil {
		t.Error("expected validation failure after reset")
	}
	if client.calls != 1 {
		t.Errorf("network called %d times after reset, want still 1", client.calls)
	}
}

func TestSubmitKeepsFieldsOnServerFailure(t *testing.T) {
	client := &fakeSubmitter{err: errors.New("quota exceeded for today")}
	form := NewForm(client)
	fillValidForm(t, form)

	if err := form.Submit(context.Background()); err == nil {
		t.Fatal("expected server error")
	}

	// Retry without re-entering data must reach the network again.
	client.err = nil
	if err := form.Submit(context.Background()); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if client.calls != 2 {
		t.Errorf("network called %d times, want 2", client.calls)
	}
}
