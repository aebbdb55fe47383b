package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Transaction statuses as the marketplace API reports them.
const (
	StatusPendingPayment = "pending_payment"
	StatusPaid           = "paid"
)

// TaxRate is the marketplace's flat tax on the offset price.
var TaxRate = decimal.NewFromFloat(0.10)

// Transaction represents a carbon-needs request matched to a conservation
// zone. While status is pending_payment it awaits payment; once paid it
// additionally carries the transaction date and a certificate reference.
//
// All monetary fields are computed server-side; the client treats them as
// authoritative and never recomputes them for anything beyond display.
type Transaction struct {
	TransactionId   int64           `json:"transaction_id"`
	ZoneName        string          `json:"zone_name"`
	ZoneLocation    string          `json:"zone_location"`
	TotalCarbon     decimal.Decimal `json:"total_carbon"`
	PricePerTon     decimal.Decimal `json:"price_per_ton"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	Tax             decimal.Decimal `json:"tax"`
	GrandTotal      decimal.Decimal `json:"grand_total"`
	Status          string          `json:"status"`
	TransactionDate string          `json:"transaction_date,omitempty"`
	CertificateUrl  string          `json:"certificate_url,omitempty"`
}

// VerifyTotals checks the server-computed monetary fields for internal
// consistency: tax must be 10% of the total price (rounded to cents) and the
// grand total must equal total price plus tax.
func (t *Transaction) VerifyTotals() error {
	expectedTax := t.TotalPrice.Mul(TaxRate).Round(2)
	if !t.Tax.Equal(expectedTax) {
		return fmt.Errorf("transaction %d: tax %s does not equal 10%% of total price %s (expected %s)",
			t.TransactionId, t.Tax.String(), t.TotalPrice.String(), expectedTax.String())
	}
	if !t.GrandTotal.Equal(t.TotalPrice.Add(t.Tax)) {
		return fmt.Errorf("transaction %d: grand total %s does not equal total price %s + tax %s",
			t.TransactionId, t.GrandTotal.String(), t.TotalPrice.String(), t.Tax.String())
	}
	return nil
}

// IsPending reports whether the transaction still awaits payment.
func (t *Transaction) IsPending() bool {
	return t.Status == StatusPendingPayment
}
