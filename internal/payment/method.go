package payment

import "fmt"

// Method enumerates the supported payment methods.
type Method string

const (
	MethodCreditCard   Method = "credit_card"
	MethodBankTransfer Method = "bank_transfer"
	MethodEWallet      Method = "e_wallet"
)

// DefaultMethod is pre-selected when the payment dialog opens.
const DefaultMethod = MethodEWallet

func (m Method) Valid() bool {
	switch m {
	case MethodCreditCard, MethodBankTransfer, MethodEWallet:
		return true
	}
	return false
}

// DisplayName is the label shown on the confirmation step.
func (m Method) DisplayName() string {
	switch m {
	case MethodCreditCard:
		return "Credit Card"
	case MethodBankTransfer:
		return "Bank Transfer"
	case MethodEWallet:
		return "E-Wallet"
	}
	return string(m)
}

// Fields is the tagged union of per-method payment fields. Each variant
// knows which method it belongs to and whether every required field is
// filled in. Values are free text: the marketplace performs no format
// validation (no Luhn check, no expiry parsing) because the payment is a
// status transition, not a funds movement.
type Fields interface {
	Method() Method
	Complete() bool
}

// CreditCardFields requires cardHolder, cardNumber, expiryDate and cvv.
type CreditCardFields struct {
	CardHolder string
	CardNumber string
	ExpiryDate string
	CVV        string
}

func (CreditCardFields) Method() Method { return MethodCreditCard }

func (f CreditCardFields) Complete() bool {
	return f.CardHolder != "" && f.CardNumber != "" && f.ExpiryDate != "" && f.CVV != ""
}

// BankTransferFields requires bankAccount and routingNumber.
type BankTransferFields struct {
	BankAccount   string
	RoutingNumber string
}

func (BankTransferFields) Method() Method { return MethodBankTransfer }

func (f BankTransferFields) Complete() bool {
	return f.BankAccount != "" && f.RoutingNumber != ""
}

// EWalletFields requires walletId.
type EWalletFields struct {
	WalletId string
}

func (EWalletFields) Method() Method { return MethodEWallet }

func (f EWalletFields) Complete() bool {
	return f.WalletId != ""
}

// EmptyFields returns the zero-value field set for a method. Switching
// methods always starts from here; fields entered for one method are never
// carried into another.
func EmptyFields(method Method) (Fields, error) {
	switch method {
	case MethodCreditCard:
		return CreditCardFields{}, nil
	case MethodBankTransfer:
		return BankTransferFields{}, nil
	case MethodEWallet:
		return EWalletFields{}, nil
	}
	return nil, fmt.Errorf("unknown payment method %q", method)
}
