package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// APIStatusSuccess is the status value the marketplace API uses for
// successful responses.
const APIStatusSuccess = "success"

// APIResponse is the envelope every marketplace endpoint responds with.
type APIResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// TransactionListResponse is the response of the transaction list endpoint.
type TransactionListResponse struct {
	Status  string        `json:"status"`
	Message string        `json:"message,omitempty"`
	Data    []Transaction `json:"data"`
}

// NeedsRequest is the wire body for submitting carbon needs.
// "prefered_forest" (sic) is the key the API actually accepts.
type NeedsRequest struct {
	CarbonNeeds    decimal.Decimal `json:"carbon_needs"`
	PreferedForest string          `json:"prefered_forest"`
	Notes          string          `json:"notes"`
}

// LoginResponse carries the bearer token and the session payload the client
// persists under its fixed keys. The user object is stored verbatim.
type LoginResponse struct {
	Status      string          `json:"status"`
	Message     string          `json:"message,omitempty"`
	Token       string          `json:"token"`
	User        json.RawMessage `json:"user"`
	Roles       []string        `json:"roles"`
	Permissions []string        `json:"permissions"`
}

// RegisterResponse is the registration endpoint response. Field-level
// validation failures come back as a map of field name to messages.
type RegisterResponse struct {
	Status  string              `json:"status"`
	Message string              `json:"message,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
}
