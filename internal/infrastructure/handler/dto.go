package handler

import "encoding/json"

// StatusResponse is the constant status descriptor for the routing host
type StatusResponse struct {
	BackendStatus string `json:"backendStatus"`
}

// CurveResponse carries a two-point amount curve; amounts serialize as bare
// JSON numbers
type CurveResponse struct {
	Points [][]json.Number `json:"points"`
}

// QuoteResponse is an issued point quote
type QuoteResponse struct {
	ID                string      `json:"id"`
	SourceLedger      string      `json:"source_ledger"`
	DestinationLedger string      `json:"destination_ledger"`
	SourceAmount      json.Number `json:"source_amount"`
	DestinationAmount json.Number `json:"destination_amount"`
}

// PaymentRequest is a settlement instruction; this provider acknowledges it
// without executing anything
type PaymentRequest struct {
	ID                string      `json:"id"`
	SourceLedger      string      `json:"source_ledger"`
	DestinationLedger string      `json:"destination_ledger"`
	SourceAmount      json.Number `json:"source_amount,omitempty"`
	DestinationAmount json.Number `json:"destination_amount,omitempty"`
}

// SubmitPaymentResponse acknowledges a payment submission
type SubmitPaymentResponse struct {
	ID string `json:"id"`
}

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error       string `json:"error"`
	Status      int    `json:"status"`
	Description string `json:"description,omitempty"`
	RequestID   string `json:"request_id,omitempty"`
}
