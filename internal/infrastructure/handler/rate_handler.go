// Package handler internal/infrastructure/handler/rate_handler.go
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/finroute/fx-rate-provider/internal/application/service"
	"github.com/finroute/fx-rate-provider/internal/domain/errs"
	"github.com/finroute/fx-rate-provider/internal/domain/repository"
	"github.com/finroute/fx-rate-provider/internal/infrastructure/logger"
	"github.com/finroute/fx-rate-provider/internal/infrastructure/middleware"
)

// RateHandler exposes the rate provider to the payment-routing host
type RateHandler struct {
	provider *service.RateProvider
	journal  repository.QuoteJournal
	logger   logger.Logger
}

// NewRateHandler creates a new rate handler. The journal may be nil, which
// disables the quote lookup route.
func NewRateHandler(provider *service.RateProvider, journal repository.QuoteJournal, log logger.Logger) *RateHandler {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &RateHandler{
		provider: provider,
		journal:  journal,
		logger:   log,
	}
}

// Connect triggers the one-time rate table fetch
func (h *RateHandler) Connect(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	if err := h.provider.Connect(r.Context()); err != nil {
		h.logger.Error("Connect failed", map[string]interface{}{
			"request_id": requestID,
			"error":      err.Error(),
		})
		sendErrorResponse(w, h.logger, "Rate table fetch failed",
			"The upstream rate endpoint could not be fetched or parsed. Connect may be retried.",
			http.StatusBadGateway, requestID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Refresh re-fetches the rate table unconditionally
func (h *RateHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	if err := h.provider.Refresh(r.Context()); err != nil {
		h.logger.Error("Refresh failed", map[string]interface{}{
			"request_id": requestID,
			"error":      err.Error(),
		})
		sendErrorResponse(w, h.logger, "Rate table fetch failed",
			"The upstream rate endpoint could not be fetched or parsed. The previous table is kept.",
			http.StatusBadGateway, requestID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetStatus reports the constant backend status
func (h *RateHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	status, _ := h.provider.GetStatus(r.Context())

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(StatusResponse{BackendStatus: status.BackendStatus})
}

// GetCurve returns the two-point amount curve for a pair
func (h *RateHandler) GetCurve(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	query := r.URL.Query()

	sourceAmount, err := parseAmount(query.Get("source_amount"))
	if err != nil {
		sendErrorResponse(w, h.logger, "Invalid amount",
			err.Error(), http.StatusBadRequest, requestID)
		return
	}

	curve, err := h.provider.GetCurve(r.Context(), service.CurveParams{
		SourceCurrency:      query.Get("source_currency"),
		DestinationCurrency: query.Get("destination_currency"),
		SourceLedger:        query.Get("source_ledger"),
		DestinationLedger:   query.Get("destination_ledger"),
		SourceAmount:        sourceAmount,
	})
	if err != nil {
		h.sendTaxonomyError(w, r, err)
		return
	}

	points := make([][]json.Number, 0, len(curve.Points))
	for _, point := range curve.Points {
		points = append(points, []json.Number{
			json.Number(point.SourceAmount.String()),
			json.Number(point.DestinationAmount.String()),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(CurveResponse{Points: points})
}

// GetQuote converts one amount of a pair into the other
func (h *RateHandler) GetQuote(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	query := r.URL.Query()

	sourceAmount, err := parseAmount(query.Get("source_amount"))
	if err != nil {
		sendErrorResponse(w, h.logger, "Invalid amount",
			err.Error(), http.StatusBadRequest, requestID)
		return
	}
	destinationAmount, err := parseAmount(query.Get("destination_amount"))
	if err != nil {
		sendErrorResponse(w, h.logger, "Invalid amount",
			err.Error(), http.StatusBadRequest, requestID)
		return
	}

	quote, err := h.provider.GetQuote(r.Context(), service.QuoteParams{
		SourceLedger:      query.Get("source_ledger"),
		DestinationLedger: query.Get("destination_ledger"),
		SourceAmount:      sourceAmount,
		DestinationAmount: destinationAmount,
	})
	if err != nil {
		h.sendTaxonomyError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(QuoteResponse{
		ID:                quote.ID,
		SourceLedger:      quote.SourceLedger,
		DestinationLedger: quote.DestinationLedger,
		SourceAmount:      json.Number(quote.SourceAmount.String()),
		DestinationAmount: json.Number(quote.DestinationAmount.String()),
	})
}

// GetQuoteByID retrieves a journaled quote
func (h *RateHandler) GetQuoteByID(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	id := mux.Vars(r)["id"]

	quote, err := h.journal.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrQuoteNotFound) {
			sendErrorResponse(w, h.logger, "Quote not found",
				"No quote was issued under the requested ID", http.StatusNotFound, requestID)
			return
		}
		h.logger.Error("Quote lookup failed", map[string]interface{}{
			"request_id": requestID,
			"id":         id,
			"error":      err.Error(),
		})
		sendErrorResponse(w, h.logger, "Internal server error",
			"The quote journal could not be read", http.StatusInternalServerError, requestID)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(QuoteResponse{
		ID:                quote.ID,
		SourceLedger:      quote.SourceLedger,
		DestinationLedger: quote.DestinationLedger,
		SourceAmount:      json.Number(quote.SourceAmount.String()),
		DestinationAmount: json.Number(quote.DestinationAmount.String()),
	})
}

// SubmitPayment acknowledges a payment; settlement is out of scope
func (h *RateHandler) SubmitPayment(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var req PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendErrorResponse(w, h.logger, "Invalid request body",
			"The payment body must be valid JSON", http.StatusBadRequest, requestID)
		return
	}

	sourceAmount, err := amountFromNumber(req.SourceAmount)
	if err != nil {
		sendErrorResponse(w, h.logger, "Invalid amount",
			err.Error(), http.StatusBadRequest, requestID)
		return
	}
	destinationAmount, err := amountFromNumber(req.DestinationAmount)
	if err != nil {
		sendErrorResponse(w, h.logger, "Invalid amount",
			err.Error(), http.StatusBadRequest, requestID)
		return
	}

	payment := service.Payment{
		ID:                req.ID,
		SourceLedger:      req.SourceLedger,
		DestinationLedger: req.DestinationLedger,
		SourceAmount:      sourceAmount,
		DestinationAmount: destinationAmount,
	}

	if err := h.provider.SubmitPayment(r.Context(), payment); err != nil {
		sendErrorResponse(w, h.logger, "Internal server error",
			"The payment could not be acknowledged", http.StatusInternalServerError, requestID)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(SubmitPaymentResponse{ID: req.ID})
}

// RegisterRoutes registers the rate handler routes
func (h *RateHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/connect", h.Connect).Methods("POST")
	router.HandleFunc("/refresh", h.Refresh).Methods("POST")
	router.HandleFunc("/status", h.GetStatus).Methods("GET")
	router.HandleFunc("/curve", h.GetCurve).Methods("GET")
	router.HandleFunc("/quote", h.GetQuote).Methods("GET")
	router.HandleFunc("/payments", h.SubmitPayment).Methods("POST")

	if h.journal != nil {
		router.HandleFunc("/quotes/{id}", h.GetQuoteByID).Methods("GET")
	}

	h.logger.Info("Rate provider routes registered", map[string]interface{}{
		"journal_enabled": h.journal != nil,
	})
}

// sendTaxonomyError maps the provider error taxonomy to HTTP status codes
func (h *RateHandler) sendTaxonomyError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())

	switch {
	case errors.Is(err, errs.ErrMissingParameter):
		sendErrorResponse(w, h.logger, "Missing parameter",
			err.Error(), http.StatusBadRequest, requestID)
	case errors.Is(err, errs.ErrNoAmountSpecified):
		sendErrorResponse(w, h.logger, "No amount specified",
			"Provide exactly one of source_amount or destination_amount", http.StatusBadRequest, requestID)
	case errors.Is(err, errs.ErrAssetsNotTraded):
		sendErrorResponse(w, h.logger, "Assets not tradable",
			err.Error(), http.StatusUnprocessableEntity, requestID)
	case errors.Is(err, errs.ErrNotConnected):
		sendErrorResponse(w, h.logger, "Not connected",
			"Call POST /connect before requesting quotes", http.StatusConflict, requestID)
	default:
		h.logger.Error("Unexpected quoting error", map[string]interface{}{
			"request_id": requestID,
			"error":      err.Error(),
		})
		sendErrorResponse(w, h.logger, "Internal server error",
			"An unexpected error occurred", http.StatusInternalServerError, requestID)
	}
}

// parseAmount converts an optional query parameter to a decimal amount
func parseAmount(raw string) (*decimal.Decimal, error) {
	if raw == "" {
		return nil, nil
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("amount %q is not a decimal number", raw)
	}
	return &amount, nil
}

func amountFromNumber(num json.Number) (decimal.Decimal, error) {
	if num == "" {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(num.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("amount %q is not a decimal number", num)
	}
	return amount, nil
}

// sendErrorResponse sends a standardized error response
func sendErrorResponse(w http.ResponseWriter, log logger.Logger, message, description string, statusCode int, requestID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	resp := ErrorResponse{
		Error:       message,
		Status:      statusCode,
		Description: description,
		RequestID:   requestID,
	}

	log.Debug("Sending error response", map[string]interface{}{
		"request_id":  requestID,
		"status_code": statusCode,
		"message":     message,
	})

	json.NewEncoder(w).Encode(resp)
}
