// internal/infrastructure/handler/rate_handler_test.go
package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/finroute/fx-rate-provider/internal/application/service"
	"github.com/finroute/fx-rate-provider/internal/domain/entity"
	"github.com/finroute/fx-rate-provider/internal/domain/repository"
	"github.com/finroute/fx-rate-provider/internal/infrastructure/logger"
	"github.com/finroute/fx-rate-provider/internal/mocks"
)

func newTestRouter(t *testing.T, journal repository.QuoteJournal) *mux.Router {
	t.Helper()

	source := new(mocks.MockRateSource)
	source.On("FetchRates", mock.Anything, "USD", mock.Anything).
		Return(map[string]decimal.Decimal{
			"EUR": decimal.RequireFromString("0.9"),
		}, nil)

	provider, err := service.NewRateProvider(service.Config{
		Currencies: []string{"EUR"},
		Spread:     decimal.RequireFromString("0.01"),
	}, source, journal, logger.NewNop(), nil)
	require.NoError(t, err)

	router := mux.NewRouter()
	NewRateHandler(provider, journal, logger.NewNop()).RegisterRoutes(router)
	return router
}

func connect(t *testing.T, router *mux.Router) {
	t.Helper()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/connect", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestConnectEndpoint(t *testing.T) {
	router := newTestRouter(t, nil)
	connect(t, router)

	// Idempotent: a second connect also succeeds.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/connect", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestConnectEndpointFetchFailure(t *testing.T) {
	source := new(mocks.MockRateSource)
	source.On("FetchRates", mock.Anything, "USD", mock.Anything).
		Return(nil, assert.AnError)

	provider, err := service.NewRateProvider(service.Config{
		Currencies: []string{"EUR"},
	}, source, nil, logger.NewNop(), nil)
	require.NoError(t, err)

	router := mux.NewRouter()
	NewRateHandler(provider, nil, logger.NewNop()).RegisterRoutes(router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/connect", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusBadGateway, resp.Status)
}

func TestStatusEndpoint(t *testing.T) {
	router := newTestRouter(t, nil)

	// Status answers regardless of connection state.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "OK", resp.BackendStatus)
}

func TestQuoteEndpoint(t *testing.T) {
	router := newTestRouter(t, nil)
	connect(t, router)

	t.Run("Converts a source amount", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
			"/quote?source_ledger=USD&destination_ledger=EUR&source_amount=100000000", nil))

		require.Equal(t, http.StatusOK, rec.Code)

		var resp QuoteResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "USD", resp.SourceLedger)
		assert.Equal(t, "EUR", resp.DestinationLedger)
		assert.Equal(t, json.Number("100000000"), resp.SourceAmount)
		assert.Equal(t, json.Number("89100000"), resp.DestinationAmount)
		assert.NotEmpty(t, resp.ID)
	})

	t.Run("Rejects a quote with no amount", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
			"/quote?source_ledger=USD&destination_ledger=EUR", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "No amount specified", resp.Error)
	})

	t.Run("Rejects untradable assets", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
			"/quote?source_ledger=USD&destination_ledger=JPY&source_amount=100", nil))

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("Rejects a malformed amount", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
			"/quote?source_ledger=USD&destination_ledger=EUR&source_amount=abc", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestQuoteEndpointBeforeConnect(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/quote?source_ledger=USD&destination_ledger=EUR&source_amount=100", nil))

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCurveEndpoint(t *testing.T) {
	router := newTestRouter(t, nil)
	connect(t, router)

	t.Run("First point is the origin", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
			"/curve?source_currency=USD&destination_currency=EUR", nil))

		require.Equal(t, http.StatusOK, rec.Code)

		var resp CurveResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Points, 2)
		assert.Equal(t, []json.Number{"0", "0"}, resp.Points[0])
		assert.Equal(t, []json.Number{"100000000", "89100000"}, resp.Points[1])
	})

	t.Run("Rejects a request with no identifiers", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/curve", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestQuoteLookupEndpoint(t *testing.T) {
	journal := new(mocks.MockQuoteJournal)
	journal.On("FindByID", mock.Anything, "q-1").Return(&entity.Quote{
		ID:                "q-1",
		SourceLedger:      "USD",
		DestinationLedger: "EUR",
		SourceAmount:      decimal.RequireFromString("100"),
		DestinationAmount: decimal.RequireFromString("89.1"),
	}, nil).Once()
	journal.On("FindByID", mock.Anything, "missing").
		Return(nil, repository.ErrQuoteNotFound).Once()

	router := newTestRouter(t, journal)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/quotes/q-1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp QuoteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "q-1", resp.ID)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/quotes/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	journal.AssertExpectations(t)
}

func TestSubmitPaymentEndpoint(t *testing.T) {
	router := newTestRouter(t, nil)

	body, err := json.Marshal(PaymentRequest{
		ID:                "p-1",
		SourceLedger:      "USD",
		DestinationLedger: "EUR",
		SourceAmount:      "100",
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/payments", bytes.NewReader(body)))

	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp SubmitPaymentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "p-1", resp.ID)
}
