// internal/infrastructure/api/yahoo_finance_client_test.go
package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finroute/fx-rate-provider/internal/infrastructure/logger"
)

func TestFetchRates(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		// The YQL query joins base-prefixed, quoted pair symbols.
		assert.Contains(t, query.Get("q"), `"USDEUR"`)
		assert.Contains(t, query.Get("q"), `"USDGBP"`)
		assert.True(t, strings.HasPrefix(query.Get("q"), "select * from yahoo.finance.xchange"))
		assert.Equal(t, "store://datatables.org/alltableswithkeys", query.Get("env"))
		assert.Equal(t, "json", query.Get("format"))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{
			"query": {
				"results": {
					"rate": [
						{"id": "USDEUR", "Rate": "0.9021"},
						{"id": "USDGBP", "Rate": "0.7750"}
					]
				}
			}
		}`))
	}))
	defer mockServer.Close()

	client := NewYahooFinanceClient(mockServer.URL, nil, logger.NewNop())

	rates, err := client.FetchRates(context.Background(), "USD", []string{"EUR", "GBP"})
	require.NoError(t, err)
	require.Len(t, rates, 2)
	assert.True(t, rates["EUR"].Equal(decimal.RequireFromString("0.9021")))
	assert.True(t, rates["GBP"].Equal(decimal.RequireFromString("0.7750")))
}

func TestFetchRatesSkipsUnavailableEntries(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"query": {
				"results": {
					"rate": [
						{"id": "USDEUR", "Rate": "0.9021"},
						{"id": "USDXYZ", "Rate": "N/A"},
						{"id": "US", "Rate": "1.0"}
					]
				}
			}
		}`))
	}))
	defer mockServer.Close()

	client := NewYahooFinanceClient(mockServer.URL, nil, logger.NewNop())

	rates, err := client.FetchRates(context.Background(), "USD", []string{"EUR", "XYZ"})
	require.NoError(t, err)

	// The N/A entry and the malformed id are skipped, not fatal.
	require.Len(t, rates, 1)
	_, ok := rates["XYZ"]
	assert.False(t, ok)
	assert.True(t, rates["EUR"].Equal(decimal.RequireFromString("0.9021")))
}

func TestFetchRatesErrors(t *testing.T) {
	t.Run("Non-200 status", func(t *testing.T) {
		mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer mockServer.Close()

		client := NewYahooFinanceClient(mockServer.URL, nil, logger.NewNop())
		_, err := client.FetchRates(context.Background(), "USD", []string{"EUR"})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "status 502")
	})

	t.Run("Undecodable body", func(t *testing.T) {
		mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`not json`))
		}))
		defer mockServer.Close()

		client := NewYahooFinanceClient(mockServer.URL, nil, logger.NewNop())
		_, err := client.FetchRates(context.Background(), "USD", []string{"EUR"})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to decode response")
	})

	t.Run("Unparseable rate is fatal", func(t *testing.T) {
		mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"query":{"results":{"rate":[{"id":"USDEUR","Rate":"0x9"}]}}}`))
		}))
		defer mockServer.Close()

		client := NewYahooFinanceClient(mockServer.URL, nil, logger.NewNop())
		_, err := client.FetchRates(context.Background(), "USD", []string{"EUR"})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse rate")
	})

	t.Run("Unreachable endpoint", func(t *testing.T) {
		client := NewYahooFinanceClient("http://127.0.0.1:1", nil, logger.NewNop())
		_, err := client.FetchRates(context.Background(), "USD", []string{"EUR"})
		assert.Error(t, err)
	})
}
