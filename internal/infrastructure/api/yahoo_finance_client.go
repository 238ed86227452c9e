package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finroute/fx-rate-provider/internal/infrastructure/logger"
)

const (
	defaultBaseURL = "https://query.yahooapis.com/v1/public/yql"
	datatableEnv   = "store://datatables.org/alltableswithkeys"

	// The YQL endpoint reports unpriceable pairs with this literal rate.
	rateNotAvailable = "N/A"
)

// YahooFinanceClient fetches a currency exchange-rate table from the YQL
// currency-exchange endpoint. It implements service.RateSource.
type YahooFinanceClient struct {
	baseURL    string
	httpClient *http.Client
	logger     logger.Logger
}

// NewYahooFinanceClient creates a rate table client. A nil httpClient gets a
// 10 second timeout default; no retries are performed here, callers apply
// their own policy.
func NewYahooFinanceClient(baseURL string, httpClient *http.Client, log logger.Logger) *YahooFinanceClient {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 10 * time.Second,
		}
	}
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &YahooFinanceClient{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     log,
	}
}

// yqlResponse mirrors {"query":{"results":{"rate":[{"id","Rate"}]}}}.
type yqlResponse struct {
	Query struct {
		Results struct {
			Rate []yqlRate `json:"rate"`
		} `json:"results"`
	} `json:"query"`
}

type yqlRate struct {
	ID   string `json:"id"`
	Rate string `json:"Rate"`
}

// FetchRates retrieves the per-unit price of each requested currency versus
// the base. Each record id is the base code followed by the currency code;
// records the endpoint cannot price are skipped with a warning.
func (c *YahooFinanceClient) FetchRates(ctx context.Context, base string, currencies []string) (map[string]decimal.Decimal, error) {
	pairs := make([]string, 0, len(currencies))
	for _, code := range currencies {
		pairs = append(pairs, `"`+base+code+`"`)
	}
	query := fmt.Sprintf("select * from yahoo.finance.xchange where pair in (%s)", strings.Join(pairs, ","))

	params := url.Values{}
	params.Set("q", query)
	params.Set("env", datatableEnv)
	params.Set("format", "json")
	reqURL := c.baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}

	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("Error closing response body", map[string]interface{}{
				"error": closeErr.Error(),
			})
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate endpoint returned status %d: %s", resp.StatusCode, body)
	}

	var parsed yqlResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	records := parsed.Query.Results.Rate
	rates := make(map[string]decimal.Decimal, len(records))

	for _, record := range records {
		if len(record.ID) < len(base)+3 {
			c.logger.Warn("Skipping malformed rate record", map[string]interface{}{
				"id": record.ID,
			})
			continue
		}

		// The currency code is the three characters after the base prefix.
		code := record.ID[len(base) : len(base)+3]

		if record.Rate == "" || strings.EqualFold(record.Rate, rateNotAvailable) {
			c.logger.Warn("Rate not available", map[string]interface{}{
				"currency": code,
			})
			continue
		}

		rate, err := decimal.NewFromString(record.Rate)
		if err != nil {
			return nil, fmt.Errorf("failed to parse rate %q for %s: %w", record.Rate, code, err)
		}

		rates[code] = rate
	}

	c.logger.Debug("Rate table fetched", map[string]interface{}{
		"base":      base,
		"requested": len(currencies),
		"priced":    len(rates),
	})

	return rates, nil
}
