package service

import (
	"context"

	"github.com/shopspring/decimal"
)

// RateSource fetches the full exchange-rate table for a base currency.
type RateSource interface {
	// FetchRates returns the per-unit price of each requested currency
	// versus the base. Currencies the source cannot price are absent from
	// the result rather than reported as an error.
	FetchRates(ctx context.Context, base string, currencies []string) (map[string]decimal.Decimal, error)
}
