// Package service internal/application/service/rate_provider.go
package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/finroute/fx-rate-provider/internal/domain/entity"
	"github.com/finroute/fx-rate-provider/internal/domain/errs"
	"github.com/finroute/fx-rate-provider/internal/domain/repository"
	domainservice "github.com/finroute/fx-rate-provider/internal/domain/service"
	"github.com/finroute/fx-rate-provider/internal/infrastructure/logger"
	"github.com/finroute/fx-rate-provider/internal/infrastructure/metrics"
	"github.com/finroute/fx-rate-provider/internal/infrastructure/ratetable"
)

// DefaultProbeAmount is the fixed source amount used for the second curve
// point when the provider is not configured to honor caller probe amounts.
var DefaultProbeAmount = decimal.NewFromInt(100000000)

// Status is the constant backend status descriptor returned to the host.
type Status struct {
	BackendStatus string `json:"backendStatus"`
}

// CurveParams identifies the assets of a curve request. Either the currency
// or the ledger form of each side may be set; SourceAmount is an optional
// probe amount.
type CurveParams struct {
	SourceCurrency      string
	DestinationCurrency string
	SourceLedger        string
	DestinationLedger   string
	SourceAmount        *decimal.Decimal
}

// QuoteParams identifies a point quote request. Exactly one of the two
// amounts must be set; when both are, the source amount wins.
type QuoteParams struct {
	SourceLedger      string
	DestinationLedger string
	SourceAmount      *decimal.Decimal
	DestinationAmount *decimal.Decimal
}

// Payment is a settlement instruction from the routing host. The provider
// only quotes rates, so payments are acknowledged without execution.
type Payment struct {
	ID                string
	SourceLedger      string
	DestinationLedger string
	SourceAmount      decimal.Decimal
	DestinationAmount decimal.Decimal
}

// Config carries the construction-time quoting parameters.
type Config struct {
	// Spread is the fractional markup applied to raw rates.
	Spread decimal.Decimal

	// BaseCurrency is the currency all fetched rates are priced against.
	// Defaults to USD.
	BaseCurrency string

	// Currencies lists tradable codes for the code-only variant.
	Currencies []string

	// Pairs lists authorized [sourceAsset, destinationAsset] pairs.
	Pairs [][]string

	// UseProbeParam makes GetCurve honor a caller-supplied source amount.
	UseProbeParam bool

	// ProbeAmount overrides DefaultProbeAmount when positive.
	ProbeAmount decimal.Decimal
}

type pairKey struct {
	source      string
	destination string
}

// RateProvider fetches a remote rate table once and answers spread-adjusted
// quoting queries for a payment-routing host.
type RateProvider struct {
	spread        decimal.Decimal
	base          string
	currencies    []string
	pairIndex     map[pairKey]entity.LedgerPair
	useProbeParam bool
	probeAmount   decimal.Decimal

	source  domainservice.RateSource
	journal repository.QuoteJournal
	rates   *ratetable.Table
	logger  logger.Logger
	metrics *metrics.ProviderMetrics

	mu        sync.RWMutex
	connected bool
	flight    singleflight.Group
}

// NewRateProvider validates the configuration and builds a provider. The
// journal may be nil, in which case issued quotes are not recorded.
func NewRateProvider(cfg Config, source domainservice.RateSource, journal repository.QuoteJournal,
	log logger.Logger, m *metrics.ProviderMetrics) (*RateProvider, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: rate source is required", errs.ErrInvalidConfiguration)
	}
	if log == nil {
		log = logger.GetDefaultLogger()
	}
	if m == nil {
		m = metrics.NewProviderMetrics(prometheus.NewRegistry())
	}

	if cfg.Spread.IsNegative() || cfg.Spread.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("%w: spread %s must be in [0, 1)", errs.ErrInvalidConfiguration, cfg.Spread)
	}

	base := cfg.BaseCurrency
	if base == "" {
		base = "USD"
	}
	if !entity.IsCurrencyCode(base) {
		return nil, fmt.Errorf("%w: base currency %q is not a currency code", errs.ErrInvalidConfiguration, base)
	}
	base = normalizeCode(base)

	probeAmount := cfg.ProbeAmount
	if !probeAmount.IsPositive() {
		probeAmount = DefaultProbeAmount
	}

	pairIndex := make(map[pairKey]entity.LedgerPair, len(cfg.Pairs)*2)
	currencySet := make(map[string]struct{})

	for _, raw := range cfg.Pairs {
		if len(raw) != 2 {
			return nil, fmt.Errorf("%w: pair %v must have exactly two assets", errs.ErrInvalidConfiguration, raw)
		}

		pair, err := entity.NewLedgerPair(raw[0], raw[1])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errs.ErrInvalidConfiguration, err)
		}

		// Index both the ledger form and the bare currency-code form so the
		// host may address the pair either way.
		pairIndex[pairKey{pair.SourceLedger, pair.DestinationLedger}] = pair
		pairIndex[pairKey{pair.SourceCurrency, pair.DestinationCurrency}] = pair

		currencySet[pair.SourceCurrency] = struct{}{}
		currencySet[pair.DestinationCurrency] = struct{}{}
	}

	for _, code := range cfg.Currencies {
		if !entity.IsCurrencyCode(code) {
			return nil, fmt.Errorf("%w: %q is not a currency code", errs.ErrInvalidConfiguration, code)
		}
		currencySet[normalizeCode(code)] = struct{}{}
	}

	if len(currencySet) == 0 {
		return nil, fmt.Errorf("%w: either currencies or ledger pairs must be configured", errs.ErrInvalidConfiguration)
	}

	currencies := make([]string, 0, len(currencySet))
	for code := range currencySet {
		if code != base {
			currencies = append(currencies, code)
		}
	}
	if len(currencies) == 0 {
		return nil, fmt.Errorf("%w: at least one currency besides the base %s must be configured",
			errs.ErrInvalidConfiguration, base)
	}

	return &RateProvider{
		spread:        cfg.Spread,
		base:          base,
		currencies:    currencies,
		pairIndex:     pairIndex,
		useProbeParam: cfg.UseProbeParam,
		probeAmount:   probeAmount,
		source:        source,
		journal:       journal,
		rates:         ratetable.New(),
		logger:        log,
		metrics:       m,
	}, nil
}

// Connect performs the one-time rate table fetch. It is idempotent: once
// connected it returns immediately without refetching, and concurrent calls
// share a single in-flight fetch. On failure the provider stays unconnected
// so the caller may invoke Connect again.
func (p *RateProvider) Connect(ctx context.Context) error {
	if p.isConnected() {
		return nil
	}

	_, err, _ := p.flight.Do("fetch", func() (interface{}, error) {
		if p.isConnected() {
			return nil, nil
		}
		return nil, p.fetchAndSwap(ctx)
	})
	return err
}

// Refresh re-fetches the rate table unconditionally and swaps it in
// atomically. It shares the in-flight guard with Connect so the two never
// race a duplicate fetch.
func (p *RateProvider) Refresh(ctx context.Context) error {
	_, err, _ := p.flight.Do("fetch", func() (interface{}, error) {
		return nil, p.fetchAndSwap(ctx)
	})
	return err
}

// GetStatus reports the constant backend status. It never fails and does not
// depend on the connection state.
func (p *RateProvider) GetStatus(ctx context.Context) (*Status, error) {
	return &Status{BackendStatus: "OK"}, nil
}

// GetCurve returns a two-point linear amount curve for the requested pair:
// the origin, then the spread-adjusted conversion of a probe amount.
func (p *RateProvider) GetCurve(ctx context.Context, params CurveParams) (*entity.Curve, error) {
	source := firstNonEmpty(params.SourceCurrency, params.SourceLedger)
	destination := firstNonEmpty(params.DestinationCurrency, params.DestinationLedger)
	if source == "" || destination == "" {
		p.metrics.QuoteErrorsTotal.Inc()
		return nil, fmt.Errorf("%w: source and destination assets are required", errs.ErrMissingParameter)
	}

	if !p.isConnected() {
		p.metrics.QuoteErrorsTotal.Inc()
		return nil, errs.ErrNotConnected
	}

	rate, err := p.adjustedRate(source, destination)
	if err != nil {
		p.metrics.QuoteErrorsTotal.Inc()
		return nil, err
	}

	probe := p.probeAmount
	if p.useProbeParam && params.SourceAmount != nil {
		probe = *params.SourceAmount
	}

	p.metrics.CurvesServedTotal.Inc()

	return &entity.Curve{
		Points: []entity.CurvePoint{
			{SourceAmount: decimal.Zero, DestinationAmount: decimal.Zero},
			{SourceAmount: probe, DestinationAmount: probe.Mul(rate)},
		},
	}, nil
}

// GetQuote converts one side of a source/destination amount into the other
// using the spread-adjusted rate, records the quote in the journal when one
// is configured, and returns it.
func (p *RateProvider) GetQuote(ctx context.Context, params QuoteParams) (*entity.Quote, error) {
	if params.SourceLedger == "" || params.DestinationLedger == "" {
		p.metrics.QuoteErrorsTotal.Inc()
		return nil, fmt.Errorf("%w: source and destination ledgers are required", errs.ErrMissingParameter)
	}
	if params.SourceAmount == nil && params.DestinationAmount == nil {
		p.metrics.QuoteErrorsTotal.Inc()
		return nil, errs.ErrNoAmountSpecified
	}

	if !p.isConnected() {
		p.metrics.QuoteErrorsTotal.Inc()
		return nil, errs.ErrNotConnected
	}

	rate, err := p.adjustedRate(params.SourceLedger, params.DestinationLedger)
	if err != nil {
		p.metrics.QuoteErrorsTotal.Inc()
		return nil, err
	}

	var sourceAmount, destinationAmount decimal.Decimal
	if params.SourceAmount != nil {
		sourceAmount = *params.SourceAmount
		destinationAmount = sourceAmount.Mul(rate)
	} else {
		destinationAmount = *params.DestinationAmount
		sourceAmount = destinationAmount.Div(rate)
	}

	quote := &entity.Quote{
		ID:                uuid.New().String(),
		SourceLedger:      params.SourceLedger,
		DestinationLedger: params.DestinationLedger,
		SourceAmount:      sourceAmount,
		DestinationAmount: destinationAmount,
		Rate:              rate,
		CreatedAt:         time.Now().UTC(),
	}

	if p.journal != nil {
		// Journaling is best effort; a failed write must not void the quote.
		if err := p.journal.Store(ctx, quote); err != nil {
			p.logger.Warn("Failed to journal quote", map[string]interface{}{
				"quote_id": quote.ID,
				"error":    err.Error(),
			})
		}
	}

	p.metrics.QuotesServedTotal.Inc()

	p.logger.Debug("Quote issued", map[string]interface{}{
		"quote_id":           quote.ID,
		"source_ledger":      quote.SourceLedger,
		"destination_ledger": quote.DestinationLedger,
		"rate":               rate.String(),
	})

	return quote, nil
}

// SubmitPayment acknowledges a payment without executing settlement. This
// provider only quotes rates; the routing host settles elsewhere.
func (p *RateProvider) SubmitPayment(ctx context.Context, payment Payment) error {
	p.logger.Info("Payment acknowledged without settlement", map[string]interface{}{
		"payment_id":         payment.ID,
		"source_ledger":      payment.SourceLedger,
		"destination_ledger": payment.DestinationLedger,
	})
	return nil
}

// Connected reports whether a fetch has populated the rate table.
func (p *RateProvider) Connected() bool {
	return p.isConnected()
}

func (p *RateProvider) isConnected() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.connected
}

func (p *RateProvider) fetchAndSwap(ctx context.Context) error {
	started := time.Now()

	fetched, err := p.source.FetchRates(ctx, p.base, p.currencies)
	if err != nil {
		p.metrics.RateFetchErrorsTotal.Inc()
		p.logger.Error("Rate table fetch failed", map[string]interface{}{
			"base":  p.base,
			"error": err.Error(),
		})
		return &errs.FetchError{Cause: err}
	}

	rates := make(map[string]decimal.Decimal, len(fetched)+1)
	for code, rate := range fetched {
		rates[code] = rate
	}

	// Currencies the source could not price are skipped, never fatal.
	for _, code := range p.currencies {
		if _, ok := rates[code]; !ok {
			p.logger.Warn("No rate available for currency, skipping", map[string]interface{}{
				"currency": code,
			})
		}
	}

	rates[p.base] = decimal.NewFromInt(1)

	if len(rates) < 2 {
		p.metrics.RateFetchErrorsTotal.Inc()
		return &errs.FetchError{Cause: fmt.Errorf("rate table is empty for %v", p.currencies)}
	}

	p.rates.Replace(rates)

	p.mu.Lock()
	p.connected = true
	p.mu.Unlock()

	p.metrics.RateFetchesTotal.Inc()
	p.metrics.RateFetchDuration.Observe(time.Since(started).Seconds())

	p.logger.Info("Rate table populated", map[string]interface{}{
		"base":        p.base,
		"currencies":  len(rates),
		"duration_ms": time.Since(started).Milliseconds(),
	})

	return nil
}

// adjustedRate resolves the pair to currency codes and applies the spread.
func (p *RateProvider) adjustedRate(source, destination string) (decimal.Decimal, error) {
	sourceCurrency, destinationCurrency, err := p.resolveCurrencies(source, destination)
	if err != nil {
		return decimal.Zero, err
	}

	sourceRate, okSource := p.rates.Get(sourceCurrency)
	destinationRate, okDestination := p.rates.Get(destinationCurrency)
	// A zero rate on either side is as untradable as a missing one: the
	// destination-amount path divides by the adjusted rate.
	if !okSource || !okDestination || !sourceRate.IsPositive() || !destinationRate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: no rate for %s/%s",
			errs.ErrAssetsNotTraded, sourceCurrency, destinationCurrency)
	}

	one := decimal.NewFromInt(1)
	return destinationRate.Div(sourceRate).Mul(one.Sub(p.spread)), nil
}

// resolveCurrencies maps asset identifiers to currency codes. Pairs are
// resolved through the index precomputed at construction; when no pairs are
// configured, bare currency codes are accepted directly.
func (p *RateProvider) resolveCurrencies(source, destination string) (string, string, error) {
	if len(p.pairIndex) > 0 {
		pair, ok := p.pairIndex[pairKey{source, destination}]
		if !ok {
			pair, ok = p.pairIndex[pairKey{normalizeCode(source), normalizeCode(destination)}]
		}
		if !ok {
			return "", "", fmt.Errorf("%w: no configured pair for %s -> %s",
				errs.ErrAssetsNotTraded, source, destination)
		}
		return pair.SourceCurrency, pair.DestinationCurrency, nil
	}

	if !entity.IsCurrencyCode(source) || !entity.IsCurrencyCode(destination) {
		return "", "", fmt.Errorf("%w: %s -> %s are not currency codes and no pairs are configured",
			errs.ErrAssetsNotTraded, source, destination)
	}
	return normalizeCode(source), normalizeCode(destination), nil
}

func normalizeCode(code string) string {
	if len(code) != 3 {
		return code
	}
	return strings.ToUpper(code)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
