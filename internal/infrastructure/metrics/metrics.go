package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ProviderMetrics holds the Prometheus instruments for the rate provider.
type ProviderMetrics struct {
	// Rate table fetches
	RateFetchesTotal     prometheus.Counter
	RateFetchErrorsTotal prometheus.Counter
	RateFetchDuration    prometheus.Histogram

	// Quoting traffic
	QuotesServedTotal prometheus.Counter
	CurvesServedTotal prometheus.Counter
	QuoteErrorsTotal  prometheus.Counter
}

// NewProviderMetrics registers the provider instruments on the given
// registerer.
func NewProviderMetrics(reg prometheus.Registerer) *ProviderMetrics {
	factory := promauto.With(reg)

	return &ProviderMetrics{
		RateFetchesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "fx_rate_fetches_total",
			Help: "Successful rate table fetches",
		}),
		RateFetchErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "fx_rate_fetch_errors_total",
			Help: "Failed rate table fetches",
		}),
		RateFetchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "fx_rate_fetch_duration_seconds",
			Help:    "Rate table fetch duration",
			Buckets: prometheus.DefBuckets,
		}),
		QuotesServedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "fx_quotes_served_total",
			Help: "Point quotes served to the routing host",
		}),
		CurvesServedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "fx_curves_served_total",
			Help: "Rate curves served to the routing host",
		}),
		QuoteErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "fx_quote_errors_total",
			Help: "Quote and curve requests rejected with an error",
		}),
	}
}
