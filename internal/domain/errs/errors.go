// Package errs defines the error taxonomy surfaced to the routing host.
package errs

import "errors"

var (
	// ErrAssetsNotTraded indicates the requested currency or ledger pair has
	// no resolvable rate or no matching configured pair.
	ErrAssetsNotTraded = errors.New("assets not tradable")

	// ErrNoAmountSpecified indicates neither a source nor a destination
	// amount was provided to a quote request.
	ErrNoAmountSpecified = errors.New("no amount specified")

	// ErrMissingParameter indicates a request omitted both the currency-code
	// and ledger forms of an asset identifier.
	ErrMissingParameter = errors.New("missing parameter")

	// ErrInvalidConfiguration indicates the provider was constructed with an
	// unsupported pair or currency configuration.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrNotConnected indicates a quoting operation ran before a successful
	// connect populated the rate table.
	ErrNotConnected = errors.New("rate provider is not connected")
)

// FetchError wraps a network or parse failure during a rate table fetch.
// The connection state is left untouched so callers may retry connect.
type FetchError struct {
	Cause error
}

func (e *FetchError) Error() string {
	return "rate table fetch failed: " + e.Cause.Error()
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// IsFetchError reports whether any error in the chain is a FetchError.
func IsFetchError(err error) bool {
	var fetchErr *FetchError
	return errors.As(err, &fetchErr)
}
