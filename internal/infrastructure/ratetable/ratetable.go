// Package ratetable holds the in-memory exchange-rate snapshot owned by the
// rate provider.
package ratetable

import (
	"sync"

	"github.com/shopspring/decimal"
)

// Table is a thread-safe currency -> rate snapshot. Lookups may run
// concurrently with Replace; a reader sees either the previous or the new
// table, never a partially populated one.
type Table struct {
	mu    sync.RWMutex
	rates map[string]decimal.Decimal
}

// New creates an empty rate table.
func New() *Table {
	return &Table{rates: make(map[string]decimal.Decimal)}
}

// Replace swaps the whole snapshot in one step.
func (t *Table) Replace(rates map[string]decimal.Decimal) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rates = rates
}

// Get returns the rate for a currency code.
func (t *Table) Get(currency string) (decimal.Decimal, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rate, ok := t.rates[currency]
	return rate, ok
}

// Len returns the number of priced currencies.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.rates)
}

// Currencies returns the priced currency codes in no particular order.
func (t *Table) Currencies() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	codes := make([]string, 0, len(t.rates))
	for code := range t.rates {
		codes = append(codes, code)
	}
	return codes
}
