// Package repository internal/domain/repository/quote_journal.go
package repository

import (
	"context"
	"errors"

	"github.com/finroute/fx-rate-provider/internal/domain/entity"
)

// ErrQuoteNotFound indicates no quote was journaled under the requested ID.
var ErrQuoteNotFound = errors.New("quote not found")

// QuoteJournal records quotes issued to the routing host.
type QuoteJournal interface {
	// Store persists an issued quote.
	Store(ctx context.Context, quote *entity.Quote) error

	// FindByID retrieves a previously issued quote.
	FindByID(ctx context.Context, id string) (*entity.Quote, error)
}
