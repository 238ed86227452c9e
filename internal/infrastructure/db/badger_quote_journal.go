package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v3"

	"github.com/finroute/fx-rate-provider/internal/domain/entity"
	"github.com/finroute/fx-rate-provider/internal/domain/repository"
)

const quoteKeyPrefix = "quote:"

// BadgerQuoteJournal implements the quote journal interface using BadgerDB
type BadgerQuoteJournal struct {
	db *badger.DB
}

// NewBadgerQuoteJournal creates a new BadgerDB quote journal
func NewBadgerQuoteJournal(db *badger.DB) *BadgerQuoteJournal {
	return &BadgerQuoteJournal{db: db}
}

// Store persists an issued quote under its ID
func (j *BadgerQuoteJournal) Store(ctx context.Context, quote *entity.Quote) error {
	data, err := json.Marshal(quote)
	if err != nil {
		return fmt.Errorf("failed to marshal quote: %w", err)
	}

	err = j.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(quoteKeyPrefix+quote.ID), data)
	})
	if err != nil {
		return fmt.Errorf("failed to store quote: %w", err)
	}

	return nil
}

// FindByID retrieves a previously issued quote
func (j *BadgerQuoteJournal) FindByID(ctx context.Context, id string) (*entity.Quote, error) {
	var quote entity.Quote

	err := j.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(quoteKeyPrefix + id))
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &quote)
		})
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", repository.ErrQuoteNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve quote: %w", err)
	}

	return &quote, nil
}
