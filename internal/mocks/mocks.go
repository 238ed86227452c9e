// internal/mocks/mocks.go
package mocks

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/finroute/fx-rate-provider/internal/domain/entity"
)

// MockRateSource mocks the RateSource interface
type MockRateSource struct {
	mock.Mock
}

func (m *MockRateSource) FetchRates(ctx context.Context, base string, currencies []string) (map[string]decimal.Decimal, error) {
	args := m.Called(ctx, base, currencies)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]decimal.Decimal), args.Error(1)
}

// MockQuoteJournal mocks the QuoteJournal interface
type MockQuoteJournal struct {
	mock.Mock
}

func (m *MockQuoteJournal) Store(ctx context.Context, quote *entity.Quote) error {
	args := m.Called(ctx, quote)
	return args.Error(0)
}

func (m *MockQuoteJournal) FindByID(ctx context.Context, id string) (*entity.Quote, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Quote), args.Error(1)
}
