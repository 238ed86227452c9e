package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is a point conversion issued to the routing host: exactly one of the
// two amounts was supplied by the caller, the other was derived from the
// spread-adjusted rate.
type Quote struct {
	ID                string          `json:"id"`
	SourceLedger      string          `json:"source_ledger"`
	DestinationLedger string          `json:"destination_ledger"`
	SourceAmount      decimal.Decimal `json:"source_amount"`
	DestinationAmount decimal.Decimal `json:"destination_amount"`
	Rate              decimal.Decimal `json:"rate"`
	CreatedAt         time.Time       `json:"created_at"`
}
