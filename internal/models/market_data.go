package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarketDataRecord is one row of the daily B3 trading bulletin after
// normalization. The pair (Date, Symbol) is unique across the store;
// re-ingesting a day overwrites whole records, never single fields.
type MarketDataRecord struct {
	ID        int             `json:"id"`
	Date      time.Time       `json:"date"`
	Symbol    string          `json:"symbol"`
	TitleType string          `json:"title_type"`
	Price     decimal.Decimal `json:"price"`
	Variation decimal.Decimal `json:"variation"`
	NumTrades int64           `json:"num_trades"`
	Quantity  int64           `json:"quantity"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}

// Key returns the composite (date, symbol) identity used for batch
// deduplication and upsert conflict resolution.
func (r *MarketDataRecord) Key() string {
	return r.Date.Format("2006-01-02") + "|" + r.Symbol
}

// SyncResult summarizes one ingestion run for operator feedback.
type SyncResult struct {
	Date              time.Time `json:"date"`
	Source            string    `json:"source"`
	Parsed            int       `json:"parsed"`
	DuplicatesRemoved int       `json:"duplicates_removed"`
	Affected          int64     `json:"affected"`
}
