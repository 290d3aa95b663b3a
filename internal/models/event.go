package models

import "time"

// Event types published after ingestion operations.
const (
	EventMarketDataSynced = "MARKET_DATA_SYNCED"
	EventDayDeleted       = "DAY_DELETED"
)

// SyncEvent is the message published to Kafka after a sync or a
// full-day correction completes.
type SyncEvent struct {
	EventType string    `json:"event_type"`
	Date      string    `json:"date"`
	Source    string    `json:"source,omitempty"`
	Records   int       `json:"records"`
	Affected  int64     `json:"affected"`
	Timestamp time.Time `json:"timestamp"`
}
