package ingest

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mercadobr/b3-market-data/internal/cache"
	"github.com/mercadobr/b3-market-data/internal/extract"
	"github.com/mercadobr/b3-market-data/internal/kafka"
	"github.com/mercadobr/b3-market-data/internal/models"
)

// Store defines the write side of the persistent store the service needs.
type Store interface {
	UpsertMarketData(records []*models.MarketDataRecord) (int64, error)
	GetMarketDataByID(id int) (*models.MarketDataRecord, error)
	GetMarketDataByDate(date time.Time) ([]*models.MarketDataRecord, error)
	DeleteMarketData(id int) error
	DeleteMarketDataByDate(date time.Time) (int64, error)
}

// Fetcher obtains the day's raw bulletin bytes, reporting which transport
// produced them.
type Fetcher interface {
	Fetch(ctx context.Context, date time.Time) ([]byte, string, error)
}

// Service wires the ingestion pipeline. Producer and cache are optional;
// a nil producer skips event publishing and a nil cache disables caching.
type Service struct {
	store    Store
	fetcher  Fetcher
	producer *kafka.Producer
	cache    *cache.Cache
}

// NewService creates the ingestion service.
func NewService(store Store, fetcher Fetcher, producer *kafka.Producer, c *cache.Cache) *Service {
	return &Service{store: store, fetcher: fetcher, producer: producer, cache: c}
}

// SyncDay runs the automated path: retrieve the bulletin through the
// transport pipeline and ingest it. Transport exhaustion propagates as
// fetch.ErrAllTransportsFailed so callers can offer the manual path.
func (s *Service) SyncDay(ctx context.Context, date time.Time) (*models.SyncResult, error) {
	data, source, err := s.fetcher.Fetch(ctx, date)
	if err != nil {
		return nil, err
	}
	return s.IngestSpreadsheet(ctx, date, data, source)
}

// IngestSpreadsheet processes spreadsheet container bytes, the payload of
// both the automated sync and the manual upload fallback.
func (s *Service) IngestSpreadsheet(ctx context.Context, date time.Time, data []byte, source string) (*models.SyncResult, error) {
	records, err := extract.FromXLSX(data, date)
	if err != nil {
		return nil, fmt.Errorf("failed to extract spreadsheet from %s: %w", source, err)
	}
	return s.ingest(ctx, date, records, source)
}

// IngestText processes pasted tab-separated bulletin text.
func (s *Service) IngestText(ctx context.Context, date time.Time, text string) (*models.SyncResult, error) {
	records, err := extract.FromTSV(text, date)
	if err != nil {
		return nil, fmt.Errorf("failed to extract pasted text: %w", err)
	}
	return s.ingest(ctx, date, records, "paste")
}

// IngestRecords upserts already-typed records, the single-entry path.
func (s *Service) IngestRecords(ctx context.Context, records []*models.MarketDataRecord, source string) (*models.SyncResult, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("no records to ingest")
	}
	return s.ingest(ctx, records[0].Date, records, source)
}

func (s *Service) ingest(ctx context.Context, date time.Time, records []*models.MarketDataRecord, source string) (*models.SyncResult, error) {
	deduped, removed := Dedupe(records)

	affected, err := s.store.UpsertMarketData(deduped)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert batch: %w", err)
	}

	s.invalidate(ctx, deduped)

	result := &models.SyncResult{
		Date:              date,
		Source:            source,
		Parsed:            len(records),
		DuplicatesRemoved: removed,
		Affected:          affected,
	}

	if s.producer != nil {
		if err := s.producer.PublishSyncCompleted(ctx, result); err != nil {
			log.Printf("[WARN] failed to publish sync event: %v", err)
		}
	}

	log.Printf("[INFO] ingested %d records for %s via %s (%d duplicates removed, %d affected)",
		len(deduped), date.Format("2006-01-02"), source, removed, affected)
	return result, nil
}

// DeleteDay removes every record for a trading day, the full-day
// correction. Cache entries for the day's symbols are dropped first since
// the delete cannot be undone once issued.
func (s *Service) DeleteDay(ctx context.Context, date time.Time) (int64, error) {
	existing, err := s.store.GetMarketDataByDate(date)
	if err != nil {
		return 0, fmt.Errorf("failed to load day before delete: %w", err)
	}

	affected, err := s.store.DeleteMarketDataByDate(date)
	if err != nil {
		return 0, err
	}

	s.invalidate(ctx, existing)

	if s.producer != nil {
		if err := s.producer.PublishDayDeleted(ctx, date, affected); err != nil {
			log.Printf("[WARN] failed to publish day-deleted event: %v", err)
		}
	}

	log.Printf("[INFO] deleted %d records for %s", affected, date.Format("2006-01-02"))
	return affected, nil
}

// DeleteRecord removes a single record by ID.
func (s *Service) DeleteRecord(ctx context.Context, id int) error {
	rec, err := s.store.GetMarketDataByID(id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteMarketData(id); err != nil {
		return err
	}
	s.cache.InvalidateSymbol(ctx, rec.Symbol)
	return nil
}

// invalidate drops cached indicators for every symbol in the batch.
func (s *Service) invalidate(ctx context.Context, records []*models.MarketDataRecord) {
	if s.cache == nil {
		return
	}
	seen := make(map[string]struct{})
	for _, r := range records {
		if _, ok := seen[r.Symbol]; ok {
			continue
		}
		seen[r.Symbol] = struct{}{}
		s.cache.InvalidateSymbol(ctx, r.Symbol)
	}
}
