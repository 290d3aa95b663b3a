// Package scheduler triggers the daily bulletin sync on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mercadobr/b3-market-data/internal/fetch"
	"github.com/mercadobr/b3-market-data/internal/ingest"
)

// Scheduler manages the cron tasks.
type Scheduler struct {
	Cron    *cron.Cron
	Service *ingest.Service
	Ctx     context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, svc *ingest.Service) *Scheduler {
	return &Scheduler{
		Cron:    cron.New(cron.WithSeconds()),
		Service: svc,
		Ctx:     ctx,
	}
}

// Register registers the daily sync task.
func (s *Scheduler) Register(dailyCron string) error {
	if _, err := s.Cron.AddFunc(dailyCron, s.dailySync); err != nil {
		return fmt.Errorf("register daily sync: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

// RunNow executes the daily sync immediately (for manual trigger / RUN_ON_START).
func (s *Scheduler) RunNow() {
	s.dailySync()
}

func (s *Scheduler) dailySync() {
	today, ok := tradingDay(time.Now())
	if !ok {
		log.Printf("[INFO] skipping daily sync, %s is not a trading day", today.Format("2006-01-02"))
		return
	}

	log.Printf("[INFO] running daily sync for %s", today.Format("2006-01-02"))
	result, err := s.Service.SyncDay(s.Ctx, today)
	if err != nil {
		if errors.Is(err, fetch.ErrAllTransportsFailed) {
			log.Printf("[ERROR] daily sync exhausted every transport, manual upload needed: %v", err)
		} else {
			log.Printf("[ERROR] daily sync: %v", err)
		}
		return
	}
	log.Printf("[INFO] daily sync done via %s: %d parsed, %d affected", result.Source, result.Parsed, result.Affected)
}

// tradingDay maps a wall-clock instant to the bulletin date it belongs to.
// The date is built from local calendar components, so an evening cron in a
// UTC-negative zone still syncs the local day, not the next one. Weekends
// report ok=false.
func tradingDay(now time.Time) (time.Time, bool) {
	y, m, d := now.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	wd := day.Weekday()
	return day, wd != time.Saturday && wd != time.Sunday
}
