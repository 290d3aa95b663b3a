package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mercadobr/b3-market-data/internal/api"
	"github.com/mercadobr/b3-market-data/internal/cache"
	"github.com/mercadobr/b3-market-data/internal/config"
	"github.com/mercadobr/b3-market-data/internal/database"
	"github.com/mercadobr/b3-market-data/internal/fetch"
	"github.com/mercadobr/b3-market-data/internal/indicators"
	"github.com/mercadobr/b3-market-data/internal/ingest"
	"github.com/mercadobr/b3-market-data/internal/kafka"
	"github.com/mercadobr/b3-market-data/internal/scheduler"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] b3-market-data starting...")

	cfg := config.Load()

	// Database
	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatalf("[FATAL] connect database: %v", err)
	}
	defer db.Close()

	if dir := os.Getenv("MIGRATIONS_PATH"); dir != "" {
		if err := db.Migrate(dir); err != nil {
			log.Fatalf("[FATAL] run migrations: %v", err)
		}
		log.Println("[INFO] migrations applied")
	}

	// Indicator cache, optional
	var indicatorCache *cache.Cache
	if cfg.Redis.Addr != "" {
		indicatorCache, err = cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
		if err != nil {
			log.Printf("[WARN] redis unavailable, caching disabled: %v", err)
		} else {
			defer indicatorCache.Close()
		}
	}

	// Kafka producer, optional
	var producer *kafka.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		producer = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		log.Printf("[INFO] publishing events to %s", cfg.Kafka.Topic)
	}

	// Transport pipeline: relay first, mirrors next, direct last.
	var transports []fetch.Transport
	if cfg.Source.RelayURL != "" {
		transports = append(transports, fetch.NewRelayTransport(cfg.Source.RelayURL, cfg.Source.Timeout))
	}
	for i, mirror := range cfg.Source.MirrorURLs {
		name := fmt.Sprintf("mirror-%d", i+1)
		transports = append(transports, fetch.NewMirrorTransport(name, mirror, cfg.Source.FileURL, cfg.Source.Timeout))
	}
	if cfg.Source.FileURL != "" {
		transports = append(transports, fetch.NewDirectTransport(cfg.Source.FileURL, cfg.Source.Timeout))
	}
	pipeline := fetch.NewPipeline(cfg.Source.Timeout, transports...)
	log.Printf("[INFO] %d transports configured", len(transports))

	// Services
	service := ingest.NewService(db, pipeline, producer, indicatorCache)
	engine := indicators.NewEngine(db, nil)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Scheduler
	if cfg.Schedule.DailyCron != "" {
		sched := scheduler.NewScheduler(ctx, service)
		if err := sched.Register(cfg.Schedule.DailyCron); err != nil {
			log.Fatalf("[FATAL] register cron tasks: %v", err)
		}
		sched.Start()
		defer sched.Stop()

		if os.Getenv("RUN_ON_START") == "true" {
			log.Println("[INFO] RUN_ON_START enabled, executing daily sync now")
			go sched.RunNow()
		}
	}

	// HTTP server
	handler := api.NewHandler(db, service, engine, indicatorCache, cfg.Source.PageURL)
	router := api.SetupRoutes(handler)

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		log.Printf("[INFO] listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[FATAL] http server: %v", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[ERROR] http shutdown: %v", err)
	}

	log.Println("[INFO] b3-market-data stopped")
}
