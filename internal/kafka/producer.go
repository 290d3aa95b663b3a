// Package kafka publishes ingestion events so downstream consumers learn
// when a trading day's data changes.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/mercadobr/b3-market-data/internal/models"
)

// Producer handles publishing events to Kafka.
type Producer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer creates a new Kafka producer.
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}

	return &Producer{
		writer: writer,
		topic:  topic,
	}
}

// PublishSyncCompleted publishes the outcome of an ingestion run.
func (p *Producer) PublishSyncCompleted(ctx context.Context, result *models.SyncResult) error {
	event := models.SyncEvent{
		EventType: models.EventMarketDataSynced,
		Date:      result.Date.Format("2006-01-02"),
		Source:    result.Source,
		Records:   result.Parsed - result.DuplicatesRemoved,
		Affected:  result.Affected,
		Timestamp: time.Now(),
	}
	return p.publish(ctx, event.Date, event)
}

// PublishDayDeleted publishes a full-day correction.
func (p *Producer) PublishDayDeleted(ctx context.Context, date time.Time, affected int64) error {
	event := models.SyncEvent{
		EventType: models.EventDayDeleted,
		Date:      date.Format("2006-01-02"),
		Affected:  affected,
		Timestamp: time.Now(),
	}
	return p.publish(ctx, event.Date, event)
}

func (p *Producer) publish(ctx context.Context, key string, event models.SyncEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	return nil
}

// Close closes the Kafka producer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
