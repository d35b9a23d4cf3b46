package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"

	"github.com/devmahmoudi/formgen/pkg/tracing"
)

// Producer handles Kafka event emission
type Producer struct {
	writer *kafka.Writer
	logger ectologger.Logger
	topic  string
}

// ProducerConfig holds Kafka producer configuration
type ProducerConfig struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	BatchTimeout time.Duration
	RequiredAcks int
	Compression  string
}

// NewProducer creates a new Kafka producer
func NewProducer(cfg ProducerConfig, logger ectologger.Logger) *Producer {
	compression := kafka.Snappy
	switch cfg.Compression {
	case "gzip":
		compression = kafka.Gzip
	case "lz4":
		compression = kafka.Lz4
	case "zstd":
		compression = kafka.Zstd
	case "none":
		compression = 0
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.LeastBytes{},
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           kafka.RequiredAcks(cfg.RequiredAcks),
		Compression:            compression,
		AllowAutoTopicCreation: true,
	}

	return &Producer{
		writer: writer,
		logger: logger,
		topic:  cfg.Topic,
	}
}

// Close closes the producer
func (p *Producer) Close() error {
	return p.writer.Close()
}

// FormEvent represents a lifecycle event about a form
type FormEvent struct {
	EventType string          `json:"event_type"` // form.created, form.updated, form.deleted
	FormID    string          `json:"form_id"`
	Title     string          `json:"title,omitempty"`
	Schema    json.RawMessage `json:"schema,omitempty"`
	Version   int             `json:"version"`
	Timestamp time.Time       `json:"timestamp"`
}

// ResponseEvent represents a lifecycle event about a form response
type ResponseEvent struct {
	EventType  string         `json:"event_type"` // response.submitted, response.updated, response.deleted
	ResponseID string         `json:"response_id"`
	FormID     string         `json:"form_id"`
	Data       map[string]any `json:"data,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// PublishFormEvent publishes a form lifecycle event to Kafka
func (p *Producer) PublishFormEvent(ctx context.Context, event *FormEvent) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishFormEvent")
	defer span.End()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Topic: p.topic,
		Key:   []byte(event.FormID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.WithContext(ctx).WithError(err).Error("Failed to publish form event")
		return err
	}

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"event_type": event.EventType,
		"form_id":    event.FormID,
	}).Debug("Published form event")

	return nil
}

// PublishResponseEvent publishes a response lifecycle event to Kafka.
// Messages are keyed by form id so one form's responses stay ordered.
func (p *Producer) PublishResponseEvent(ctx context.Context, event *ResponseEvent) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishResponseEvent")
	defer span.End()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Topic: p.topic,
		Key:   []byte(event.FormID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "form_id", Value: []byte(event.FormID)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.WithContext(ctx).WithError(err).Error("Failed to publish response event")
		return err
	}

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"event_type":  event.EventType,
		"response_id": event.ResponseID,
		"form_id":     event.FormID,
	}).Debug("Published response event")

	return nil
}
