package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"

	"github.com/turnoutcrew/canvass/internal/tracing"
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

	requiredAcks := kafka.RequiredAcks(cfg.RequiredAcks)

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.LeastBytes{},
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           requiredAcks,
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

// VoterEvent represents an event about an imported voter
type VoterEvent struct {
	EventType   string          `json:"event_type"` // voter.imported
	CampaignID  string          `json:"campaign_id"`
	VoterListID string          `json:"voter_list_id"`
	VoterID     string          `json:"voter_id"`
	Data        json.RawMessage `json:"data,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
}

// ListEvent represents an event about a processed voter list
type ListEvent struct {
	EventType   string    `json:"event_type"` // voterlist.processed
	CampaignID  string    `json:"campaign_id"`
	VoterListID string    `json:"voter_list_id"`
	Total       int       `json:"total"`
	Success     int       `json:"success"`
	Duplicates  int       `json:"duplicates"`
	BadFormat   int       `json:"bad_format"`
	IsActive    bool      `json:"is_active"`
	Timestamp   time.Time `json:"timestamp"`
}

// PublishVoterEvents publishes a batch of voter events to Kafka
func (p *Producer) PublishVoterEvents(ctx context.Context, events []*VoterEvent) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishVoterEvents")
	defer span.End()

	if len(events) == 0 {
		return nil
	}

	messages := make([]kafka.Message, len(events))
	for i, event := range events {
		if event.Timestamp.IsZero() {
			event.Timestamp = time.Now().UTC()
		}

		data, err := json.Marshal(event)
		if err != nil {
			return err
		}

		messages[i] = kafka.Message{
			Topic: p.topic,
			Key:   []byte(event.VoterID),
			Value: data,
			Headers: []kafka.Header{
				{Key: "event_type", Value: []byte(event.EventType)},
				{Key: "campaign_id", Value: []byte(event.CampaignID)},
			},
		}
	}

	if err := p.writer.WriteMessages(ctx, messages...); err != nil {
		p.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"batch_size": len(events),
		}).Error("Failed to publish voter events batch")
		return err
	}

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"batch_size": len(events),
	}).Debug("Published voter events batch")

	return nil
}

// PublishListEvent publishes a list event to Kafka
func (p *Producer) PublishListEvent(ctx context.Context, event *ListEvent) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishListEvent")
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
		Key:   []byte(event.VoterListID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "campaign_id", Value: []byte(event.CampaignID)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.WithContext(ctx).WithError(err).Error("Failed to publish list event")
		return err
	}

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"event_type":    event.EventType,
		"voter_list_id": event.VoterListID,
	}).Debug("Published list event")

	return nil
}
