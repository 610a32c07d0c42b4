package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"quizmaker-service/internal/domain"
)

// Publisher sends attempt events to a watermill topic.
type Publisher struct {
	publisher message.Publisher
	logger    *slog.Logger
	topic     string
}

// KafkaConfig holds the Kafka publisher settings.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	Logger  *slog.Logger
}

// NewKafkaPublisher creates a Kafka-backed publisher.
func NewKafkaPublisher(cfg KafkaConfig) (*Publisher, error) {
	logger := loggerOrDefault(cfg.Logger)
	publisher, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:   cfg.Brokers,
		Marshaler: kafka.DefaultMarshaler{},
	}, watermill.NewSlogLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka publisher: %w", err)
	}
	return NewPublisher(publisher, cfg.Topic, logger), nil
}

// NewGoChannel returns an in-process pub/sub. The same value can be passed to
// NewPublisher and used to subscribe.
func NewGoChannel(logger *slog.Logger) *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 64,
	}, watermill.NewSlogLogger(loggerOrDefault(logger)))
}

// NewPublisher wraps any watermill publisher.
func NewPublisher(publisher message.Publisher, topic string, logger *slog.Logger) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Publisher{publisher: publisher, topic: topic, logger: loggerOrDefault(logger)}
}

// PublishAttemptRecorded publishes an attempt.recorded event.
func (p *Publisher) PublishAttemptRecorded(ctx context.Context, attempt domain.Attempt) error {
	event := NewAttemptRecordedEvent(attempt)
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal attempt event: %w", err)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("event_type", event.Type)
	msg.Metadata.Set("source", event.Source)
	msg.Metadata.Set("version", event.Version)
	msg.Metadata.Set("timestamp", event.Timestamp.Format(time.RFC3339))

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		p.logger.Error("Failed to publish attempt event",
			"event_id", event.ID,
			"respondent", event.Respondent,
			"error", err)
		return fmt.Errorf("failed to publish attempt event: %w", err)
	}

	p.logger.Debug("Published attempt event",
		"event_id", event.ID,
		"topic", p.topic)
	return nil
}

func (p *Publisher) Close() error {
	return p.publisher.Close()
}

// NopPublisher discards events. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishAttemptRecorded(context.Context, domain.Attempt) error { return nil }

func (NopPublisher) Close() error { return nil }

func loggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
