package events

import (
	"context"

	"github.com/servicelink/service-booking/internal/application"
	"github.com/servicelink/service-booking/pkg/kafka"
	"go.uber.org/zap"
)

const eventSource = "service-booking"

// eventWriter is the part of kafka.Producer the publisher needs.
type eventWriter interface {
	PublishEventWithKey(ctx context.Context, topic, key string, event kafka.CloudEvent) error
}

// KafkaEventPublisher wraps domain events in CloudEvents and writes them to
// the booking topic. Failures are logged and swallowed.
type KafkaEventPublisher struct {
	writer eventWriter
	topic  string
	logger *zap.Logger
}

// NewKafkaEventPublisher creates a publisher writing to the booking events topic.
func NewKafkaEventPublisher(producer *kafka.Producer, logger *zap.Logger) *KafkaEventPublisher {
	return &KafkaEventPublisher{
		writer: producer,
		topic:  application.TopicBookingEvents,
		logger: logger,
	}
}

// Publish implements application.EventPublisher.
func (p *KafkaEventPublisher) Publish(ctx context.Context, eventType, key string, data interface{}) {
	cloudEvent, err := kafka.NewCloudEvent(eventSource, eventType, data)
	if err != nil {
		p.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := p.writer.PublishEventWithKey(ctx, p.topic, key, cloudEvent); err != nil {
		p.logger.Error("failed to publish event",
			zap.String("topic", p.topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}

// NopPublisher drops every event. It is used when no brokers are configured.
type NopPublisher struct{}

// Publish implements application.EventPublisher.
func (NopPublisher) Publish(context.Context, string, string, interface{}) {}
