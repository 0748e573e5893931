package events

import (
	"context"
	"errors"

	"github.com/servicelink/service-booking/internal/application"
	bookingDomain "github.com/servicelink/service-booking/internal/domain/booking"
	"github.com/servicelink/service-booking/pkg/domain"
	"github.com/servicelink/service-booking/pkg/kafka"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// PaymentRecorder is the booking operation driven by payment events.
type PaymentRecorder interface {
	RecordPayment(ctx context.Context, bookingID int64, actor bookingDomain.Actor) (*application.BookingDTO, error)
}

// PaymentEventConsumer listens to payment events and records payment on bookings.
type PaymentEventConsumer struct {
	consumer *kafka.Consumer
	service  PaymentRecorder
	logger   *zap.Logger
}

// NewPaymentEventConsumer creates a new PaymentEventConsumer.
func NewPaymentEventConsumer(
	brokers []string,
	groupID string,
	service PaymentRecorder,
	logger *zap.Logger,
) *PaymentEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, application.TopicPaymentEvents, logger)
	return &PaymentEventConsumer{
		consumer: consumer,
		service:  service,
		logger:   logger,
	}
}

// Start begins consuming payment events. This blocks until the context is cancelled.
func (c *PaymentEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *PaymentEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *PaymentEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from payment topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case application.PaymentRecorded:
		return c.handlePaymentRecorded(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled payment event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *PaymentEventConsumer) handlePaymentRecorded(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt application.PaymentRecordedEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse PaymentRecordedEvent data",
			zap.Error(err),
		)
		return nil
	}

	c.logger.Info("processing payment recorded event",
		zap.Int64("booking_id", evt.BookingID),
		zap.Int64("payer_id", evt.PayerID),
	)

	_, err := c.service.RecordPayment(ctx, evt.BookingID, bookingDomain.Actor{ID: evt.PayerID})
	switch {
	case err == nil:
		c.logger.Info("payment recorded on booking",
			zap.Int64("booking_id", evt.BookingID),
		)
		return nil
	case errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, domain.ErrForbidden),
		errors.Is(err, domain.ErrNotFound):
		// Replaying these can never succeed.
		c.logger.Warn("dropping payment event",
			zap.Int64("booking_id", evt.BookingID),
			zap.Error(err),
		)
		return nil
	default:
		c.logger.Error("failed to record payment",
			zap.Int64("booking_id", evt.BookingID),
			zap.Error(err),
		)
		return err
	}
}
