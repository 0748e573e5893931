package application

import (
	"context"
	"time"
)

// Topics.
const (
	TopicBookingEvents = "booking.events"
	TopicPaymentEvents = "payment.events"
)

// Event types.
const (
	BookingCreated       = "booking.created"
	BookingStatusChanged = "booking.status_changed"
	BookingRescheduled   = "booking.rescheduled"
	BookingPaid          = "booking.paid"
	ReviewCreated        = "review.created"
	PaymentRecorded      = "payment.recorded"
)

// EventPublisher delivers domain events. Delivery is best effort: failures are
// handled by the implementation and never fail the originating request.
type EventPublisher interface {
	Publish(ctx context.Context, eventType, key string, data interface{})
}

// BookingCreatedEvent is published after a booking is stored.
type BookingCreatedEvent struct {
	BookingID   int64     `json:"booking_id"`
	ListingID   int64     `json:"listing_id"`
	CustomerID  int64     `json:"customer_id"`
	ProviderID  int64     `json:"provider_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// BookingStatusChangedEvent is published after a status transition.
type BookingStatusChangedEvent struct {
	BookingID  int64     `json:"booking_id"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	ChangedBy  int64     `json:"changed_by"`
	OccurredAt time.Time `json:"occurred_at"`
}

// BookingRescheduledEvent is published after the appointment moves.
type BookingRescheduledEvent struct {
	BookingID     int64     `json:"booking_id"`
	ScheduledAt   time.Time `json:"scheduled_at"`
	RescheduledBy int64     `json:"rescheduled_by"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// BookingPaidEvent is published after payment is recorded.
type BookingPaidEvent struct {
	BookingID  int64     `json:"booking_id"`
	PaymentRef string    `json:"payment_ref"`
	PaidAt     time.Time `json:"paid_at"`
	PaidBy     int64     `json:"paid_by"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ReviewCreatedEvent is published after a review is stored.
type ReviewCreatedEvent struct {
	ReviewID   int64     `json:"review_id"`
	BookingID  int64     `json:"booking_id"`
	ListingID  int64     `json:"listing_id"`
	Rating     int       `json:"rating"`
	OccurredAt time.Time `json:"occurred_at"`
}

// PaymentRecordedEvent is consumed from the payment topic. It is emitted by a
// trusted payment caller on behalf of PayerID.
type PaymentRecordedEvent struct {
	BookingID  int64     `json:"booking_id"`
	PayerID    int64     `json:"payer_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
