package booking

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/servicelink/service-booking/pkg/domain"
)

// Booking is the aggregate root for the booking domain.
type Booking struct {
	id          int64
	listingID   int64
	customerID  int64
	providerID  int64
	scheduledAt time.Time

	status        BookingStatus
	paymentStatus PaymentStatus
	paymentRef    string
	paidAt        *time.Time

	address string
	notes   string

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewBooking creates a new Booking aggregate with status PENDING and payment UNPAID.
// providerID must be the owner of listingID at the time of the call.
func NewBooking(
	id int64,
	listingID int64,
	customerID int64,
	providerID int64,
	scheduledAt time.Time,
	address string,
	notes string,
) (*Booking, error) {
	if id <= 0 {
		return nil, domain.NewValidationError("booking ID must be positive")
	}
	if listingID <= 0 {
		return nil, domain.NewValidationError("listing ID is required")
	}
	if customerID <= 0 {
		return nil, domain.NewValidationError("customer ID is required")
	}
	if providerID <= 0 {
		return nil, domain.NewInvalidStateError("listing has no owner")
	}
	if scheduledAt.IsZero() {
		return nil, domain.NewValidationError("scheduled time is required")
	}

	now := time.Now().UTC()
	return &Booking{
		id:            id,
		listingID:     listingID,
		customerID:    customerID,
		providerID:    providerID,
		scheduledAt:   scheduledAt.UTC(),
		status:        StatusPending,
		paymentStatus: PaymentUnpaid,
		address:       address,
		notes:         notes,
		version:       1,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id, listingID, customerID, providerID int64,
	scheduledAt time.Time,
	status BookingStatus,
	paymentStatus PaymentStatus,
	paymentRef string,
	paidAt *time.Time,
	address, notes string,
	version int64,
	createdAt, updatedAt time.Time,
) *Booking {
	return &Booking{
		id:            id,
		listingID:     listingID,
		customerID:    customerID,
		providerID:    providerID,
		scheduledAt:   scheduledAt,
		status:        status,
		paymentStatus: paymentStatus,
		paymentRef:    paymentRef,
		paidAt:        paidAt,
		address:       address,
		notes:         notes,
		version:       version,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's identifier.
func (b *Booking) ID() int64 { return b.id }

// ListingID returns the booked listing.
func (b *Booking) ListingID() int64 { return b.listingID }

// CustomerID returns the requesting user.
func (b *Booking) CustomerID() int64 { return b.customerID }

// ProviderID returns the listing owner captured at creation.
func (b *Booking) ProviderID() int64 { return b.providerID }

// ScheduledAt returns the appointment time.
func (b *Booking) ScheduledAt() time.Time { return b.scheduledAt }

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

// PaymentStatus returns the payment axis.
func (b *Booking) PaymentStatus() PaymentStatus { return b.paymentStatus }

// PaymentRef returns the payment reference, empty until paid.
func (b *Booking) PaymentRef() string { return b.paymentRef }

// PaidAt returns the payment time, or nil until paid.
func (b *Booking) PaidAt() *time.Time { return b.paidAt }

// Address returns the service address.
func (b *Booking) Address() string { return b.address }

// Notes returns the customer's notes.
func (b *Booking) Notes() string { return b.notes }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// --- Behavior ---

// IsParticipant reports whether userID is the booking's customer or provider.
func (b *Booking) IsParticipant(userID int64) bool {
	return userID == b.customerID || userID == b.providerID
}

// IsPaid reports whether payment has been recorded.
func (b *Booking) IsPaid() bool { return b.paymentStatus == PaymentPaid }

// ChangeStatus moves the booking along one edge of the state machine.
func (b *Booking) ChangeStatus(target BookingStatus) error {
	if !b.status.CanTransitionTo(target) {
		return domain.NewInvalidTransitionError(string(b.status), string(target))
	}
	b.status = target
	b.updatedAt = time.Now().UTC()
	return nil
}

// Reschedule moves the appointment. Terminal bookings cannot be rescheduled.
func (b *Booking) Reschedule(at time.Time) error {
	if b.status.IsTerminal() {
		return domain.NewInvalidStateError(fmt.Sprintf("cannot reschedule a %s booking", b.status))
	}
	if at.IsZero() {
		return domain.NewValidationError("scheduled time is required")
	}
	b.scheduledAt = at.UTC()
	b.updatedAt = time.Now().UTC()
	return nil
}

// MarkPaid records payment once. The booking status is left untouched.
func (b *Booking) MarkPaid() error {
	if b.IsPaid() {
		return domain.NewInvalidStateError("booking is already paid")
	}
	now := time.Now().UTC()
	b.paymentStatus = PaymentPaid
	b.paymentRef = generatePaymentRef()
	b.paidAt = &now
	b.updatedAt = now
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}

func generatePaymentRef() string {
	return "DUMMY-" + uuid.New().String()
}
