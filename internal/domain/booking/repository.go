package booking

import "context"

// BookingRepository defines the persistence contract for booking aggregates.
type BookingRepository interface {
	// FindByID retrieves a booking by its identifier.
	FindByID(ctx context.Context, id int64) (*Booking, error)

	// FindByCustomerID retrieves a customer's bookings, newest first, with pagination.
	FindByCustomerID(ctx context.Context, customerID int64, page, limit int) ([]*Booking, int64, error)

	// FindByProviderID retrieves a provider's bookings, newest first, with pagination.
	FindByProviderID(ctx context.Context, providerID int64, page, limit int) ([]*Booking, int64, error)

	// FindByCustomerAndListing retrieves a customer's bookings of one listing in ascending id order.
	FindByCustomerAndListing(ctx context.Context, customerID, listingID int64) ([]*Booking, error)

	// FindPaidByProvider retrieves a provider's paid bookings that are not cancelled.
	FindPaidByProvider(ctx context.Context, providerID int64) ([]*Booking, error)

	// FindLatestScheduled returns up to limit bookings by scheduled time, latest first.
	// A non-nil participantID restricts the result to that user's bookings.
	FindLatestScheduled(ctx context.Context, participantID *int64, limit int) ([]*Booking, error)

	// ListAll retrieves all bookings with pagination (admin).
	ListAll(ctx context.Context, page, limit int) ([]*Booking, int64, error)

	// CountByStatus returns booking counts grouped by status (admin).
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// CountByPaymentStatus returns booking counts grouped by payment status (admin).
	CountByPaymentStatus(ctx context.Context) (map[string]int64, error)

	// MaxID returns the highest stored booking id, or 0.
	MaxID(ctx context.Context) (int64, error)

	// Save persists a new booking.
	Save(ctx context.Context, booking *Booking) error

	// Update persists changes to an existing booking with optimistic locking.
	Update(ctx context.Context, booking *Booking) error
}

