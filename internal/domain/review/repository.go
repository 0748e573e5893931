package review

import "context"

// ReviewRepository defines persistence operations for reviews.
type ReviewRepository interface {
	// Save persists a review; a second review for the same booking fails with a conflict.
	Save(ctx context.Context, review *Review) error
	FindByListingID(ctx context.Context, listingID int64) ([]*Review, error)
	ExistsByBookingID(ctx context.Context, bookingID int64) (bool, error)
	// ReviewedBookingIDs returns the subset of bookingIDs that already have a review.
	ReviewedBookingIDs(ctx context.Context, bookingIDs []int64) (map[int64]bool, error)
	MaxID(ctx context.Context) (int64, error)
}
