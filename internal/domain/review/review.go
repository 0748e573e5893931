package review

import (
	"time"

	"github.com/servicelink/service-booking/pkg/domain"
)

// Rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// Review is a customer's rating of one completed booking.
type Review struct {
	id        int64
	bookingID int64
	authorID  int64
	rating    int
	content   string
	createdAt time.Time
}

// NewReview creates a review. Eligibility of the booking is checked by the caller.
func NewReview(id, bookingID, authorID int64, rating int, content string) (*Review, error) {
	if id <= 0 {
		return nil, domain.NewValidationError("review ID must be positive")
	}
	if bookingID <= 0 {
		return nil, domain.NewValidationError("booking ID is required")
	}
	if rating < MinRating || rating > MaxRating {
		return nil, domain.NewValidationError("rating must be between 1 and 5")
	}

	return &Review{
		id:        id,
		bookingID: bookingID,
		authorID:  authorID,
		rating:    rating,
		content:   content,
		createdAt: time.Now().UTC(),
	}, nil
}

// Reconstruct rebuilds a Review from persistence.
func Reconstruct(id, bookingID, authorID int64, rating int, content string, createdAt time.Time) *Review {
	return &Review{
		id:        id,
		bookingID: bookingID,
		authorID:  authorID,
		rating:    rating,
		content:   content,
		createdAt: createdAt,
	}
}

// Getters.
func (r *Review) ID() int64            { return r.id }
func (r *Review) BookingID() int64     { return r.bookingID }
func (r *Review) AuthorID() int64      { return r.authorID }
func (r *Review) Rating() int          { return r.rating }
func (r *Review) Content() string      { return r.content }
func (r *Review) CreatedAt() time.Time { return r.createdAt }
