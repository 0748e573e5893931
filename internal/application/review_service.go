package application

import (
	"context"
	"fmt"
	"strconv"
	"time"

	bookingDomain "github.com/servicelink/service-booking/internal/domain/booking"
	reviewDomain "github.com/servicelink/service-booking/internal/domain/review"
	"github.com/servicelink/service-booking/internal/domain/sequence"
	"github.com/servicelink/service-booking/pkg/domain"
)

// CreateReviewRequest holds the data needed to review a completed booking.
type CreateReviewRequest struct {
	BookingID int64  `json:"booking_id" binding:"required"`
	Rating    int    `json:"rating" binding:"required"`
	Content   string `json:"content"`
}

// ReviewDTO is the response representation of a review.
type ReviewDTO struct {
	ID        int64     `json:"id"`
	BookingID int64     `json:"booking_id"`
	AuthorID  int64     `json:"author_id"`
	Rating    int       `json:"rating"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// EligibilityDTO tells a customer whether they can review a listing and which
// booking the review would attach to.
type EligibilityDTO struct {
	Eligible  bool   `json:"eligible"`
	BookingID *int64 `json:"booking_id,omitempty"`
}

// ReviewService handles review eligibility and creation.
type ReviewService struct {
	bookings bookingDomain.BookingRepository
	reviews  reviewDomain.ReviewRepository
	ids      IDGenerator
	events   EventPublisher
}

// NewReviewService creates a new ReviewService.
func NewReviewService(
	bookings bookingDomain.BookingRepository,
	reviews reviewDomain.ReviewRepository,
	ids IDGenerator,
	events EventPublisher,
) *ReviewService {
	return &ReviewService{
		bookings: bookings,
		reviews:  reviews,
		ids:      ids,
		events:   events,
	}
}

// Eligibility finds the first completed, unreviewed booking the customer has
// for the listing.
func (s *ReviewService) Eligibility(ctx context.Context, listingID int64, customer bookingDomain.Actor) (*EligibilityDTO, error) {
	bookings, err := s.bookings.FindByCustomerAndListing(ctx, customer.ID, listingID)
	if err != nil {
		return nil, err
	}

	completed := make([]int64, 0, len(bookings))
	for _, bk := range bookings {
		if bk.Status() == bookingDomain.StatusCompleted {
			completed = append(completed, bk.ID())
		}
	}
	if len(completed) == 0 {
		return &EligibilityDTO{Eligible: false}, nil
	}

	reviewed, err := s.reviews.ReviewedBookingIDs(ctx, completed)
	if err != nil {
		return nil, err
	}

	// completed keeps the repository's ascending id order.
	for _, id := range completed {
		if !reviewed[id] {
			bookingID := id
			return &EligibilityDTO{Eligible: true, BookingID: &bookingID}, nil
		}
	}
	return &EligibilityDTO{Eligible: false}, nil
}

// CreateReview stores the customer's review of a completed booking. A booking
// holds at most one review.
func (s *ReviewService) CreateReview(ctx context.Context, customer bookingDomain.Actor, req CreateReviewRequest) (*ReviewDTO, error) {
	if req.Rating < reviewDomain.MinRating || req.Rating > reviewDomain.MaxRating {
		return nil, domain.NewValidationError(fmt.Sprintf("rating must be between %d and %d", reviewDomain.MinRating, reviewDomain.MaxRating))
	}

	bk, err := s.bookings.FindByID(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	if customer.ID <= 0 || bk.CustomerID() != customer.ID {
		return nil, domain.NewForbiddenError("only the booking customer can review it")
	}
	if bk.Status() != bookingDomain.StatusCompleted {
		return nil, domain.NewInvalidStateError("only completed bookings can be reviewed")
	}

	exists, err := s.reviews.ExistsByBookingID(ctx, bk.ID())
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.NewConflictError("booking already has a review")
	}

	id, err := s.ids.Next(ctx, sequence.Reviews)
	if err != nil {
		return nil, err
	}

	rv, err := reviewDomain.NewReview(id, bk.ID(), customer.ID, req.Rating, req.Content)
	if err != nil {
		return nil, err
	}

	// The unique index on booking_id settles races the existence check cannot.
	if err := s.reviews.Save(ctx, rv); err != nil {
		return nil, err
	}

	if s.events != nil {
		s.events.Publish(ctx, ReviewCreated, strconv.FormatInt(bk.ID(), 10), ReviewCreatedEvent{
			ReviewID:   rv.ID(),
			BookingID:  bk.ID(),
			ListingID:  bk.ListingID(),
			Rating:     rv.Rating(),
			OccurredAt: time.Now().UTC(),
		})
	}

	result := toReviewDTO(rv)
	return &result, nil
}

// ListForListing returns the reviews left on a listing, newest first.
func (s *ReviewService) ListForListing(ctx context.Context, listingID int64) ([]ReviewDTO, error) {
	reviews, err := s.reviews.FindByListingID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	dtos := make([]ReviewDTO, len(reviews))
	for i, rv := range reviews {
		dtos[i] = toReviewDTO(rv)
	}
	return dtos, nil
}

func toReviewDTO(rv *reviewDomain.Review) ReviewDTO {
	return ReviewDTO{
		ID:        rv.ID(),
		BookingID: rv.BookingID(),
		AuthorID:  rv.AuthorID(),
		Rating:    rv.Rating(),
		Content:   rv.Content(),
		CreatedAt: rv.CreatedAt(),
	}
}
