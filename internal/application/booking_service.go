package application

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	bookingDomain "github.com/servicelink/service-booking/internal/domain/booking"
	listingDomain "github.com/servicelink/service-booking/internal/domain/listing"
	"github.com/servicelink/service-booking/internal/domain/sequence"
	"github.com/servicelink/service-booking/pkg/domain"
)

const (
	defaultPageLimit    = 20
	maxPageLimit        = 100
	defaultSummaryLimit = 5
	maxSummaryLimit     = 50
)

// CreateBookingRequest holds the data needed to create a new booking.
type CreateBookingRequest struct {
	ListingID   int64     `json:"listing_id" binding:"required"`
	ScheduledAt time.Time `json:"scheduled_at" binding:"required"`
	Address     string    `json:"address"`
	Notes       string    `json:"notes"`
}

// ChangeStatusRequest is the body of a status transition.
type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// RescheduleRequest is the body of a reschedule.
type RescheduleRequest struct {
	ScheduledAt time.Time `json:"scheduled_at" binding:"required"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID            int64      `json:"id"`
	ListingID     int64      `json:"listing_id"`
	CustomerID    int64      `json:"customer_id"`
	ProviderID    int64      `json:"provider_id"`
	ScheduledAt   time.Time  `json:"scheduled_at"`
	Status        string     `json:"status"`
	PaymentStatus string     `json:"payment_status"`
	PaymentRef    string     `json:"payment_ref,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	Address       string     `json:"address,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	Version       int64      `json:"version"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// BookingSummaryDTO is the compact form used by the dashboard summary.
type BookingSummaryDTO struct {
	ID            int64     `json:"id"`
	ListingID     int64     `json:"listing_id"`
	ListingTitle  string    `json:"listing_title"`
	CustomerID    int64     `json:"customer_id"`
	ProviderID    int64     `json:"provider_id"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"payment_status"`
	ScheduledAt   time.Time `json:"scheduled_at"`
}

// EarningsDTO is a provider's revenue from paid bookings.
type EarningsDTO struct {
	ProviderID   int64 `json:"provider_id"`
	TotalCents   int64 `json:"total_cents"`
	PaidBookings int   `json:"paid_bookings"`
}

// BookingService is the application service orchestrating booking use cases.
type BookingService struct {
	repo     bookingDomain.BookingRepository
	listings listingDomain.Lookup
	ids      IDGenerator
	events   EventPublisher
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	repo bookingDomain.BookingRepository,
	listings listingDomain.Lookup,
	ids IDGenerator,
	events EventPublisher,
) *BookingService {
	return &BookingService{
		repo:     repo,
		listings: listings,
		ids:      ids,
		events:   events,
	}
}

// CreateBooking books a listing for the customer. The provider is the listing owner.
func (s *BookingService) CreateBooking(ctx context.Context, customer bookingDomain.Actor, req CreateBookingRequest) (*BookingDTO, error) {
	if req.ListingID <= 0 {
		return nil, domain.NewValidationError("listing_id is required")
	}
	if req.ScheduledAt.IsZero() {
		return nil, domain.NewValidationError("scheduled_at is required")
	}

	lst, err := s.listings.FindByID(ctx, req.ListingID)
	if err != nil {
		return nil, err
	}
	if !lst.HasOwner() {
		return nil, domain.NewInvalidStateError("listing has no owner")
	}

	id, err := s.ids.Next(ctx, sequence.Bookings)
	if err != nil {
		return nil, err
	}

	bk, err := bookingDomain.NewBooking(id, lst.ID, customer.ID, *lst.OwnerID, req.ScheduledAt, req.Address, req.Notes)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, bk); err != nil {
		return nil, fmt.Errorf("failed to save booking: %w", err)
	}

	s.publish(ctx, BookingCreated, bk, BookingCreatedEvent{
		BookingID:   bk.ID(),
		ListingID:   bk.ListingID(),
		CustomerID:  bk.CustomerID(),
		ProviderID:  bk.ProviderID(),
		ScheduledAt: bk.ScheduledAt(),
		OccurredAt:  time.Now().UTC(),
	})

	result := toBookingDTO(bk)
	return &result, nil
}

// ChangeStatus moves a booking along the status machine on behalf of a participant.
func (s *BookingService) ChangeStatus(ctx context.Context, bookingID int64, status string, actor bookingDomain.Actor) (*BookingDTO, error) {
	target, err := bookingDomain.ParseBookingStatus(strings.ToUpper(strings.TrimSpace(status)))
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}

	bk, err := s.loadForParticipant(ctx, bookingID, actor)
	if err != nil {
		return nil, err
	}

	from := bk.Status()
	if err := bk.ChangeStatus(target); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	s.publish(ctx, BookingStatusChanged, bk, BookingStatusChangedEvent{
		BookingID:  bk.ID(),
		From:       from.String(),
		To:         target.String(),
		ChangedBy:  actor.ID,
		OccurredAt: time.Now().UTC(),
	})

	result := toBookingDTO(bk)
	return &result, nil
}

// Reschedule moves a non-terminal booking to a new time.
func (s *BookingService) Reschedule(ctx context.Context, bookingID int64, scheduledAt time.Time, actor bookingDomain.Actor) (*BookingDTO, error) {
	bk, err := s.loadForParticipant(ctx, bookingID, actor)
	if err != nil {
		return nil, err
	}

	if err := bk.Reschedule(scheduledAt); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	s.publish(ctx, BookingRescheduled, bk, BookingRescheduledEvent{
		BookingID:     bk.ID(),
		ScheduledAt:   bk.ScheduledAt(),
		RescheduledBy: actor.ID,
		OccurredAt:    time.Now().UTC(),
	})

	result := toBookingDTO(bk)
	return &result, nil
}

// RecordPayment marks a booking as paid. The status axis is left untouched.
func (s *BookingService) RecordPayment(ctx context.Context, bookingID int64, actor bookingDomain.Actor) (*BookingDTO, error) {
	bk, err := s.loadForParticipant(ctx, bookingID, actor)
	if err != nil {
		return nil, err
	}

	if err := bk.MarkPaid(); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	s.publish(ctx, BookingPaid, bk, BookingPaidEvent{
		BookingID:  bk.ID(),
		PaymentRef: bk.PaymentRef(),
		PaidAt:     *bk.PaidAt(),
		PaidBy:     actor.ID,
		OccurredAt: time.Now().UTC(),
	})

	result := toBookingDTO(bk)
	return &result, nil
}

// GetForParticipant retrieves a booking visible to the actor.
func (s *BookingService) GetForParticipant(ctx context.Context, bookingID int64, actor bookingDomain.Actor) (*BookingDTO, error) {
	bk, err := s.loadForParticipant(ctx, bookingID, actor)
	if err != nil {
		return nil, err
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// ListForCustomer retrieves paginated bookings made by a customer.
func (s *BookingService) ListForCustomer(ctx context.Context, customerID int64, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	page, limit = normalizePage(page, limit)
	bookings, total, err := s.repo.FindByCustomerID(ctx, customerID, page, limit)
	if err != nil {
		return nil, err
	}
	result := domain.NewPaginatedResult(toBookingDTOs(bookings), total, page, limit)
	return &result, nil
}

// ListForProvider retrieves paginated bookings of a provider's listings.
func (s *BookingService) ListForProvider(ctx context.Context, providerID int64, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	page, limit = normalizePage(page, limit)
	bookings, total, err := s.repo.FindByProviderID(ctx, providerID, page, limit)
	if err != nil {
		return nil, err
	}
	result := domain.NewPaginatedResult(toBookingDTOs(bookings), total, page, limit)
	return &result, nil
}

// ProviderEarnings sums the current listing price of every paid, non-cancelled
// booking of the provider. Bookings whose listing no longer exists count at zero.
func (s *BookingService) ProviderEarnings(ctx context.Context, providerID int64) (*EarningsDTO, error) {
	bookings, err := s.repo.FindPaidByProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}

	prices := make(map[int64]int64)
	result := &EarningsDTO{ProviderID: providerID}
	for _, bk := range bookings {
		if !bk.IsPaid() || bk.Status() == bookingDomain.StatusCancelled {
			continue
		}
		price, ok := prices[bk.ListingID()]
		if !ok {
			lst, err := s.listings.FindByID(ctx, bk.ListingID())
			switch {
			case err == nil:
				price = lst.PriceCents
			case errors.Is(err, domain.ErrNotFound):
				price = 0
			default:
				return nil, err
			}
			prices[bk.ListingID()] = price
		}
		result.TotalCents += price
		result.PaidBookings++
	}
	return result, nil
}

// Summaries returns the most recently scheduled bookings. Admins see every
// booking, other callers only their own, and anonymous callers nothing.
func (s *BookingService) Summaries(ctx context.Context, limit int, actor *bookingDomain.Actor) ([]BookingSummaryDTO, error) {
	if actor == nil || (actor.ID <= 0 && !actor.Admin) {
		return []BookingSummaryDTO{}, nil
	}
	if limit <= 0 {
		limit = defaultSummaryLimit
	}
	if limit > maxSummaryLimit {
		limit = maxSummaryLimit
	}

	var participant *int64
	if !actor.Admin {
		id := actor.ID
		participant = &id
	}

	bookings, err := s.repo.FindLatestScheduled(ctx, participant, limit)
	if err != nil {
		return nil, err
	}

	titles := make(map[int64]string)
	out := make([]BookingSummaryDTO, 0, len(bookings))
	for _, bk := range bookings {
		title, ok := titles[bk.ListingID()]
		if !ok {
			lst, err := s.listings.FindByID(ctx, bk.ListingID())
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return nil, err
			}
			if lst != nil {
				title = lst.Title
			}
			titles[bk.ListingID()] = title
		}
		out = append(out, BookingSummaryDTO{
			ID:            bk.ID(),
			ListingID:     bk.ListingID(),
			ListingTitle:  title,
			CustomerID:    bk.CustomerID(),
			ProviderID:    bk.ProviderID(),
			Status:        bk.Status().String(),
			PaymentStatus: string(bk.PaymentStatus()),
			ScheduledAt:   bk.ScheduledAt(),
		})
	}
	return out, nil
}

// --- Admin methods ---

// BookingStatsDTO holds booking statistics for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings   int64            `json:"total_bookings"`
	ByStatus        map[string]int64 `json:"by_status"`
	ByPaymentStatus map[string]int64 `json:"by_payment_status"`
}

// ListAllBookings returns a paginated list of all bookings (admin).
func (s *BookingService) ListAllBookings(ctx context.Context, page, limit int) ([]BookingDTO, int64, error) {
	page, limit = normalizePage(page, limit)
	bookings, total, err := s.repo.ListAll(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	return toBookingDTOs(bookings), total, nil
}

// GetBookingStats returns aggregate booking statistics (admin).
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	byStatus, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}
	byPayment, err := s.repo.CountByPaymentStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment stats: %w", err)
	}

	var total int64
	for _, c := range byStatus {
		total += c
	}

	return &BookingStatsDTO{
		TotalBookings:   total,
		ByStatus:        byStatus,
		ByPaymentStatus: byPayment,
	}, nil
}

// --- Helpers ---

// isParticipant is the single authorization predicate for booking access.
func isParticipant(actor bookingDomain.Actor, bk *bookingDomain.Booking) bool {
	return actor.ID > 0 && bk.IsParticipant(actor.ID)
}

func (s *BookingService) loadForParticipant(ctx context.Context, bookingID int64, actor bookingDomain.Actor) (*bookingDomain.Booking, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !isParticipant(actor, bk) {
		return nil, domain.NewForbiddenError("not a participant of this booking")
	}
	return bk, nil
}

func (s *BookingService) publish(ctx context.Context, eventType string, bk *bookingDomain.Booking, data interface{}) {
	if s.events == nil {
		return
	}
	s.events.Publish(ctx, eventType, strconv.FormatInt(bk.ID(), 10), data)
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
		ID:            bk.ID(),
		ListingID:     bk.ListingID(),
		CustomerID:    bk.CustomerID(),
		ProviderID:    bk.ProviderID(),
		ScheduledAt:   bk.ScheduledAt(),
		Status:        bk.Status().String(),
		PaymentStatus: string(bk.PaymentStatus()),
		PaymentRef:    bk.PaymentRef(),
		PaidAt:        bk.PaidAt(),
		Address:       bk.Address(),
		Notes:         bk.Notes(),
		Version:       bk.Version(),
		CreatedAt:     bk.CreatedAt(),
		UpdatedAt:     bk.UpdatedAt(),
	}
}

func toBookingDTOs(bookings []*bookingDomain.Booking) []BookingDTO {
	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	return dtos
}
