package application

import (
	"context"
	"sort"
	"strconv"
	"sync"

	bookingDomain "github.com/servicelink/service-booking/internal/domain/booking"
	listingDomain "github.com/servicelink/service-booking/internal/domain/listing"
	reviewDomain "github.com/servicelink/service-booking/internal/domain/review"
	"github.com/servicelink/service-booking/pkg/domain"
)

type memBookingRepo struct {
	mu   sync.Mutex
	rows map[int64]*bookingDomain.Booking
}

func newMemBookingRepo() *memBookingRepo {
	return &memBookingRepo{rows: map[int64]*bookingDomain.Booking{}}
}

func clone(b *bookingDomain.Booking) *bookingDomain.Booking {
	return bookingDomain.ReconstructBooking(
		b.ID(), b.ListingID(), b.CustomerID(), b.ProviderID(), b.ScheduledAt(),
		b.Status(), b.PaymentStatus(), b.PaymentRef(), b.PaidAt(),
		b.Address(), b.Notes(), b.Version(), b.CreatedAt(), b.UpdatedAt(),
	)
}

func (r *memBookingRepo) FindByID(_ context.Context, id int64) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.rows[id]
	if !ok {
		return nil, domain.NewNotFoundError("Booking", strconv.FormatInt(id, 10))
	}
	return clone(b), nil
}

func (r *memBookingRepo) filter(keep func(*bookingDomain.Booking) bool) []*bookingDomain.Booking {
	var out []*bookingDomain.Booking
	for _, b := range r.rows {
		if keep(b) {
			out = append(out, clone(b))
		}
	}
	return out
}

func newestFirst(rows []*bookingDomain.Booking) {
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].CreatedAt().Equal(rows[j].CreatedAt()) {
			return rows[i].CreatedAt().After(rows[j].CreatedAt())
		}
		return rows[i].ID() > rows[j].ID()
	})
}

func page(rows []*bookingDomain.Booking, p, limit int) ([]*bookingDomain.Booking, int64) {
	total := int64(len(rows))
	start := domain.Offset(p, limit)
	if start >= len(rows) {
		return nil, total
	}
	end := start + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end], total
}

func (r *memBookingRepo) FindByCustomerID(_ context.Context, customerID int64, p, limit int) ([]*bookingDomain.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows := r.filter(func(b *bookingDomain.Booking) bool { return b.CustomerID() == customerID })
	newestFirst(rows)
	out, total := page(rows, p, limit)
	return out, total, nil
}

func (r *memBookingRepo) FindByProviderID(_ context.Context, providerID int64, p, limit int) ([]*bookingDomain.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows := r.filter(func(b *bookingDomain.Booking) bool { return b.ProviderID() == providerID })
	newestFirst(rows)
	out, total := page(rows, p, limit)
	return out, total, nil
}

func (r *memBookingRepo) FindByCustomerAndListing(_ context.Context, customerID, listingID int64) ([]*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows := r.filter(func(b *bookingDomain.Booking) bool {
		return b.CustomerID() == customerID && b.ListingID() == listingID
	})
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID() < rows[j].ID() })
	return rows, nil
}

func (r *memBookingRepo) FindPaidByProvider(_ context.Context, providerID int64) ([]*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filter(func(b *bookingDomain.Booking) bool {
		return b.ProviderID() == providerID && b.IsPaid() && b.Status() != bookingDomain.StatusCancelled
	}), nil
}

func (r *memBookingRepo) FindLatestScheduled(_ context.Context, participantID *int64, limit int) ([]*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows := r.filter(func(b *bookingDomain.Booking) bool {
		return participantID == nil || b.IsParticipant(*participantID)
	})
	sort.Slice(rows, func(i, j int) bool { return rows[i].ScheduledAt().After(rows[j].ScheduledAt()) })
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (r *memBookingRepo) ListAll(_ context.Context, p, limit int) ([]*bookingDomain.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows := r.filter(func(*bookingDomain.Booking) bool { return true })
	newestFirst(rows)
	out, total := page(rows, p, limit)
	return out, total, nil
}

func (r *memBookingRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]int64{}
	for _, b := range r.rows {
		out[b.Status().String()]++
	}
	return out, nil
}

func (r *memBookingRepo) CountByPaymentStatus(_ context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]int64{}
	for _, b := range r.rows {
		out[string(b.PaymentStatus())]++
	}
	return out, nil
}

func (r *memBookingRepo) MaxID(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var max int64
	for id := range r.rows {
		if id > max {
			max = id
		}
	}
	return max, nil
}

func (r *memBookingRepo) Save(_ context.Context, b *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[b.ID()]; ok {
		return domain.NewConflictError("booking already exists")
	}
	r.rows[b.ID()] = clone(b)
	return nil
}

func (r *memBookingRepo) Update(_ context.Context, b *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.rows[b.ID()]
	if !ok || cur.Version() != b.Version()-1 {
		return domain.NewConflictError("booking was modified concurrently")
	}
	r.rows[b.ID()] = clone(b)
	return nil
}

// put stores b directly, bypassing Save.
func (r *memBookingRepo) put(b *bookingDomain.Booking) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[b.ID()] = clone(b)
}

type memReviewRepo struct {
	mu       sync.Mutex
	rows     map[int64]*reviewDomain.Review
	bookings *memBookingRepo
}

func newMemReviewRepo(bookings *memBookingRepo) *memReviewRepo {
	return &memReviewRepo{rows: map[int64]*reviewDomain.Review{}, bookings: bookings}
}

func (r *memReviewRepo) Save(_ context.Context, rv *reviewDomain.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.rows {
		if existing.BookingID() == rv.BookingID() {
			return domain.NewConflictError("booking already has a review")
		}
	}
	r.rows[rv.ID()] = rv
	return nil
}

func (r *memReviewRepo) FindByListingID(ctx context.Context, listingID int64) ([]*reviewDomain.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*reviewDomain.Review
	for _, rv := range r.rows {
		bk, err := r.bookings.FindByID(ctx, rv.BookingID())
		if err == nil && bk.ListingID() == listingID {
			out = append(out, rv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() > out[j].ID() })
	return out, nil
}

func (r *memReviewRepo) ExistsByBookingID(_ context.Context, bookingID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rv := range r.rows {
		if rv.BookingID() == bookingID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memReviewRepo) ReviewedBookingIDs(_ context.Context, bookingIDs []int64) (map[int64]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[int64]bool{}
	for _, id := range bookingIDs {
		for _, rv := range r.rows {
			if rv.BookingID() == id {
				out[id] = true
			}
		}
	}
	return out, nil
}

func (r *memReviewRepo) MaxID(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var max int64
	for id := range r.rows {
		if id > max {
			max = id
		}
	}
	return max, nil
}

type memListings map[int64]*listingDomain.Listing

func (m memListings) FindByID(_ context.Context, id int64) (*listingDomain.Listing, error) {
	l, ok := m[id]
	if !ok {
		return nil, domain.NewNotFoundError("Listing", strconv.FormatInt(id, 10))
	}
	return l, nil
}

type memCounters struct {
	mu     sync.Mutex
	values map[string]int64
}

func newMemCounters() *memCounters {
	return &memCounters{values: map[string]int64{}}
}

func (c *memCounters) Increment(_ context.Context, name string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[name]++
	return c.values[name], nil
}

func (c *memCounters) SetFloor(_ context.Context, name string, value int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.values[name] < value {
		c.values[name] = value
	}
	return nil
}

type publishedEvent struct {
	Type string
	Key  string
	Data interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, eventType, key string, data interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Type: eventType, Key: key, Data: data})
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

func ownerPtr(id int64) *int64 { return &id }
