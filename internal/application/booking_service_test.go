package application

import (
	"context"
	"errors"
	"testing"
	"time"

	bookingDomain "github.com/servicelink/service-booking/internal/domain/booking"
	listingDomain "github.com/servicelink/service-booking/internal/domain/listing"
	"github.com/servicelink/service-booking/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	customerID int64 = 10
	providerID int64 = 20
	strangerID int64 = 30
	listingID  int64 = 100
)

type bookingFixture struct {
	svc      *BookingService
	repo     *memBookingRepo
	listings memListings
	events   *recordingPublisher
	counters *memCounters
}

func newBookingFixture() *bookingFixture {
	repo := newMemBookingRepo()
	listings := memListings{
		listingID: {ID: listingID, OwnerID: ownerPtr(providerID), Title: "Deep clean", PriceCents: 120},
		101:       {ID: 101, Title: "Orphan listing", PriceCents: 50},
		102:       {ID: 102, OwnerID: ownerPtr(providerID), Title: "Window wash", PriceCents: 80},
	}
	counters := newMemCounters()
	events := &recordingPublisher{}
	return &bookingFixture{
		svc:      NewBookingService(repo, listings, NewIDAllocator(counters), events),
		repo:     repo,
		listings: listings,
		events:   events,
		counters: counters,
	}
}

func (f *bookingFixture) create(t *testing.T, listing int64, at time.Time) *BookingDTO {
	t.Helper()
	dto, err := f.svc.CreateBooking(context.Background(), bookingDomain.Actor{ID: customerID}, CreateBookingRequest{
		ListingID:   listing,
		ScheduledAt: at,
		Address:     "1 Main St",
	})
	require.NoError(t, err)
	return dto
}

var (
	customer = bookingDomain.Actor{ID: customerID}
	provider = bookingDomain.Actor{ID: providerID}
	stranger = bookingDomain.Actor{ID: strangerID}
	admin    = bookingDomain.Actor{ID: 99, Admin: true}
)

func TestCreateBooking_DerivesProviderFromListingOwner(t *testing.T) {
	f := newBookingFixture()
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	dto := f.create(t, listingID, at)

	assert.Equal(t, int64(1), dto.ID)
	assert.Equal(t, "PENDING", dto.Status)
	assert.Equal(t, "UNPAID", dto.PaymentStatus)
	assert.Equal(t, providerID, dto.ProviderID)
	assert.Equal(t, customerID, dto.CustomerID)
	assert.True(t, dto.ScheduledAt.Equal(at))
	assert.Equal(t, []string{BookingCreated}, f.events.types())

	// A later change of owner does not move the booking.
	f.listings[listingID] = &listingDomain.Listing{ID: listingID, OwnerID: ownerPtr(77), PriceCents: 120}
	got, err := f.svc.GetForParticipant(context.Background(), dto.ID, provider)
	require.NoError(t, err)
	assert.Equal(t, providerID, got.ProviderID)
}

func TestCreateBooking_Errors(t *testing.T) {
	f := newBookingFixture()
	ctx := context.Background()
	at := time.Now().Add(24 * time.Hour)

	_, err := f.svc.CreateBooking(ctx, customer, CreateBookingRequest{ListingID: 999, ScheduledAt: at})
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = f.svc.CreateBooking(ctx, customer, CreateBookingRequest{ListingID: 101, ScheduledAt: at})
	assert.True(t, errors.Is(err, domain.ErrInvalidState))

	_, err = f.svc.CreateBooking(ctx, customer, CreateBookingRequest{ListingID: listingID})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	assert.Empty(t, f.repo.rows)
}

func TestCreateBooking_AllowsSameSlotTwice(t *testing.T) {
	f := newBookingFixture()
	at := time.Now().Add(time.Hour)

	a := f.create(t, listingID, at)
	b := f.create(t, listingID, at)

	assert.NotEqual(t, a.ID, b.ID)
}

func TestChangeStatus_ConfirmThenCompleteThenReject(t *testing.T) {
	f := newBookingFixture()
	ctx := context.Background()
	bk := f.create(t, listingID, time.Now().Add(time.Hour))

	got, err := f.svc.ChangeStatus(ctx, bk.ID, "CONFIRMED", customer)
	require.NoError(t, err)
	assert.Equal(t, "CONFIRMED", got.Status)

	got, err = f.svc.ChangeStatus(ctx, bk.ID, "COMPLETED", provider)
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", got.Status)

	_, err = f.svc.ChangeStatus(ctx, bk.ID, "PENDING", provider)
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))

	stored, err := f.repo.FindByID(ctx, bk.ID)
	require.NoError(t, err)
	assert.Equal(t, bookingDomain.StatusCompleted, stored.Status())
	assert.Equal(t, []string{BookingCreated, BookingStatusChanged, BookingStatusChanged}, f.events.types())
}

func TestChangeStatus_Authorization(t *testing.T) {
	f := newBookingFixture()
	ctx := context.Background()
	bk := f.create(t, listingID, time.Now().Add(time.Hour))

	_, err := f.svc.ChangeStatus(ctx, bk.ID, "CONFIRMED", stranger)
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	// Admins are not participants.
	_, err = f.svc.ChangeStatus(ctx, bk.ID, "CONFIRMED", admin)
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	_, err = f.svc.ChangeStatus(ctx, 404, "CONFIRMED", customer)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = f.svc.ChangeStatus(ctx, bk.ID, "ARCHIVED", customer)
	assert.True(t, errors.Is(err, domain.ErrValidation))

	got, err := f.svc.ChangeStatus(ctx, bk.ID, "cancelled", customer)
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", got.Status)
}

func TestChangeStatus_StaleWriteConflicts(t *testing.T) {
	f := newBookingFixture()
	ctx := context.Background()
	bk := f.create(t, listingID, time.Now().Add(time.Hour))

	// Two writers load the same version; the second to write loses.
	first, err := f.repo.FindByID(ctx, bk.ID)
	require.NoError(t, err)
	second, err := f.repo.FindByID(ctx, bk.ID)
	require.NoError(t, err)

	require.NoError(t, first.ChangeStatus(bookingDomain.StatusConfirmed))
	first.IncrementVersion()
	require.NoError(t, f.repo.Update(ctx, first))

	require.NoError(t, second.ChangeStatus(bookingDomain.StatusCancelled))
	second.IncrementVersion()
	assert.True(t, errors.Is(f.repo.Update(ctx, second), domain.ErrConflict))
}

func TestReschedule(t *testing.T) {
	f := newBookingFixture()
	ctx := context.Background()
	at := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	bk := f.create(t, listingID, at)

	_, err := f.svc.Reschedule(ctx, bk.ID, at.Add(48*time.Hour), stranger)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
	stored, _ := f.repo.FindByID(ctx, bk.ID)
	assert.True(t, stored.ScheduledAt().Equal(at))

	moved, err := f.svc.Reschedule(ctx, bk.ID, at.Add(48*time.Hour), provider)
	require.NoError(t, err)
	assert.True(t, moved.ScheduledAt.Equal(at.Add(48*time.Hour)))
	assert.Equal(t, "PENDING", moved.Status)

	_, err = f.svc.ChangeStatus(ctx, bk.ID, "CANCELLED", customer)
	require.NoError(t, err)
	_, err = f.svc.Reschedule(ctx, bk.ID, at, customer)
	assert.True(t, errors.Is(err, domain.ErrInvalidState))
}

func TestRecordPayment_OnlyOnce(t *testing.T) {
	f := newBookingFixture()
	ctx := context.Background()
	bk := f.create(t, listingID, time.Now().Add(time.Hour))

	_, err := f.svc.RecordPayment(ctx, bk.ID, stranger)
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	paid, err := f.svc.RecordPayment(ctx, bk.ID, customer)
	require.NoError(t, err)
	assert.Equal(t, "PAID", paid.PaymentStatus)
	assert.Equal(t, "PENDING", paid.Status)
	require.NotNil(t, paid.PaidAt)
	assert.NotEmpty(t, paid.PaymentRef)

	_, err = f.svc.RecordPayment(ctx, bk.ID, customer)
	assert.True(t, errors.Is(err, domain.ErrInvalidState))

	again, err := f.svc.GetForParticipant(ctx, bk.ID, customer)
	require.NoError(t, err)
	assert.True(t, again.PaidAt.Equal(*paid.PaidAt))
	assert.Equal(t, paid.PaymentRef, again.PaymentRef)
}

func TestListForCustomerAndProvider(t *testing.T) {
	f := newBookingFixture()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		f.create(t, listingID, time.Now().Add(time.Duration(i)*time.Hour))
	}

	res, err := f.svc.ListForCustomer(ctx, customerID, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Total)
	assert.Equal(t, 2, res.TotalPages)
	require.Len(t, res.Items, 2)
	assert.Greater(t, res.Items[0].ID, res.Items[1].ID)

	res, err = f.svc.ListForProvider(ctx, providerID, 2, 2)
	require.NoError(t, err)
	assert.Len(t, res.Items, 1)

	res, err = f.svc.ListForProvider(ctx, customerID, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, res.Items)
}

func TestProviderEarnings(t *testing.T) {
	f := newBookingFixture()
	ctx := context.Background()

	a := f.create(t, listingID, time.Now())
	b := f.create(t, 102, time.Now())
	c := f.create(t, listingID, time.Now())
	f.create(t, listingID, time.Now()) // unpaid

	for _, id := range []int64{a.ID, b.ID, c.ID} {
		_, err := f.svc.RecordPayment(ctx, id, customer)
		require.NoError(t, err)
	}
	_, err := f.svc.ChangeStatus(ctx, c.ID, "CANCELLED", provider)
	require.NoError(t, err)

	earnings, err := f.svc.ProviderEarnings(ctx, providerID)
	require.NoError(t, err)
	assert.Equal(t, int64(120+80), earnings.TotalCents)
	assert.Equal(t, 2, earnings.PaidBookings)

	// Deleted listings contribute nothing but still count.
	delete(f.listings, 102)
	earnings, err = f.svc.ProviderEarnings(ctx, providerID)
	require.NoError(t, err)
	assert.Equal(t, int64(120), earnings.TotalCents)
	assert.Equal(t, 2, earnings.PaidBookings)
}

func TestSummaries(t *testing.T) {
	f := newBookingFixture()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		f.create(t, listingID, base.Add(time.Duration(i)*time.Hour))
	}
	other := bookingDomain.ReconstructBooking(50, 102, 55, 56, base.Add(100*time.Hour),
		bookingDomain.StatusPending, bookingDomain.PaymentUnpaid, "", nil, "", "", 1, base, base)
	f.repo.put(other)

	anon, err := f.svc.Summaries(ctx, 5, nil)
	require.NoError(t, err)
	assert.Empty(t, anon)

	mine, err := f.svc.Summaries(ctx, 0, &customer)
	require.NoError(t, err)
	require.Len(t, mine, defaultSummaryLimit)
	assert.Equal(t, "Deep clean", mine[0].ListingTitle)
	assert.True(t, mine[0].ScheduledAt.After(mine[1].ScheduledAt))
	for _, s := range mine {
		assert.Equal(t, customerID, s.CustomerID)
	}

	all, err := f.svc.Summaries(ctx, 3, &admin)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, int64(50), all[0].ID)
}

func TestAdminStats(t *testing.T) {
	f := newBookingFixture()
	ctx := context.Background()
	a := f.create(t, listingID, time.Now())
	f.create(t, listingID, time.Now())
	_, err := f.svc.RecordPayment(ctx, a.ID, customer)
	require.NoError(t, err)
	_, err = f.svc.ChangeStatus(ctx, a.ID, "CONFIRMED", provider)
	require.NoError(t, err)

	stats, err := f.svc.GetBookingStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalBookings)
	assert.Equal(t, int64(1), stats.ByStatus["CONFIRMED"])
	assert.Equal(t, int64(1), stats.ByStatus["PENDING"])
	assert.Equal(t, int64(1), stats.ByPaymentStatus["PAID"])

	items, total, err := f.svc.ListAllBookings(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, items, 2)
}
