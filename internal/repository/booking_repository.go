package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	bookingDomain "github.com/servicelink/service-booking/internal/domain/booking"
	"github.com/servicelink/service-booking/pkg/domain"
	"gorm.io/gorm"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID            int64      `gorm:"primaryKey;autoIncrement:false"`
	ListingID     int64      `gorm:"not null;index;index:idx_bookings_customer_listing,priority:2"`
	CustomerID    int64      `gorm:"not null;index;index:idx_bookings_customer_listing,priority:1"`
	ProviderID    int64      `gorm:"not null;index"`
	ScheduledAt   time.Time  `gorm:"not null;index"`
	Status        string     `gorm:"not null;size:20;index"`
	PaymentStatus string     `gorm:"not null;size:20;default:'UNPAID'"`
	PaymentRef    string     `gorm:"size:64"`
	PaidAt        *time.Time `gorm:""`
	Address       string     `gorm:"size:500"`
	Notes         string     `gorm:"size:1000"`
	Version       int64      `gorm:"not null;default:1"`
	CreatedAt     time.Time  `gorm:"not null"`
	UpdatedAt     time.Time  `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id int64) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByCustomerID retrieves bookings for a specific customer with pagination.
func (r *GormBookingRepository) FindByCustomerID(ctx context.Context, customerID int64, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.findPage(ctx, r.db.WithContext(ctx).Where("customer_id = ?", customerID), page, limit)
}

// FindByProviderID retrieves bookings for a specific provider with pagination.
func (r *GormBookingRepository) FindByProviderID(ctx context.Context, providerID int64, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.findPage(ctx, r.db.WithContext(ctx).Where("provider_id = ?", providerID), page, limit)
}

// ListAll retrieves all bookings with pagination (admin).
func (r *GormBookingRepository) ListAll(ctx context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.findPage(ctx, r.db.WithContext(ctx), page, limit)
}

// FindByCustomerAndListing retrieves a customer's bookings of a listing, oldest id first.
func (r *GormBookingRepository) FindByCustomerAndListing(ctx context.Context, customerID, listingID int64) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("customer_id = ? AND listing_id = ?", customerID, listingID).
		Order("id ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find customer bookings for listing: %w", err)
	}
	return toDomainBookings(models)
}

// FindPaidByProvider retrieves a provider's paid, non-cancelled bookings.
func (r *GormBookingRepository) FindPaidByProvider(ctx context.Context, providerID int64) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("provider_id = ? AND payment_status = ? AND status <> ?",
			providerID, string(bookingDomain.PaymentPaid), string(bookingDomain.StatusCancelled)).
		Order("id ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find paid provider bookings: %w", err)
	}
	return toDomainBookings(models)
}

// FindLatestScheduled returns up to limit bookings by scheduled time, latest first.
func (r *GormBookingRepository) FindLatestScheduled(ctx context.Context, participantID *int64, limit int) ([]*bookingDomain.Booking, error) {
	q := r.db.WithContext(ctx)
	if participantID != nil {
		q = q.Where("customer_id = ? OR provider_id = ?", *participantID, *participantID)
	}

	var models []BookingModel
	if err := q.Order("scheduled_at DESC").Order("id DESC").Limit(limit).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find latest bookings: %w", err)
	}
	return toDomainBookings(models)
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return r.countBy(ctx, "status")
}

// CountByPaymentStatus returns booking counts grouped by payment status (admin).
func (r *GormBookingRepository) CountByPaymentStatus(ctx context.Context) (map[string]int64, error) {
	return r.countBy(ctx, "payment_status")
}

// MaxID returns the highest stored booking id, or 0 for an empty table.
func (r *GormBookingRepository) MaxID(ctx context.Context) (int64, error) {
	var maxID int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("COALESCE(MAX(id), 0)").
		Scan(&maxID).Error; err != nil {
		return 0, fmt.Errorf("failed to read max booking id: %w", err)
	}
	return maxID, nil
}

// Save persists a new booking.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.NewConflictError("booking id already in use")
		}
		return fmt.Errorf("failed to save booking: %w", err)
	}
	return nil
}

// Update persists changes to an existing booking with optimistic locking.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)

	// The caller bumped the version with IncrementVersion; match the previous one.
	expectedVersion := bk.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"scheduled_at":   model.ScheduledAt,
			"status":         model.Status,
			"payment_status": model.PaymentStatus,
			"payment_ref":    model.PaymentRef,
			"paid_at":        model.PaidAt,
			"version":        model.Version,
			"updated_at":     model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction")
	}

	return nil
}

func (r *GormBookingRepository) findPage(ctx context.Context, q *gorm.DB, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := q.Session(&gorm.Session{}).Model(&BookingModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	if err := q.Session(&gorm.Session{}).
		Order("created_at DESC").
		Order("id DESC").
		Offset(domain.Offset(page, limit)).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find bookings: %w", err)
	}

	bookings, err := toDomainBookings(models)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

func (r *GormBookingRepository) countBy(ctx context.Context, column string) (map[string]int64, error) {
	type groupCount struct {
		Name  string
		Count int64
	}
	var results []groupCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select(column + " AS name, count(*) AS count").
		Group(column).
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by %s: %w", column, err)
	}

	counts := make(map[string]int64, len(results))
	for _, gc := range results {
		counts[gc.Name] = gc.Count
	}
	return counts, nil
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	return &BookingModel{
		ID:            bk.ID(),
		ListingID:     bk.ListingID(),
		CustomerID:    bk.CustomerID(),
		ProviderID:    bk.ProviderID(),
		ScheduledAt:   bk.ScheduledAt(),
		Status:        string(bk.Status()),
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

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}
	paymentStatus, err := bookingDomain.ParsePaymentStatus(m.PaymentStatus)
	if err != nil {
		return nil, err
	}

	return bookingDomain.ReconstructBooking(
		m.ID,
		m.ListingID,
		m.CustomerID,
		m.ProviderID,
		m.ScheduledAt,
		status,
		paymentStatus,
		m.PaymentRef,
		m.PaidAt,
		m.Address,
		m.Notes,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}

func toDomainBookings(models []BookingModel) ([]*bookingDomain.Booking, error) {
	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bk, err := toDomainBooking(&models[i])
		if err != nil {
			return nil, err
		}
		bookings[i] = bk
	}
	return bookings, nil
}
