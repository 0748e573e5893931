package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	reviewDomain "github.com/servicelink/service-booking/internal/domain/review"
	"github.com/servicelink/service-booking/pkg/domain"
	"gorm.io/gorm"
)

// ReviewModel is the GORM model for the reviews table.
type ReviewModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement:false"`
	BookingID int64     `gorm:"not null;uniqueIndex"`
	AuthorID  int64     `gorm:"not null;index"`
	Rating    int       `gorm:"not null"`
	Content   string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName sets the table name.
func (ReviewModel) TableName() string { return "reviews" }

// GormReviewRepository implements ReviewRepository using GORM.
type GormReviewRepository struct {
	db *gorm.DB
}

// NewGormReviewRepository creates a new GormReviewRepository.
func NewGormReviewRepository(db *gorm.DB) *GormReviewRepository {
	return &GormReviewRepository{db: db}
}

// Save persists a new review. The unique index on booking_id turns a second
// review for the same booking into a conflict.
func (r *GormReviewRepository) Save(ctx context.Context, review *reviewDomain.Review) error {
	model := toReviewModel(review)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.NewConflictError("booking already has a review")
		}
		return fmt.Errorf("failed to save review: %w", err)
	}
	return nil
}

// FindByListingID returns the reviews of every booking of a listing, newest first.
func (r *GormReviewRepository) FindByListingID(ctx context.Context, listingID int64) ([]*reviewDomain.Review, error) {
	var models []ReviewModel
	if err := r.db.WithContext(ctx).
		Joins("JOIN bookings ON bookings.id = reviews.booking_id").
		Where("bookings.listing_id = ?", listingID).
		Order("reviews.created_at DESC").
		Order("reviews.id DESC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find listing reviews: %w", err)
	}

	reviews := make([]*reviewDomain.Review, len(models))
	for i := range models {
		reviews[i] = toReviewDomain(&models[i])
	}
	return reviews, nil
}

// ExistsByBookingID reports whether the booking already has a review.
func (r *GormReviewRepository) ExistsByBookingID(ctx context.Context, bookingID int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&ReviewModel{}).
		Where("booking_id = ?", bookingID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check review existence: %w", err)
	}
	return count > 0, nil
}

// ReviewedBookingIDs returns which of bookingIDs already have a review.
func (r *GormReviewRepository) ReviewedBookingIDs(ctx context.Context, bookingIDs []int64) (map[int64]bool, error) {
	reviewed := make(map[int64]bool)
	if len(bookingIDs) == 0 {
		return reviewed, nil
	}

	var ids []int64
	if err := r.db.WithContext(ctx).Model(&ReviewModel{}).
		Where("booking_id IN ?", bookingIDs).
		Pluck("booking_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to find reviewed bookings: %w", err)
	}
	for _, id := range ids {
		reviewed[id] = true
	}
	return reviewed, nil
}

// MaxID returns the highest stored review id, or 0.
func (r *GormReviewRepository) MaxID(ctx context.Context) (int64, error) {
	var maxID int64
	if err := r.db.WithContext(ctx).Model(&ReviewModel{}).
		Select("COALESCE(MAX(id), 0)").
		Scan(&maxID).Error; err != nil {
		return 0, fmt.Errorf("failed to read max review id: %w", err)
	}
	return maxID, nil
}

func toReviewModel(r *reviewDomain.Review) ReviewModel {
	return ReviewModel{
		ID:        r.ID(),
		BookingID: r.BookingID(),
		AuthorID:  r.AuthorID(),
		Rating:    r.Rating(),
		Content:   r.Content(),
		CreatedAt: r.CreatedAt(),
	}
}

func toReviewDomain(m *ReviewModel) *reviewDomain.Review {
	return reviewDomain.Reconstruct(m.ID, m.BookingID, m.AuthorID, m.Rating, m.Content, m.CreatedAt)
}
