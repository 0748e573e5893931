package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	listingDomain "github.com/servicelink/service-booking/internal/domain/listing"
	"github.com/servicelink/service-booking/pkg/domain"
	"gorm.io/gorm"
)

// ListingModel maps the listings table maintained by the catalogue service.
type ListingModel struct {
	ID         int64  `gorm:"primaryKey;autoIncrement:false"`
	OwnerID    *int64 `gorm:"index"`
	Title      string `gorm:"size:200;not null"`
	PriceCents int64  `gorm:"not null"`
}

// TableName sets the table name.
func (ListingModel) TableName() string { return "listings" }

// GormListingRepository looks listings up in PostgreSQL.
type GormListingRepository struct {
	db *gorm.DB
}

// NewGormListingRepository creates a new GormListingRepository.
func NewGormListingRepository(db *gorm.DB) *GormListingRepository {
	return &GormListingRepository{db: db}
}

// FindByID returns a listing or a not-found error.
func (r *GormListingRepository) FindByID(ctx context.Context, id int64) (*listingDomain.Listing, error) {
	var model ListingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Listing", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("failed to find listing: %w", err)
	}
	return &listingDomain.Listing{
		ID:         model.ID,
		OwnerID:    model.OwnerID,
		Title:      model.Title,
		PriceCents: model.PriceCents,
	}, nil
}
