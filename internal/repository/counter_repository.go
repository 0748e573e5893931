package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// CounterModel is the GORM model for the counters table.
type CounterModel struct {
	Name  string `gorm:"primaryKey;size:64"`
	Value int64  `gorm:"not null;default:0"`
}

// TableName sets the table name.
func (CounterModel) TableName() string { return "counters" }

// GormCounterRepository keeps named counters in PostgreSQL. Each operation is a
// single upsert statement, so the row lock taken by the conflict path
// serializes concurrent increments of the same counter.
type GormCounterRepository struct {
	db *gorm.DB
}

// NewGormCounterRepository creates a new GormCounterRepository.
func NewGormCounterRepository(db *gorm.DB) *GormCounterRepository {
	return &GormCounterRepository{db: db}
}

// Increment atomically adds one to name and returns the new value.
func (r *GormCounterRepository) Increment(ctx context.Context, name string) (int64, error) {
	var value int64
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO counters (name, value) VALUES (?, 1)
		ON CONFLICT (name) DO UPDATE SET value = counters.value + 1
		RETURNING value`, name).Scan(&value).Error
	if err != nil {
		return 0, fmt.Errorf("failed to increment counter %s: %w", name, err)
	}
	return value, nil
}

// SetFloor raises name to value; lower values leave the counter untouched.
func (r *GormCounterRepository) SetFloor(ctx context.Context, name string, value int64) error {
	err := r.db.WithContext(ctx).Exec(`
		INSERT INTO counters (name, value) VALUES (?, ?)
		ON CONFLICT (name) DO UPDATE SET value = GREATEST(counters.value, EXCLUDED.value)`,
		name, value).Error
	if err != nil {
		return fmt.Errorf("failed to set floor of counter %s: %w", name, err)
	}
	return nil
}

// Current returns the last value handed out for name, or 0. It is a
// read-only diagnostic and not part of sequence.CounterStore; allocation
// goes through Increment only.
func (r *GormCounterRepository) Current(ctx context.Context, name string) (int64, error) {
	var value int64
	err := r.db.WithContext(ctx).Model(&CounterModel{}).
		Select("COALESCE(MAX(value), 0)").
		Where("name = ?", name).
		Scan(&value).Error
	if err != nil {
		return 0, fmt.Errorf("failed to read counter %s: %w", name, err)
	}
	return value, nil
}
