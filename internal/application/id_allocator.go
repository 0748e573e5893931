package application

import (
	"context"
	"fmt"

	"github.com/servicelink/service-booking/internal/domain/sequence"
	"github.com/servicelink/service-booking/pkg/domain"
)

// IDGenerator hands out identifiers for a named counter.
type IDGenerator interface {
	Next(ctx context.Context, counter string) (int64, error)
}

// MaxIDSource reports the highest id already stored for an entity.
type MaxIDSource interface {
	MaxID(ctx context.Context) (int64, error)
}

// IDAllocator issues strictly increasing ids per counter from a durable store.
type IDAllocator struct {
	store sequence.CounterStore
}

// NewIDAllocator creates an IDAllocator backed by store.
func NewIDAllocator(store sequence.CounterStore) *IDAllocator {
	return &IDAllocator{store: store}
}

// Next returns a value greater than every value previously returned for counter.
func (a *IDAllocator) Next(ctx context.Context, counter string) (int64, error) {
	if counter == "" {
		return 0, domain.NewValidationError("counter name is required")
	}
	id, err := a.store.Increment(ctx, counter)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate %s id: %w", counter, err)
	}
	return id, nil
}

// Seed makes the next Next return at least floor+1. It never moves a counter back.
func (a *IDAllocator) Seed(ctx context.Context, counter string, floor int64) error {
	if counter == "" {
		return domain.NewValidationError("counter name is required")
	}
	if floor < 0 {
		return domain.NewValidationError("counter floor cannot be negative")
	}
	if err := a.store.SetFloor(ctx, counter, floor); err != nil {
		return fmt.Errorf("failed to seed %s counter: %w", counter, err)
	}
	return nil
}

// Reconcile seeds every counter with the highest id found in its source and
// returns the floors applied. It is run at startup so that rows written
// outside the allocator never collide with new ids.
func (a *IDAllocator) Reconcile(ctx context.Context, sources map[string]MaxIDSource) (map[string]int64, error) {
	floors := make(map[string]int64, len(sources))
	for counter, src := range sources {
		maxID, err := src.MaxID(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read max %s id: %w", counter, err)
		}
		if err := a.Seed(ctx, counter, maxID); err != nil {
			return nil, err
		}
		floors[counter] = maxID
	}
	return floors, nil
}
