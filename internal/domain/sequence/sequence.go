// Package sequence names the durable counters used to allocate numeric ids.
package sequence

import "context"

// Counter names.
const (
	Users      = "users"
	Categories = "categories"
	Listings   = "listings"
	Bookings   = "bookings"
	Reviews    = "reviews"
)

// CounterStore is a durable set of named counters. Implementations must make
// Increment a single atomic operation so that concurrent callers, in this or
// any other process, never observe the same value.
type CounterStore interface {
	// Increment adds one to name, creating it at 1 when absent, and returns the new value.
	Increment(ctx context.Context, name string) (int64, error)
	// SetFloor raises name to value when it is lower; it never lowers a counter.
	SetFloor(ctx context.Context, name string, value int64) error
}
