package listing

import "context"

// Lookup resolves listings by id. Missing listings yield a not-found domain error.
type Lookup interface {
	FindByID(ctx context.Context, id int64) (*Listing, error)
}
