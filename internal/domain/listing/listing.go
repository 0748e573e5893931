// Package listing describes the listing data the booking core reads. Listings
// are created and edited by the catalogue service; this package only looks
// them up.
package listing

// Listing is the read model of a provider's offer.
type Listing struct {
	ID         int64  `json:"id"`
	OwnerID    *int64 `json:"owner_id,omitempty"`
	Title      string `json:"title"`
	PriceCents int64  `json:"price_cents"`
}

// HasOwner reports whether the listing is attached to a provider.
func (l *Listing) HasOwner() bool {
	return l.OwnerID != nil && *l.OwnerID > 0
}
