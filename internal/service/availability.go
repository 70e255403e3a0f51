package service

import (
	"context"
)

// Availability reports what is still purchasable for one product: the
// authoritative stock, the live total claimed by in-flight checkouts, and
// the difference between the two.
type Availability struct {
	Stock     int64 `json:"stock"`
	Reserved  int64 `json:"reserved"`
	Available int64 `json:"available"`
}

// AvailabilityResolver combines the authoritative stock count with the live
// reservation total.  The stock read happens fresh on every call — it is the
// one input the atomic reserve cannot protect, so caching it would reopen
// the oversell window.
type AvailabilityResolver struct {
	products     Inventory
	reservations ReservationStore
}

// NewAvailabilityResolver constructs a resolver over the given stores.
func NewAvailabilityResolver(products Inventory, reservations ReservationStore) *AvailabilityResolver {
	if products == nil || reservations == nil {
		panic("nil dependency passed to NewAvailabilityResolver")
	}
	return &AvailabilityResolver{products: products, reservations: reservations}
}

// Available computes authoritative stock minus the sum of active claims.
// The result can be negative when stock was decremented while reservations
// were still live; it is clamped to zero since nothing is purchasable then.
func (r *AvailabilityResolver) Available(ctx context.Context, tenantID, productID string) (Availability, error) {
	stock, err := r.products.Stock(ctx, tenantID, productID)
	if err != nil {
		return Availability{}, err
	}
	reserved, err := r.reservations.ReservedQuantity(ctx, tenantID, productID)
	if err != nil {
		return Availability{}, err
	}
	avail := stock - reserved
	if avail < 0 {
		avail = 0
	}
	return Availability{Stock: stock, Reserved: reserved, Available: avail}, nil
}
