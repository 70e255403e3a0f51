package model

import "time"

// Product is a catalog item belonging to a tenant's storefront.  The Stock
// column is the authoritative inventory count: it is only ever decremented
// by the order-confirmation transaction, never by the reservation core.
//
// Fields:
//  TenantID   – storefront the product belongs to.
//  ID         – product identifier, unique within the tenant.
//  Name       – display name.
//  PriceCents – unit price in cents.
//  Stock      – authoritative available quantity.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type Product struct {
	TenantID   string    // products.tenant_id
	ID         string    // products.id
	Name       string    // products.name
	PriceCents int64     // products.price_cents
	Stock      int64     // products.stock
	CreatedAt  time.Time // products.created_at
	UpdatedAt  time.Time // products.updated_at
}
