package model

import "time"

// SessionReservation is one entry of a shopper's reverse index: the claim a
// session currently holds on a single product.  It mirrors an entry in the
// per-product reservation ledger and exists so that "release everything for
// this session" and "what does this shopper hold" are cheap.  The display
// fields let the checkout page render held items without a catalog round
// trip.  Reservations expire together with the ledger entries they mirror.
//
// Fields:
//  ProductID      – product the claim is against.
//  Quantity       – units reserved; a later reserve overwrites, never adds.
//  ReservedAt     – when the claim was last written.
//  Name           – product display name at reservation time.
//  UnitPriceCents – unit price at reservation time, in cents.
type SessionReservation struct {
	ProductID      string    `json:"product_id"`
	Quantity       int64     `json:"quantity"`
	ReservedAt     time.Time `json:"reserved_at"`
	Name           string    `json:"name"`
	UnitPriceCents int64     `json:"unit_price_cents"`
}
