// Package queue defines message payloads exchanged over the message broker.
package queue

// OrderItem is one confirmed order line as captured from the shopper's
// reservations at confirmation time.
type OrderItem struct {
	ProductID      string `json:"product_id"`
	Name           string `json:"name"`
	Quantity       int64  `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

// OrderConfirmedEvent is published when payment succeeds and authoritative
// stock has been decremented.  It contains enough information for downstream
// consumers to log, notify, or trigger analytics without querying the
// primary database.
type OrderConfirmedEvent struct {
	TenantID          string      `json:"tenant_id"`
	CheckoutSessionID string      `json:"checkout_session_id"`
	CartSessionID     string      `json:"cart_session_id"`
	Items             []OrderItem `json:"items"`
	TotalCents        int64       `json:"total_cents"`
	ConfirmedAt       string      `json:"confirmed_at"`
}
