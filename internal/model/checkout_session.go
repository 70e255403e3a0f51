package model

import "time"

// CheckoutSession captures the computed state of an in-progress checkout:
// where it ships, how, and what it costs.  Its lifetime is governed solely
// by its own TTL; it is deliberately not linked to the stock reservations it
// was derived from, which expire on their own schedule.
//
// Fields:
//  ID                  – checkout session identifier (UUID).
//  TenantID            – storefront the checkout belongs to.
//  CartSessionID       – the shopper session whose reservations back this checkout.
//  ShippingAddress     – destination address as entered by the shopper.
//  ShippingMethodID    – selected shipping method identifier.
//  ShippingMethodName  – selected shipping method display name.
//  SubtotalCents       – item subtotal in cents.
//  ShippingCostCents   – shipping cost in cents.
//  DiscountCode        – applied discount code, empty when none.
//  DiscountAmountCents – discount applied in cents.
//  TotalCents          – grand total in cents.
//  CreatedAt           – creation timestamp.
type CheckoutSession struct {
	ID                  string    `json:"id"`
	TenantID            string    `json:"tenant_id"`
	CartSessionID       string    `json:"cart_session_id"`
	ShippingAddress     string    `json:"shipping_address"`
	ShippingMethodID    string    `json:"shipping_method_id"`
	ShippingMethodName  string    `json:"shipping_method_name"`
	SubtotalCents       int64     `json:"subtotal_cents"`
	ShippingCostCents   int64     `json:"shipping_cost_cents"`
	DiscountCode        string    `json:"discount_code,omitempty"`
	DiscountAmountCents int64     `json:"discount_amount_cents"`
	TotalCents          int64     `json:"total_cents"`
	CreatedAt           time.Time `json:"created_at"`
}
