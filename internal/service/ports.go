// Package service composes the reservation store, the checkout session
// store and the external collaborators into the checkout flow.  The
// dependencies are expressed as narrow interfaces so that no caller can
// read-modify-write the reservation ledger directly and so the flow can be
// unit tested in isolation.
package service

import (
	"context"
	"time"

	"github.com/iliyamo/storefront-checkout/internal/model"
	"github.com/iliyamo/storefront-checkout/internal/queue"
	"github.com/iliyamo/storefront-checkout/internal/repository"
)

// ReservationStore is the atomic reservation ledger.  Implemented by
// repository.ReservationStore on Redis.
type ReservationStore interface {
	Reserve(ctx context.Context, tenantID, sessionID, productID string, quantity, maxAvailable int64, meta model.SessionReservation, ttl time.Duration) (bool, error)
	Release(ctx context.Context, tenantID, sessionID, productID string) error
	ReleaseAll(ctx context.Context, tenantID, sessionID string) error
	ReservedQuantity(ctx context.Context, tenantID, productID string) (int64, error)
	SessionReservations(ctx context.Context, tenantID, sessionID string) ([]model.SessionReservation, error)
}

// CheckoutSessions is the TTL-bound checkout session store.  Implemented by
// repository.CheckoutSessionStore on Redis.
type CheckoutSessions interface {
	Create(ctx context.Context, sess *model.CheckoutSession) (string, error)
	Get(ctx context.Context, sessionID string) (*model.CheckoutSession, error)
	Delete(ctx context.Context, sessionID string) error
}

// Inventory is the authoritative product/stock repository.  Implemented by
// repository.ProductRepo on MySQL.  Stock reads are always fresh; the
// decrement runs only at order confirmation.
type Inventory interface {
	GetByID(ctx context.Context, tenantID, productID string) (*repository.ProductRecord, error)
	Stock(ctx context.Context, tenantID, productID string) (int64, error)
	DecrementStockAll(ctx context.Context, tenantID string, lines []model.SessionReservation) error
}

// CartService is the external collaborator owning cart line items.  The
// reservation core tells it about line changes after a claim succeeds.
type CartService interface {
	UpsertItem(ctx context.Context, tenantID, sessionID, productID string, quantity int64) error
	RemoveItem(ctx context.Context, tenantID, sessionID, productID string) error
	Clear(ctx context.Context, tenantID, sessionID string) error
}

// PaymentService is the external collaborator charging the shopper.  Capture
// returning an error drives the FAILED transition; the reservation stays
// intact so a retry does not lose the shopper's place for scarce stock.
type PaymentService interface {
	Capture(ctx context.Context, tenantID, checkoutSessionID string, amountCents int64) error
}

// EventPublisher emits domain events after an order is confirmed.
// Implemented by the RabbitMQ publisher in internal/queue.
type EventPublisher interface {
	PublishOrderConfirmed(ctx context.Context, event queue.OrderConfirmedEvent) error
}
