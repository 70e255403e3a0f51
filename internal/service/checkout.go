package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/iliyamo/storefront-checkout/internal/model"
	"github.com/iliyamo/storefront-checkout/internal/queue"
	"github.com/iliyamo/storefront-checkout/internal/repository"
)

// State is the position of a shopper in the checkout flow.  Transitions:
//
//	CART_OPEN -> RESERVED -> SESSION_CREATED -> PAYMENT_PENDING
//	PAYMENT_PENDING -> CONFIRMED | FAILED (retryable) | EXPIRED
//
// A failed reserve keeps the shopper in CART_OPEN; a failed payment keeps
// the reservations intact so a retry does not lose scarce stock; a timeout
// needs no transition at all — the reservation simply expires.
type State string

const (
	StateCartOpen       State = "CART_OPEN"
	StateReserved       State = "RESERVED"
	StateSessionCreated State = "SESSION_CREATED"
	StatePaymentPending State = "PAYMENT_PENDING"
	StateConfirmed      State = "CONFIRMED"
	StateFailed         State = "FAILED"
	StateExpired        State = "EXPIRED"
)

// ErrPaymentFailed is returned when the payment collaborator declines a
// capture.  It is retryable: reservations are left in place until their TTL.
var ErrPaymentFailed = errors.New("payment capture failed")

// StartCheckoutInput carries the caller-computed checkout state.  Totals are
// calculated by the shop API layer (which owns cart math, shipping rates and
// discount validation); this core only persists them.
type StartCheckoutInput struct {
	ShippingAddress     string
	ShippingMethodID    string
	ShippingMethodName  string
	SubtotalCents       int64
	ShippingCostCents   int64
	DiscountCode        string
	DiscountAmountCents int64
	TotalCents          int64
}

// CheckoutService drives the checkout state machine over the reservation
// store, the checkout session store and the external collaborators.  It is
// the only component composing them; handlers never touch the stores
// directly.
type CheckoutService struct {
	reservations ReservationStore
	sessions     CheckoutSessions
	products     Inventory
	cart         CartService
	payments     PaymentService
	publisher    EventPublisher
	ttl          time.Duration
}

// NewCheckoutService wires the checkout flow.  The publisher may be nil
// when no broker is configured; confirmed orders are then only logged.
func NewCheckoutService(reservations ReservationStore, sessions CheckoutSessions, products Inventory, cart CartService, payments PaymentService, publisher EventPublisher, reservationTTL time.Duration) *CheckoutService {
	if reservations == nil || sessions == nil || products == nil || cart == nil || payments == nil {
		panic("nil dependency passed to NewCheckoutService")
	}
	if reservationTTL <= 0 {
		reservationTTL = 15 * time.Minute
	}
	return &CheckoutService{
		reservations: reservations,
		sessions:     sessions,
		products:     products,
		cart:         cart,
		payments:     payments,
		publisher:    publisher,
		ttl:          reservationTTL,
	}
}

// AddToCart claims quantity units of a product for the shopper session and,
// on success, upserts the cart line through the Cart collaborator.  The
// authoritative stock is read fresh immediately before the atomic reserve.
// Insufficient stock returns repository.ErrInsufficientStock with the state
// unchanged at CART_OPEN; it is the expected outcome of a contended race,
// never a system error.  Any store failure is returned as-is so callers
// fail closed.  A quantity of zero releases the claim.
func (s *CheckoutService) AddToCart(ctx context.Context, tenantID, sessionID, productID string, quantity int64) (State, error) {
	if quantity < 0 {
		return StateCartOpen, repository.ErrInvalidQuantity
	}
	product, err := s.products.GetByID(ctx, tenantID, productID)
	if err != nil {
		return StateCartOpen, err
	}
	meta := model.SessionReservation{
		Name:           product.Name,
		UnitPriceCents: product.PriceCents,
	}
	ok, err := s.reservations.Reserve(ctx, tenantID, sessionID, productID, quantity, product.Stock, meta, s.ttl)
	if err != nil {
		return StateCartOpen, fmt.Errorf("reserve stock: %w", err)
	}
	if !ok {
		return StateCartOpen, repository.ErrInsufficientStock
	}
	if quantity == 0 {
		if err := s.cart.RemoveItem(ctx, tenantID, sessionID, productID); err != nil {
			return StateCartOpen, fmt.Errorf("remove cart line: %w", err)
		}
		return StateCartOpen, nil
	}
	if err := s.cart.UpsertItem(ctx, tenantID, sessionID, productID, quantity); err != nil {
		return StateReserved, fmt.Errorf("upsert cart line: %w", err)
	}
	return StateReserved, nil
}

// RemoveFromCart releases the session's claim on one product and drops the
// cart line.  Idempotent: releasing an absent or expired claim is a no-op.
func (s *CheckoutService) RemoveFromCart(ctx context.Context, tenantID, sessionID, productID string) error {
	if err := s.reservations.Release(ctx, tenantID, sessionID, productID); err != nil {
		return fmt.Errorf("release reservation: %w", err)
	}
	if err := s.cart.RemoveItem(ctx, tenantID, sessionID, productID); err != nil {
		return fmt.Errorf("remove cart line: %w", err)
	}
	return nil
}

// ClearCart releases every claim the session holds and empties the cart.
func (s *CheckoutService) ClearCart(ctx context.Context, tenantID, sessionID string) error {
	if err := s.reservations.ReleaseAll(ctx, tenantID, sessionID); err != nil {
		return fmt.Errorf("release reservations: %w", err)
	}
	if err := s.cart.Clear(ctx, tenantID, sessionID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// Reservations reports what the shopper session currently holds.
func (s *CheckoutService) Reservations(ctx context.Context, tenantID, sessionID string) ([]model.SessionReservation, error) {
	return s.reservations.SessionReservations(ctx, tenantID, sessionID)
}

// StartCheckout persists the caller-computed checkout state under a fresh
// session id.  It deliberately does not re-validate or extend reservations:
// their TTL keeps running on its own schedule.
func (s *CheckoutService) StartCheckout(ctx context.Context, tenantID, cartSessionID string, in StartCheckoutInput) (string, error) {
	sess := &model.CheckoutSession{
		TenantID:            tenantID,
		CartSessionID:       cartSessionID,
		ShippingAddress:     in.ShippingAddress,
		ShippingMethodID:    in.ShippingMethodID,
		ShippingMethodName:  in.ShippingMethodName,
		SubtotalCents:       in.SubtotalCents,
		ShippingCostCents:   in.ShippingCostCents,
		DiscountCode:        in.DiscountCode,
		DiscountAmountCents: in.DiscountAmountCents,
		TotalCents:          in.TotalCents,
	}
	id, err := s.sessions.Create(ctx, sess)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return id, nil
}

// Session returns the checkout session or repository.ErrSessionNotFound
// when it is absent or expired.
func (s *CheckoutService) Session(ctx context.Context, sessionID string) (*model.CheckoutSession, error) {
	return s.sessions.Get(ctx, sessionID)
}

// AbandonCheckout drops the checkout session.  Reservations are untouched;
// the shopper can start over while their claims are still live.
func (s *CheckoutService) AbandonCheckout(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID)
}

// ConfirmPayment runs the final leg of the state machine.  The order of
// operations is load-bearing: authoritative stock is decremented in one
// transaction FIRST, and only then are reservations released.  If the
// release fails afterward the stock count is already correct and the stale
// claim simply expires via TTL, so release (and session deletion, and event
// publication) errors are logged and swallowed rather than failing a
// confirmed order.  A declined capture returns ErrPaymentFailed with every
// reservation intact.
func (s *CheckoutService) ConfirmPayment(ctx context.Context, tenantID, checkoutSessionID string) (State, error) {
	sess, err := s.sessions.Get(ctx, checkoutSessionID)
	if errors.Is(err, repository.ErrSessionNotFound) {
		return StateExpired, err
	}
	if err != nil {
		return StatePaymentPending, err
	}

	if err := s.payments.Capture(ctx, tenantID, checkoutSessionID, sess.TotalCents); err != nil {
		return StateFailed, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}

	lines, err := s.reservations.SessionReservations(ctx, tenantID, sess.CartSessionID)
	if err != nil {
		return StateFailed, fmt.Errorf("load reservations: %w", err)
	}
	if err := s.products.DecrementStockAll(ctx, tenantID, lines); err != nil {
		return StateFailed, fmt.Errorf("decrement stock: %w", err)
	}

	if err := s.reservations.ReleaseAll(ctx, tenantID, sess.CartSessionID); err != nil {
		log.Printf("checkout: release after confirm failed (TTL will reclaim): %v", err)
	}
	if err := s.cart.Clear(ctx, tenantID, sess.CartSessionID); err != nil {
		log.Printf("checkout: cart clear after confirm failed: %v", err)
	}
	if err := s.sessions.Delete(ctx, checkoutSessionID); err != nil {
		log.Printf("checkout: session delete after confirm failed: %v", err)
	}

	if s.publisher != nil {
		ev := queue.OrderConfirmedEvent{
			TenantID:          tenantID,
			CheckoutSessionID: checkoutSessionID,
			CartSessionID:     sess.CartSessionID,
			TotalCents:        sess.TotalCents,
			ConfirmedAt:       time.Now().UTC().Format(time.RFC3339),
		}
		for _, ln := range lines {
			ev.Items = append(ev.Items, queue.OrderItem{
				ProductID:      ln.ProductID,
				Name:           ln.Name,
				Quantity:       ln.Quantity,
				UnitPriceCents: ln.UnitPriceCents,
			})
		}
		if err := s.publisher.PublishOrderConfirmed(ctx, ev); err != nil {
			log.Printf("checkout: publish order.confirmed failed: %v", err)
		}
	}
	return StateConfirmed, nil
}
