package handler

import (
	"errors"   // for errors.Is comparisons against repository sentinels
	"net/http" // HTTP status codes

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/storefront-checkout/internal/repository"
	"github.com/iliyamo/storefront-checkout/internal/service"
)

// CheckoutHandler exposes the checkout session lifecycle and the payment
// transition.  Totals arrive pre-computed from the shop API layer; this
// service only persists them and drives the reservation bookkeeping.
type CheckoutHandler struct {
	Checkout *service.CheckoutService
}

// NewCheckoutHandler constructs a CheckoutHandler.
func NewCheckoutHandler(checkout *service.CheckoutService) *CheckoutHandler {
	if checkout == nil {
		panic("nil service passed to NewCheckoutHandler")
	}
	return &CheckoutHandler{Checkout: checkout}
}

// Start handles POST /v1/checkout.  It persists the supplied checkout state
// under a fresh session id with a one-hour TTL and returns the id.  It does
// not re-validate or extend the shopper's reservations.
func (h *CheckoutHandler) Start(c echo.Context) error {
	tenantID, sessionID, err := shopperIdentity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		ShippingAddress     string `json:"shipping_address"`
		ShippingMethodID    string `json:"shipping_method_id"`
		ShippingMethodName  string `json:"shipping_method_name"`
		SubtotalCents       int64  `json:"subtotal_cents"`
		ShippingCostCents   int64  `json:"shipping_cost_cents"`
		DiscountCode        string `json:"discount_code"`
		DiscountAmountCents int64  `json:"discount_amount_cents"`
		TotalCents          int64  `json:"total_cents"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.ShippingAddress == "" || body.ShippingMethodID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "shipping_address and shipping_method_id are required"})
	}
	if body.TotalCents < 0 || body.SubtotalCents < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "totals must not be negative"})
	}
	id, err := h.Checkout.StartCheckout(c.Request().Context(), tenantID, sessionID, service.StartCheckoutInput{
		ShippingAddress:     body.ShippingAddress,
		ShippingMethodID:    body.ShippingMethodID,
		ShippingMethodName:  body.ShippingMethodName,
		SubtotalCents:       body.SubtotalCents,
		ShippingCostCents:   body.ShippingCostCents,
		DiscountCode:        body.DiscountCode,
		DiscountAmountCents: body.DiscountAmountCents,
		TotalCents:          body.TotalCents,
	})
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "checkout temporarily unavailable"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"checkout_session_id": id})
}

// Get handles GET /v1/checkout/:id.  A missing or expired session maps to
// 404: the client simply starts checkout again.
func (h *CheckoutHandler) Get(c echo.Context) error {
	if _, _, err := shopperIdentity(c); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	sess, err := h.Checkout.Session(c.Request().Context(), c.Param("id"))
	if errors.Is(err, repository.ErrSessionNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "checkout session not found"})
	}
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "checkout temporarily unavailable"})
	}
	return c.JSON(http.StatusOK, sess)
}

// Abandon handles DELETE /v1/checkout/:id.  Deleting an unknown session is
// fine; reservations are untouched and keep running on their own TTL.
func (h *CheckoutHandler) Abandon(c echo.Context) error {
	if _, _, err := shopperIdentity(c); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if err := h.Checkout.AbandonCheckout(c.Request().Context(), c.Param("id")); err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "checkout temporarily unavailable"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Pay handles POST /v1/checkout/:id/pay.  On success the order is confirmed:
// authoritative stock has been decremented and the reservations released.
// A declined capture maps to 402 with reservations intact so the shopper
// can retry without losing their place for scarce stock.
func (h *CheckoutHandler) Pay(c echo.Context) error {
	tenantID, _, err := shopperIdentity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	state, err := h.Checkout.ConfirmPayment(c.Request().Context(), tenantID, c.Param("id"))
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"state": state})
	case errors.Is(err, repository.ErrSessionNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "checkout session not found", "state": state})
	case errors.Is(err, service.ErrPaymentFailed):
		return c.JSON(http.StatusPaymentRequired, echo.Map{"error": "payment failed", "state": state, "retryable": true})
	default:
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "confirmation temporarily unavailable", "state": state})
	}
}
