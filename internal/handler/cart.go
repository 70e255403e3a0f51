package handler

import (
	"errors"   // for errors.Is comparisons against repository sentinels
	"net/http" // HTTP status codes

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/storefront-checkout/internal/repository"
	"github.com/iliyamo/storefront-checkout/internal/service"
)

// CartHandler exposes the reservation side of the cart: adding an item
// claims stock atomically, removing it releases the claim.  All methods
// assume JWT authentication has already injected the tenant and shopper
// session ids into the context.
type CartHandler struct {
	Checkout     *service.CheckoutService
	Availability *service.AvailabilityResolver
}

// NewCartHandler constructs a CartHandler.  Both dependencies must be
// non-nil.
func NewCartHandler(checkout *service.CheckoutService, availability *service.AvailabilityResolver) *CartHandler {
	if checkout == nil || availability == nil {
		panic("nil service passed to NewCartHandler")
	}
	return &CartHandler{Checkout: checkout, Availability: availability}
}

// AddItem handles POST /v1/cart/items.  The body carries a product id and a
// quantity; a repeated call for the same product replaces the prior claim.
// Insufficient stock is an expected outcome and maps to 409, never a 5xx;
// a store failure fails closed and maps to 503 so the client retries.
func (h *CartHandler) AddItem(c echo.Context) error {
	tenantID, sessionID, err := shopperIdentity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		ProductID string `json:"product_id"`
		Quantity  int64  `json:"quantity"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.ProductID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "product_id is required"})
	}
	if body.Quantity < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "quantity must not be negative"})
	}
	state, err := h.Checkout.AddToCart(c.Request().Context(), tenantID, sessionID, body.ProductID, body.Quantity)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{
			"state":      state,
			"product_id": body.ProductID,
			"quantity":   body.Quantity,
		})
	case errors.Is(err, repository.ErrInsufficientStock):
		return c.JSON(http.StatusConflict, echo.Map{"error": "insufficient stock"})
	case errors.Is(err, repository.ErrProductNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
	case errors.Is(err, repository.ErrInvalidQuantity):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid quantity"})
	default:
		// Fail closed: a reservation we cannot verify is a reservation
		// that did not happen.
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "reservation temporarily unavailable"})
	}
}

// RemoveItem handles DELETE /v1/cart/items/:product_id.  Releasing an
// absent or already-expired claim succeeds silently.
func (h *CartHandler) RemoveItem(c echo.Context) error {
	tenantID, sessionID, err := shopperIdentity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	productID := c.Param("product_id")
	if productID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}
	if err := h.Checkout.RemoveFromCart(c.Request().Context(), tenantID, sessionID, productID); err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "release temporarily unavailable"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ClearItems handles DELETE /v1/cart/items.  Every claim the session holds
// is released; already-expired claims are fine.
func (h *CartHandler) ClearItems(c echo.Context) error {
	tenantID, sessionID, err := shopperIdentity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if err := h.Checkout.ClearCart(c.Request().Context(), tenantID, sessionID); err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "release temporarily unavailable"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ListReservations handles GET /v1/cart/reservations.  It reports what the
// shopper currently holds so the cart page can render claims and their
// quantities.
func (h *CartHandler) ListReservations(c echo.Context) error {
	tenantID, sessionID, err := shopperIdentity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Checkout.Reservations(c.Request().Context(), tenantID, sessionID)
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "reservation store unavailable"})
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": items})
}

// ProductAvailability handles GET /v1/products/:id/availability.  It exposes
// the effective availability (authoritative stock minus live reservations)
// plus the raw reserved total for operational visibility.
func (h *CartHandler) ProductAvailability(c echo.Context) error {
	tenantID, _, err := shopperIdentity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	productID := c.Param("id")
	if productID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}
	avail, err := h.Availability.Available(c.Request().Context(), tenantID, productID)
	if errors.Is(err, repository.ErrProductNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
	}
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "availability temporarily unavailable"})
	}
	return c.JSON(http.StatusOK, avail)
}
