package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/storefront-checkout/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/storefront-checkout/internal/middleware" // import middleware for JWT authentication and rate limiting
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Load balancers and monitoring systems use this endpoint to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterShop registers the authenticated storefront endpoints.  Every
// route under /v1 runs the JWT middleware first so handlers can scope all
// operations by the tenant and shopper session claims, and then the Redis
// token-bucket rate limiter, which matters most on the reserve path where
// flash-sale traffic concentrates.
func RegisterShop(e *echo.Echo, cart *handler.CartHandler, checkout *handler.CheckoutHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	v1 := e.Group("/v1", middleware.JWTAuth(jwtSecret), limiter)

	// Cart-side reservation operations.  Adding an item is the atomic
	// check-and-reserve; removing releases the claim.
	v1.POST("/cart/items", cart.AddItem)
	v1.DELETE("/cart/items/:product_id", cart.RemoveItem)
	v1.DELETE("/cart/items", cart.ClearItems)
	v1.GET("/cart/reservations", cart.ListReservations)

	// Effective availability: authoritative stock minus live reservations.
	v1.GET("/products/:id/availability", cart.ProductAvailability)

	// Checkout session lifecycle and the payment transition.
	v1.POST("/checkout", checkout.Start)
	v1.GET("/checkout/:id", checkout.Get)
	v1.DELETE("/checkout/:id", checkout.Abandon)
	v1.POST("/checkout/:id/pay", checkout.Pay)
}
