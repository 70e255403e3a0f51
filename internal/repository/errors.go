package repository

import "errors"

// Sentinel errors returned by the repository layer.  Handlers compare
// against these with errors.Is to choose the right HTTP status.
var (
	// ErrProductNotFound is returned when a product does not exist for the
	// tenant, or is not visible to the storefront.
	ErrProductNotFound = errors.New("product not found")

	// ErrInsufficientStock is returned by the authoritative stock decrement
	// when the remaining stock no longer covers the requested quantity.  It
	// is an expected outcome of a correctly contended race, not a fault.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrSessionNotFound is returned when a checkout session does not exist
	// or has already expired.  Expiry is silent: callers treat this as
	// "start checkout again", not as a hard failure.
	ErrSessionNotFound = errors.New("checkout session not found")

	// ErrInvalidQuantity is returned when a reserve is attempted with a
	// negative quantity.  Zero is accepted and treated as a release.
	ErrInvalidQuantity = errors.New("invalid quantity")
)
