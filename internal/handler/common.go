package handler

import (
	"errors"

	"github.com/labstack/echo/v4"
)

// errNoIdentity is returned when the JWT middleware did not populate the
// shopper identity, which means the route was registered without it.
var errNoIdentity = errors.New("missing shopper identity in context")

// shopperIdentity extracts the tenant and shopper session ids injected by
// the JWTAuth middleware.  All reservation and checkout operations are
// scoped by this pair.
func shopperIdentity(c echo.Context) (tenantID, sessionID string, err error) {
	tenantID, _ = c.Get("tenant_id").(string)
	sessionID, _ = c.Get("session_id").(string)
	if tenantID == "" || sessionID == "" {
		return "", "", errNoIdentity
	}
	return tenantID, sessionID, nil
}
