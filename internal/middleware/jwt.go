package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http" // HTTP status codes for responses
	"strings"  // string utilities for prefix checking and trimming

	"github.com/golang-jwt/jwt/v5" // JWT library for parsing and validating tokens
	"github.com/labstack/echo/v4"  // Echo framework used for defining middleware and handlers
)

// JWTAuth returns an Echo middleware that validates a Bearer token issued by
// the storefront identity service and injects the shopper session id
// (subject) and the tenant id claim into the request context.  The provided
// secret must match the one used when issuing tokens.  This middleware
// wraps every /v1 route so that handlers can scope all reservation and
// checkout operations via `c.Get("session_id")` and `c.Get("tenant_id")`.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// A valid header starts with "Bearer " followed by the JWT.
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			// Parse with HS256 and our secret; reject other signing methods.
			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}

			// The subject is the shopper's cart/reservation session; every
			// request must additionally carry the tenant it shops in.
			sessionID, _ := claims["sub"].(string)
			tenantID, _ := claims["tenant"].(string)
			if sessionID == "" || tenantID == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing session or tenant claim"})
			}
			c.Set("session_id", sessionID)
			c.Set("tenant_id", tenantID)
			return next(c)
		}
	}
}
