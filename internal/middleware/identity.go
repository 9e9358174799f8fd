package middleware

// identity.go holds helpers shared across middleware files and handlers
// for reading the authenticated caller out of the Echo context.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theater-seat-booking/internal/utils"
)

// ClaimsFrom returns the claims stored by JWTAuth, or nil on public routes.
func ClaimsFrom(c echo.Context) *utils.Claims {
	cl, _ := c.Get(ctxClaims).(*utils.Claims)
	return cl
}

// currentUserID returns the token subject, or "anon" when the request is
// not authenticated.
func currentUserID(c echo.Context) string {
	if s, ok := c.Get(ctxUserID).(string); ok && s != "" {
		return s
	}
	return "anon"
}
