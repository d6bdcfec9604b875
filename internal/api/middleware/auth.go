package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/sokoni/marketplace-api/internal/core/domain"
	"github.com/sokoni/marketplace-api/internal/core/ports"
)

// identityKey is where the resolved identity lives in the echo context.
const identityKey = "identity"

// Auth is the access gate: it resolves the bearer token to an identity and
// injects it into the request context, or rejects the request with 401.
// Only mutating routes are wrapped; reads stay open.
func Auth(tokens ports.TokenManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "token required")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			identity, err := tokens.Verify(parts[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			c.Set(identityKey, identity)
			return next(c)
		}
	}
}

// IdentityFrom extracts the identity injected by Auth. The boolean is false
// when the middleware did not run or rejected the request.
func IdentityFrom(c echo.Context) (domain.Identity, bool) {
	identity, ok := c.Get(identityKey).(domain.Identity)
	return identity, ok
}
