package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sokoni/marketplace-api/internal/api/middleware"
	"github.com/sokoni/marketplace-api/internal/core/domain"
)

// ctxIdentity extracts the identity injected by the access gate and
// fast-fails before any service call when it is absent. Absence means a
// route was registered without the Auth middleware, which is a wiring bug,
// but the safe answer is still 401.
func ctxIdentity(c echo.Context) (domain.Identity, error) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok || identity.ID == "" {
		return domain.Identity{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return identity, nil
}
