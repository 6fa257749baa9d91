package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cine-reservas/internal/repository"
)

// SessionUser loads the authenticated account on every request and
// enforces the account TTL lazily: the first request that sees an
// expired user deletes it (cascading to its reservations and freeing
// their seats) and answers 401. Must run after JWTAuth. The loaded
// model.User is stored under "user" for handlers that need the
// premium flag without a second lookup.
func SessionUser(users *repository.UserRepo) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := c.Get("user_id").(uint64)
			if !ok || id == 0 {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}
			ctx := c.Request().Context()
			u, err := users.GetByID(ctx, id)
			if errors.Is(err, repository.ErrNotFound) {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "session expired"})
			}
			if err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
			}
			if u.IsExpired() {
				if err := users.DeleteCascade(ctx, u.ID); err != nil {
					c.Logger().Errorf("expired-user cleanup failed for %d: %v", u.ID, err)
				}
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "session expired"})
			}
			c.Set("user", u)
			return next(c)
		}
	}
}
