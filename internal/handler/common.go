package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cine-reservas/internal/repository"
)

// getUserID extracts the authenticated user ID placed in context by
// the JWT middleware.
func getUserID(c echo.Context) uint64 {
	if id, ok := c.Get("user_id").(uint64); ok {
		return id
	}
	return 0
}

// writeRepoError maps repository failures onto HTTP responses. Every
// business failure gets a distinct status; anything unrecognized is
// an opaque 500.
func writeRepoError(c echo.Context, err error) error {
	var unavailable *repository.SeatsUnavailableError
	switch {
	case errors.Is(err, repository.ErrInvalidRequest):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	case errors.As(err, &unavailable):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":    "seats unavailable",
			"seat_ids": unavailable.MissingIDs,
		})
	case errors.Is(err, repository.ErrUserLimitExceeded):
		return c.JSON(http.StatusConflict, echo.Map{"error": "reservation limit exceeded"})
	case errors.Is(err, repository.ErrAlreadyPremium):
		return c.JSON(http.StatusConflict, echo.Map{"error": "user is already premium"})
	case errors.Is(err, repository.ErrCapacityFull):
		return c.JSON(http.StatusConflict, echo.Map{"error": "maximum number of concurrent users reached"})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, repository.ErrNotProvisioned):
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "seat registry not provisioned"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
}
