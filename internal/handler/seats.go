package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cine-reservas/internal/repository"
)

// SeatHandler serves the seat map views.
type SeatHandler struct {
	Seats *repository.SeatRepo
}

func NewSeatHandler(s *repository.SeatRepo) *SeatHandler {
	return &SeatHandler{Seats: s}
}

// List returns every seat ordered by row and number. The registry
// reconciles seat statuses against live reservations before
// answering, so the map is always consistent with the ledger.
func (h *SeatHandler) List(c echo.Context) error {
	seats, err := h.Seats.ListAll(c.Request().Context())
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"seats": seats, "count": len(seats)})
}

// ListAvailable returns available seats only. ?premium=true narrows
// the view to premium rows.
func (h *SeatHandler) ListAvailable(c echo.Context) error {
	premiumOnly := c.QueryParam("premium") == "true" || c.QueryParam("premium") == "1"
	seats, err := h.Seats.ListAvailable(c.Request().Context(), premiumOnly)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"seats": seats, "count": len(seats)})
}
