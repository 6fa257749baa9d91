package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cine-reservas/internal/repository"
)

// StatsHandler reports aggregate counters for monitoring the demo.
type StatsHandler struct {
	Users        *repository.UserRepo
	Seats        *repository.SeatRepo
	Reservations *repository.ReservationRepo
}

func NewStatsHandler(u *repository.UserRepo, s *repository.SeatRepo, r *repository.ReservationRepo) *StatsHandler {
	return &StatsHandler{Users: u, Seats: s, Reservations: r}
}

// Get returns live user count, total reservations, and seats grouped
// by status.
func (h *StatsHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	users, err := h.Users.CountLive(ctx)
	if err != nil {
		return writeRepoError(c, err)
	}
	reservations, err := h.Reservations.CountAll(ctx)
	if err != nil {
		return writeRepoError(c, err)
	}
	seats, err := h.Seats.CountByStatus(ctx)
	if err != nil {
		return writeRepoError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"live_users":   users,
		"reservations": reservations,
		"seats":        seats,
	})
}
