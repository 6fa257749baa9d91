package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cine-reservas/internal/bot"
)

// BotHandler exposes a single manual trigger for the traffic
// simulator.
type BotHandler struct {
	Sim *bot.Simulator
}

func NewBotHandler(s *bot.Simulator) *BotHandler {
	return &BotHandler{Sim: s}
}

// Action runs one simulated step and reports its outcome. Business
// failures inside the step come back as ok=false, never as an HTTP
// error.
func (h *BotHandler) Action(c echo.Context) error {
	out := h.Sim.Step(c.Request().Context())
	return c.JSON(http.StatusOK, out)
}
