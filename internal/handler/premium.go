package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cine-reservas/internal/model"
	"github.com/iliyamo/cine-reservas/internal/repository"
)

// PremiumHandler serves the premium upgrade endpoint.
type PremiumHandler struct {
	Premium *repository.PremiumRepo
}

func NewPremiumHandler(p *repository.PremiumRepo) *PremiumHandler {
	return &PremiumHandler{Premium: p}
}

type upgradeReq struct {
	AutoSelect bool `json:"auto_select"`
	SeatsCount int  `json:"seats_count"`
}

// Upgrade flips the caller to premium. With auto_select, the caller's
// existing reservations are replaced by up to seats_count best seats,
// each booked with the VIP combo. Getting fewer seats than requested
// is not an error; the response reports what was actually taken.
func (h *PremiumHandler) Upgrade(c echo.Context) error {
	var req upgradeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.AutoSelect && req.SeatsCount == 0 {
		req.SeatsCount = 2
	}
	uid := getUserID(c)

	seats, err := h.Premium.Upgrade(c.Request().Context(), uid, req.AutoSelect, req.SeatsCount)
	if err != nil {
		return writeRepoError(c, err)
	}

	u, _ := c.Get("user").(model.User)
	labels := make([]string, 0, len(seats))
	for _, s := range seats {
		labels = append(labels, s.Label())
	}
	publishActivity("upgrade", uid, u.Username, labels, repository.VIPCombo, 0)

	return c.JSON(http.StatusOK, echo.Map{
		"is_premium": true,
		"seats":      seats,
	})
}
