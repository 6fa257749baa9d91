package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cine-reservas/internal/model"
	"github.com/iliyamo/cine-reservas/internal/pricing"
	"github.com/iliyamo/cine-reservas/internal/queue"
	"github.com/iliyamo/cine-reservas/internal/repository"
	queue_publisher "github.com/iliyamo/cine-reservas/internal/service"
)

// ReservationHandler serves the reserve / cancel / list endpoints.
type ReservationHandler struct {
	Reservations *repository.ReservationRepo
}

func NewReservationHandler(r *repository.ReservationRepo) *ReservationHandler {
	return &ReservationHandler{Reservations: r}
}

type reserveReq struct {
	SeatIDs []uint64 `json:"seat_ids"`
	Combo   *string  `json:"combo,omitempty"`
}

// Create reserves a batch of seats for the caller, all or nothing.
func (h *ReservationHandler) Create(c echo.Context) error {
	var req reserveReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	uid := getUserID(c)
	ctx := c.Request().Context()

	if _, err := h.Reservations.Reserve(ctx, uid, req.SeatIDs, req.Combo); err != nil {
		return writeRepoError(c, err)
	}

	details, err := h.Reservations.DetailsByUser(ctx, uid)
	if err != nil {
		return writeRepoError(c, err)
	}
	u, _ := c.Get("user").(model.User)
	total := costOf(details, u.IsPremium)

	labels := make([]string, 0, len(req.SeatIDs))
	for _, d := range details {
		for _, id := range req.SeatIDs {
			if d.SeatID == id {
				labels = append(labels, d.SeatLabel)
			}
		}
	}
	combo := ""
	if req.Combo != nil {
		combo = *req.Combo
	}
	publishActivity("reserve", uid, u.Username, labels, combo, total)

	return c.JSON(http.StatusCreated, echo.Map{
		"reservations": details,
		"total_cents":  total,
	})
}

// Cancel removes the caller's reservation for one seat. Repeating a
// cancel answers 404 without touching anything.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	seatID, err := strconv.ParseUint(c.Param("seatID"), 10, 64)
	if err != nil || seatID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat id"})
	}
	uid := getUserID(c)

	if err := h.Reservations.Cancel(c.Request().Context(), uid, seatID); err != nil {
		return writeRepoError(c, err)
	}
	u, _ := c.Get("user").(model.User)
	publishActivity("cancel", uid, u.Username, nil, "", 0)
	return c.NoContent(http.StatusNoContent)
}

// Mine lists the caller's reservations with seat labels and the
// priced total.
func (h *ReservationHandler) Mine(c echo.Context) error {
	uid := getUserID(c)
	details, err := h.Reservations.DetailsByUser(c.Request().Context(), uid)
	if err != nil {
		return writeRepoError(c, err)
	}
	u, _ := c.Get("user").(model.User)
	return c.JSON(http.StatusOK, echo.Map{
		"reservations": details,
		"count":        len(details),
		"total_cents":  costOf(details, u.IsPremium),
	})
}

// Combos lists the snack catalog visible to the caller.
func (h *ReservationHandler) Combos(c echo.Context) error {
	u, _ := c.Get("user").(model.User)
	return c.JSON(http.StatusOK, echo.Map{"combos": pricing.Combos(u.IsPremium)})
}

// costOf prices a set of reservation details.
func costOf(details []repository.ReservationDetail, isPremium bool) uint32 {
	items := make([]pricing.Item, 0, len(details))
	for _, d := range details {
		items = append(items, pricing.Item{SeatPremium: d.SeatPremium, Combo: d.Combo})
	}
	return pricing.Cost(items, isPremium)
}

// publishActivity fires a reservation.activity event in the
// background. Broker failures must never affect the request that
// triggered the event; the publisher logs them.
func publishActivity(action string, userID uint64, username string, labels []string, combo string, total uint32) {
	ev := queue.ReservationActivityEvent{
		Action:     action,
		UserID:     userID,
		Username:   username,
		SeatLabels: labels,
		Combo:      combo,
		TotalCents: total,
		At:         time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = queue_publisher.PublishReservationActivity(ctx, ev)
	}()
}
