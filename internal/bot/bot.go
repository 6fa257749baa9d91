// Package bot drives randomized booking traffic against the
// reservation ledger through the same contract real users hit. It
// exists to exercise the concurrency guarantees, so every failure it
// encounters is a reported outcome rather than an escaping error.
package bot

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/iliyamo/cine-reservas/internal/model"
	"github.com/iliyamo/cine-reservas/internal/pricing"
)

// SeatSource exposes the available-seat view the bot samples from.
type SeatSource interface {
	ListAvailable(ctx context.Context, premiumOnly bool) ([]model.Seat, error)
}

// ReservationLedger is the slice of the ledger contract the bot
// uses.
type ReservationLedger interface {
	Reserve(ctx context.Context, userID uint64, seatIDs []uint64, combo *string) ([]model.Reservation, error)
	Cancel(ctx context.Context, userID, seatID uint64) error
	ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error)
}

// Outcome reports what one simulated action did. OK false covers
// business failures (no seats left, race lost, nothing to cancel);
// those are expected under load and never propagate as errors.
type Outcome struct {
	Action  string   `json:"action"`
	OK      bool     `json:"ok"`
	Message string   `json:"message"`
	SeatIDs []uint64 `json:"seat_ids,omitempty"`
}

// Simulator picks weighted-random actions on behalf of the bot user.
// The random source is injected so tests can run it deterministically.
type Simulator struct {
	seats  SeatSource
	ledger ReservationLedger
	userID uint64
	rng    *rand.Rand
}

// New builds a Simulator. Passing a nil rng seeds one from the
// clock.
func New(seats SeatSource, ledger ReservationLedger, botUserID uint64, rng *rand.Rand) *Simulator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Simulator{seats: seats, ledger: ledger, userID: botUserID, rng: rng}
}

// Step performs one weighted-random action: reserve three times out
// of four, cancel otherwise.
func (s *Simulator) Step(ctx context.Context) Outcome {
	if s.rng.Intn(4) == 0 {
		return s.cancelOne(ctx)
	}
	return s.reserveSome(ctx)
}

// reserveSome samples one to three distinct available seats, with a
// fifty percent chance of attaching a random regular combo, and
// reserves them.
func (s *Simulator) reserveSome(ctx context.Context) Outcome {
	available, err := s.seats.ListAvailable(ctx, false)
	if err != nil {
		return Outcome{Action: "reserve", Message: err.Error()}
	}
	if len(available) == 0 {
		return Outcome{Action: "reserve", Message: "no seats available"}
	}
	n := 1 + s.rng.Intn(3)
	if n > len(available) {
		n = len(available)
	}
	seatIDs := make([]uint64, 0, n)
	for _, idx := range s.rng.Perm(len(available))[:n] {
		seatIDs = append(seatIDs, available[idx].ID)
	}
	var combo *string
	if s.rng.Intn(2) == 1 {
		names := pricing.RegularComboNames()
		name := names[s.rng.Intn(len(names))]
		combo = &name
	}
	if _, err := s.ledger.Reserve(ctx, s.userID, seatIDs, combo); err != nil {
		return Outcome{Action: "reserve", Message: err.Error(), SeatIDs: seatIDs}
	}
	msg := fmt.Sprintf("reserved %d seats", len(seatIDs))
	if combo != nil {
		msg += " with " + *combo
	}
	return Outcome{Action: "reserve", OK: true, Message: msg, SeatIDs: seatIDs}
}

// cancelOne picks one of the bot's live reservations uniformly at
// random and cancels it.
func (s *Simulator) cancelOne(ctx context.Context) Outcome {
	reservations, err := s.ledger.ListByUser(ctx, s.userID)
	if err != nil {
		return Outcome{Action: "cancel", Message: err.Error()}
	}
	if len(reservations) == 0 {
		return Outcome{Action: "cancel", Message: "no reservations to cancel"}
	}
	target := reservations[s.rng.Intn(len(reservations))]
	if err := s.ledger.Cancel(ctx, s.userID, target.SeatID); err != nil {
		return Outcome{Action: "cancel", Message: err.Error(), SeatIDs: []uint64{target.SeatID}}
	}
	return Outcome{Action: "cancel", OK: true, Message: "reservation cancelled", SeatIDs: []uint64{target.SeatID}}
}
