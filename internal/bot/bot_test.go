package bot

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cine-reservas/internal/model"
	"github.com/iliyamo/cine-reservas/internal/pricing"
	"github.com/iliyamo/cine-reservas/internal/repository"
)

type fakeSeats struct {
	seats []model.Seat
	err   error
}

func (f *fakeSeats) ListAvailable(_ context.Context, _ bool) ([]model.Seat, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.seats, nil
}

// fakeLedger keeps reservations in memory keyed by seat ID.
type fakeLedger struct {
	reserved map[uint64]*string
	seats    *fakeSeats
	err      error
	nextID   uint64
}

func newFakeLedger(seats *fakeSeats) *fakeLedger {
	return &fakeLedger{reserved: map[uint64]*string{}, seats: seats}
}

func (f *fakeLedger) Reserve(_ context.Context, _ uint64, seatIDs []uint64, combo *string) ([]model.Reservation, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]model.Reservation, 0, len(seatIDs))
	for _, id := range seatIDs {
		if _, taken := f.reserved[id]; taken {
			return nil, &repository.SeatsUnavailableError{MissingIDs: []uint64{id}}
		}
	}
	for _, id := range seatIDs {
		f.reserved[id] = combo
		f.nextID++
		out = append(out, model.Reservation{ID: f.nextID, SeatID: id, Combo: combo})
	}
	f.dropFromAvailable(seatIDs)
	return out, nil
}

func (f *fakeLedger) Cancel(_ context.Context, _ uint64, seatID uint64) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := f.reserved[seatID]; !ok {
		return repository.ErrNotFound
	}
	delete(f.reserved, seatID)
	f.seats.seats = append(f.seats.seats, model.Seat{ID: seatID})
	return nil
}

func (f *fakeLedger) ListByUser(_ context.Context, _ uint64) ([]model.Reservation, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]model.Reservation, 0, len(f.reserved))
	for id, combo := range f.reserved {
		out = append(out, model.Reservation{SeatID: id, Combo: combo})
	}
	return out, nil
}

func (f *fakeLedger) dropFromAvailable(seatIDs []uint64) {
	kept := f.seats.seats[:0]
	for _, s := range f.seats.seats {
		taken := false
		for _, id := range seatIDs {
			if s.ID == id {
				taken = true
			}
		}
		if !taken {
			kept = append(kept, s)
		}
	}
	f.seats.seats = kept
}

func seatGrid(n int) []model.Seat {
	seats := make([]model.Seat, n)
	for i := range seats {
		seats[i] = model.Seat{ID: uint64(i + 1), Status: model.SeatStatusAvailable}
	}
	return seats
}

func TestStepActionWeighting(t *testing.T) {
	seats := &fakeSeats{seats: seatGrid(500)}
	ledger := newFakeLedger(seats)
	sim := New(seats, ledger, 1, rand.New(rand.NewSource(42)))

	const steps = 2000
	actions := map[string]int{}
	for i := 0; i < steps; i++ {
		out := sim.Step(context.Background())
		actions[out.Action]++
		require.Contains(t, []string{"reserve", "cancel"}, out.Action)
	}

	// 3:1 reserve:cancel bias, with slack for the seeded sequence.
	assert.Greater(t, actions["reserve"], steps*13/20)
	assert.Greater(t, actions["cancel"], steps*3/20)
}

func TestStepReserveShape(t *testing.T) {
	seats := &fakeSeats{seats: seatGrid(300)}
	ledger := newFakeLedger(seats)
	sim := New(seats, ledger, 1, rand.New(rand.NewSource(7)))

	regular := map[string]bool{}
	for _, name := range pricing.RegularComboNames() {
		regular[name] = true
	}

	for i := 0; i < 500; i++ {
		out := sim.Step(context.Background())
		if out.Action != "reserve" || !out.OK {
			continue
		}
		assert.GreaterOrEqual(t, len(out.SeatIDs), 1)
		assert.LessOrEqual(t, len(out.SeatIDs), 3)
		for _, id := range out.SeatIDs {
			combo := ledger.reserved[id]
			if combo != nil {
				assert.True(t, regular[*combo], "combo %q should be a regular catalog entry", *combo)
			}
		}
	}
}

func TestStepEmptyWorld(t *testing.T) {
	seats := &fakeSeats{}
	ledger := newFakeLedger(seats)
	sim := New(seats, ledger, 1, rand.New(rand.NewSource(3)))

	for i := 0; i < 100; i++ {
		out := sim.Step(context.Background())
		assert.False(t, out.OK)
		switch out.Action {
		case "reserve":
			assert.Equal(t, "no seats available", out.Message)
		case "cancel":
			assert.Equal(t, "no reservations to cancel", out.Message)
		default:
			t.Fatalf("unexpected action %q", out.Action)
		}
	}
}

func TestStepSwallowsLedgerErrors(t *testing.T) {
	boom := errors.New("connection refused")
	seats := &fakeSeats{err: boom}
	ledger := newFakeLedger(seats)
	ledger.err = boom
	sim := New(seats, ledger, 1, rand.New(rand.NewSource(9)))

	for i := 0; i < 50; i++ {
		out := sim.Step(context.Background())
		assert.False(t, out.OK)
		assert.Equal(t, boom.Error(), out.Message)
	}
}
