package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/cine-reservas/internal/model"
)

// VIPCombo is attached to every seat auto-selected during a premium
// upgrade.
const VIPCombo = "Combo VIP"

// MaxUpgradeSeats bounds the auto-selection size on upgrade.
const MaxUpgradeSeats = 4

// PremiumRepo performs the premium upgrade: flag the user, release
// their current reservations and re-seat them on the best available
// seats, all inside one transaction so concurrent reservers are
// serialized exactly like a normal Reserve.
type PremiumRepo struct {
	db    *sql.DB
	seats *SeatRepo
}

// NewPremiumRepo constructs a PremiumRepo sharing the seat
// repository's best-seat selection.
func NewPremiumRepo(db *sql.DB, seats *SeatRepo) *PremiumRepo {
	return &PremiumRepo{db: db, seats: seats}
}

// Upgrade marks the user premium and, when autoSelect is set,
// cancels all of their reservations and books up to seatsCount best
// seats under the VIP combo. Returning fewer seats than requested is
// a best-effort outcome, not an error. A second upgrade attempt
// fails with ErrAlreadyPremium and mutates nothing.
func (r *PremiumRepo) Upgrade(ctx context.Context, userID uint64, autoSelect bool, seatsCount int) ([]model.Seat, error) {
	if autoSelect && (seatsCount < 1 || seatsCount > MaxUpgradeSeats) {
		return nil, ErrInvalidRequest
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var isPremium bool
	err = tx.QueryRowContext(ctx,
		`SELECT is_premium FROM users WHERE id = ? FOR UPDATE`, userID).Scan(&isPremium)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if isPremium {
		return nil, ErrAlreadyPremium
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET is_premium = TRUE WHERE id = ?`, userID); err != nil {
		return nil, err
	}

	var selected []model.Seat
	if autoSelect {
		if _, err := releaseAllForUserTx(ctx, tx, userID); err != nil {
			return nil, err
		}
		selected, err = r.seats.BestAvailableTx(ctx, tx, seatsCount)
		if err != nil {
			return nil, err
		}
		if len(selected) > 0 {
			combo := VIPCombo
			seatIDs := make([]uint64, len(selected))
			for i, s := range selected {
				seatIDs[i] = s.ID
			}
			if err := createBulkTx(ctx, tx, userID, seatIDs, &combo); err != nil {
				if isDuplicateKey(err) {
					return nil, &SeatsUnavailableError{MissingIDs: seatIDs}
				}
				return nil, err
			}
			if err := setSeatStatusTx(ctx, tx, seatIDs, model.SeatStatusReserved); err != nil {
				return nil, err
			}
			for i := range selected {
				selected[i].Status = model.SeatStatusReserved
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return selected, nil
}
