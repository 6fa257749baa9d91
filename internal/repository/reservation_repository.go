package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/cine-reservas/internal/model"
)

// MaxSeatsPerUser caps how many live reservations a single user may
// hold at once.
const MaxSeatsPerUser = 6

// ReservationRepo is the reservation ledger: the single place where
// seats are taken and released. Every mutating operation runs as one
// transaction, and the unique key on reservations.seat_id backs the
// mutual-exclusion invariant so an application-level race can never
// double-book a seat; it surfaces as SeatsUnavailableError instead.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a ReservationRepo bound to the given
// database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// validateSeatSet rejects malformed reservation requests before any
// transaction is opened: empty sets, sets over the per-user cap and
// duplicate or zero IDs.
func validateSeatSet(seatIDs []uint64) error {
	if len(seatIDs) == 0 || len(seatIDs) > MaxSeatsPerUser {
		return ErrInvalidRequest
	}
	seen := make(map[uint64]struct{}, len(seatIDs))
	for _, id := range seatIDs {
		if id == 0 {
			return ErrInvalidRequest
		}
		if _, dup := seen[id]; dup {
			return ErrInvalidRequest
		}
		seen[id] = struct{}{}
	}
	return nil
}

// Reserve books the requested seats for the user as one atomic unit:
// either every seat is reserved or none are.
//
// Inside a single transaction the requested seats are re-read
// restricted to status available and locked FOR UPDATE, which
// serializes the check-then-act against concurrent reservers for the
// same seats. A size mismatch aborts with SeatsUnavailableError
// carrying the missing IDs. The per-user cap is then verified, the
// reservation rows are inserted (a duplicate-key failure on seat_id
// means the race was lost at commit time and is reported as
// SeatsUnavailableError, never a silent overwrite) and the seats are
// flipped to reserved.
func (r *ReservationRepo) Reserve(ctx context.Context, userID uint64, seatIDs []uint64, combo *string) ([]model.Reservation, error) {
	if err := validateSeatSet(seatIDs); err != nil {
		return nil, err
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

	available, err := lockAvailableTx(ctx, tx, seatIDs)
	if err != nil {
		return nil, err
	}
	if len(available) != len(seatIDs) {
		return nil, &SeatsUnavailableError{MissingIDs: missingFrom(seatIDs, available)}
	}

	existing, err := countByUserTx(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if existing+len(seatIDs) > MaxSeatsPerUser {
		return nil, ErrUserLimitExceeded
	}

	if err := createBulkTx(ctx, tx, userID, seatIDs, combo); err != nil {
		if isDuplicateKey(err) {
			// Another transaction committed a reservation for one of
			// these seats between our lock and insert.
			return nil, &SeatsUnavailableError{MissingIDs: seatIDs}
		}
		return nil, err
	}
	if err := setSeatStatusTx(ctx, tx, seatIDs, model.SeatStatusReserved); err != nil {
		return nil, err
	}

	created, err := reservationsBySeatsTx(ctx, tx, userID, seatIDs)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		if isDuplicateKey(err) {
			return nil, &SeatsUnavailableError{MissingIDs: seatIDs}
		}
		return nil, err
	}
	committed = true
	return created, nil
}

// Cancel releases the caller's reservation for the given seat and
// flips the seat back to available, atomically. When no such
// reservation exists it returns ErrNotFound with no mutation, so a
// repeated cancel is harmless.
func (r *ReservationRepo) Cancel(ctx context.Context, userID, seatID uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM reservations WHERE user_id = ? AND seat_id = ?`, userID, seatID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if err := setSeatStatusTx(ctx, tx, []uint64{seatID}, model.SeatStatusAvailable); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// ListByUser returns the user's reservations. Order is stable for a
// given snapshot (seat id ascending).
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, seat_id, combo, created_at
		 FROM reservations WHERE user_id = ? ORDER BY seat_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReservations(rows)
}

// ReservationDetail pairs a reservation with its seat for display
// and pricing.
type ReservationDetail struct {
	ID          uint64    `json:"id"`
	SeatID      uint64    `json:"seat_id"`
	SeatLabel   string    `json:"seat"`
	SeatPremium bool      `json:"seat_premium"`
	Combo       *string   `json:"combo,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// DetailsByUser returns the user's reservations joined with seat
// position data, ordered by (row, number) for deterministic output.
func (r *ReservationRepo) DetailsByUser(ctx context.Context, userID uint64) ([]ReservationDetail, error) {
	const q = `SELECT res.id, res.seat_id, s.row_letter, s.seat_number, s.is_premium, res.combo, res.created_at
	           FROM reservations res
	           JOIN seats s ON s.id = res.seat_id
	           WHERE res.user_id = ?
	           ORDER BY s.row_letter, s.seat_number`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]ReservationDetail, 0)
	for rows.Next() {
		var d ReservationDetail
		var seat model.Seat
		var combo sql.NullString
		if err := rows.Scan(&d.ID, &d.SeatID, &seat.RowLetter, &seat.Number, &d.SeatPremium, &combo, &d.CreatedAt); err != nil {
			return nil, err
		}
		d.SeatLabel = seat.Label()
		if combo.Valid {
			c := combo.String
			d.Combo = &c
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}

// CountAll returns the total number of reservation rows. Used by the
// stats endpoint.
func (r *ReservationRepo) CountAll(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reservations`).Scan(&n)
	return n, err
}

// ---- transaction-scoped primitives, shared with the premium path ----

// lockAvailableTx re-reads the requested seats restricted to status
// available and locks the rows FOR UPDATE. Only IDs that were truly
// available at lock time come back.
func lockAvailableTx(ctx context.Context, tx *sql.Tx, seatIDs []uint64) ([]uint64, error) {
	placeholders := make([]string, len(seatIDs))
	args := make([]interface{}, len(seatIDs))
	for i, id := range seatIDs {
		placeholders[i] = "?"
		args[i] = id
	}
	q := `SELECT id FROM seats WHERE id IN (` + strings.Join(placeholders, ",") + `)
	      AND status = 'available' FOR UPDATE`
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// countByUserTx counts the user's reservations inside the
// transaction, locking the rows so a concurrent reserve by the same
// user cannot slip past the cap.
func countByUserTx(ctx context.Context, tx *sql.Tx, userID uint64) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reservations WHERE user_id = ? FOR UPDATE`, userID).Scan(&n)
	return n, err
}

// createBulkTx inserts one reservation row per seat in a single
// statement. The unique key on seat_id makes this the commit-time
// arbiter between racing reservers.
func createBulkTx(ctx context.Context, tx *sql.Tx, userID uint64, seatIDs []uint64, combo *string) error {
	query := `INSERT INTO reservations (user_id, seat_id, combo) VALUES `
	args := make([]interface{}, 0, len(seatIDs)*3)
	for i, sid := range seatIDs {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, userID, sid, combo)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// setSeatStatusTx updates the stored status for the given seats.
func setSeatStatusTx(ctx context.Context, tx *sql.Tx, seatIDs []uint64, status string) error {
	if len(seatIDs) == 0 {
		return nil
	}
	placeholders := make([]string, len(seatIDs))
	args := make([]interface{}, 0, len(seatIDs)+1)
	args = append(args, status)
	for i, id := range seatIDs {
		placeholders[i] = "?"
		args = append(args, id)
	}
	q := `UPDATE seats SET status = ? WHERE id IN (` + strings.Join(placeholders, ",") + `)`
	_, err := tx.ExecContext(ctx, q, args...)
	return err
}

// releaseAllForUserTx deletes every reservation the user holds and
// frees the seats. Returns the released seat IDs.
func releaseAllForUserTx(ctx context.Context, tx *sql.Tx, userID uint64) ([]uint64, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT seat_id FROM reservations WHERE user_id = ? FOR UPDATE`, userID)
	if err != nil {
		return nil, err
	}
	var seatIDs []uint64
	for rows.Next() {
		var sid uint64
		if scanErr := rows.Scan(&sid); scanErr != nil {
			rows.Close()
			return nil, scanErr
		}
		seatIDs = append(seatIDs, sid)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if len(seatIDs) == 0 {
		return nil, nil
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM reservations WHERE user_id = ?`, userID); err != nil {
		return nil, err
	}
	if err := setSeatStatusTx(ctx, tx, seatIDs, model.SeatStatusAvailable); err != nil {
		return nil, err
	}
	return seatIDs, nil
}

// reservationsBySeatsTx reads back the rows just inserted so callers
// get fully populated records (ids, timestamps).
func reservationsBySeatsTx(ctx context.Context, tx *sql.Tx, userID uint64, seatIDs []uint64) ([]model.Reservation, error) {
	placeholders := make([]string, len(seatIDs))
	args := make([]interface{}, 0, len(seatIDs)+1)
	args = append(args, userID)
	for i, id := range seatIDs {
		placeholders[i] = "?"
		args = append(args, id)
	}
	q := `SELECT id, user_id, seat_id, combo, created_at FROM reservations
	      WHERE user_id = ? AND seat_id IN (` + strings.Join(placeholders, ",") + `)
	      ORDER BY seat_id`
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReservations(rows)
}

func scanReservations(rows *sql.Rows) ([]model.Reservation, error) {
	result := make([]model.Reservation, 0)
	for rows.Next() {
		var res model.Reservation
		var combo sql.NullString
		if err := rows.Scan(&res.ID, &res.UserID, &res.SeatID, &combo, &res.CreatedAt); err != nil {
			return nil, err
		}
		if combo.Valid {
			c := combo.String
			res.Combo = &c
		}
		result = append(result, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// missingFrom returns the requested IDs absent from got.
func missingFrom(requested, got []uint64) []uint64 {
	have := make(map[uint64]struct{}, len(got))
	for _, id := range got {
		have[id] = struct{}{}
	}
	var missing []uint64
	for _, id := range requested {
		if _, ok := have[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
