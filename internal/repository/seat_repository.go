package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/cine-reservas/internal/model"
)

// Auditorium layout provisioned at startup: rows A..H with twelve
// seats each. Rows D and E are the premium block; within them,
// numbers 4..9 are the central range preferred by the premium
// auto-selection.
const (
	layoutRows        = "ABCDEFGH"
	layoutSeatsPerRow = 12

	bestRowFirst   = "D"
	bestRowSecond  = "E"
	centralNumLow  = 4
	centralNumHigh = 9
)

// SeatRepo provides access to the fixed seat grid. Seat status is a
// derived field, so every read path reconciles it against the live
// reservation set before returning (self-healing against crashes
// that leave stale statuses behind).
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo {
	return &SeatRepo{db: db}
}

// Provision inserts the default layout when the table is empty. It
// is idempotent and safe to run on every start.
func (r *SeatRepo) Provision(ctx context.Context) error {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM seats`).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	query := `INSERT INTO seats (row_letter, seat_number, is_premium) VALUES `
	args := make([]interface{}, 0, len(layoutRows)*layoutSeatsPerRow*3)
	first := true
	for _, row := range layoutRows {
		premium := string(row) == bestRowFirst || string(row) == bestRowSecond
		for num := 1; num <= layoutSeatsPerRow; num++ {
			if !first {
				query += ","
			}
			first = false
			query += "(?, ?, ?)"
			args = append(args, string(row), num, premium)
		}
	}
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// Reconcile corrects seats.status to match the existence of a live
// reservation: reserved iff an unexpired user's reservation
// references the seat, available otherwise. Corrections are
// persisted. It is exported on its own so inconsistent state can be
// injected and verified in tests.
func (r *SeatRepo) Reconcile(ctx context.Context) error {
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
	// Stale "reserved" (or legacy "occupied") with no live backing
	// reservation flips back to available.
	_, err = tx.ExecContext(ctx,
		`UPDATE seats s SET s.status = 'available'
		 WHERE s.status <> 'available'
		   AND NOT EXISTS (
		       SELECT 1 FROM reservations res
		       JOIN users u ON u.id = res.user_id
		       WHERE res.seat_id = s.id AND u.expires_at > UTC_TIMESTAMP())`)
	if err != nil {
		return err
	}
	// A live reservation forces reserved.
	_, err = tx.ExecContext(ctx,
		`UPDATE seats s SET s.status = 'reserved'
		 WHERE s.status <> 'reserved'
		   AND EXISTS (
		       SELECT 1 FROM reservations res
		       JOIN users u ON u.id = res.user_id
		       WHERE res.seat_id = s.id AND u.expires_at > UTC_TIMESTAMP())`)
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// ListAll returns every seat ordered by (row, number), reconciling
// statuses first. Returns ErrNotProvisioned when the registry is
// empty.
func (r *SeatRepo) ListAll(ctx context.Context) ([]model.Seat, error) {
	if err := r.Reconcile(ctx); err != nil {
		return nil, err
	}
	seats, err := r.scanSeats(ctx,
		`SELECT id, row_letter, seat_number, status, is_premium
		 FROM seats ORDER BY row_letter, seat_number`)
	if err != nil {
		return nil, err
	}
	if len(seats) == 0 {
		return nil, ErrNotProvisioned
	}
	return seats, nil
}

// ListAvailable returns the reconciled available seats, optionally
// restricted to premium locations, in the same (row, number) order.
func (r *SeatRepo) ListAvailable(ctx context.Context, premiumOnly bool) ([]model.Seat, error) {
	if err := r.Reconcile(ctx); err != nil {
		return nil, err
	}
	q := `SELECT id, row_letter, seat_number, status, is_premium
	      FROM seats WHERE status = 'available'`
	if premiumOnly {
		q += ` AND is_premium = TRUE`
	}
	q += ` ORDER BY row_letter, seat_number`
	return r.scanSeats(ctx, q)
}

func (r *SeatRepo) scanSeats(ctx context.Context, query string, args ...interface{}) ([]model.Seat, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	seats := make([]model.Seat, 0)
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(&s.ID, &s.RowLetter, &s.Number, &s.Status, &s.IsPremium); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return seats, nil
}

// BestAvailableTx locks and returns up to count of the best
// available seats for a premium upgrade. Priority one: the premium
// rows within the central number range, ordered by (row, number).
// When those run out, any other available premium seat tops up the
// selection. Fewer than count is not an error. Rows are locked FOR
// UPDATE so a concurrent reserve for the same seats serializes
// behind the caller's transaction.
func (r *SeatRepo) BestAvailableTx(ctx context.Context, tx *sql.Tx, count int) ([]model.Seat, error) {
	const bestQ = `SELECT id, row_letter, seat_number, status, is_premium
	               FROM seats
	               WHERE status = 'available'
	                 AND row_letter IN (?, ?)
	                 AND seat_number BETWEEN ? AND ?
	               ORDER BY row_letter, seat_number
	               LIMIT ? FOR UPDATE`
	best, err := scanSeatsTx(ctx, tx, bestQ,
		bestRowFirst, bestRowSecond, centralNumLow, centralNumHigh, count)
	if err != nil {
		return nil, err
	}
	if len(best) >= count {
		return best[:count], nil
	}
	remaining := count - len(best)
	q := `SELECT id, row_letter, seat_number, status, is_premium
	      FROM seats
	      WHERE status = 'available' AND is_premium = TRUE`
	args := make([]interface{}, 0, len(best)+1)
	if len(best) > 0 {
		placeholders := make([]string, len(best))
		for i, s := range best {
			placeholders[i] = "?"
			args = append(args, s.ID)
		}
		q += ` AND id NOT IN (` + strings.Join(placeholders, ",") + `)`
	}
	q += ` ORDER BY row_letter, seat_number LIMIT ? FOR UPDATE`
	args = append(args, remaining)
	extra, err := scanSeatsTx(ctx, tx, q, args...)
	if err != nil {
		return nil, err
	}
	return append(best, extra...), nil
}

func scanSeatsTx(ctx context.Context, tx *sql.Tx, query string, args ...interface{}) ([]model.Seat, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var seats []model.Seat
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(&s.ID, &s.RowLetter, &s.Number, &s.Status, &s.IsPremium); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return seats, nil
}

// CountByStatus returns how many seats are in each status. Used by
// the stats endpoint; statuses are whatever is currently stored, so
// callers that need derived values should reconcile first.
func (r *SeatRepo) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM seats GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}
