package model

import "time"

// Reservation links a user to exactly one seat, optionally with a
// snack combo.  The `reservations` table carries a unique key on
// seat_id, which is the hard guarantee that a seat is never held by
// two reservations at once.  A reservation dies when it is
// cancelled or when its owning user expires (cascade).
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the reservation.
//  SeatID    – the single seat being held.
//  Combo     – selected combo name (nil when none).
//  CreatedAt – creation timestamp.
type Reservation struct {
	ID        uint64    // reservations.id
	UserID    uint64    // reservations.user_id
	SeatID    uint64    // reservations.seat_id
	Combo     *string   // reservations.combo (nullable)
	CreatedAt time.Time // reservations.created_at
}
