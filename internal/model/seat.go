package model

import "fmt"

// Seat statuses as stored in seats.status.  SeatStatusOccupied is
// accepted on read for legacy rows but never produced by this
// service; the reconciler collapses it to one of the other two.
const (
	SeatStatusAvailable = "available"
	SeatStatusReserved  = "reserved"
	SeatStatusOccupied  = "occupied"
)

// Seat describes one seat of the auditorium grid.  Seats are
// uniquely identified by their row letter and number and are
// provisioned once at startup, never deleted.  Status is a derived
// field: it must equal "reserved" exactly when a live reservation
// references the seat, and "available" otherwise.  Readers
// reconcile it before trusting it.
//
// Fields:
//  ID        – primary key identifier.
//  RowLetter – letter designating the row (A..H).
//  Number    – number of the seat within the row (1-based).
//  Status    – derived availability status.
//  IsPremium – whether the seat is a premium location.
// Unlike User, this struct is served to clients as-is, so it
// carries json tags.
type Seat struct {
	ID        uint64 `json:"id"`         // seats.id
	RowLetter string `json:"row"`        // seats.row_letter
	Number    uint32 `json:"number"`     // seats.seat_number
	Status    string `json:"status"`     // seats.status
	IsPremium bool   `json:"is_premium"` // seats.is_premium
}

// Label returns the display name of the seat, e.g. "D4".
func (s Seat) Label() string {
	return fmt.Sprintf("%s%d", s.RowLetter, s.Number)
}
