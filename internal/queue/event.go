// Package queue defines message payloads exchanged over the message broker.
package queue

// ReservationActivityEvent is published after a successful reserve,
// cancel or premium upgrade. It carries enough for downstream
// consumers to log or analyze the activity without querying the
// primary database.
type ReservationActivityEvent struct {
	Action     string   `json:"action"` // reserve | cancel | upgrade
	UserID     uint64   `json:"user_id"`
	Username   string   `json:"username,omitempty"`
	SeatLabels []string `json:"seats,omitempty"`
	Combo      string   `json:"combo,omitempty"`
	TotalCents uint32   `json:"total_cents,omitempty"`
	At         string   `json:"at"` // RFC3339 UTC
}
