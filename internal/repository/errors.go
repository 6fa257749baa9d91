// Package repository implements the data access and transactional
// core of the booking service. This file defines the error taxonomy
// shared by all repositories. Sentinel values let handlers map each
// failure to a distinct HTTP status, and the typed
// SeatsUnavailableError additionally carries the seat IDs that could
// not be taken so callers can report them.
package repository

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRequest is returned for malformed input (empty seat set,
// duplicate IDs, over-limit batch) before any mutation happens.
// Handlers should translate this into an HTTP 400 response.
var ErrInvalidRequest = errors.New("invalid request")

// ErrUserLimitExceeded is returned when a reservation would push a
// user past the per-user seat cap. No mutation occurs.
var ErrUserLimitExceeded = errors.New("user reservation limit exceeded")

// ErrNotFound is returned when a cancel target or user lookup yields
// no rows. Safe to retry or ignore.
var ErrNotFound = errors.New("not found")

// ErrAlreadyPremium is returned when a premium upgrade is requested
// for an account that is already premium.
var ErrAlreadyPremium = errors.New("user is already premium")

// ErrNotProvisioned is returned when the seat registry is empty.
// This should never happen after startup provisioning.
var ErrNotProvisioned = errors.New("seat registry not provisioned")

// ErrCapacityFull is returned when registering would exceed the
// concurrent live-user cap.
var ErrCapacityFull = errors.New("maximum number of concurrent users reached")

// ErrUsernameExists is returned when the requested username is
// already taken by a live account.
var ErrUsernameExists = errors.New("username already exists")

// SeatsUnavailableError reports a reservation attempt that lost the
// race for one or more seats, either at the availability check or at
// commit time via the unique key on reservations.seat_id. The
// operation had no effect and is retryable by the caller.
type SeatsUnavailableError struct {
	MissingIDs []uint64
}

func (e *SeatsUnavailableError) Error() string {
	if len(e.MissingIDs) == 0 {
		return "seats unavailable"
	}
	parts := make([]string, 0, len(e.MissingIDs))
	for _, id := range e.MissingIDs {
		parts = append(parts, fmt.Sprintf("%d", id))
	}
	return "seats unavailable: " + strings.Join(parts, ",")
}

// isDuplicateKey reports whether err is a MySQL duplicate-entry
// violation (error 1062). Matching on the code substring follows the
// driver's error text format.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "1062")
}
