// Package booking implements the seat reservation and ticket
// lifecycle engine: pricing, the occupancy index and the status
// state machine (reserve, direct sale, confirmation, refund and
// timeout cancellation).  All state-changing operations run inside
// a single store transaction so partial application is never
// observable by concurrent staff terminals.
package booking

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by the lifecycle service.  Handlers
// translate these into HTTP responses; the service itself carries
// no presentation logic.
var (
	// ErrNotFound is returned when a ticket, showtime or price rule
	// does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a requested seat is already held
	// by a non-terminal ticket, including when this transaction lost
	// a race and the database rejected the insert.
	ErrConflict = errors.New("seat already taken")
	// ErrInvalidState is returned when the operation is not valid
	// for the ticket's current status (e.g. refunding a reservation).
	ErrInvalidState = errors.New("invalid ticket state")
	// ErrExpired is returned when a reservation is confirmed after
	// its timeout.  The reservation is cancelled as a side effect
	// before the error is returned.
	ErrExpired = errors.New("reservation expired")
	// ErrTooLate is returned when a refund is attempted after the
	// showtime has started.
	ErrTooLate = errors.New("showtime already started")
	// ErrNoSeats is returned when a reservation request carries no
	// usable seat IDs.
	ErrNoSeats = errors.New("no seats requested")
)

// ConflictError reports which seats of a batch were unavailable.
// It matches ErrConflict under errors.Is so callers can treat all
// occupancy conflicts uniformly while still listing the seats.
type ConflictError struct {
	SeatIDs []uint64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("seats unavailable: %v", e.SeatIDs)
}

// Is makes errors.Is(err, ErrConflict) hold for ConflictError values.
func (e *ConflictError) Is(target error) bool { return target == ErrConflict }
