// Package repository defines error values that are reused across the
// repositories. These sentinels let handlers distinguish failure
// scenarios without string matching: not-found conditions become 404
// responses, ErrEmailExists becomes 409, and CapacityError becomes a
// 400 carrying the number of seats still available.
package repository

import (
	"errors"
	"fmt"
)

// ErrEventNotFound is returned when an event id does not denote an
// existing row. Handlers translate this into HTTP 404.
var ErrEventNotFound = errors.New("event not found")

// ErrBookingNotFound is returned when a booking id does not denote an
// existing row, or the row is not visible to the caller.
var ErrBookingNotFound = errors.New("booking not found")

// ErrEmailExists is returned by UserRepo.Create when the email is
// already taken. Handlers translate this into HTTP 409.
var ErrEmailExists = errors.New("email already exists")

// ErrEventHasBookings is returned when deleting an event whose
// booked_seats counter is non-zero.
var ErrEventHasBookings = errors.New("event has existing bookings")

// ErrNegativeSeats signals that an adjustment would drive booked_seats
// below zero. The booking path always passes positive deltas, so this
// is only reachable through compensation bugs and is surfaced loudly.
var ErrNegativeSeats = errors.New("booked seats would become negative")

// CapacityError is returned when a seat adjustment would push
// booked_seats past seat_capacity. Available reports how many seats
// were left at decision time so the rejection message can include it.
type CapacityError struct {
	Available uint32
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("not enough seats left to book, available seats: %d", e.Available)
}
