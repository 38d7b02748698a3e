// Package model defines the seat, booking and bus records shared by the
// repository and service layers, together with the sentinel errors that
// classify every operation failure. Handlers compare these with
// errors.Is to pick HTTP status codes.
package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrBusNotFound is returned when a bus id resolves to no row.
var ErrBusNotFound = errors.New("bus not found")

// ErrScheduleNotFound is returned when a schedule id resolves to no row
// or the schedule does not belong to the given bus.
var ErrScheduleNotFound = errors.New("schedule not found")

// ErrBookingNotFound is returned when a booking reference resolves to
// no row.
var ErrBookingNotFound = errors.New("booking not found")

// ErrSeatNotFound is returned when one or more requested seat numbers
// do not exist for the bus+schedule, or a partial cancellation names
// seats that are not part of the booking.
var ErrSeatNotFound = errors.New("seat not found")

// ErrSeatUnavailable is returned when one or more requested seats are
// booked or held by someone else at acquire or confirm time. Callers
// should re-query availability and pick different seats.
var ErrSeatUnavailable = errors.New("seat unavailable")

// ErrInvalidState is returned when an operation is not valid for the
// current lifecycle state, e.g. releasing a seat that is not held or
// cancelling an already-cancelled booking.
var ErrInvalidState = errors.New("invalid state")

// ErrConflict is returned by the seat store when a guarded bulk update
// matched fewer rows than requested, meaning a concurrent writer won
// the race. Services surface it to callers as ErrSeatUnavailable.
var ErrConflict = errors.New("conflict")

// SeatsError wraps a sentinel with the seat numbers that caused the
// failure so callers can tell the user exactly which seats to re-pick.
// It matches the wrapped sentinel under errors.Is.
type SeatsError struct {
	Sentinel    error
	SeatNumbers []string
}

func (e *SeatsError) Error() string {
	if len(e.SeatNumbers) == 0 {
		return e.Sentinel.Error()
	}
	return fmt.Sprintf("%s: %s", e.Sentinel.Error(), strings.Join(e.SeatNumbers, ", "))
}

func (e *SeatsError) Unwrap() error { return e.Sentinel }

// SeatsNotFound builds an ErrSeatNotFound carrying the missing numbers.
func SeatsNotFound(seatNumbers []string) error {
	return &SeatsError{Sentinel: ErrSeatNotFound, SeatNumbers: seatNumbers}
}

// SeatsUnavailable builds an ErrSeatUnavailable carrying the losing numbers.
func SeatsUnavailable(seatNumbers []string) error {
	return &SeatsError{Sentinel: ErrSeatUnavailable, SeatNumbers: seatNumbers}
}

// FailedSeats extracts the seat numbers attached to err, if any.
func FailedSeats(err error) []string {
	var se *SeatsError
	if errors.As(err, &se) {
		return se.SeatNumbers
	}
	return nil
}
