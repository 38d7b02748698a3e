package model

import "time"

// Seat status values as exposed on the seat map. They are derived from
// the occupancy fields rather than stored.
const (
	SeatFree   = "FREE"
	SeatHeld   = "HELD"
	SeatBooked = "BOOKED"
)

// Seat is one physical seat of a bus for a specific schedule. There is
// exactly one row per (bus, schedule, seat number) and the row is never
// deleted while the schedule exists.
//
// Occupancy is tracked by two groups of fields with different lifecycles:
// IsBooked/BookingID describe a durable booking, ReservedUntil/ReservedBy
// describe a temporary hold awaiting payment. A seat never carries both a
// booking and a live hold at the same time.
type Seat struct {
	ID            uint64     // schedule_seats.id
	BusID         uint64     // schedule_seats.bus_id
	ScheduleID    uint64     // schedule_seats.schedule_id
	SeatNumber    string     // schedule_seats.seat_number, e.g. "A1"
	IsBooked      bool       // schedule_seats.is_booked
	BookingID     *string    // schedule_seats.booking_id (nullable back-reference)
	ReservedUntil *time.Time // schedule_seats.reserved_until (nullable)
	ReservedBy    *uint64    // schedule_seats.reserved_by (nullable user id)
	CreatedAt     time.Time  // schedule_seats.created_at
	UpdatedAt     time.Time  // schedule_seats.updated_at
}

// Available reports whether the seat can be granted to a new holder at
// the given instant: not booked and no unexpired hold.
func (s *Seat) Available(now time.Time) bool {
	if s.IsBooked {
		return false
	}
	return s.ReservedUntil == nil || !s.ReservedUntil.After(now)
}

// HeldBy reports whether the seat carries a live hold owned by user at
// the given instant. An expired hold is inert even before the sweep
// clears it.
func (s *Seat) HeldBy(user uint64, now time.Time) bool {
	if s.IsBooked || s.ReservedUntil == nil || s.ReservedBy == nil {
		return false
	}
	return *s.ReservedBy == user && s.ReservedUntil.After(now)
}

// Status derives the seat-map status at the given instant.
func (s *Seat) Status(now time.Time) string {
	switch {
	case s.IsBooked:
		return SeatBooked
	case s.ReservedUntil != nil && s.ReservedUntil.After(now):
		return SeatHeld
	default:
		return SeatFree
	}
}
