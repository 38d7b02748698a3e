package model

import "time"

// Booking status values. A booking is created CONFIRMED (there is no
// pending state: an unconfirmed selection lives only as seat holds) and
// can only move to CANCELLED. Bookings are never deleted.
const (
	BookingConfirmed = "CONFIRMED"
	BookingCancelled = "CANCELLED"
)

// Payment status values recorded on a booking. The gateway integration
// itself lives outside this service; the caller reports the outcome at
// confirm time and a full cancellation flips the status to REFUNDED.
const (
	PaymentPending   = "PENDING"
	PaymentPaid      = "PAID"
	PaymentFailed    = "FAILED"
	PaymentCompleted = "COMPLETED"
	PaymentRefunded  = "REFUNDED"
)

// ValidConfirmPayment reports whether s is an acceptable payment status
// for a new booking. REFUNDED is reserved for cancellations.
func ValidConfirmPayment(s string) bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentCompleted:
		return true
	}
	return false
}

// Booking aggregates the seats a user purchased for one bus schedule.
// SeatNumbers preserves insertion order and shrinks under partial
// cancellation; FareTotalCents shrinks with it so that the total always
// equals len(SeatNumbers) times the per-seat fare charged at confirm
// time. Amounts are integer cents throughout to keep repeated refund
// subtraction exact.
type Booking struct {
	ID             string    // bookings.id, "BKG-<uuid>"
	UserID         uint64    // bookings.user_id
	BusID          uint64    // bookings.bus_id
	ScheduleID     uint64    // bookings.schedule_id
	SeatNumbers    []string  // booking_seats.seat_number, insertion order
	FareTotalCents int64     // bookings.fare_total_cents
	Status         string    // bookings.status
	PaymentStatus  string    // bookings.payment_status
	CreatedAt      time.Time // bookings.created_at
	UpdatedAt      time.Time // bookings.updated_at
}
