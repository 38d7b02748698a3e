// Package queue defines the message payloads exchanged over the broker
// and the background consumer that turns booking events into receipt
// log lines.
package queue

// Queue names. Both are durable; seat updates fan out to realtime
// consumers (websocket gateways and the like), booking emails feed the
// mailer worker.
const (
	SeatUpdateQueue   = "seat.updates"
	BookingEmailQueue = "booking.emails"
)

// Booking email kinds.
const (
	EmailBookingConfirmed = "booking.confirmed"
	EmailBookingCancelled = "booking.cancelled"
	EmailSeatsCancelled   = "booking.seats_cancelled"
)

// SeatState is one seat's derived status inside a SeatUpdateEvent.
type SeatState struct {
	SeatNumber string `json:"seat_number"`
	Status     string `json:"status"` // FREE | HELD | BOOKED
}

// SeatUpdateEvent is published after any booking or cancellation that
// changed a bus+schedule's seat map. It carries the full current map so
// consumers need no prior state.
type SeatUpdateEvent struct {
	BusID      uint64      `json:"bus_id"`
	ScheduleID uint64      `json:"schedule_id"`
	Seats      []SeatState `json:"seats"`
	UpdatedAt  string      `json:"updated_at"`
}

// BookingEmailEvent is published on every booking lifecycle change. It
// contains enough for the mailer to render a receipt without querying
// the primary database.
type BookingEmailEvent struct {
	Kind          string   `json:"kind"`
	BookingID     string   `json:"booking_id"`
	UserID        uint64   `json:"user_id"`
	BusID         uint64   `json:"bus_id"`
	ScheduleID    uint64   `json:"schedule_id"`
	BusName       string   `json:"bus_name,omitempty"`
	Origin        string   `json:"origin,omitempty"`
	Destination   string   `json:"destination,omitempty"`
	DepartsAt     string   `json:"departs_at,omitempty"`
	SeatNumbers   []string `json:"seats"`
	AmountCents   int64    `json:"amount_cents"` // fare on confirm, refund on cancel
	PaymentStatus string   `json:"payment_status"`
	OccurredAt    string   `json:"occurred_at"`
}
