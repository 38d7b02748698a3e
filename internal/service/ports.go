// Package service holds the seat/booking core: the hold manager that
// grants and expires temporary seat reservations, the booking ledger
// that converts holds into fare-computed bookings, and the background
// sweep. Services depend on narrow store interfaces so the MySQL layer
// can be swapped for fakes in tests.
package service

import (
	"context"
	"time"

	"github.com/tripline/bus-seat-booking/internal/model"
	"github.com/tripline/bus-seat-booking/internal/queue"
)

// SeatStore is the durable seat occupancy record. Implementations must
// make ApplyHold and ApplyBooking atomic check-and-write operations:
// either every requested seat matched the expected pre-state and was
// updated, or nothing changed and model.ErrConflict is returned. The
// guarded methods run inside WithTx.
type SeatStore interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	FindSeats(ctx context.Context, busID, scheduleID uint64, seatNumbers []string) ([]model.Seat, error)
	ListSeats(ctx context.Context, busID, scheduleID uint64) ([]model.Seat, error)
	ApplyHold(ctx context.Context, busID, scheduleID uint64, seatNumbers []string, holder uint64, expiresAt, now time.Time) error
	ReleaseHold(ctx context.Context, busID, scheduleID uint64, seatNumbers []string, holder uint64) (int64, error)
	ExpireHolds(ctx context.Context, now time.Time) (int64, error)
	ApplyBooking(ctx context.Context, busID, scheduleID uint64, seatNumbers []string, holder uint64, bookingID string, now time.Time) error
	ReleaseBooking(ctx context.Context, bookingID string, seatNumbers []string) error
}

// BookingStore persists booking records.
type BookingStore interface {
	Create(ctx context.Context, b *model.Booking) error
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error)
	MarkCancelled(ctx context.Context, id, paymentStatus string) error
	RemoveSeats(ctx context.Context, id string, seatNumbers []string, newFareTotal int64) error
}

// BusSource serves the fare and trip descriptors the ledger reads at
// confirm/cancel time. Values are read fresh on every call, never
// cached by the core.
type BusSource interface {
	FarePerSeat(ctx context.Context, busID uint64) (int64, error)
	TripInfo(ctx context.Context, busID, scheduleID uint64) (model.TripInfo, error)
}

// NotificationPort is the outbound, best-effort side of the core: seat
// map broadcasts and booking lifecycle emails. Implementations log and
// swallow failures; the core never blocks or rolls back on this port.
type NotificationPort interface {
	SeatUpdate(ctx context.Context, busID, scheduleID uint64, seats []model.Seat)
	BookingEmail(ctx context.Context, ev queue.BookingEmailEvent)
}

// dedupe drops empty and repeated seat numbers, preserving first-seen
// order.
func dedupe(seatNumbers []string) []string {
	seen := make(map[string]struct{}, len(seatNumbers))
	out := make([]string, 0, len(seatNumbers))
	for _, n := range seatNumbers {
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
