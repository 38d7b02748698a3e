package service

import (
	"context"
	"errors"
	"time"

	"github.com/tripline/bus-seat-booking/internal/clock"
	"github.com/tripline/bus-seat-booking/internal/model"
)

// defaultHoldTTL is how long a hold shields seats while the customer
// completes payment.
const defaultHoldTTL = 10 * time.Minute

// HoldTicket is returned to the caller so the UI can render a countdown
// toward ExpiresAt. The timeout is advisory for the client and
// authoritative for the system: once ExpiresAt passes the seats are
// fair game for anyone, whatever the original holder believes.
type HoldTicket struct {
	SeatNumbers []string
	ExpiresAt   time.Time
}

// HoldService is the only component that moves seats between free and
// held. It never touches booking fields and never caches seat state
// across calls.
type HoldService struct {
	seats SeatStore
	clock clock.Clock
	ttl   time.Duration
}

// HoldServiceOption customizes a HoldService.
type HoldServiceOption func(*HoldService)

// WithHoldTTL overrides the default hold lifetime.
func WithHoldTTL(d time.Duration) HoldServiceOption {
	return func(s *HoldService) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// NewHoldService returns a HoldService over the given seat store.
func NewHoldService(seats SeatStore, clk clock.Clock, opts ...HoldServiceOption) *HoldService {
	s := &HoldService{seats: seats, clock: clk, ttl: defaultHoldTTL}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL reports the configured hold lifetime.
func (s *HoldService) TTL() time.Duration { return s.ttl }

// Acquire places a hold on the named seats for holder, all-or-nothing.
// Every seat must exist (ErrSeatNotFound lists the missing ones) and be
// available right now (ErrSeatUnavailable lists the losing ones). The
// availability check and the hold write run in one transaction with the
// write re-guarded, so two overlapping acquires produce exactly one
// winner.
func (s *HoldService) Acquire(ctx context.Context, busID, scheduleID uint64, seatNumbers []string, holder uint64) (HoldTicket, error) {
	seatNumbers = dedupe(seatNumbers)
	if len(seatNumbers) == 0 {
		return HoldTicket{}, model.ErrInvalidState
	}
	now := s.clock.Now()
	expiresAt := now.Add(s.ttl)

	err := s.seats.WithTx(ctx, func(txCtx context.Context) error {
		seats, err := s.seats.FindSeats(txCtx, busID, scheduleID, seatNumbers)
		if err != nil {
			return err
		}
		var unavailable []string
		for i := range seats {
			if !seats[i].Available(now) {
				unavailable = append(unavailable, seats[i].SeatNumber)
			}
		}
		if len(unavailable) > 0 {
			return model.SeatsUnavailable(unavailable)
		}
		if err := s.seats.ApplyHold(txCtx, busID, scheduleID, seatNumbers, holder, expiresAt, now); err != nil {
			if errors.Is(err, model.ErrConflict) {
				return model.SeatsUnavailable(seatNumbers)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return HoldTicket{}, err
	}
	return HoldTicket{SeatNumbers: seatNumbers, ExpiresAt: expiresAt}, nil
}

// Release explicitly frees held seats before expiry. Every targeted
// seat must currently be held by holder and unexpired; a booked,
// free or foreign-held seat fails the whole request with
// ErrInvalidState. This guards against a stale release racing a
// confirm that already converted the hold into a booking.
func (s *HoldService) Release(ctx context.Context, busID, scheduleID uint64, seatNumbers []string, holder uint64) error {
	seatNumbers = dedupe(seatNumbers)
	if len(seatNumbers) == 0 {
		return model.ErrInvalidState
	}
	now := s.clock.Now()

	return s.seats.WithTx(ctx, func(txCtx context.Context) error {
		seats, err := s.seats.FindSeats(txCtx, busID, scheduleID, seatNumbers)
		if err != nil {
			return err
		}
		for i := range seats {
			if !seats[i].HeldBy(holder, now) {
				return model.ErrInvalidState
			}
		}
		_, err = s.seats.ReleaseHold(txCtx, busID, scheduleID, seatNumbers, holder)
		return err
	})
}
