package service

import (
	"context"
	"log"
	"time"

	"github.com/tripline/bus-seat-booking/internal/clock"
)

// defaultSweepInterval keeps seat availability fresh: with a 10-minute
// hold TTL, sub-minute sweeps bound how long an abandoned hold can
// shadow a seat for other customers.
const defaultSweepInterval = 15 * time.Second

// Sweeper is the time-driven half of hold expiry. Expired holds are
// already inert to every availability check; the sweep clears their
// fields so seat maps shown to other users stay accurate without
// waiting for the next write.
type Sweeper struct {
	seats    SeatStore
	clock    clock.Clock
	interval time.Duration
}

// NewSweeper returns a sweeper over the seat store. A non-positive
// interval falls back to the default.
func NewSweeper(seats SeatStore, clk clock.Clock, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &Sweeper{seats: seats, clock: clk, interval: interval}
}

// Run sweeps on the configured interval until ctx is cancelled. Errors
// are logged and the loop continues; one bad pass must not stop hold
// reclamation for everyone.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Printf("sweeper: running every %s", s.interval)
	for {
		select {
		case <-ctx.Done():
			log.Printf("sweeper: stopped")
			return
		case <-ticker.C:
			n, err := s.seats.ExpireHolds(ctx, s.clock.Now())
			if err != nil {
				log.Printf("sweeper: expire pass failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("sweeper: reclaimed %d expired seat holds", n)
			}
		}
	}
}
