package service

import (
	"context"
	"testing"
	"time"

	"github.com/tripline/bus-seat-booking/internal/clock"
)

func TestSweeper_Run(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	env := newFakeEnv(
		heldSeat(1, 1, "A1", 7, now.Add(-time.Minute)),
		heldSeat(1, 1, "A2", 7, now), // lapsed exactly now
		heldSeat(1, 1, "A3", 8, now.Add(time.Minute)),
		bookedSeat(1, 1, "A4", "BKG-x"),
	)
	sw := NewSweeper(&fakeSeatStore{env: env}, clock.NewFixed(now), 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	sw.Run(ctx)

	env.mu.Lock()
	defer env.mu.Unlock()
	for _, n := range []string{"A1", "A2"} {
		s := env.find(1, 1, n)
		if s.ReservedUntil != nil || s.ReservedBy != nil {
			t.Fatalf("expected lapsed hold on %s to be reclaimed", n)
		}
	}
	if s := env.find(1, 1, "A3"); s.ReservedUntil == nil {
		t.Fatalf("live hold must survive the sweep")
	}
	if s := env.find(1, 1, "A4"); !s.IsBooked {
		t.Fatalf("booked seat must survive the sweep")
	}
}

func TestNewSweeper_DefaultInterval(t *testing.T) {
	t.Parallel()

	sw := NewSweeper(&fakeSeatStore{env: newFakeEnv()}, clock.NewSystem(), 0)
	if sw.interval != defaultSweepInterval {
		t.Fatalf("expected default interval %v, got %v", defaultSweepInterval, sw.interval)
	}
}
