package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tripline/bus-seat-booking/internal/clock"
	"github.com/tripline/bus-seat-booking/internal/model"
)

func TestHoldService_Acquire(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ttl := 10 * time.Minute

	makeSvc := func(env *fakeEnv) *HoldService {
		return NewHoldService(&fakeSeatStore{env: env}, clock.NewFixed(now), WithHoldTTL(ttl))
	}

	t.Run("holds free seats", func(t *testing.T) {
		env := newFakeEnv(freeSeat(1, 1, "A1"), freeSeat(1, 1, "A2"))
		svc := makeSvc(env)

		ticket, err := svc.Acquire(context.Background(), 1, 1, []string{"A1", "A2"}, 42)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !ticket.ExpiresAt.Equal(now.Add(ttl)) {
			t.Fatalf("expected expires_at %v, got %v", now.Add(ttl), ticket.ExpiresAt)
		}
		for _, n := range []string{"A1", "A2"} {
			s := env.find(1, 1, n)
			if !s.HeldBy(42, now) {
				t.Fatalf("expected seat %s held by 42", n)
			}
		}
	})

	t.Run("expired hold is acquirable", func(t *testing.T) {
		env := newFakeEnv(heldSeat(1, 1, "A1", 7, now)) // lapsed exactly now
		svc := makeSvc(env)

		if _, err := svc.Acquire(context.Background(), 1, 1, []string{"A1"}, 42); err != nil {
			t.Fatalf("expected takeover of expired hold, got %v", err)
		}
		if !env.find(1, 1, "A1").HeldBy(42, now) {
			t.Fatalf("expected seat reassigned to 42")
		}
	})

	t.Run("live foreign hold blocks", func(t *testing.T) {
		env := newFakeEnv(heldSeat(1, 1, "A1", 7, now.Add(time.Second)))
		svc := makeSvc(env)

		_, err := svc.Acquire(context.Background(), 1, 1, []string{"A1"}, 42)
		if !errors.Is(err, model.ErrSeatUnavailable) {
			t.Fatalf("expected ErrSeatUnavailable, got %v", err)
		}
		if got := model.FailedSeats(err); len(got) != 1 || got[0] != "A1" {
			t.Fatalf("expected failed seats [A1], got %v", got)
		}
	})

	t.Run("all or nothing on partial availability", func(t *testing.T) {
		env := newFakeEnv(freeSeat(1, 1, "A1"), bookedSeat(1, 1, "A2", "BKG-x"))
		svc := makeSvc(env)

		_, err := svc.Acquire(context.Background(), 1, 1, []string{"A1", "A2"}, 42)
		if !errors.Is(err, model.ErrSeatUnavailable) {
			t.Fatalf("expected ErrSeatUnavailable, got %v", err)
		}
		if !env.find(1, 1, "A1").Available(now) {
			t.Fatalf("expected A1 untouched after failed acquire")
		}
	})

	t.Run("unknown seat rejected", func(t *testing.T) {
		env := newFakeEnv(freeSeat(1, 1, "A1"))
		svc := makeSvc(env)

		_, err := svc.Acquire(context.Background(), 1, 1, []string{"A1", "Z9"}, 42)
		if !errors.Is(err, model.ErrSeatNotFound) {
			t.Fatalf("expected ErrSeatNotFound, got %v", err)
		}
		if got := model.FailedSeats(err); len(got) != 1 || got[0] != "Z9" {
			t.Fatalf("expected failed seats [Z9], got %v", got)
		}
	})

	t.Run("duplicates collapse", func(t *testing.T) {
		env := newFakeEnv(freeSeat(1, 1, "A1"))
		svc := makeSvc(env)

		ticket, err := svc.Acquire(context.Background(), 1, 1, []string{"A1", "A1", ""}, 42)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(ticket.SeatNumbers) != 1 || ticket.SeatNumbers[0] != "A1" {
			t.Fatalf("expected deduped [A1], got %v", ticket.SeatNumbers)
		}
	})

	t.Run("empty request rejected", func(t *testing.T) {
		svc := makeSvc(newFakeEnv())
		if _, err := svc.Acquire(context.Background(), 1, 1, nil, 42); !errors.Is(err, model.ErrInvalidState) {
			t.Fatalf("expected ErrInvalidState, got %v", err)
		}
	})

	t.Run("overlapping acquires produce one winner", func(t *testing.T) {
		env := newFakeEnv(freeSeat(1, 1, "A1"))
		svc := makeSvc(env)

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = svc.Acquire(context.Background(), 1, 1, []string{"A1"}, uint64(100+i))
			}(i)
		}
		wg.Wait()

		wins := 0
		for _, err := range errs {
			if err == nil {
				wins++
			} else if !errors.Is(err, model.ErrSeatUnavailable) {
				t.Fatalf("loser should see ErrSeatUnavailable, got %v", err)
			}
		}
		if wins != 1 {
			t.Fatalf("expected exactly one winner, got %d", wins)
		}
	})
}

func TestHoldService_Release(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("releases own live hold", func(t *testing.T) {
		env := newFakeEnv(heldSeat(1, 1, "A1", 42, now.Add(5*time.Minute)))
		svc := NewHoldService(&fakeSeatStore{env: env}, clock.NewFixed(now))

		if err := svc.Release(context.Background(), 1, 1, []string{"A1"}, 42); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !env.find(1, 1, "A1").Available(now) {
			t.Fatalf("expected seat free after release")
		}
	})

	t.Run("rejects foreign, expired and free seats", func(t *testing.T) {
		cases := map[string]model.Seat{
			"foreign hold": heldSeat(1, 1, "A1", 7, now.Add(5*time.Minute)),
			"expired hold": heldSeat(1, 1, "A1", 42, now),
			"free seat":    freeSeat(1, 1, "A1"),
			"booked seat":  bookedSeat(1, 1, "A1", "BKG-x"),
		}
		for name, seat := range cases {
			t.Run(name, func(t *testing.T) {
				env := newFakeEnv(seat)
				svc := NewHoldService(&fakeSeatStore{env: env}, clock.NewFixed(now))

				err := svc.Release(context.Background(), 1, 1, []string{"A1"}, 42)
				if !errors.Is(err, model.ErrInvalidState) {
					t.Fatalf("expected ErrInvalidState, got %v", err)
				}
			})
		}
	})
}

func TestHoldService_TTL(t *testing.T) {
	t.Parallel()

	svc := NewHoldService(&fakeSeatStore{env: newFakeEnv()}, clock.NewSystem())
	if svc.TTL() != defaultHoldTTL {
		t.Fatalf("expected default ttl %v, got %v", defaultHoldTTL, svc.TTL())
	}

	svc = NewHoldService(&fakeSeatStore{env: newFakeEnv()}, clock.NewSystem(), WithHoldTTL(5*time.Minute))
	if svc.TTL() != 5*time.Minute {
		t.Fatalf("expected 5m ttl, got %v", svc.TTL())
	}

	svc = NewHoldService(&fakeSeatStore{env: newFakeEnv()}, clock.NewSystem(), WithHoldTTL(-time.Second))
	if svc.TTL() != defaultHoldTTL {
		t.Fatalf("non-positive ttl should keep the default, got %v", svc.TTL())
	}
}
