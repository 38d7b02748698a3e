package service

import (
	"context"
	"sync"
	"time"

	"github.com/tripline/bus-seat-booking/internal/model"
	"github.com/tripline/bus-seat-booking/internal/queue"
)

// fakeEnv is the in-memory seat and booking state shared by the fake
// stores. WithTx serializes transactions with a mutex and restores a
// snapshot on error, mirroring the rollback behavior of the real store.
type fakeEnv struct {
	mu       sync.Mutex
	seats    []model.Seat
	bookings []model.Booking
}

func newFakeEnv(seats ...model.Seat) *fakeEnv {
	return &fakeEnv{seats: append([]model.Seat{}, seats...)}
}

func (e *fakeEnv) snapshot() ([]model.Seat, []model.Booking) {
	seats := make([]model.Seat, len(e.seats))
	copy(seats, e.seats)
	bookings := make([]model.Booking, len(e.bookings))
	for i := range e.bookings {
		bookings[i] = e.bookings[i]
		bookings[i].SeatNumbers = append([]string{}, e.bookings[i].SeatNumbers...)
	}
	return seats, bookings
}

func (e *fakeEnv) find(busID, scheduleID uint64, seatNumber string) *model.Seat {
	for i := range e.seats {
		s := &e.seats[i]
		if s.BusID == busID && s.ScheduleID == scheduleID && s.SeatNumber == seatNumber {
			return s
		}
	}
	return nil
}

// freeSeat builds an unoccupied seat row.
func freeSeat(busID, scheduleID uint64, seatNumber string) model.Seat {
	return model.Seat{BusID: busID, ScheduleID: scheduleID, SeatNumber: seatNumber}
}

// heldSeat builds a seat carrying a hold.
func heldSeat(busID, scheduleID uint64, seatNumber string, holder uint64, until time.Time) model.Seat {
	s := freeSeat(busID, scheduleID, seatNumber)
	s.ReservedBy = &holder
	s.ReservedUntil = &until
	return s
}

// bookedSeat builds a seat attached to a booking.
func bookedSeat(busID, scheduleID uint64, seatNumber, bookingID string) model.Seat {
	s := freeSeat(busID, scheduleID, seatNumber)
	s.IsBooked = true
	s.BookingID = &bookingID
	return s
}

type fakeSeatStore struct {
	env *fakeEnv
}

func (f *fakeSeatStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.env.mu.Lock()
	defer f.env.mu.Unlock()
	seats, bookings := f.env.snapshot()
	if err := fn(ctx); err != nil {
		f.env.seats, f.env.bookings = seats, bookings
		return err
	}
	return nil
}

func (f *fakeSeatStore) FindSeats(_ context.Context, busID, scheduleID uint64, seatNumbers []string) ([]model.Seat, error) {
	out := make([]model.Seat, 0, len(seatNumbers))
	var missing []string
	for _, n := range seatNumbers {
		s := f.env.find(busID, scheduleID, n)
		if s == nil {
			missing = append(missing, n)
			continue
		}
		out = append(out, *s)
	}
	if len(missing) > 0 {
		return nil, model.SeatsNotFound(missing)
	}
	return out, nil
}

func (f *fakeSeatStore) ListSeats(_ context.Context, busID, scheduleID uint64) ([]model.Seat, error) {
	var out []model.Seat
	for i := range f.env.seats {
		s := f.env.seats[i]
		if s.BusID == busID && s.ScheduleID == scheduleID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSeatStore) ApplyHold(_ context.Context, busID, scheduleID uint64, seatNumbers []string, holder uint64, expiresAt, now time.Time) error {
	var targets []*model.Seat
	for _, n := range seatNumbers {
		s := f.env.find(busID, scheduleID, n)
		if s == nil || !s.Available(now) {
			return model.ErrConflict
		}
		targets = append(targets, s)
	}
	for _, s := range targets {
		until, by := expiresAt, holder
		s.ReservedUntil = &until
		s.ReservedBy = &by
	}
	return nil
}

func (f *fakeSeatStore) ReleaseHold(_ context.Context, busID, scheduleID uint64, seatNumbers []string, holder uint64) (int64, error) {
	var n int64
	for _, num := range seatNumbers {
		s := f.env.find(busID, scheduleID, num)
		if s == nil || s.IsBooked || s.ReservedBy == nil || *s.ReservedBy != holder {
			continue
		}
		s.ReservedUntil = nil
		s.ReservedBy = nil
		n++
	}
	return n, nil
}

func (f *fakeSeatStore) ExpireHolds(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for i := range f.env.seats {
		s := &f.env.seats[i]
		if s.ReservedUntil != nil && !s.ReservedUntil.After(now) {
			s.ReservedUntil = nil
			s.ReservedBy = nil
			n++
		}
	}
	return n, nil
}

func (f *fakeSeatStore) ApplyBooking(_ context.Context, busID, scheduleID uint64, seatNumbers []string, holder uint64, bookingID string, now time.Time) error {
	var targets []*model.Seat
	for _, n := range seatNumbers {
		s := f.env.find(busID, scheduleID, n)
		if s == nil || !s.HeldBy(holder, now) {
			return model.ErrConflict
		}
		targets = append(targets, s)
	}
	for _, s := range targets {
		id := bookingID
		s.IsBooked = true
		s.BookingID = &id
		s.ReservedUntil = nil
		s.ReservedBy = nil
	}
	return nil
}

func (f *fakeSeatStore) ReleaseBooking(_ context.Context, bookingID string, seatNumbers []string) error {
	names := make(map[string]bool, len(seatNumbers))
	for _, n := range seatNumbers {
		names[n] = true
	}
	for i := range f.env.seats {
		s := &f.env.seats[i]
		if s.BookingID != nil && *s.BookingID == bookingID && names[s.SeatNumber] {
			s.IsBooked = false
			s.BookingID = nil
		}
	}
	return nil
}

type fakeBookingStore struct {
	env *fakeEnv
}

func (f *fakeBookingStore) Create(_ context.Context, b *model.Booking) error {
	cp := *b
	cp.SeatNumbers = append([]string{}, b.SeatNumbers...)
	f.env.bookings = append(f.env.bookings, cp)
	return nil
}

func (f *fakeBookingStore) GetByID(_ context.Context, id string) (*model.Booking, error) {
	for i := range f.env.bookings {
		if f.env.bookings[i].ID == id {
			cp := f.env.bookings[i]
			cp.SeatNumbers = append([]string{}, cp.SeatNumbers...)
			return &cp, nil
		}
	}
	return nil, model.ErrBookingNotFound
}

func (f *fakeBookingStore) ListByUser(_ context.Context, userID uint64) ([]model.Booking, error) {
	var out []model.Booking
	for i := range f.env.bookings {
		if f.env.bookings[i].UserID == userID {
			out = append(out, f.env.bookings[i])
		}
	}
	return out, nil
}

func (f *fakeBookingStore) MarkCancelled(_ context.Context, id, paymentStatus string) error {
	for i := range f.env.bookings {
		b := &f.env.bookings[i]
		if b.ID != id {
			continue
		}
		if b.Status != model.BookingConfirmed {
			return model.ErrInvalidState
		}
		b.Status = model.BookingCancelled
		b.PaymentStatus = paymentStatus
		return nil
	}
	return model.ErrBookingNotFound
}

func (f *fakeBookingStore) RemoveSeats(_ context.Context, id string, seatNumbers []string, newFareTotal int64) error {
	names := make(map[string]bool, len(seatNumbers))
	for _, n := range seatNumbers {
		names[n] = true
	}
	for i := range f.env.bookings {
		b := &f.env.bookings[i]
		if b.ID != id {
			continue
		}
		kept := b.SeatNumbers[:0]
		for _, n := range b.SeatNumbers {
			if !names[n] {
				kept = append(kept, n)
			}
		}
		b.SeatNumbers = kept
		b.FareTotalCents = newFareTotal
		return nil
	}
	return model.ErrBookingNotFound
}

type fakeBusSource struct {
	fare    int64
	fareErr error
	trip    model.TripInfo
	tripErr error
}

func (f *fakeBusSource) FarePerSeat(context.Context, uint64) (int64, error) {
	return f.fare, f.fareErr
}

func (f *fakeBusSource) TripInfo(context.Context, uint64, uint64) (model.TripInfo, error) {
	return f.trip, f.tripErr
}

type fakeNotifier struct {
	mu          sync.Mutex
	seatUpdates int
	emails      []queue.BookingEmailEvent
}

func (f *fakeNotifier) SeatUpdate(context.Context, uint64, uint64, []model.Seat) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seatUpdates++
}

func (f *fakeNotifier) BookingEmail(_ context.Context, ev queue.BookingEmailEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emails = append(f.emails, ev)
}
