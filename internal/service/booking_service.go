package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/tripline/bus-seat-booking/internal/clock"
	"github.com/tripline/bus-seat-booking/internal/model"
	"github.com/tripline/bus-seat-booking/internal/queue"
)

// CancelResult reports the money to hand back to the payment gateway
// and whether the booking is fully resolved.
type CancelResult struct {
	RefundCents    int64
	FullyCancelled bool
}

// BookingService is the booking ledger: it converts unexpired holds
// into durable bookings and reverses them on cancellation, keeping a
// booking's seat set and fare total consistent at every step.
type BookingService struct {
	seats    SeatStore
	bookings BookingStore
	buses    BusSource
	notify   NotificationPort
	clock    clock.Clock
}

// NewBookingService wires the ledger to its collaborators.
func NewBookingService(seats SeatStore, bookings BookingStore, buses BusSource, notify NotificationPort, clk clock.Clock) *BookingService {
	return &BookingService{seats: seats, bookings: bookings, buses: buses, notify: notify, clock: clk}
}

// Confirm turns the caller's live hold on the named seats into a
// booking. Eligibility is strict: every seat must be held by userID
// with an unexpired hold at write time — a ticket issued minutes ago
// buys nothing if it lapsed 1ms before this call. Fare is seat count
// times the bus's per-seat fare, read now, not cached. The eligibility
// check and the occupancy write are re-guarded inside one transaction,
// so two users can never both confirm the same seat.
func (s *BookingService) Confirm(ctx context.Context, busID, scheduleID uint64, seatNumbers []string, userID uint64, paymentStatus string) (*model.Booking, error) {
	seatNumbers = dedupe(seatNumbers)
	if len(seatNumbers) == 0 {
		return nil, model.ErrInvalidState
	}
	if !model.ValidConfirmPayment(paymentStatus) {
		return nil, model.ErrInvalidState
	}
	now := s.clock.Now()

	var booking *model.Booking
	err := s.seats.WithTx(ctx, func(txCtx context.Context) error {
		seats, err := s.seats.FindSeats(txCtx, busID, scheduleID, seatNumbers)
		if err != nil {
			return err
		}
		var ineligible []string
		for i := range seats {
			if !seats[i].HeldBy(userID, now) {
				ineligible = append(ineligible, seats[i].SeatNumber)
			}
		}
		if len(ineligible) > 0 {
			return model.SeatsUnavailable(ineligible)
		}

		fare, err := s.buses.FarePerSeat(txCtx, busID)
		if err != nil {
			return err
		}
		b := &model.Booking{
			ID:             "BKG-" + uuid.NewString(),
			UserID:         userID,
			BusID:          busID,
			ScheduleID:     scheduleID,
			SeatNumbers:    seatNumbers,
			FareTotalCents: int64(len(seatNumbers)) * fare,
			Status:         model.BookingConfirmed,
			PaymentStatus:  paymentStatus,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := s.bookings.Create(txCtx, b); err != nil {
			return err
		}
		if err := s.seats.ApplyBooking(txCtx, busID, scheduleID, seatNumbers, userID, b.ID, now); err != nil {
			if errors.Is(err, model.ErrConflict) {
				return model.SeatsUnavailable(seatNumbers)
			}
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcastSeatMap(ctx, busID, scheduleID)
	s.emailEvent(ctx, queue.EmailBookingConfirmed, booking, booking.SeatNumbers, booking.FareTotalCents, booking.PaymentStatus)
	return booking, nil
}

// Cancel fully cancels a confirmed booking: status flips to cancelled,
// payment status to refunded, every seat returns to free, and the full
// fare total is refunded. Cancelling twice fails with ErrInvalidState
// so a duplicate refund can never be issued.
func (s *BookingService) Cancel(ctx context.Context, bookingID string, actor uint64) (CancelResult, error) {
	var res CancelResult
	var b *model.Booking
	err := s.seats.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		b, err = s.bookings.GetByID(txCtx, bookingID)
		if err != nil {
			return err
		}
		if b.Status != model.BookingConfirmed {
			return model.ErrInvalidState
		}
		if err := s.bookings.MarkCancelled(txCtx, b.ID, model.PaymentRefunded); err != nil {
			return err
		}
		if err := s.seats.ReleaseBooking(txCtx, b.ID, b.SeatNumbers); err != nil {
			return err
		}
		res = CancelResult{RefundCents: b.FareTotalCents, FullyCancelled: true}
		return nil
	})
	if err != nil {
		return CancelResult{}, err
	}

	log.Printf("ledger: booking %s cancelled by user %d, refund %d cents", b.ID, actor, res.RefundCents)
	s.broadcastSeatMap(ctx, b.BusID, b.ScheduleID)
	s.emailEvent(ctx, queue.EmailBookingCancelled, b, b.SeatNumbers, res.RefundCents, model.PaymentRefunded)
	return res, nil
}

// CancelSeats cancels part of a booking. Every named seat must belong
// to the booking (ErrSeatNotFound lists the mismatches, so a caller can
// never silently cancel nothing). Cancelling the full seat set behaves
// exactly like Cancel; a strict subset shrinks the booking's seat set
// and fare total and refunds count times the per-seat fare.
func (s *BookingService) CancelSeats(ctx context.Context, bookingID string, seatNumbers []string, actor uint64) (CancelResult, error) {
	seatNumbers = dedupe(seatNumbers)
	if len(seatNumbers) == 0 {
		return CancelResult{}, model.ErrInvalidState
	}

	var res CancelResult
	var b *model.Booking
	err := s.seats.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		b, err = s.bookings.GetByID(txCtx, bookingID)
		if err != nil {
			return err
		}
		if b.Status != model.BookingConfirmed {
			return model.ErrInvalidState
		}
		owned := make(map[string]struct{}, len(b.SeatNumbers))
		for _, n := range b.SeatNumbers {
			owned[n] = struct{}{}
		}
		var missing []string
		for _, n := range seatNumbers {
			if _, ok := owned[n]; !ok {
				missing = append(missing, n)
			}
		}
		if len(missing) > 0 {
			return model.SeatsNotFound(missing)
		}

		if len(seatNumbers) == len(b.SeatNumbers) {
			// Cancelling every seat resolves the whole booking.
			if err := s.bookings.MarkCancelled(txCtx, b.ID, model.PaymentRefunded); err != nil {
				return err
			}
			if err := s.seats.ReleaseBooking(txCtx, b.ID, b.SeatNumbers); err != nil {
				return err
			}
			res = CancelResult{RefundCents: b.FareTotalCents, FullyCancelled: true}
			return nil
		}

		fare, err := s.buses.FarePerSeat(txCtx, b.BusID)
		if err != nil {
			return err
		}
		refund := int64(len(seatNumbers)) * fare
		if err := s.bookings.RemoveSeats(txCtx, b.ID, seatNumbers, b.FareTotalCents-refund); err != nil {
			return err
		}
		if err := s.seats.ReleaseBooking(txCtx, b.ID, seatNumbers); err != nil {
			return err
		}
		res = CancelResult{RefundCents: refund, FullyCancelled: false}
		return nil
	})
	if err != nil {
		return CancelResult{}, err
	}

	log.Printf("ledger: booking %s seats %v cancelled by user %d, refund %d cents", b.ID, seatNumbers, actor, res.RefundCents)
	s.broadcastSeatMap(ctx, b.BusID, b.ScheduleID)
	kind := queue.EmailSeatsCancelled
	payment := b.PaymentStatus
	if res.FullyCancelled {
		kind = queue.EmailBookingCancelled
		payment = model.PaymentRefunded
	}
	s.emailEvent(ctx, kind, b, seatNumbers, res.RefundCents, payment)
	return res, nil
}

// broadcastSeatMap pushes the current seat map through the
// notification port. Failures here are the port's to log; a broken
// broker must never undo a committed booking.
func (s *BookingService) broadcastSeatMap(ctx context.Context, busID, scheduleID uint64) {
	seats, err := s.seats.ListSeats(ctx, busID, scheduleID)
	if err != nil {
		log.Printf("ledger: seat map reload for broadcast failed: %v", err)
		return
	}
	s.notify.SeatUpdate(ctx, busID, scheduleID, seats)
}

// emailEvent assembles and emits a booking lifecycle email event,
// enriched with the trip descriptor when the lookup succeeds.
func (s *BookingService) emailEvent(ctx context.Context, kind string, b *model.Booking, seatNumbers []string, amountCents int64, paymentStatus string) {
	ev := queue.BookingEmailEvent{
		Kind:          kind,
		BookingID:     b.ID,
		UserID:        b.UserID,
		BusID:         b.BusID,
		ScheduleID:    b.ScheduleID,
		SeatNumbers:   seatNumbers,
		AmountCents:   amountCents,
		PaymentStatus: paymentStatus,
		OccurredAt:    s.clock.Now().Format(time.RFC3339),
	}
	if trip, err := s.buses.TripInfo(ctx, b.BusID, b.ScheduleID); err == nil {
		ev.BusName = trip.BusName
		ev.Origin = trip.Origin
		ev.Destination = trip.Destination
		ev.DepartsAt = trip.DepartsAt.Format(time.RFC3339)
	} else {
		log.Printf("ledger: trip info lookup for email failed: %v", err)
	}
	s.notify.BookingEmail(ctx, ev)
}
