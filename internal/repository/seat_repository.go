package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/tripline/bus-seat-booking/internal/model"
)

// SeatRepo is the durable source of truth for seat occupancy. Every
// state transition is a single guarded bulk UPDATE whose WHERE clause
// encodes the expected pre-state; when RowsAffected differs from the
// requested seat count a concurrent writer won the race and the caller
// gets model.ErrConflict. The guarded methods must therefore run inside
// Store.WithTx so a partial match is rolled back instead of leaving a
// half-applied hold.
type SeatRepo struct {
	store *Store
}

// NewSeatRepo returns a SeatRepo bound to the shared store.
func NewSeatRepo(store *Store) *SeatRepo { return &SeatRepo{store: store} }

// WithTx exposes the shared transaction scope to the service layer.
func (r *SeatRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.store.WithTx(ctx, fn)
}

const seatColumns = `id, bus_id, schedule_id, seat_number, is_booked, booking_id,
	reserved_until, reserved_by, created_at, updated_at`

func scanSeat(row interface{ Scan(...any) error }) (model.Seat, error) {
	var s model.Seat
	err := row.Scan(
		&s.ID, &s.BusID, &s.ScheduleID, &s.SeatNumber, &s.IsBooked, &s.BookingID,
		&s.ReservedUntil, &s.ReservedBy, &s.CreatedAt, &s.UpdatedAt,
	)
	return s, err
}

// FindSeats loads the named seats of a bus+schedule. When any requested
// number does not exist it fails with ErrSeatNotFound carrying the
// missing numbers, so a typo can never silently shrink a request.
func (r *SeatRepo) FindSeats(ctx context.Context, busID, scheduleID uint64, seatNumbers []string) ([]model.Seat, error) {
	if len(seatNumbers) == 0 {
		return nil, model.SeatsNotFound(nil)
	}
	query := `SELECT ` + seatColumns + ` FROM schedule_seats
	          WHERE bus_id = ? AND schedule_id = ? AND seat_number IN (` + placeholders(len(seatNumbers)) + `)
	          ORDER BY seat_number`
	args := make([]any, 0, len(seatNumbers)+2)
	args = append(args, busID, scheduleID)
	for _, n := range seatNumbers {
		args = append(args, n)
	}
	rows, err := r.store.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find seats: %w", err)
	}
	defer rows.Close()

	found := make(map[string]struct{}, len(seatNumbers))
	var seats []model.Seat
	for rows.Next() {
		s, err := scanSeat(rows)
		if err != nil {
			return nil, fmt.Errorf("scan seat: %w", err)
		}
		found[s.SeatNumber] = struct{}{}
		seats = append(seats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(seats) != len(seatNumbers) {
		missing := make([]string, 0, len(seatNumbers)-len(seats))
		for _, n := range seatNumbers {
			if _, ok := found[n]; !ok {
				missing = append(missing, n)
			}
		}
		return nil, model.SeatsNotFound(missing)
	}
	return seats, nil
}

// ListSeats returns the full seat map of a bus+schedule ordered by seat
// number. An empty result means the schedule was never provisioned.
func (r *SeatRepo) ListSeats(ctx context.Context, busID, scheduleID uint64) ([]model.Seat, error) {
	const query = `SELECT ` + seatColumns + ` FROM schedule_seats
	               WHERE bus_id = ? AND schedule_id = ?
	               ORDER BY seat_number`
	rows, err := r.store.conn(ctx).QueryContext(ctx, query, busID, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("list seats: %w", err)
	}
	defer rows.Close()

	var seats []model.Seat
	for rows.Next() {
		s, err := scanSeat(rows)
		if err != nil {
			return nil, fmt.Errorf("scan seat: %w", err)
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

// ApplyHold stamps hold fields on the seats, conditioned on every one
// of them being free (not booked, no unexpired hold) at write time. The
// guard makes two overlapping acquires serialize on the row locks: the
// loser matches fewer rows and gets ErrConflict.
func (r *SeatRepo) ApplyHold(ctx context.Context, busID, scheduleID uint64, seatNumbers []string, holder uint64, expiresAt, now time.Time) error {
	query := `UPDATE schedule_seats
	          SET reserved_until = ?, reserved_by = ?, updated_at = CURRENT_TIMESTAMP
	          WHERE bus_id = ? AND schedule_id = ? AND seat_number IN (` + placeholders(len(seatNumbers)) + `)
	            AND is_booked = 0
	            AND (reserved_until IS NULL OR reserved_until <= ?)`
	args := make([]any, 0, len(seatNumbers)+5)
	args = append(args, expiresAt, holder, busID, scheduleID)
	for _, n := range seatNumbers {
		args = append(args, n)
	}
	args = append(args, now)
	res, err := r.store.conn(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("apply hold: %w", err)
	}
	if n, _ := res.RowsAffected(); n != int64(len(seatNumbers)) {
		return model.ErrConflict
	}
	return nil
}

// ReleaseHold clears hold fields on seats currently held by holder.
// Seats that are booked, free, or held by someone else are skipped, so
// releasing is idempotent; the count of seats actually cleared is
// returned.
func (r *SeatRepo) ReleaseHold(ctx context.Context, busID, scheduleID uint64, seatNumbers []string, holder uint64) (int64, error) {
	query := `UPDATE schedule_seats
	          SET reserved_until = NULL, reserved_by = NULL, updated_at = CURRENT_TIMESTAMP
	          WHERE bus_id = ? AND schedule_id = ? AND seat_number IN (` + placeholders(len(seatNumbers)) + `)
	            AND is_booked = 0 AND reserved_by = ?`
	args := make([]any, 0, len(seatNumbers)+3)
	args = append(args, busID, scheduleID)
	for _, n := range seatNumbers {
		args = append(args, n)
	}
	args = append(args, holder)
	res, err := r.store.conn(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("release hold: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// ExpireHolds clears hold fields on every unbooked seat whose hold
// lapsed at or before now, across all schedules, and returns how many
// seats were reclaimed. The background sweep calls this on an interval.
func (r *SeatRepo) ExpireHolds(ctx context.Context, now time.Time) (int64, error) {
	const query = `UPDATE schedule_seats
	               SET reserved_until = NULL, reserved_by = NULL, updated_at = CURRENT_TIMESTAMP
	               WHERE is_booked = 0 AND reserved_until IS NOT NULL AND reserved_until <= ?`
	res, err := r.store.conn(ctx).ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("expire holds: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// ApplyBooking converts the seats from held to booked, conditioned on
// every seat carrying an unexpired hold by holder. Eligibility and the
// state write are one statement, so a confirm racing another confirm or
// an acquire has exactly one winner.
func (r *SeatRepo) ApplyBooking(ctx context.Context, busID, scheduleID uint64, seatNumbers []string, holder uint64, bookingID string, now time.Time) error {
	query := `UPDATE schedule_seats
	          SET is_booked = 1, booking_id = ?, reserved_until = NULL, reserved_by = NULL,
	              updated_at = CURRENT_TIMESTAMP
	          WHERE bus_id = ? AND schedule_id = ? AND seat_number IN (` + placeholders(len(seatNumbers)) + `)
	            AND is_booked = 0 AND reserved_by = ? AND reserved_until > ?`
	args := make([]any, 0, len(seatNumbers)+5)
	args = append(args, bookingID, busID, scheduleID)
	for _, n := range seatNumbers {
		args = append(args, n)
	}
	args = append(args, holder, now)
	res, err := r.store.conn(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("apply booking: %w", err)
	}
	if n, _ := res.RowsAffected(); n != int64(len(seatNumbers)) {
		return model.ErrConflict
	}
	return nil
}

// ReleaseBooking frees the named seats of a booking, clearing occupancy
// and any residual hold fields.
func (r *SeatRepo) ReleaseBooking(ctx context.Context, bookingID string, seatNumbers []string) error {
	if len(seatNumbers) == 0 {
		return nil
	}
	query := `UPDATE schedule_seats
	          SET is_booked = 0, booking_id = NULL, reserved_until = NULL, reserved_by = NULL,
	              updated_at = CURRENT_TIMESTAMP
	          WHERE booking_id = ? AND seat_number IN (` + placeholders(len(seatNumbers)) + `)`
	args := make([]any, 0, len(seatNumbers)+1)
	args = append(args, bookingID)
	for _, n := range seatNumbers {
		args = append(args, n)
	}
	if _, err := r.store.conn(ctx).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("release booking: %w", err)
	}
	return nil
}

// CreateBulk provisions seat rows in one statement. Used when a
// schedule is created for a bus; each seat starts free.
func (r *SeatRepo) CreateBulk(ctx context.Context, seats []model.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	query := `INSERT INTO schedule_seats (bus_id, schedule_id, seat_number) VALUES `
	args := make([]any, 0, len(seats)*3)
	for i, s := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, s.BusID, s.ScheduleID, s.SeatNumber)
	}
	if _, err := r.store.conn(ctx).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("provision seats: %w", err)
	}
	return nil
}
