package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tripline/bus-seat-booking/internal/model"
)

// BookingRepo persists booking records and their seat rows. Booking ids
// are caller-generated opaque references with a uniqueness constraint;
// rows are never deleted, cancellation only flips status.
type BookingRepo struct {
	store *Store
}

// NewBookingRepo returns a BookingRepo bound to the shared store.
func NewBookingRepo(store *Store) *BookingRepo { return &BookingRepo{store: store} }

// WithTx exposes the shared transaction scope to the service layer.
func (r *BookingRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.store.WithTx(ctx, fn)
}

// Create inserts the booking and one booking_seats row per seat,
// preserving the request's seat order.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	const ins = `INSERT INTO bookings (id, user_id, bus_id, schedule_id, fare_total_cents, status, payment_status)
	             VALUES (?, ?, ?, ?, ?, ?, ?)`
	conn := r.store.conn(ctx)
	if _, err := conn.ExecContext(ctx, ins,
		b.ID, b.UserID, b.BusID, b.ScheduleID, b.FareTotalCents, b.Status, b.PaymentStatus,
	); err != nil {
		return fmt.Errorf("create booking: %w", err)
	}
	if len(b.SeatNumbers) == 0 {
		return nil
	}
	query := `INSERT INTO booking_seats (booking_id, seat_number) VALUES `
	args := make([]any, 0, len(b.SeatNumbers)*2)
	for i, n := range b.SeatNumbers {
		if i > 0 {
			query += ","
		}
		query += "(?, ?)"
		args = append(args, b.ID, n)
	}
	if _, err := conn.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("create booking seats: %w", err)
	}
	return nil
}

// GetByID loads a booking with its seat numbers in insertion order.
func (r *BookingRepo) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	const q = `SELECT id, user_id, bus_id, schedule_id, fare_total_cents, status, payment_status, created_at, updated_at
	           FROM bookings WHERE id = ?`
	conn := r.store.conn(ctx)
	var b model.Booking
	err := conn.QueryRowContext(ctx, q, id).Scan(
		&b.ID, &b.UserID, &b.BusID, &b.ScheduleID, &b.FareTotalCents,
		&b.Status, &b.PaymentStatus, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrBookingNotFound
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}
	const qs = `SELECT seat_number FROM booking_seats WHERE booking_id = ? ORDER BY id`
	rows, err := conn.QueryContext(ctx, qs, id)
	if err != nil {
		return nil, fmt.Errorf("get booking seats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		b.SeatNumbers = append(b.SeatNumbers, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &b, nil
}

// ListByUser returns a user's bookings, newest first, each with its
// seat numbers.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	const q = `SELECT b.id, b.user_id, b.bus_id, b.schedule_id, b.fare_total_cents,
	                  b.status, b.payment_status, b.created_at, b.updated_at, bs.seat_number
	           FROM bookings b
	           LEFT JOIN booking_seats bs ON bs.booking_id = b.id
	           WHERE b.user_id = ?
	           ORDER BY b.created_at DESC, b.id, bs.id`
	rows, err := r.store.conn(ctx).QueryContext(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var out []model.Booking
	index := make(map[string]int)
	for rows.Next() {
		var b model.Booking
		var seat sql.NullString
		if err := rows.Scan(
			&b.ID, &b.UserID, &b.BusID, &b.ScheduleID, &b.FareTotalCents,
			&b.Status, &b.PaymentStatus, &b.CreatedAt, &b.UpdatedAt, &seat,
		); err != nil {
			return nil, err
		}
		i, ok := index[b.ID]
		if !ok {
			i = len(out)
			index[b.ID] = i
			out = append(out, b)
		}
		if seat.Valid {
			out[i].SeatNumbers = append(out[i].SeatNumbers, seat.String)
		}
	}
	return out, rows.Err()
}

// MarkCancelled flips a confirmed booking to cancelled and records the
// final payment status. The status guard in the WHERE clause makes a
// duplicate cancellation fail with ErrInvalidState instead of issuing a
// second refund.
func (r *BookingRepo) MarkCancelled(ctx context.Context, id, paymentStatus string) error {
	const q = `UPDATE bookings
	           SET status = ?, payment_status = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ? AND status = ?`
	res, err := r.store.conn(ctx).ExecContext(ctx, q,
		model.BookingCancelled, paymentStatus, id, model.BookingConfirmed)
	if err != nil {
		return fmt.Errorf("cancel booking: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrInvalidState
	}
	return nil
}

// RemoveSeats drops the named seats from a booking and rewrites its
// fare total. Partial cancellation keeps the booking confirmed.
func (r *BookingRepo) RemoveSeats(ctx context.Context, id string, seatNumbers []string, newFareTotal int64) error {
	if len(seatNumbers) == 0 {
		return nil
	}
	query := `DELETE FROM booking_seats WHERE booking_id = ? AND seat_number IN (` + placeholders(len(seatNumbers)) + `)`
	args := make([]any, 0, len(seatNumbers)+1)
	args = append(args, id)
	for _, n := range seatNumbers {
		args = append(args, n)
	}
	conn := r.store.conn(ctx)
	if _, err := conn.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("remove booking seats: %w", err)
	}
	const upd = `UPDATE bookings SET fare_total_cents = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	if _, err := conn.ExecContext(ctx, upd, newFareTotal, id); err != nil {
		return fmt.Errorf("reduce booking fare: %w", err)
	}
	return nil
}
