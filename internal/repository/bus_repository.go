package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tripline/bus-seat-booking/internal/model"
)

// BusRepo persists buses, their physical seat layout and schedules, and
// serves the fare and trip-descriptor lookups the booking ledger reads
// at confirm/cancel time.
type BusRepo struct {
	store *Store
}

// NewBusRepo returns a BusRepo bound to the shared store.
func NewBusRepo(store *Store) *BusRepo { return &BusRepo{store: store} }

// WithTx exposes the shared transaction scope.
func (r *BusRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.store.WithTx(ctx, fn)
}

// CreateBus inserts the bus and its seat layout. On success the bus ID
// is populated.
func (r *BusRepo) CreateBus(ctx context.Context, b *model.Bus, seatNumbers []string) error {
	conn := r.store.conn(ctx)
	const ins = `INSERT INTO buses (name, fare_cents) VALUES (?, ?)`
	res, err := conn.ExecContext(ctx, ins, b.Name, b.FareCents)
	if err != nil {
		return fmt.Errorf("create bus: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	if len(seatNumbers) == 0 {
		return nil
	}
	query := `INSERT INTO bus_seats (bus_id, seat_number) VALUES `
	args := make([]any, 0, len(seatNumbers)*2)
	for i, n := range seatNumbers {
		if i > 0 {
			query += ","
		}
		query += "(?, ?)"
		args = append(args, b.ID, n)
	}
	if _, err := conn.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("create bus seats: %w", err)
	}
	return nil
}

// GetBus loads a bus by id.
func (r *BusRepo) GetBus(ctx context.Context, id uint64) (*model.Bus, error) {
	const q = `SELECT id, name, fare_cents, created_at, updated_at FROM buses WHERE id = ?`
	var b model.Bus
	err := r.store.conn(ctx).QueryRowContext(ctx, q, id).
		Scan(&b.ID, &b.Name, &b.FareCents, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrBusNotFound
		}
		return nil, fmt.Errorf("get bus: %w", err)
	}
	return &b, nil
}

// ListBusSeats returns the physical seat numbers of a bus in layout
// order. Used to provision schedule inventory.
func (r *BusRepo) ListBusSeats(ctx context.Context, busID uint64) ([]string, error) {
	const q = `SELECT seat_number FROM bus_seats WHERE bus_id = ? ORDER BY seat_number`
	rows, err := r.store.conn(ctx).QueryContext(ctx, q, busID)
	if err != nil {
		return nil, fmt.Errorf("list bus seats: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// CreateSchedule inserts a schedule row. On success the schedule ID is
// populated; the caller provisions schedule_seats in the same
// transaction.
func (r *BusRepo) CreateSchedule(ctx context.Context, s *model.Schedule) error {
	const q = `INSERT INTO schedules (bus_id, origin, destination, departs_at) VALUES (?, ?, ?, ?)`
	res, err := r.store.conn(ctx).ExecContext(ctx, q, s.BusID, s.Origin, s.Destination, s.DepartsAt)
	if err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// GetSchedule loads a schedule and enforces that it belongs to the bus.
func (r *BusRepo) GetSchedule(ctx context.Context, busID, scheduleID uint64) (*model.Schedule, error) {
	const q = `SELECT id, bus_id, origin, destination, departs_at, created_at
	           FROM schedules WHERE id = ? AND bus_id = ?`
	var s model.Schedule
	err := r.store.conn(ctx).QueryRowContext(ctx, q, scheduleID, busID).
		Scan(&s.ID, &s.BusID, &s.Origin, &s.Destination, &s.DepartsAt, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrScheduleNotFound
		}
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	return &s, nil
}

// FarePerSeat returns the per-seat fare of a bus in cents. The ledger
// reads this at confirm and partial-cancel time; it is never cached.
func (r *BusRepo) FarePerSeat(ctx context.Context, busID uint64) (int64, error) {
	const q = `SELECT fare_cents FROM buses WHERE id = ?`
	var fare int64
	err := r.store.conn(ctx).QueryRowContext(ctx, q, busID).Scan(&fare)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, model.ErrBusNotFound
		}
		return 0, fmt.Errorf("fare lookup: %w", err)
	}
	return fare, nil
}

// TripInfo assembles the bus/route descriptor attached to booking
// emails.
func (r *BusRepo) TripInfo(ctx context.Context, busID, scheduleID uint64) (model.TripInfo, error) {
	const q = `SELECT b.name, s.origin, s.destination, s.departs_at
	           FROM schedules s JOIN buses b ON b.id = s.bus_id
	           WHERE s.id = ? AND s.bus_id = ?`
	var t model.TripInfo
	err := r.store.conn(ctx).QueryRowContext(ctx, q, scheduleID, busID).
		Scan(&t.BusName, &t.Origin, &t.Destination, &t.DepartsAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.TripInfo{}, model.ErrScheduleNotFound
		}
		return model.TripInfo{}, fmt.Errorf("trip info: %w", err)
	}
	return t, nil
}
