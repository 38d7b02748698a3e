package model

import "time"

// Bus is a vehicle with a fixed seat layout and a flat per-seat fare.
// The layout (bus_seats rows) is the template from which every
// schedule's seat inventory is provisioned.
type Bus struct {
	ID        uint64    // buses.id
	Name      string    // buses.name, e.g. "Volvo 9700 #12"
	FareCents int64     // buses.fare_cents, per-seat fare
	CreatedAt time.Time // buses.created_at
	UpdatedAt time.Time // buses.updated_at
}

// Schedule is one departure of a bus. Provisioning a schedule creates a
// schedule_seats row per physical seat of the bus.
type Schedule struct {
	ID          uint64    // schedules.id
	BusID       uint64    // schedules.bus_id
	Origin      string    // schedules.origin
	Destination string    // schedules.destination
	DepartsAt   time.Time // schedules.departs_at
	CreatedAt   time.Time // schedules.created_at
}

// TripInfo is the human-readable descriptor attached to booking emails.
type TripInfo struct {
	BusName     string
	Origin      string
	Destination string
	DepartsAt   time.Time
}
