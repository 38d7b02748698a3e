package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tripline/bus-seat-booking/internal/model"
	"github.com/tripline/bus-seat-booking/internal/repository"
)

// SeatProvisioner creates the per-schedule seat inventory.
type SeatProvisioner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	CreateBulk(ctx context.Context, seats []model.Seat) error
}

// AdminHandler serves fleet provisioning: buses with their seat layout
// and schedules with their seat inventory.
type AdminHandler struct {
	buses *repository.BusRepo
	seats SeatProvisioner
}

// NewAdminHandler wires the handler to the bus repository and seat
// provisioner.
func NewAdminHandler(buses *repository.BusRepo, seats SeatProvisioner) *AdminHandler {
	return &AdminHandler{buses: buses, seats: seats}
}

type createBusRequest struct {
	Name        string   `json:"name"`
	FareCents   int64    `json:"fare_cents"`
	SeatNumbers []string `json:"seat_numbers"`
}

type createScheduleRequest struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	DepartsAt   string `json:"departs_at"`
}

// CreateBus registers a bus with its physical seat layout and per-seat
// fare.
//
// POST /v1/buses
func (h *AdminHandler) CreateBus(c echo.Context) error {
	var req createBusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Name == "" || req.FareCents <= 0 || len(req.SeatNumbers) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, fare_cents and seat_numbers required"})
	}
	seen := make(map[string]bool, len(req.SeatNumbers))
	for _, n := range req.SeatNumbers {
		if n == "" || seen[n] {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_numbers must be non-empty and unique"})
		}
		seen[n] = true
	}

	bus := &model.Bus{Name: req.Name, FareCents: req.FareCents}
	if err := h.buses.CreateBus(c.Request().Context(), bus, req.SeatNumbers); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"bus_id":     bus.ID,
		"seat_count": len(req.SeatNumbers),
	})
}

// CreateSchedule registers a departure and provisions one seat row per
// physical seat of the bus, all free, in a single transaction.
//
// POST /v1/buses/:busId/schedules
func (h *AdminHandler) CreateSchedule(c echo.Context) error {
	busID, err := pathID(c, "busId")
	if err != nil {
		return err
	}
	var req createScheduleRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Origin == "" || req.Destination == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "origin and destination required"})
	}
	departsAt, err := time.Parse(time.RFC3339, req.DepartsAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "departs_at must be RFC3339"})
	}

	ctx := c.Request().Context()
	if _, err := h.buses.GetBus(ctx, busID); err != nil {
		return respondError(c, err)
	}
	layout, err := h.buses.ListBusSeats(ctx, busID)
	if err != nil {
		return respondError(c, err)
	}
	if len(layout) == 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "bus has no seat layout"})
	}

	sched := &model.Schedule{BusID: busID, Origin: req.Origin, Destination: req.Destination, DepartsAt: departsAt.UTC()}
	err = h.buses.WithTx(ctx, func(txCtx context.Context) error {
		if err := h.buses.CreateSchedule(txCtx, sched); err != nil {
			return err
		}
		seats := make([]model.Seat, 0, len(layout))
		for _, n := range layout {
			seats = append(seats, model.Seat{BusID: busID, ScheduleID: sched.ID, SeatNumber: n})
		}
		return h.seats.CreateBulk(txCtx, seats)
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"schedule_id":       sched.ID,
		"seats_provisioned": len(layout),
	})
}
