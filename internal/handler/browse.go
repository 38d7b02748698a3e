package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tripline/bus-seat-booking/internal/clock"
	"github.com/tripline/bus-seat-booking/internal/model"
	"github.com/tripline/bus-seat-booking/internal/service"
)

// BrowseHandler serves the public, unauthenticated seat map.
type BrowseHandler struct {
	seats     service.SeatStore
	schedules ScheduleSource
	clock     clock.Clock
}

// NewBrowseHandler wires the handler to the seat store.
func NewBrowseHandler(seats service.SeatStore, schedules ScheduleSource, clk clock.Clock) *BrowseHandler {
	return &BrowseHandler{seats: seats, schedules: schedules, clock: clk}
}

type seatView struct {
	SeatNumber    string `json:"seat_number"`
	Status        string `json:"status"`
	ReservedUntil string `json:"reserved_until,omitempty"`
}

// GetSeatMap returns every seat of the schedule with its derived
// status. Held seats include the hold deadline so clients can render a
// countdown; holder identity is never exposed.
//
// GET /v1/buses/:busId/schedules/:scheduleId/seats
func (h *BrowseHandler) GetSeatMap(c echo.Context) error {
	busID, err := pathID(c, "busId")
	if err != nil {
		return err
	}
	scheduleID, err := pathID(c, "scheduleId")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if _, err := h.schedules.GetSchedule(ctx, busID, scheduleID); err != nil {
		return respondError(c, err)
	}

	seats, err := h.seats.ListSeats(ctx, busID, scheduleID)
	if err != nil {
		return respondError(c, err)
	}
	now := h.clock.Now()
	views := make([]seatView, 0, len(seats))
	for i := range seats {
		v := seatView{SeatNumber: seats[i].SeatNumber, Status: seats[i].Status(now)}
		if v.Status == model.SeatHeld && seats[i].ReservedUntil != nil {
			v.ReservedUntil = seats[i].ReservedUntil.UTC().Format(time.RFC3339)
		}
		views = append(views, v)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"bus_id":      busID,
		"schedule_id": scheduleID,
		"seats":       views,
	})
}
