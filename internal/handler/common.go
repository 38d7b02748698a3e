// Package handler maps the HTTP surface onto the seat and booking
// services: request decoding, identity extraction, and the translation
// of domain sentinel errors into status codes and JSON bodies.
package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tripline/bus-seat-booking/internal/middleware"
	"github.com/tripline/bus-seat-booking/internal/model"
)

// ScheduleSource resolves a schedule within a bus. Handlers use it to
// turn bad path ids into 404s before touching seat state.
type ScheduleSource interface {
	GetSchedule(ctx context.Context, busID, scheduleID uint64) (*model.Schedule, error)
}

// getUserID reads the authenticated user id injected by the JWT
// middleware.
func getUserID(c echo.Context) (uint64, bool) {
	uid, ok := c.Get("user_id").(uint64)
	return uid, ok
}

// isAdmin reports whether the request carries the admin role.
func isAdmin(c echo.Context) bool {
	role, _ := c.Get("role").(string)
	return role == middleware.RoleAdmin
}

// pathID parses a numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

// respondError translates domain errors into HTTP responses. Seat-level
// failures carry the offending seat numbers so the client can re-pick.
func respondError(c echo.Context, err error) error {
	body := echo.Map{"error": err.Error()}
	if seats := model.FailedSeats(err); len(seats) > 0 {
		body["seats"] = seats
	}
	switch {
	case errors.Is(err, model.ErrBusNotFound),
		errors.Is(err, model.ErrScheduleNotFound),
		errors.Is(err, model.ErrBookingNotFound),
		errors.Is(err, model.ErrSeatNotFound):
		return c.JSON(http.StatusNotFound, body)
	case errors.Is(err, model.ErrSeatUnavailable),
		errors.Is(err, model.ErrInvalidState),
		errors.Is(err, model.ErrConflict):
		return c.JSON(http.StatusConflict, body)
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return err
	}
	log.Printf("handler: %s %s: %v", c.Request().Method, c.Path(), err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// bookingResponse is the wire shape of a booking.
type bookingResponse struct {
	BookingID      string   `json:"booking_id"`
	UserID         uint64   `json:"user_id"`
	BusID          uint64   `json:"bus_id"`
	ScheduleID     uint64   `json:"schedule_id"`
	Seats          []string `json:"seats"`
	FareTotalCents int64    `json:"fare_total_cents"`
	Status         string   `json:"status"`
	PaymentStatus  string   `json:"payment_status"`
	CreatedAt      string   `json:"created_at"`
}

func toBookingResponse(b *model.Booking) bookingResponse {
	return bookingResponse{
		BookingID:      b.ID,
		UserID:         b.UserID,
		BusID:          b.BusID,
		ScheduleID:     b.ScheduleID,
		Seats:          b.SeatNumbers,
		FareTotalCents: b.FareTotalCents,
		Status:         b.Status,
		PaymentStatus:  b.PaymentStatus,
		CreatedAt:      b.CreatedAt.UTC().Format(time.RFC3339),
	}
}
