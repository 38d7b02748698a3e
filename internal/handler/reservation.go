package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tripline/bus-seat-booking/internal/middleware"
	"github.com/tripline/bus-seat-booking/internal/model"
	"github.com/tripline/bus-seat-booking/internal/service"
)

// ReservationHandler serves the seat lifecycle under a schedule: hold,
// release and confirm. Every mutation invalidates the cached seat map
// for the schedule it touched.
type ReservationHandler struct {
	holds     *service.HoldService
	bookings  *service.BookingService
	schedules ScheduleSource
	cache     *middleware.SeatMapCache
}

// NewReservationHandler wires the handler to the hold and booking
// services.
func NewReservationHandler(holds *service.HoldService, bookings *service.BookingService, schedules ScheduleSource, cache *middleware.SeatMapCache) *ReservationHandler {
	return &ReservationHandler{holds: holds, bookings: bookings, schedules: schedules, cache: cache}
}

type holdRequest struct {
	SeatNumbers []string `json:"seat_numbers"`
}

type confirmRequest struct {
	SeatNumbers   []string `json:"seat_numbers"`
	PaymentStatus string   `json:"payment_status"`
}

// HoldSeats places a temporary all-or-nothing hold on the requested
// seats for the authenticated user.
//
// POST /v1/buses/:busId/schedules/:scheduleId/hold
func (h *ReservationHandler) HoldSeats(c echo.Context) error {
	uid, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	busID, err := pathID(c, "busId")
	if err != nil {
		return err
	}
	scheduleID, err := pathID(c, "scheduleId")
	if err != nil {
		return err
	}
	var req holdRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if len(req.SeatNumbers) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_numbers required"})
	}
	ctx := c.Request().Context()
	if _, err := h.schedules.GetSchedule(ctx, busID, scheduleID); err != nil {
		return respondError(c, err)
	}

	ticket, err := h.holds.Acquire(ctx, busID, scheduleID, req.SeatNumbers, uid)
	if err != nil {
		return respondError(c, err)
	}
	h.cache.Invalidate(ctx, busID, scheduleID)
	return c.JSON(http.StatusCreated, echo.Map{
		"seats":      ticket.SeatNumbers,
		"expires_at": ticket.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// ReleaseSeats frees seats the authenticated user currently holds.
//
// DELETE /v1/buses/:busId/schedules/:scheduleId/hold
func (h *ReservationHandler) ReleaseSeats(c echo.Context) error {
	uid, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	busID, err := pathID(c, "busId")
	if err != nil {
		return err
	}
	scheduleID, err := pathID(c, "scheduleId")
	if err != nil {
		return err
	}
	var req holdRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if len(req.SeatNumbers) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_numbers required"})
	}
	ctx := c.Request().Context()
	if _, err := h.schedules.GetSchedule(ctx, busID, scheduleID); err != nil {
		return respondError(c, err)
	}

	if err := h.holds.Release(ctx, busID, scheduleID, req.SeatNumbers, uid); err != nil {
		return respondError(c, err)
	}
	h.cache.Invalidate(ctx, busID, scheduleID)
	return c.JSON(http.StatusOK, echo.Map{"released": req.SeatNumbers})
}

// ConfirmSeats converts the user's live hold into a booking. The
// payment status defaults to PENDING when the gateway has not settled
// yet.
//
// POST /v1/buses/:busId/schedules/:scheduleId/confirm
func (h *ReservationHandler) ConfirmSeats(c echo.Context) error {
	uid, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	busID, err := pathID(c, "busId")
	if err != nil {
		return err
	}
	scheduleID, err := pathID(c, "scheduleId")
	if err != nil {
		return err
	}
	var req confirmRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if len(req.SeatNumbers) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_numbers required"})
	}
	if req.PaymentStatus == "" {
		req.PaymentStatus = model.PaymentPending
	}
	if !model.ValidConfirmPayment(req.PaymentStatus) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payment_status"})
	}
	ctx := c.Request().Context()
	if _, err := h.schedules.GetSchedule(ctx, busID, scheduleID); err != nil {
		return respondError(c, err)
	}

	booking, err := h.bookings.Confirm(ctx, busID, scheduleID, req.SeatNumbers, uid, req.PaymentStatus)
	if err != nil {
		return respondError(c, err)
	}
	h.cache.Invalidate(ctx, busID, scheduleID)
	return c.JSON(http.StatusCreated, toBookingResponse(booking))
}
