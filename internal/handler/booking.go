package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tripline/bus-seat-booking/internal/middleware"
	"github.com/tripline/bus-seat-booking/internal/service"
)

// BookingHandler serves booking reads and cancellations. Bookings are
// visible to their owner and to admins; cancellation follows the same
// rule.
type BookingHandler struct {
	ledger *service.BookingService
	store  service.BookingStore
	cache  *middleware.SeatMapCache
}

// NewBookingHandler wires the handler to the ledger and its store.
func NewBookingHandler(ledger *service.BookingService, store service.BookingStore, cache *middleware.SeatMapCache) *BookingHandler {
	return &BookingHandler{ledger: ledger, store: store, cache: cache}
}

type cancelSeatsRequest struct {
	SeatNumbers []string `json:"seat_numbers"`
}

// ListMyBookings returns the authenticated user's bookings, newest
// first.
//
// GET /v1/my-bookings
func (h *BookingHandler) ListMyBookings(c echo.Context) error {
	uid, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	bookings, err := h.store.ListByUser(c.Request().Context(), uid)
	if err != nil {
		return respondError(c, err)
	}
	items := make([]bookingResponse, 0, len(bookings))
	for i := range bookings {
		items = append(items, toBookingResponse(&bookings[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": items})
}

// GetBooking returns one booking. Non-owners without the admin role get
// a 404 rather than a 403 so booking ids stay unguessable.
//
// GET /v1/bookings/:id
func (h *BookingHandler) GetBooking(c echo.Context) error {
	uid, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	b, err := h.store.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	if b.UserID != uid && !isAdmin(c) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	}
	return c.JSON(http.StatusOK, toBookingResponse(b))
}

// CancelBooking cancels a whole booking and refunds the full fare
// total.
//
// DELETE /v1/bookings/:id
func (h *BookingHandler) CancelBooking(c echo.Context) error {
	uid, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	ctx := c.Request().Context()
	b, err := h.store.GetByID(ctx, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	if b.UserID != uid && !isAdmin(c) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	}

	res, err := h.ledger.Cancel(ctx, b.ID, uid)
	if err != nil {
		return respondError(c, err)
	}
	h.cache.Invalidate(ctx, b.BusID, b.ScheduleID)
	return c.JSON(http.StatusOK, echo.Map{
		"booking_id":   b.ID,
		"status":       "CANCELLED",
		"refund_cents": res.RefundCents,
	})
}

// CancelSeats cancels part of a booking. Naming every seat resolves the
// whole booking, same as CancelBooking.
//
// POST /v1/bookings/:id/cancel-seats
func (h *BookingHandler) CancelSeats(c echo.Context) error {
	uid, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	var req cancelSeatsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if len(req.SeatNumbers) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_numbers required"})
	}
	ctx := c.Request().Context()
	b, err := h.store.GetByID(ctx, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	if b.UserID != uid && !isAdmin(c) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	}

	res, err := h.ledger.CancelSeats(ctx, b.ID, req.SeatNumbers, uid)
	if err != nil {
		return respondError(c, err)
	}
	h.cache.Invalidate(ctx, b.BusID, b.ScheduleID)
	return c.JSON(http.StatusOK, echo.Map{
		"booking_id":      b.ID,
		"cancelled_seats": req.SeatNumbers,
		"refund_cents":    res.RefundCents,
		"fully_cancelled": res.FullyCancelled,
	})
}
