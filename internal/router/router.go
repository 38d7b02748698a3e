// Package router wires the HTTP surface: public browsing, the
// authenticated customer seat lifecycle, and admin provisioning.
package router

import (
	"database/sql"

	"github.com/labstack/echo/v4"

	"github.com/tripline/bus-seat-booking/internal/handler"
	"github.com/tripline/bus-seat-booking/internal/middleware"
)

// Deps bundles everything the routes need.
type Deps struct {
	DB           *sql.DB
	JWTSecret    string
	Reservations *handler.ReservationHandler
	Bookings     *handler.BookingHandler
	Browse       *handler.BrowseHandler
	Admin        *handler.AdminHandler
	RateLimit    echo.MiddlewareFunc
	SeatCache    *middleware.SeatMapCache
}

// Register mounts all routes on the Echo instance.
func Register(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health(d.DB))

	// Public seat map, served from Redis when the cache is warm.
	e.GET("/v1/buses/:busId/schedules/:scheduleId/seats", d.Browse.GetSeatMap, d.SeatCache.Middleware())

	auth := e.Group("/v1",
		middleware.JWTAuth(d.JWTSecret),
		middleware.RequireRole(middleware.RoleCustomer, middleware.RoleAdmin),
	)
	auth.GET("/my-bookings", d.Bookings.ListMyBookings)
	auth.GET("/bookings/:id", d.Bookings.GetBooking)

	// Seat mutations sit behind the rate limiter so one client cannot
	// starve others of inventory by hammering hold/confirm.
	auth.POST("/buses/:busId/schedules/:scheduleId/hold", d.Reservations.HoldSeats, d.RateLimit)
	auth.DELETE("/buses/:busId/schedules/:scheduleId/hold", d.Reservations.ReleaseSeats, d.RateLimit)
	auth.POST("/buses/:busId/schedules/:scheduleId/confirm", d.Reservations.ConfirmSeats, d.RateLimit)
	auth.DELETE("/bookings/:id", d.Bookings.CancelBooking, d.RateLimit)
	auth.POST("/bookings/:id/cancel-seats", d.Bookings.CancelSeats, d.RateLimit)

	admin := e.Group("/v1",
		middleware.JWTAuth(d.JWTSecret),
		middleware.RequireRole(middleware.RoleAdmin),
	)
	admin.POST("/buses", d.Admin.CreateBus)
	admin.POST("/buses/:busId/schedules", d.Admin.CreateSchedule)
}
