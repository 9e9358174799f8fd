package router

import (
	"github.com/labstack/echo/v4"
)

// registerBookingRoutes maps seat lookups, bookings, stats and imports.
// Staff tokens may book, cancel and import bookings; importing sections
// changes the layout and is admin only.
func registerBookingRoutes(t *echo.Group, h Handlers, mw Middleware, admin echo.MiddlewareFunc) {
	t.GET("/seats/available", h.Booking.AvailableSeats, mw.Cache)
	t.GET("/seats/booked", h.Booking.BookedSeats, mw.Cache)
	t.GET("/seats/:code", h.Booking.Seat)
	t.PATCH("/seats/:code/active", h.Booking.SetSeatActive, admin)

	t.POST("/bookings", h.Booking.Create, mw.RateLimit)
	t.GET("/bookings", h.Booking.List)
	t.GET("/bookings/:bookingID", h.Booking.Get)
	t.POST("/bookings/:bookingID/cancel", h.Booking.Cancel, mw.RateLimit)

	t.GET("/stats", h.Booking.Stats, mw.Cache)

	t.POST("/imports/bookings", h.Import.ImportBookings, mw.RateLimit)
	t.POST("/imports/sections", h.Import.ImportSections, admin, mw.RateLimit)
}
