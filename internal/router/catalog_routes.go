package router

import (
	"github.com/labstack/echo/v4"
)

// registerCatalogRoutes maps theater management: the theater itself, its
// seat types, its settings and its sections.  Reads are open to every
// token scoped to the theater; writes require the admin role.
func registerCatalogRoutes(t *echo.Group, h Handlers, mw Middleware, admin echo.MiddlewareFunc) {
	t.GET("", h.Theater.Get)
	t.PUT("", h.Theater.Update, admin)
	t.DELETE("", h.Theater.Delete, admin)

	// Seat types carry the base price of every seat generated from them.
	t.GET("/seat-types", h.Theater.ListSeatTypes)
	t.POST("/seat-types", h.Theater.CreateSeatType, admin)
	t.PUT("/seat-types/:seatTypeID", h.Theater.UpdateSeatType, admin)
	t.DELETE("/seat-types/:seatTypeID", h.Theater.DeleteSeatType, admin)

	// Per theater settings such as booking_enabled.
	t.GET("/config", h.Theater.ListConfig)
	t.GET("/config/:key", h.Theater.GetConfig)
	t.PUT("/config/:key", h.Theater.SetConfig, admin)
	t.DELETE("/config/:key", h.Theater.DeleteConfig, admin)

	// Sections.  Create, update and regenerate rebuild the seat grid.
	t.GET("/sections", h.Section.List)
	t.POST("/sections", h.Section.Create, admin)
	t.GET("/sections/:sectionID", h.Section.Get)
	t.PUT("/sections/:sectionID", h.Section.Update, admin)
	t.DELETE("/sections/:sectionID", h.Section.Delete, admin)
	t.POST("/sections/:sectionID/regenerate", h.Section.Regenerate, admin)
	t.PATCH("/sections/:sectionID/active", h.Section.SetActive, admin)

	// Seat maps are the hottest reads and are served through the cache.
	t.GET("/sections/:sectionID/seats", h.Section.Seats, mw.Cache)
	t.GET("/sections/:sectionID/rows/:row/seats", h.Section.RowSeats, mw.Cache)
}
