package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/theater-seat-booking/internal/handler"    // handlers that implement each endpoint
	"github.com/iliyamo/theater-seat-booking/internal/middleware" // JWT authentication, scoping and role enforcement
	"github.com/iliyamo/theater-seat-booking/internal/utils"
)

// Handlers bundles every HTTP handler the API exposes.
type Handlers struct {
	Health  *handler.HealthHandler
	Theater *handler.TheaterHandler
	Section *handler.SectionHandler
	Booking *handler.BookingHandler
	Import  *handler.ImportHandler
}

// Middleware carries the per-route middleware built from configuration.
// Cache wraps inventory reads, Invalidate runs on every write inside a
// theater and RateLimit guards the booking and import endpoints.  Any of
// them may be a pass-through when Redis is unavailable.
type Middleware struct {
	JWTSecret  string
	Cache      echo.MiddlewareFunc
	Invalidate echo.MiddlewareFunc
	RateLimit  echo.MiddlewareFunc
}

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance: the liveness and readiness probes.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	// Map GET /healthz to the liveness handler.  Load balancers poll it
	// to verify that the process is up.
	e.GET("/healthz", h.Health)
	// GET /readyz additionally checks the database.
	e.GET("/readyz", h.Ready)
}

// Register wires the whole API.  Everything under /api/v1 requires a
// valid access token; everything under /api/v1/theaters/:theaterID is
// further restricted to the theaters the token covers.
func Register(e *echo.Echo, h Handlers, mw Middleware) {
	mw.Cache = orPass(mw.Cache)
	mw.Invalidate = orPass(mw.Invalidate)
	mw.RateLimit = orPass(mw.RateLimit)

	RegisterRoutes(e, h.Health)

	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuth(mw.JWTSecret))
	api.Use(middleware.RequireRole(utils.RoleAdmin, utils.RoleStaff))

	admin := middleware.RequireRole(utils.RoleAdmin)

	// The theater list is filtered by the handler; creating a theater
	// has no theater scope yet so it is admin only.
	api.GET("/theaters", h.Theater.List)
	api.POST("/theaters", h.Theater.Create, admin)

	t := api.Group("/theaters/:theaterID")
	t.Use(middleware.TheaterScope("theaterID"))
	t.Use(mw.Invalidate)

	registerCatalogRoutes(t, h, mw, admin)
	registerBookingRoutes(t, h, mw, admin)
}

func orPass(m echo.MiddlewareFunc) echo.MiddlewareFunc {
	if m == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return m
}
