package handler // handler defines http handlers

import (
	"net/http" // status codes
	"strings"

	"github.com/labstack/echo/v4" // echo context

	"github.com/iliyamo/theater-seat-booking/internal/model"
	"github.com/iliyamo/theater-seat-booking/internal/service"
)

// BookingHandler serves seat lookups, bookings, cancellations and stats.
type BookingHandler struct {
	Booking   *service.BookingService
	Ledger    *service.Ledger
	Catalog   *service.Catalog
	Inventory *service.Inventory
}

func NewBookingHandler(booking *service.BookingService, ledger *service.Ledger, catalog *service.Catalog, inventory *service.Inventory) *BookingHandler {
	if booking == nil || ledger == nil || catalog == nil || inventory == nil { // every dependency is required
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{Booking: booking, Ledger: ledger, Catalog: catalog, Inventory: inventory}
}

type customerRequest struct {
	Name  string `json:"name" validate:"required,max=120"`
	Email string `json:"email" validate:"omitempty,email,max=255"`
	Phone string `json:"phone" validate:"max=40"`
}

// bookingRequest books one seat.  When Section and Row are given the
// request walks the full section -> row -> seat flow and the seat must
// belong to that row; otherwise the seat code alone is claimed.
// PriceCents overrides the seat type price; omit it to use the type's
// price, send 0 for a free seat.
type bookingRequest struct {
	Section    string          `json:"section"`
	Row        int             `json:"row"`
	SeatCode   string          `json:"seat_code" validate:"required"`
	Customer   customerRequest `json:"customer"`
	PriceCents *int64          `json:"price_cents" validate:"omitempty,gte=0"`
}

// bookingResponse reports the final attempt state alongside the booking.
type bookingResponse struct {
	State   service.BookingState `json:"state"`
	Booking *model.Booking       `json:"booking"`
}

// Create books a seat.  Rejections are returned with the usual error
// mapping: 409 for a taken seat, 404 for an unknown one, 403 while
// booking is disabled.
func (h *BookingHandler) Create(c echo.Context) error {
	tid, err := theaterID(c) // read the scoped theater id
	if err != nil {
		return err
	}
	var req bookingRequest
	if err := bindValid(c, &req); err != nil { // bind and validate the body
		return err
	}
	ctx := c.Request().Context()
	customer := model.Customer{Name: req.Customer.Name, Email: req.Customer.Email, Phone: req.Customer.Phone}

	attempt, err := h.Booking.Begin(ctx, tid) // refuses when booking_enabled=false
	if err != nil {
		return err
	}
	if strings.TrimSpace(req.Section) == "" { // seat code only: claim directly
		b, err := h.Booking.Book(ctx, tid, service.BookingRequest{
			SeatCode:           req.SeatCode,
			Customer:           customer,
			PriceOverrideCents: req.PriceCents,
		})
		if err != nil {
			return err
		}
		return c.JSON(http.StatusCreated, bookingResponse{State: service.StateRecorded, Booking: b})
	}

	if err := attempt.SelectSection(ctx, req.Section); err != nil {
		return err
	}
	if err := attempt.SelectRow(ctx, req.Row); err != nil {
		return err
	}
	b, err := attempt.Book(ctx, req.SeatCode, customer, req.PriceCents)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, bookingResponse{State: attempt.State, Booking: b})
}

// Cancel releases a booking's seat.  A missing, foreign or already
// cancelled booking yields 404.
func (h *BookingHandler) Cancel(c echo.Context) error {
	tid, err := theaterID(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "bookingID")
	if err != nil {
		return err
	}
	ok, err := h.Ledger.Cancel(c.Request().Context(), tid, id)
	if err != nil {
		return err
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "booking not found or already cancelled")
	}
	return c.JSON(http.StatusOK, echo.Map{"cancelled": true, "booking_id": id})
}

func (h *BookingHandler) List(c echo.Context) error {
	tid, err := theaterID(c)
	if err != nil {
		return err
	}
	status := model.BookingStatus(strings.ToUpper(c.QueryParam("status")))
	switch status {
	case "", model.BookingConfirmed, model.BookingCancelled:
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "status must be CONFIRMED or CANCELLED")
	}
	list, err := h.Inventory.Bookings(c.Request().Context(), tid, status)
	if err != nil {
		return err
	}
	if list == nil {
		list = []model.Booking{}
	}
	return c.JSON(http.StatusOK, list)
}

func (h *BookingHandler) Get(c echo.Context) error {
	tid, err := theaterID(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "bookingID")
	if err != nil {
		return err
	}
	b, err := h.Inventory.Booking(c.Request().Context(), tid, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, b)
}

// ---- seats ----

func (h *BookingHandler) AvailableSeats(c echo.Context) error {
	tid, err := theaterID(c)
	if err != nil {
		return err
	}
	seats, err := h.Inventory.AvailableSeats(c.Request().Context(), tid)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, nonNilSeats(seats))
}

func (h *BookingHandler) BookedSeats(c echo.Context) error {
	tid, err := theaterID(c)
	if err != nil {
		return err
	}
	seats, err := h.Inventory.BookedSeats(c.Request().Context(), tid)
	if err != nil {
		return err
	}
	if seats == nil {
		seats = []model.BookedSeat{}
	}
	return c.JSON(http.StatusOK, seats)
}

func (h *BookingHandler) Seat(c echo.Context) error {
	tid, err := theaterID(c)
	if err != nil {
		return err
	}
	s, err := h.Inventory.Seat(c.Request().Context(), tid, c.Param("code"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s)
}

func (h *BookingHandler) SetSeatActive(c echo.Context) error {
	tid, err := theaterID(c)
	if err != nil {
		return err
	}
	var req activeRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	code := c.Param("code")
	if err := h.Catalog.SetSeatActive(ctx, tid, code, *req.Active); err != nil {
		return err
	}
	s, err := h.Inventory.Seat(ctx, tid, code)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s)
}

// Stats returns occupancy and confirmed revenue.
func (h *BookingHandler) Stats(c echo.Context) error {
	tid, err := theaterID(c)
	if err != nil {
		return err
	}
	st, err := h.Inventory.Stats(c.Request().Context(), tid)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, st)
}
