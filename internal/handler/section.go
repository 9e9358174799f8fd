package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theater-seat-booking/internal/model"
	"github.com/iliyamo/theater-seat-booking/internal/service"
)

// SectionHandler serves section layout and the seat inventory views.
//
// Creating or reconfiguring a section (re)generates its seats. A layout
// change is destructive: seats and their bookings are replaced, and the
// response reports how many bookings were discarded.
type SectionHandler struct {
	Catalog   *service.Catalog
	Generator *service.SeatGenerator
	Inventory *service.Inventory
}

func NewSectionHandler(catalog *service.Catalog, generator *service.SeatGenerator, inventory *service.Inventory) *SectionHandler {
	if catalog == nil || generator == nil || inventory == nil {
		panic("nil dependency passed to NewSectionHandler")
	}
	return &SectionHandler{Catalog: catalog, Generator: generator, Inventory: inventory}
}

type sectionRequest struct {
	Name        string `json:"name" validate:"required,max=60"`
	Description string `json:"description" validate:"max=255"`
	SeatTypeID  uint64 `json:"seat_type_id" validate:"required"`
	Rows        int    `json:"rows"`
	SeatsPerRow int    `json:"seats_per_row"`
}

// rows and seats_per_row are checked by the generator so the error names
// them the same way for HTTP, CLI and import callers.

func (r sectionRequest) section(theaterID, id uint64) model.Section {
	return model.Section{
		ID:          id,
		TheaterID:   theaterID,
		Name:        r.Name,
		Description: r.Description,
		SeatTypeID:  r.SeatTypeID,
		RowsCount:   r.Rows,
		SeatsPerRow: r.SeatsPerRow,
	}
}

func (h *SectionHandler) Create(c echo.Context) error {
	tid, err := theaterID(c)
	if err != nil {
		return err
	}
	var req sectionRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	res, err := h.Generator.CreateSection(c.Request().Context(), req.section(tid, 0))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *SectionHandler) Update(c echo.Context) error {
	tid, err := theaterID(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "sectionID")
	if err != nil {
		return err
	}
	var req sectionRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	res, err := h.Generator.UpdateSection(c.Request().Context(), req.section(tid, id))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// Regenerate rebuilds a section's seats without changing its layout.
func (h *SectionHandler) Regenerate(c echo.Context) error {
	tid, err := theaterID(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "sectionID")
	if err != nil {
		return err
	}
	res, err := h.Generator.Generate(c.Request().Context(), tid, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (h *SectionHandler) Delete(c echo.Context) error {
	tid, err := theaterID(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "sectionID")
	if err != nil {
		return err
	}
	if err := h.Generator.DeleteSection(c.Request().Context(), tid, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

type activeRequest struct {
	Active *bool `json:"active" validate:"required"`
}

func (h *SectionHandler) SetActive(c echo.Context) error {
	tid, err := theaterID(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "sectionID")
	if err != nil {
		return err
	}
	var req activeRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := h.Catalog.SetSectionActive(ctx, tid, id, *req.Active); err != nil {
		return err
	}
	sec, err := h.Catalog.GetSection(ctx, tid, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sec)
}

func (h *SectionHandler) List(c echo.Context) error {
	tid, err := theaterID(c)
	if err != nil {
		return err
	}
	list, err := h.Catalog.ListSections(c.Request().Context(), tid)
	if err != nil {
		return err
	}
	if list == nil {
		list = []model.Section{}
	}
	return c.JSON(http.StatusOK, list)
}

func (h *SectionHandler) Get(c echo.Context) error {
	tid, err := theaterID(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "sectionID")
	if err != nil {
		return err
	}
	sec, err := h.Catalog.GetSection(c.Request().Context(), tid, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sec)
}

// Seats lists a section's seats; ?available=true keeps only bookable ones.
func (h *SectionHandler) Seats(c echo.Context) error {
	tid, err := theaterID(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "sectionID")
	if err != nil {
		return err
	}
	onlyFree, _ := strconv.ParseBool(c.QueryParam("available"))
	seats, err := h.Inventory.SectionSeats(c.Request().Context(), tid, id, onlyFree)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, nonNilSeats(seats))
}

func (h *SectionHandler) RowSeats(c echo.Context) error {
	tid, err := theaterID(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "sectionID")
	if err != nil {
		return err
	}
	row, err := strconv.Atoi(c.Param("row"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid row")
	}
	seats, err := h.Inventory.RowSeats(c.Request().Context(), tid, id, row)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, nonNilSeats(seats))
}

func nonNilSeats(s []model.Seat) []model.Seat {
	if s == nil {
		return []model.Seat{}
	}
	return s
}
