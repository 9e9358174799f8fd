package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theater-seat-booking/internal/middleware"
	"github.com/iliyamo/theater-seat-booking/internal/model"
	"github.com/iliyamo/theater-seat-booking/internal/service"
)

// TheaterHandler serves theaters, their seat types and their settings.
type TheaterHandler struct {
	Catalog *service.Catalog
}

// NewTheaterHandler constructs a TheaterHandler and panics if the
// catalog is missing.
func NewTheaterHandler(catalog *service.Catalog) *TheaterHandler {
	if catalog == nil {
		panic("nil catalog passed to NewTheaterHandler")
	}
	return &TheaterHandler{Catalog: catalog}
}

type theaterRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Location string `json:"location" validate:"max=255"`
}

// ---- theaters ----

func (h *TheaterHandler) Create(c echo.Context) error {
	var req theaterRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	t := model.Theater{Name: req.Name, Location: req.Location}
	if err := h.Catalog.CreateTheater(c.Request().Context(), &t); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, t)
}

// List returns every theater the caller may see: all of them for an
// admin, the scoped ones for staff.
func (h *TheaterHandler) List(c echo.Context) error {
	all, err := h.Catalog.ListTheaters(c.Request().Context())
	if err != nil {
		return err
	}
	claims := middleware.ClaimsFrom(c)
	out := make([]model.Theater, 0, len(all))
	for _, t := range all {
		if claims == nil || claims.CanAccess(t.ID) {
			out = append(out, t)
		}
	}
	return c.JSON(http.StatusOK, out)
}

func (h *TheaterHandler) Get(c echo.Context) error {
	id, err := theaterID(c)
	if err != nil {
		return err
	}
	t, err := h.Catalog.GetTheater(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}

func (h *TheaterHandler) Update(c echo.Context) error {
	id, err := theaterID(c)
	if err != nil {
		return err
	}
	var req theaterRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	t := model.Theater{ID: id, Name: req.Name, Location: req.Location}
	if err := h.Catalog.UpdateTheater(c.Request().Context(), &t); err != nil {
		return err
	}
	fresh, err := h.Catalog.GetTheater(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, fresh)
}

func (h *TheaterHandler) Delete(c echo.Context) error {
	id, err := theaterID(c)
	if err != nil {
		return err
	}
	if err := h.Catalog.DeleteTheater(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ---- seat types ----

type seatTypeRequest struct {
	Name        string `json:"name" validate:"required,max=60"`
	Description string `json:"description" validate:"max=255"`
	PriceCents  int64  `json:"price_cents" validate:"gte=0"`
}

func (h *TheaterHandler) CreateSeatType(c echo.Context) error {
	tid, err := theaterID(c)
	if err != nil {
		return err
	}
	var req seatTypeRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	st := model.SeatType{TheaterID: tid, Name: req.Name, Description: req.Description, PriceCents: req.PriceCents}
	if err := h.Catalog.CreateSeatType(c.Request().Context(), &st); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, st)
}

func (h *TheaterHandler) ListSeatTypes(c echo.Context) error {
	tid, err := theaterID(c)
	if err != nil {
		return err
	}
	list, err := h.Catalog.ListSeatTypes(c.Request().Context(), tid)
	if err != nil {
		return err
	}
	if list == nil {
		list = []model.SeatType{}
	}
	return c.JSON(http.StatusOK, list)
}

func (h *TheaterHandler) UpdateSeatType(c echo.Context) error {
	tid, err := theaterID(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "seatTypeID")
	if err != nil {
		return err
	}
	var req seatTypeRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	st := model.SeatType{ID: id, TheaterID: tid, Name: req.Name, Description: req.Description, PriceCents: req.PriceCents}
	if err := h.Catalog.UpdateSeatType(c.Request().Context(), &st); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, st)
}

func (h *TheaterHandler) DeleteSeatType(c echo.Context) error {
	tid, err := theaterID(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "seatTypeID")
	if err != nil {
		return err
	}
	if err := h.Catalog.DeleteSeatType(c.Request().Context(), tid, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ---- configuration ----

type configRequest struct {
	Value string `json:"value" validate:"max=255"`
}

func (h *TheaterHandler) ListConfig(c echo.Context) error {
	tid, err := theaterID(c)
	if err != nil {
		return err
	}
	list, err := h.Catalog.ListConfig(c.Request().Context(), tid)
	if err != nil {
		return err
	}
	if list == nil {
		list = []model.TheaterConfig{}
	}
	return c.JSON(http.StatusOK, list)
}

func (h *TheaterHandler) GetConfig(c echo.Context) error {
	tid, err := theaterID(c)
	if err != nil {
		return err
	}
	key := c.Param("key")
	v, err := h.Catalog.GetConfig(c.Request().Context(), tid, key)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, model.TheaterConfig{TheaterID: tid, Key: key, Value: v})
}

func (h *TheaterHandler) SetConfig(c echo.Context) error {
	tid, err := theaterID(c)
	if err != nil {
		return err
	}
	var req configRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	cfg := model.TheaterConfig{TheaterID: tid, Key: c.Param("key"), Value: req.Value}
	if err := h.Catalog.SetConfig(c.Request().Context(), cfg); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cfg)
}

func (h *TheaterHandler) DeleteConfig(c echo.Context) error {
	tid, err := theaterID(c)
	if err != nil {
		return err
	}
	if err := h.Catalog.DeleteConfig(c.Request().Context(), tid, c.Param("key")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
