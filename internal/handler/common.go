package handler // handler defines the HTTP handlers of the booking API

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theater-seat-booking/internal/repository"
	"github.com/iliyamo/theater-seat-booking/internal/service"
)

// paramID parses a positive numeric path parameter.
func paramID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

// theaterID reads :theaterID.  TheaterScope has already checked it.
func theaterID(c echo.Context) (uint64, error) {
	return paramID(c, "theaterID")
}

// bindValid binds the request body into dst and runs the registered
// validator on it.
func bindValid(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return c.Validate(dst)
}

// statusOf maps domain errors onto HTTP status codes.
func statusOf(err error) int {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		return he.Code
	case service.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrTheaterNotFound),
		errors.Is(err, repository.ErrSeatTypeNotFound),
		errors.Is(err, repository.ErrSectionNotFound),
		errors.Is(err, repository.ErrSeatNotFound),
		errors.Is(err, repository.ErrBookingNotFound),
		errors.Is(err, repository.ErrConfigNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrSeatNotAvailable),
		errors.Is(err, repository.ErrConflict),
		errors.Is(err, service.ErrSoldOut),
		errors.Is(err, service.ErrSectionInactive),
		errors.Is(err, service.ErrCustomerLimit),
		errors.Is(err, service.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, service.ErrBookingDisabled):
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// ErrorHandler renders every error as {"error": "..."}.  Internal errors
// are logged by the request logger and reported without detail.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := statusOf(err)
	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if s, ok := he.Message.(string); ok {
			msg = s
		} else {
			msg = http.StatusText(he.Code)
		}
	}
	if code == http.StatusInternalServerError {
		msg = "internal error"
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, echo.Map{"error": msg})
}
