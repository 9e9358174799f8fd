package service

import (
	"errors"
	"fmt"

	"github.com/iliyamo/theater-seat-booking/internal/repository"
)

// ValidationError reports malformed input detected before any write.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Message
	}
	return fmt.Sprintf("validation: %s %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

var (
	// ErrBookingDisabled is returned while the theater's booking_enabled setting is false.
	ErrBookingDisabled = errors.New("booking disabled for theater")
	// ErrCustomerLimit is returned when a customer already holds the configured maximum of bookings.
	ErrCustomerLimit = errors.New("customer booking limit reached")
	// ErrSectionInactive is returned when booking into a deactivated section.
	ErrSectionInactive = errors.New("section inactive")
	// ErrSoldOut is returned when a section or row has no bookable seat left.
	ErrSoldOut = errors.New("no available seats")
	// ErrInvalidTransition is returned when a booking attempt step is called out of order.
	ErrInvalidTransition = errors.New("invalid booking step")
)

// IsContention reports whether err is an expected "someone else got there
// first" outcome rather than a fault. Bulk import counts these as skipped.
func IsContention(err error) bool {
	return errors.Is(err, repository.ErrSeatNotAvailable) ||
		errors.Is(err, repository.ErrSeatNotFound) ||
		errors.Is(err, ErrCustomerLimit) ||
		errors.Is(err, ErrSectionInactive) ||
		errors.Is(err, ErrSoldOut)
}
