// Package repository defines the SQL data access layer. Sentinel errors
// declared here let services and handlers tell apart "not there",
// "taken" and "cannot proceed" without inspecting driver errors. For
// example, ErrSeatNotAvailable is the expected outcome of losing a race
// for a seat, while ErrConflict signals that an operation cannot proceed
// due to existing dependent records (e.g. deleting a seat type that
// sections still use).
package repository

import "errors"

// ErrConflict is returned when a delete or update cannot be performed
// because of conflicting state or a duplicate unique name. Handlers
// translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

var (
	ErrTheaterNotFound  = errors.New("theater not found")
	ErrSeatTypeNotFound = errors.New("seat type not found")
	ErrSectionNotFound  = errors.New("section not found")
	ErrBookingNotFound  = errors.New("booking not found")
	ErrConfigNotFound   = errors.New("config key not found")
)
