package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing trip date, unknown session value).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrConflict is returned when persisting a trip would double-book a driver
// or a bus for the same date/session/type slot. The wrapped message names
// the conflicting route, plate, or driver so an operator can resolve the
// clash manually. Handlers should map this to HTTP 409.
var ErrConflict = errors.New("conflicting schedule")
