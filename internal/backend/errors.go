package backend

import "errors"

var (
	// ErrBackendUnavailable covers transport failures, non-2xx answers on
	// reads and bodies that cannot be decoded.
	ErrBackendUnavailable = errors.New("booking backend unavailable")
	// ErrProfileNotFound is returned when the backend has no profile for a user.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrBookingRejected is returned when the backend refuses a booking.
	ErrBookingRejected = errors.New("booking rejected by backend")
)
