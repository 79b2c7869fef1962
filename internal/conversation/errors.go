package conversation

import "errors"

// ErrSlotNotFound is returned when a facility or slot token does not match
// the availability snapshot of the session.
var ErrSlotNotFound = errors.New("slot not found in availability snapshot")
