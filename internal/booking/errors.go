package booking

import "errors"

var (
	// ErrSlotBusy means another booking for the same doctor and day holds the lock.
	ErrSlotBusy = errors.New("another booking for this doctor and day is in progress")
	// ErrSlotUnavailable means the requested start is not one of the offered slots.
	ErrSlotUnavailable = errors.New("requested time is not available")
	ErrNotFound        = errors.New("not found")
	// ErrInvalidTransition is returned for status changes the appointment lifecycle forbids.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrConcurrentUpdate means the appointment changed since it was read.
	ErrConcurrentUpdate = errors.New("appointment was modified concurrently")
)
