package scheduler

import "errors"

var (
	// ErrInvalidArgument is returned for well-formed input the engine cannot work with,
	// such as a non-positive slot length or a working window that ends before it starts.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrMalformedInput is returned when a time-of-day string is not strict HH:MM.
	ErrMalformedInput = errors.New("malformed input")
)
