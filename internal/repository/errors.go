package repository

import "errors"

var (
	// ErrInvalidArgument reports a nil event or a non-positive id where a
	// persisted one is required.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound reports that a write affected zero rows: the event was
	// deleted concurrently or the id is stale.
	ErrNotFound = errors.New("event not found")

	// ErrCalendarUnavailable reports that no calendar could be found or
	// provisioned for an insert.
	ErrCalendarUnavailable = errors.New("no usable calendar")

	// ErrClosed reports an operation submitted after Close.
	ErrClosed = errors.New("repository is closed")
)
