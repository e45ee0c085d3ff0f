// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package change

import (
	"errors"
	"fmt"
)

var (
	// ErrStaleAddress is returned by Observe for an address that belongs to a position older
	// than the last applied one.
	ErrStaleAddress = errors.New("address is older than the last applied address")

	// ErrSinkNotification is wrapped by every *SinkError.
	ErrSinkNotification = errors.New("change sink notification failed")

	// ErrInvalidPriority is returned for an empty or duplicate field priority.
	ErrInvalidPriority = errors.New("invalid field priority")

	// ErrUnknownField is returned by ParseField for unknown field names.
	ErrUnknownField = errors.New("unknown address field")

	// ErrLoggerRequired is returned by New if no logger was given.
	ErrLoggerRequired = errors.New("logger is required")
)

// SinkError reports a sink that failed to handle an Event.
type SinkError struct {
	Sink uint64
	Err  error
}

// Error implements the error interface.
func (e *SinkError) Error() string {
	return fmt.Sprintf("failed to notify change sink %d: %s", e.Sink, e.Err)
}

// Unwrap returns both ErrSinkNotification and the sink's error.
func (e *SinkError) Unwrap() []error {
	return []error{ErrSinkNotification, e.Err}
}
