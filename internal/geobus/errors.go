// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geobus

import (
	"errors"
	"fmt"
)

var (
	// ErrValidationRejected is wrapped by every *ValidationError.
	ErrValidationRejected = errors.New("position sample rejected")

	// ErrSubscriberNotification is wrapped by every *NotificationError.
	ErrSubscriberNotification = errors.New("subscriber notification failed")

	// ErrLoggerRequired is returned by New if no logger was given.
	ErrLoggerRequired = errors.New("logger is required")
)

// Reason describes why a sample was rejected.
type Reason string

const (
	ReasonMalformed     Reason = "malformed"
	ReasonImprecise     Reason = "imprecise"
	ReasonInsignificant Reason = "insignificant"
	ReasonStale         Reason = "stale"
)

// ValidationError reports a rejected position sample.
type ValidationError struct {
	Reason Reason
	Detail string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s (%s): %s", ErrValidationRejected, e.Reason, e.Detail)
}

// Unwrap returns ErrValidationRejected.
func (e *ValidationError) Unwrap() error {
	return ErrValidationRejected
}

// NotificationError reports a subscriber that failed to handle a position.
type NotificationError struct {
	Subscriber uint64
	Err        error
}

// Error implements the error interface.
func (e *NotificationError) Error() string {
	return fmt.Sprintf("failed to notify subscriber %d: %s", e.Subscriber, e.Err)
}

// Unwrap returns both ErrSubscriberNotification and the subscriber's error.
func (e *NotificationError) Unwrap() []error {
	return []error{ErrSubscriberNotification, e.Err}
}

// RejectionReason returns the Reason of a validation error, or an empty Reason if err
// is not a *ValidationError.
func RejectionReason(err error) Reason {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Reason
	}
	return ""
}

func malformed(detail string) *ValidationError {
	return &ValidationError{Reason: ReasonMalformed, Detail: detail}
}
