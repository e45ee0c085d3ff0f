// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geobus

import (
	"errors"
	"fmt"
	"time"
)

// Default validation thresholds.
const (
	DefaultMinDistance = 20.0
	DefaultMinInterval = time.Minute
	DefaultMaxAccuracy = 100.0
)

// Thresholds configures the movement validator. A MaxAccuracy of zero disables the
// accuracy check.
type Thresholds struct {
	// MinDistance in meters. Smaller movements are rejected unless MinInterval has passed.
	MinDistance float64
	// MinInterval since the last accepted sample. Quicker updates are rejected unless
	// the movement exceeds MinDistance.
	MinInterval time.Duration
	// MaxAccuracy in meters. Samples reporting a worse accuracy are rejected.
	MaxAccuracy float64
}

// DefaultThresholds returns the default validation thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinDistance: DefaultMinDistance,
		MinInterval: DefaultMinInterval,
		MaxAccuracy: DefaultMaxAccuracy,
	}
}

// Validate checks the thresholds for invalid values.
func (t Thresholds) Validate() error {
	if t.MinDistance < 0 {
		return fmt.Errorf("invalid minimum distance: %f", t.MinDistance)
	}
	if t.MinInterval < 0 {
		return fmt.Errorf("invalid minimum interval: %s", t.MinInterval)
	}
	if t.MaxAccuracy < 0 {
		return fmt.Errorf("invalid maximum accuracy: %f", t.MaxAccuracy)
	}
	return nil
}

// Check decides whether pos is significant enough compared to the previously accepted
// position. It returns nil if the position is accepted and a *ValidationError otherwise.
func (t Thresholds) Check(pos, prev Position, havePrev bool) error {
	if acc, ok := pos.Accuracy.Get(); ok && t.MaxAccuracy > 0 && acc > t.MaxAccuracy {
		return &ValidationError{
			Reason: ReasonImprecise,
			Detail: fmt.Sprintf("accuracy %.1fm exceeds %.1fm", acc, t.MaxAccuracy),
		}
	}
	if !havePrev {
		return nil
	}
	if pos.Timestamp.Before(prev.Timestamp) {
		return &ValidationError{
			Reason: ReasonStale,
			Detail: fmt.Sprintf("timestamp %s is older than the last accepted position",
				pos.Timestamp.Format(time.RFC3339Nano)),
		}
	}

	// Both conditions have to hold: a large jump is accepted even if it arrives quickly
	// and a long wait is accepted even with small movement.
	elapsed := pos.Timestamp.Sub(prev.Timestamp)
	distance := pos.DistanceTo(prev)
	if elapsed < t.MinInterval && distance < t.MinDistance {
		return &ValidationError{
			Reason: ReasonInsignificant,
			Detail: fmt.Sprintf("moved %.1fm in %s", distance, elapsed),
		}
	}
	return nil
}

// IsRejected reports whether err is a validation rejection.
func IsRejected(err error) bool {
	return errors.Is(err, ErrValidationRejected)
}
