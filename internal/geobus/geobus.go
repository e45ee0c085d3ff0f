// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package geobus validates incoming position samples and broadcasts the accepted ones
// to its subscribers.
package geobus

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/wneessen/guia-turistico/internal/logger"
	"github.com/wneessen/guia-turistico/internal/metrics"
)

// State is the tracking state of a GeoBus.
type State int

const (
	// StateIdle means no position was accepted yet.
	StateIdle State = iota
	// StateTracking means at least one position was accepted.
	StateTracking
)

// String returns the name of the State.
func (s State) String() string {
	if s == StateTracking {
		return "tracking"
	}
	return "idle"
}

// Observer receives accepted positions.
type Observer interface {
	OnPosition(Position) error
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(Position) error

// OnPosition calls f(pos).
func (f ObserverFunc) OnPosition(pos Position) error {
	return f(pos)
}

type subscription struct {
	id       uint64
	observer Observer
}

// GeoBus is the broadcast hub for positions. Raw samples are submitted to the bus, run
// through the movement validator and, if accepted, handed synchronously to all subscribers
// in subscription order.
type GeoBus struct {
	// submitMu serializes Submit so accepted samples are delivered in arrival order.
	submitMu sync.Mutex

	mu          sync.RWMutex
	logger      *logger.Logger
	metrics     *metrics.Collector
	now         func() time.Time
	thresholds  Thresholds
	last        Position
	haveLast    bool
	nextID      uint64
	subscribers []subscription
}

// Option configures optional GeoBus settings.
type Option func(*GeoBus)

// WithMetrics records sample and notification metrics on the given collector.
func WithMetrics(collector *metrics.Collector) Option {
	return func(b *GeoBus) {
		b.metrics = collector
	}
}

// WithClock overrides the clock used to timestamp samples without a timestamp.
func WithClock(now func() time.Time) Option {
	return func(b *GeoBus) {
		if now != nil {
			b.now = now
		}
	}
}

// New initializes and returns a new GeoBus with the given validation thresholds. The
// thresholds are copied and stay fixed for the lifetime of the bus.
func New(log *logger.Logger, thresholds Thresholds, opts ...Option) (*GeoBus, error) {
	if log == nil {
		return nil, ErrLoggerRequired
	}
	if err := thresholds.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate thresholds: %w", err)
	}
	bus := &GeoBus{
		logger:     log,
		now:        time.Now,
		thresholds: thresholds,
	}
	for _, opt := range opts {
		opt(bus)
	}
	return bus, nil
}

// Subscribe registers an observer and returns a function that removes it again. The
// GeoBus only keeps a reference to the observer; it does not manage its lifetime.
func (b *GeoBus) Subscribe(observer Observer) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subscribers = append(b.subscribers, subscription{id: id, observer: observer})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			b.subscribers = slices.DeleteFunc(b.subscribers, func(s subscription) bool {
				return s.id == id
			})
		})
	}
}

// Submit validates a raw sample and broadcasts it if accepted. It returns false and a
// *ValidationError if the sample was rejected. For an accepted sample it returns true and
// nil, or true and the joined *NotificationError of every subscriber that failed. Observers
// must not call Submit themselves.
func (b *GeoBus) Submit(sample Sample) (bool, error) {
	b.submitMu.Lock()
	defer b.submitMu.Unlock()

	if sample.Timestamp.IsZero() {
		sample.Timestamp = b.now()
	}
	pos, err := NewPosition(sample)
	if err != nil {
		return false, b.reject(sample, err)
	}

	b.mu.Lock()
	if err = b.thresholds.Check(pos, b.last, b.haveLast); err != nil {
		b.mu.Unlock()
		return false, b.reject(sample, err)
	}
	b.last = pos
	b.haveLast = true
	subs := slices.Clone(b.subscribers)
	b.mu.Unlock()

	b.metrics.SampleAccepted()
	b.logger.Debug("position accepted", slog.Float64("lat", pos.Lat), slog.Float64("lon", pos.Lon),
		slog.String("accuracy", pos.AccuracyQuality().String()), slog.String("source", pos.Source))

	return true, b.broadcast(pos, subs)
}

// Last returns the last accepted position.
func (b *GeoBus) Last() (Position, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.last, b.haveLast
}

// State returns the tracking state of the bus.
func (b *GeoBus) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.haveLast {
		return StateTracking
	}
	return StateIdle
}

// Thresholds returns the validation thresholds of the bus.
func (b *GeoBus) Thresholds() Thresholds {
	return b.thresholds
}

// Subscribers returns the number of registered observers.
func (b *GeoBus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

func (b *GeoBus) reject(sample Sample, err error) error {
	reason := RejectionReason(err)
	b.metrics.SampleRejected(string(reason))
	b.logger.Debug("position sample rejected", slog.String("reason", string(reason)),
		slog.String("source", sample.Source), logger.Err(err))
	return err
}

// broadcast notifies every subscriber. A failing subscriber does not stop the remaining
// ones from being notified.
func (b *GeoBus) broadcast(pos Position, subs []subscription) error {
	var errs []error
	for _, sub := range subs {
		if err := notify(sub.observer, pos); err != nil {
			b.metrics.NotificationFailed()
			b.logger.Error("failed to notify position subscriber", slog.Uint64("subscriber", sub.id),
				logger.Err(err))
			errs = append(errs, &NotificationError{Subscriber: sub.id, Err: err})
		}
	}
	return errors.Join(errs...)
}

// notify calls the observer and converts a panic into an error.
func notify(observer Observer, pos Position) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("observer panicked: %v", r)
		}
	}()
	return observer.OnPosition(pos)
}
