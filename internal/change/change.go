// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package change detects transitions between municipalities, neighbourhoods and streets in
// a sequence of resolved addresses.
package change

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/wneessen/guia-turistico/internal/geobus"
	"github.com/wneessen/guia-turistico/internal/geocode"
	"github.com/wneessen/guia-turistico/internal/logger"
	"github.com/wneessen/guia-turistico/internal/metrics"
)

// Event reports that the value of a Field changed. Previous is never empty.
type Event struct {
	Field    Field
	Previous string
	Current  string
	Position geobus.Position
	Address  geocode.Address
	At       time.Time
}

// Sink receives change events.
type Sink interface {
	OnChangeEvent(Event) error
}

// SinkFunc adapts a plain function to the Sink interface.
type SinkFunc func(Event) error

// OnChangeEvent calls f(event).
func (f SinkFunc) OnChangeEvent(event Event) error {
	return f(event)
}

type subscription struct {
	id   uint64
	sink Sink
}

// Coordinator keeps the last known value of every tracked field and emits at most one Event
// per observed address: the one for the highest priority field that changed.
type Coordinator struct {
	mu       sync.Mutex
	logger   *logger.Logger
	metrics  *metrics.Collector
	now      func() time.Time
	priority []Field
	last     map[Field]string
	lastAt   time.Time
	applied  bool
	nextID   uint64
	sinks    []subscription
}

// Option configures optional Coordinator settings.
type Option func(*Coordinator)

// WithMetrics records change events and stale addresses on the given collector.
func WithMetrics(collector *metrics.Collector) Option {
	return func(c *Coordinator) {
		c.metrics = collector
	}
}

// WithClock overrides the clock used for Event.At.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		if now != nil {
			c.now = now
		}
	}
}

// New returns a Coordinator for the given field priority, highest priority first. The
// priority must not be empty and must not contain duplicates.
func New(log *logger.Logger, priority []Field, opts ...Option) (*Coordinator, error) {
	if log == nil {
		return nil, ErrLoggerRequired
	}
	if err := validatePriority(priority); err != nil {
		return nil, err
	}
	c := &Coordinator{
		logger:   log,
		now:      time.Now,
		priority: slices.Clone(priority),
		last:     make(map[Field]string, len(priority)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Observe compares the address with the stored field values and returns the resulting Event,
// or nil if no tracked field changed. An empty value means unknown and never overwrites a
// stored value. The first value of a field is stored without an Event.
//
// An address that belongs to a position older than the last applied one is ignored and
// ErrStaleAddress is returned. If sinks fail, the Event is returned together with the joined
// *SinkError of every failed sink.
func (c *Coordinator) Observe(pos geobus.Position, addr geocode.Address) (*Event, error) {
	c.mu.Lock()
	if c.applied && pos.Timestamp.Before(c.lastAt) {
		c.mu.Unlock()
		c.metrics.StaleAddress()
		c.logger.Debug("ignoring stale address", slog.Time("position_time", pos.Timestamp),
			slog.Time("last_applied", c.lastAt))
		return nil, ErrStaleAddress
	}

	var event *Event
	for _, field := range c.priority {
		value := strings.TrimSpace(field.Value(addr))
		if value == "" {
			continue
		}
		stored := c.last[field]
		c.last[field] = value
		if stored == "" || Normalize(stored) == Normalize(value) {
			continue
		}
		if event == nil {
			event = &Event{
				Field:    field,
				Previous: stored,
				Current:  value,
				Position: pos,
				Address:  addr,
				At:       c.now(),
			}
		}
	}
	c.lastAt = pos.Timestamp
	c.applied = true
	sinks := slices.Clone(c.sinks)
	c.mu.Unlock()

	if event == nil {
		return nil, nil
	}
	c.metrics.ChangeEvent(event.Field.String())
	c.logger.Info("address changed", slog.String("field", event.Field.String()),
		slog.String("previous", event.Previous), slog.String("current", event.Current))
	return event, c.broadcast(*event, sinks)
}

// Subscribe registers a sink and returns a function that removes it again.
func (c *Coordinator) Subscribe(sink Sink) func() {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.sinks = append(c.sinks, subscription{id: id, sink: sink})
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.sinks = slices.DeleteFunc(c.sinks, func(s subscription) bool {
				return s.id == id
			})
		})
	}
}

// Last returns the stored value of the field, or an empty string if it is unknown.
func (c *Coordinator) Last(field Field) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last[field]
}

// Priority returns the field priority, highest priority first.
func (c *Coordinator) Priority() []Field {
	return slices.Clone(c.priority)
}

// Reset forgets all stored values. The stale guard is kept, so addresses of positions older
// than the last applied one are still ignored.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.last)
}

func (c *Coordinator) broadcast(event Event, sinks []subscription) error {
	var errs []error
	for _, sub := range sinks {
		if err := notify(sub.sink, event); err != nil {
			c.metrics.NotificationFailed()
			c.logger.Error("failed to notify change sink", slog.Uint64("sink", sub.id), logger.Err(err))
			errs = append(errs, &SinkError{Sink: sub.id, Err: err})
		}
	}
	return errors.Join(errs...)
}

// notify calls the sink and converts a panic into an error.
func notify(sink Sink, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panicked: %v", r)
		}
	}()
	return sink.OnChangeEvent(event)
}
