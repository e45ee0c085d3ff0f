// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package speech

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wneessen/guia-turistico/internal/metrics"
)

// DefaultCapacity is the default number of pending items.
const DefaultCapacity = 5

// DropReason describes why an item left the queue without being spoken.
type DropReason string

const (
	DropSuperseded DropReason = "superseded"
	DropCapacity   DropReason = "capacity"
	DropExpired    DropReason = "expired"
	DropCleared    DropReason = "cleared"
)

type drop struct {
	item   Item
	reason DropReason
}

// Queue is a bounded priority queue of announcements. It keeps at most one item per topic
// and never holds more than its capacity.
type Queue struct {
	mu       sync.Mutex
	capacity int
	now      func() time.Time
	onDrop   func(Item, DropReason)
	metrics  *metrics.Collector
	items    []Item
}

// QueueOption configures optional Queue settings.
type QueueOption func(*Queue)

// WithClock overrides the clock used for expiration.
func WithClock(now func() time.Time) QueueOption {
	return func(q *Queue) {
		if now != nil {
			q.now = now
		}
	}
}

// WithDropHandler registers a function that is called for every dropped item. It is called
// outside the queue lock.
func WithDropHandler(fn func(Item, DropReason)) QueueOption {
	return func(q *Queue) {
		q.onDrop = fn
	}
}

// WithMetrics records enqueued and dropped items on the given collector.
func WithMetrics(collector *metrics.Collector) QueueOption {
	return func(q *Queue) {
		q.metrics = collector
	}
}

// NewQueue returns an empty Queue. A non-positive capacity falls back to DefaultCapacity.
func NewQueue(capacity int, opts ...QueueOption) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	q := &Queue{
		capacity: capacity,
		now:      time.Now,
		items:    make([]Item, 0, capacity+1),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue adds the item. A pending item with the same topic is replaced. If the queue grows
// beyond its capacity, the lowest ranked item is dropped, which may be the new one. An item
// that is already expired is dropped right away.
func (q *Queue) Enqueue(item Item) {
	q.mu.Lock()
	now := q.now()
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}

	var drops []drop
	if item.Expired(now) {
		drops = append(drops, drop{item, DropExpired})
		q.mu.Unlock()
		q.report(drops)
		return
	}

	q.items = slices.DeleteFunc(q.items, func(pending Item) bool {
		if pending.Topic != item.Topic {
			return false
		}
		drops = append(drops, drop{pending, DropSuperseded})
		return true
	})
	q.items = append(q.items, item)
	slices.SortStableFunc(q.items, rankedBefore)
	for len(q.items) > q.capacity {
		last := q.items[len(q.items)-1]
		q.items = q.items[:len(q.items)-1]
		drops = append(drops, drop{last, DropCapacity})
	}
	q.metrics.SpeechQueued(len(q.items))
	q.mu.Unlock()

	q.report(drops)
}

// DequeueNext removes expired items and returns the highest ranked remaining one.
func (q *Queue) DequeueNext() (Item, bool) {
	q.mu.Lock()
	now := q.now()
	var drops []drop
	q.items = slices.DeleteFunc(q.items, func(pending Item) bool {
		if !pending.Expired(now) {
			return false
		}
		drops = append(drops, drop{pending, DropExpired})
		return true
	})

	var next Item
	ok := len(q.items) > 0
	if ok {
		next = q.items[0]
		q.items = slices.Delete(q.items, 0, 1)
	}
	q.mu.Unlock()

	q.report(drops)
	return next, ok
}

// Len returns the number of pending items, including expired ones not yet removed.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Capacity returns the maximum number of pending items.
func (q *Queue) Capacity() int {
	return q.capacity
}

// Pending returns a copy of the pending items in dispatch order.
func (q *Queue) Pending() []Item {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.items)
}

// Clear drops all pending items.
func (q *Queue) Clear() {
	q.mu.Lock()
	drops := make([]drop, 0, len(q.items))
	for _, item := range q.items {
		drops = append(drops, drop{item, DropCleared})
	}
	q.items = q.items[:0]
	q.mu.Unlock()

	q.report(drops)
}

func (q *Queue) report(drops []drop) {
	if len(drops) == 0 {
		return
	}
	length := q.Len()
	for _, d := range drops {
		q.metrics.SpeechDrop(string(d.reason), length)
		if q.onDrop != nil {
			q.onDrop(d.item, d.reason)
		}
	}
}
