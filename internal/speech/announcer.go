// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package speech

import (
	"fmt"
	"maps"
	"time"

	"github.com/wneessen/guia-turistico/internal/change"
)

// DefaultTTL is the default time an announcement stays relevant.
const DefaultTTL = 5 * time.Second

// DefaultPriorities returns the default announcement priority per field. Higher values are
// spoken first.
func DefaultPriorities() map[change.Field]int {
	return map[change.Field]int{
		change.FieldMunicipio:  2,
		change.FieldBairro:     1,
		change.FieldLogradouro: 0,
	}
}

// Renderer turns a change event into announcement text.
type Renderer interface {
	Render(change.Event) (string, error)
}

// Announcer converts change events into queued speech items. It implements change.Sink.
type Announcer struct {
	renderer   Renderer
	queue      *Queue
	ttl        time.Duration
	priorities map[change.Field]int
	now        func() time.Time
}

// NewAnnouncer returns an Announcer that enqueues into queue. A non-positive ttl falls back to
// DefaultTTL; fields missing in priorities use the default priority.
func NewAnnouncer(renderer Renderer, queue *Queue, ttl time.Duration, priorities map[change.Field]int) *Announcer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	prio := DefaultPriorities()
	maps.Copy(prio, priorities)
	return &Announcer{
		renderer:   renderer,
		queue:      queue,
		ttl:        ttl,
		priorities: prio,
		now:        queue.now,
	}
}

// Announce renders the event and enqueues the resulting item. The field name is used as
// topic, so a newer announcement for the same field replaces a pending one.
func (a *Announcer) Announce(event change.Event) (Item, error) {
	text, err := a.renderer.Render(event)
	if err != nil {
		return Item{}, fmt.Errorf("failed to render announcement: %w", err)
	}
	item := NewItem(event.Field.String(), text, a.priorities[event.Field], a.now(), a.ttl)
	a.queue.Enqueue(item)
	return item, nil
}

// OnChangeEvent announces the event.
func (a *Announcer) OnChangeEvent(event change.Event) error {
	_, err := a.Announce(event)
	return err
}
