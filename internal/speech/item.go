// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package speech queues announcements and hands them to a speech sink one at a time.
package speech

import (
	"cmp"
	"time"

	"github.com/google/uuid"
)

// Item is a pending announcement. Items with the same Topic replace each other.
type Item struct {
	ID        string
	Topic     string
	Text      string
	Priority  int
	CreatedAt time.Time
	ExpiresAt time.Time
}

// NewItem returns an Item with a new ID that expires ttl after createdAt. A non-positive
// ttl means the item never expires.
func NewItem(topic, text string, priority int, createdAt time.Time, ttl time.Duration) Item {
	item := Item{
		ID:        uuid.NewString(),
		Topic:     topic,
		Text:      text,
		Priority:  priority,
		CreatedAt: createdAt,
	}
	if ttl > 0 {
		item.ExpiresAt = createdAt.Add(ttl)
	}
	return item
}

// Expired reports whether the item is expired at the given time.
func (i Item) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && !now.Before(i.ExpiresAt)
}

// rankedBefore compares a and b in dispatch order: higher priority first, then older
// items first.
func rankedBefore(a, b Item) int {
	if c := cmp.Compare(b.Priority, a.Priority); c != 0 {
		return c
	}
	return a.CreatedAt.Compare(b.CreatedAt)
}
