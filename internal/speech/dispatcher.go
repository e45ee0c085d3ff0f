// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package speech

import (
	"context"
	"log/slog"
	"time"

	"github.com/wneessen/guia-turistico/internal/job"
	"github.com/wneessen/guia-turistico/internal/logger"
	"github.com/wneessen/guia-turistico/internal/metrics"
)

// DefaultInterval is the default time between two dispatch attempts.
const DefaultInterval = time.Second

// Dispatcher hands queued items to a Sink, one item per tick.
type Dispatcher struct {
	queue    *Queue
	sink     Sink
	logger   *logger.Logger
	metrics  *metrics.Collector
	interval time.Duration
}

// NewDispatcher returns a Dispatcher. A non-positive interval falls back to DefaultInterval.
func NewDispatcher(queue *Queue, sink Sink, log *logger.Logger, interval time.Duration,
	collector *metrics.Collector,
) *Dispatcher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Dispatcher{
		queue:    queue,
		sink:     sink,
		logger:   log,
		metrics:  collector,
		interval: interval,
	}
}

// Tick dequeues the next item and speaks it. It returns false if the queue was empty.
func (d *Dispatcher) Tick(ctx context.Context) (Item, bool, error) {
	item, ok := d.queue.DequeueNext()
	if !ok {
		return Item{}, false, nil
	}

	err := d.sink.Speak(ctx, item.Text, item.Priority)
	d.metrics.Spoken(err, d.queue.Len())
	if err != nil {
		d.logger.Error("failed to speak announcement", slog.String("topic", item.Topic),
			slog.String("id", item.ID), logger.Err(err))
		return item, true, err
	}
	d.logger.Debug("announcement spoken", slog.String("topic", item.Topic), slog.String("text", item.Text),
		slog.Int("priority", item.Priority))
	return item, true, nil
}

// Run ticks at the configured interval until the context is cancelled. A tick is skipped
// while the previous announcement is still being spoken.
func (d *Dispatcher) Run(ctx context.Context) {
	job.New(d.interval, func(ctx context.Context) {
		_, _, _ = d.Tick(ctx)
	}, job.WithImmediateRun()).Start(ctx)
}
