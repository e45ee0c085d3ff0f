// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package job runs periodic tasks that never overlap with themselves.
package job

import (
	"context"
	"time"
)

// Job represents a scheduled task that runs at a fixed interval
// and never overlaps with itself (singleton mode).
type Job struct {
	interval  time.Duration
	task      func(context.Context)
	immediate bool
}

// Option configures optional Job settings.
type Option func(*Job)

// WithImmediateRun runs the task once right after Start instead of waiting for the
// first tick.
func WithImmediateRun() Option {
	return func(j *Job) {
		j.immediate = true
	}
}

// New creates a new Job with the given interval and task.
func New(interval time.Duration, task func(context.Context), opts ...Option) *Job {
	j := &Job{
		interval: interval,
		task:     task,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Start begins executing the job on the given context. It returns when the context is cancelled.
// It executes jobs in singleton mode, meaning if a tick fires while a previous run is still
// executing, that tick is skipped.
func (j *Job) Start(ctx context.Context) {
	if j.task == nil || j.interval <= 0 {
		return
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	// sem is a 1-slot semaphore that guards "is a run in progress?"
	sem := make(chan struct{}, 1)
	if j.immediate {
		j.tryRun(ctx, sem)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.tryRun(ctx, sem)
		}
	}
}

// tryRun starts the task unless a previous run still holds the semaphore.
func (j *Job) tryRun(ctx context.Context, sem chan struct{}) {
	select {
	case sem <- struct{}{}:
		go func() {
			defer func() { <-sem }()
			runCtx, cancel := context.WithCancel(ctx)
			defer cancel()
			j.task(runCtx)
		}()
	default:
	}
}
