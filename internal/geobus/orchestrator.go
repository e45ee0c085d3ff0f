// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geobus

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/wneessen/guia-turistico/internal/logger"
)

const (
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
)

// Provider defines an interface for position sources. LookupStream emits raw samples
// until the context is cancelled or the source gives up, in which case the channel is closed.
type Provider interface {
	Name() string
	LookupStream(ctx context.Context) <-chan Sample
}

// Orchestrator runs a set of providers and submits their samples to a GeoBus.
type Orchestrator struct {
	Bus       *GeoBus
	Providers []Provider
}

// NewOrchestrator returns an Orchestrator that feeds the bus from the given providers.
func (b *GeoBus) NewOrchestrator(providers []Provider) *Orchestrator {
	return &Orchestrator{
		Bus:       b,
		Providers: providers,
	}
}

// Track runs all providers concurrently until the context is cancelled.
func (o *Orchestrator) Track(ctx context.Context) {
	var wg sync.WaitGroup
	for _, p := range o.Providers {
		wg.Add(1)
		go func(p Provider) {
			defer wg.Done()
			o.trackProvider(ctx, p)
		}(p)
	}
	<-ctx.Done()
	wg.Wait()
}

// trackProvider continuously reads a Provider's stream, submits the samples to the
// GeoBus and restarts the stream with backoff when it closes.
func (o *Orchestrator) trackProvider(ctx context.Context, p Provider) {
	backoff := initialBackoff
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		lookupChan := o.safeLookup(ctx, p)
		if lookupChan == nil {
			if !sleepOrDone(ctx, backoff) {
				return
			}
			backoff = nextBackoff(backoff)
			continue
		}

		if !o.drain(ctx, p, lookupChan) {
			return
		}
		if !sleepOrDone(ctx, backoff) {
			return
		}
		backoff = nextBackoff(backoff)
	}
}

// drain submits samples until the stream closes. It returns false if the context was
// cancelled.
func (o *Orchestrator) drain(ctx context.Context, p Provider, stream <-chan Sample) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case sample, ok := <-stream:
			if !ok {
				return true
			}
			if sample.Source == "" {
				sample.Source = p.Name()
			}
			// Rejections are logged by the bus, notification failures are worth a note here.
			if accepted, err := o.Bus.Submit(sample); accepted && err != nil {
				o.Bus.logger.Warn("position delivered with subscriber failures",
					slog.String("provider", p.Name()), logger.Err(err))
			}
		}
	}
}

// safeLookup safely invokes the LookupStream method on a Provider and recovers from potential panics.
// Returns a read-only channel of Sample or nil if the operation fails.
func (o *Orchestrator) safeLookup(ctx context.Context, provider Provider) (ch <-chan Sample) {
	defer func() {
		if r := recover(); r != nil {
			o.Bus.logger.Error("position provider panicked", slog.String("provider", provider.Name()),
				slog.Any("panic", r))
			ch = nil
		}
	}()
	return provider.LookupStream(ctx)
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func nextBackoff(d time.Duration) time.Duration {
	if d *= 2; d > maxBackoff {
		return maxBackoff
	}
	return d
}
