// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geobus

import (
	"context"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"
)

type streamProvider struct {
	name    string
	samples []Sample
	calls   atomic.Int32
	panics  bool
}

func (p *streamProvider) Name() string { return p.name }

func (p *streamProvider) LookupStream(ctx context.Context) <-chan Sample {
	p.calls.Add(1)
	if p.panics {
		panic("provider failure")
	}
	ch := make(chan Sample)
	go func() {
		defer close(ch)
		for _, s := range p.samples {
			select {
			case <-ctx.Done():
				return
			case ch <- s:
			}
		}
	}()
	return ch
}

func TestOrchestrator_Track(t *testing.T) {
	t.Run("samples from a provider are submitted to the bus", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			bus := testBus(t)
			rec := &recorder{}
			bus.Subscribe(rec)
			provider := &streamProvider{name: "stream", samples: []Sample{
				NewSample(testLat, testLon, testTime).WithAccuracy(10),
				NewSample(otherLat, otherLon, testTime.Add(time.Second)).WithAccuracy(10),
			}}

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})
			go func() {
				bus.NewOrchestrator([]Provider{provider}).Track(ctx)
				close(done)
			}()
			synctest.Wait()
			cancel()
			<-done

			if rec.count() != 2 {
				t.Fatalf("expected 2 positions, got %d", rec.count())
			}
			if rec.positions[0].Source != "stream" {
				t.Errorf("expected source to be set to provider name, got %q", rec.positions[0].Source)
			}
		})
	})
	t.Run("a closed stream is restarted with backoff", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			bus := testBus(t)
			provider := &streamProvider{name: "empty"}

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})
			go func() {
				bus.NewOrchestrator([]Provider{provider}).Track(ctx)
				close(done)
			}()

			// 1s + 2s + 4s of backoff
			time.Sleep(7*time.Second + time.Millisecond)
			synctest.Wait()
			if calls := provider.calls.Load(); calls != 4 {
				t.Errorf("expected 4 lookups, got %d", calls)
			}
			cancel()
			<-done
		})
	})
	t.Run("a panicking provider does not stop the others", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			bus := testBus(t)
			rec := &recorder{}
			bus.Subscribe(rec)
			broken := &streamProvider{name: "broken", panics: true}
			working := &streamProvider{name: "working", samples: []Sample{NewSample(testLat, testLon, testTime)}}

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})
			go func() {
				bus.NewOrchestrator([]Provider{broken, working}).Track(ctx)
				close(done)
			}()
			synctest.Wait()
			cancel()
			<-done

			if rec.count() != 1 {
				t.Errorf("expected 1 position, got %d", rec.count())
			}
			if broken.calls.Load() != 1 {
				t.Errorf("expected broken provider to be called once, got %d", broken.calls.Load())
			}
		})
	})
}

func TestNextBackoff(t *testing.T) {
	tests := []struct {
		in, want time.Duration
	}{
		{time.Second, 2 * time.Second},
		{16 * time.Second, maxBackoff},
		{maxBackoff, maxBackoff},
	}
	for _, tc := range tests {
		if got := nextBackoff(tc.in); got != tc.want {
			t.Errorf("expected backoff after %s to be %s, got %s", tc.in, tc.want, got)
		}
	}
}
