// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package gpsd provides a position source backed by a local gpsd daemon.
package gpsd

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/stratoberry/go-gpsd"

	"github.com/wneessen/guia-turistico/internal/geobus"
	"github.com/wneessen/guia-turistico/internal/logger"
	"github.com/wneessen/guia-turistico/internal/vartype"
)

const (
	name = "gpsd"

	// DefaultAddress is the address gpsd listens on by default.
	DefaultAddress = "localhost:2947"

	// Accuracy in meters assumed for fixes without any error estimate.
	fallbackAccuracy3DFix = 10
	fallbackAccuracy2DFix = 25
)

// session is the part of a gpsd session we rely on.
type session interface {
	AddFilter(class string, f gpsd.Filter)
	Watch() chan bool
}

type GeolocationGPSDProvider struct {
	name   string
	addr   string
	period time.Duration
	logger *logger.Logger
	dialFn func(addr string) (session, error)
	nowFn  func() time.Time
}

// NewGeolocationGPSDProvider returns a provider that connects to gpsd at the given address.
// An empty address falls back to DefaultAddress.
func NewGeolocationGPSDProvider(addr string, log *logger.Logger) *GeolocationGPSDProvider {
	if addr == "" {
		addr = DefaultAddress
	}
	return &GeolocationGPSDProvider{
		name:   name,
		addr:   addr,
		period: time.Second * 30,
		logger: log,
		dialFn: func(addr string) (session, error) {
			return gpsd.Dial(addr)
		},
		nowFn: time.Now,
	}
}

func (p *GeolocationGPSDProvider) Name() string {
	return p.name
}

// LookupStream connects to gpsd and emits a sample for every TPV report with at least a 2D
// fix and changed coordinates. Lost connections are re-established after a delay.
func (p *GeolocationGPSDProvider) LookupStream(ctx context.Context) <-chan geobus.Sample {
	out := make(chan geobus.Sample)

	go func() {
		defer close(out)
		state := geobus.GeolocationState{}

		for {
			// Exit if the caller is done
			select {
			case <-ctx.Done():
				return
			default:
			}

			sess, err := p.dialFn(p.addr)
			if err != nil {
				p.logger.Warn("failed to connect to gpsd", slog.String("address", p.addr), logger.Err(err))
				select {
				case <-ctx.Done():
					return
				case <-time.After(p.period):
					continue
				}
			}

			// Install TPV filter: this gets called for every TPV report
			sess.AddFilter("TPV", func(r interface{}) {
				tpv, ok := r.(*gpsd.TPVReport)
				if !ok {
					return
				}
				sample, ok := sampleFromTPV(tpv, p.nowFn())
				if !ok || !state.HasChanged(sample) {
					return
				}
				state.Update(sample)
				sample.Source = p.name

				select {
				case <-ctx.Done():
				case out <- sample:
				}
			})

			// Watch returns a channel that is signaled when the connection is lost. go-gpsd
			// has no way to stop a running watch, so the session is abandoned on cancellation.
			done := sess.Watch()
			select {
			case <-ctx.Done():
				return
			case <-done:
				p.logger.Warn("connection to gpsd lost, reconnecting", slog.String("address", p.addr))
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(p.period):
			}
		}
	}()

	return out
}

// sampleFromTPV converts a TPV report into a sample. It returns false if the report has no
// 2D fix. The report time is used as timestamp if gpsd sent one.
func sampleFromTPV(tpv *gpsd.TPVReport, now time.Time) (geobus.Sample, bool) {
	if tpv == nil || tpv.Mode < gpsd.Mode2D {
		return geobus.Sample{}, false
	}

	if !tpv.Time.IsZero() {
		now = tpv.Time
	}
	sample := geobus.NewSample(tpv.Lat, tpv.Lon, now)
	sample.Accuracy = vartype.NewVariable(horizontalAccuracy(tpv))
	if tpv.Mode >= gpsd.Mode3D {
		sample.Altitude = vartype.NewVariable(tpv.Alt)
	}
	if tpv.Speed > 0 {
		sample.Speed = vartype.NewVariable(tpv.Speed)
		sample.Heading = vartype.NewVariable(tpv.Track)
	}
	return sample, true
}

// horizontalAccuracy returns the horizontal error estimate in meters. eph is preferred,
// then the combined longitude and latitude errors, then a typical value for the fix mode.
func horizontalAccuracy(tpv *gpsd.TPVReport) float64 {
	switch {
	case tpv.Eph > 0:
		return tpv.Eph
	case tpv.Epx > 0 && tpv.Epy > 0:
		return math.Hypot(tpv.Epx, tpv.Epy)
	case tpv.Mode >= gpsd.Mode3D:
		return fallbackAccuracy3DFix
	default:
		return fallbackAccuracy2DFix
	}
}
