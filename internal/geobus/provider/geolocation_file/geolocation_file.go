// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package geolocation_file provides a position source that reads fixed coordinates from a
// local file. It is mostly useful for stationary setups and for testing the pipeline.
package geolocation_file

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/wneessen/guia-turistico/internal/geobus"
)

const (
	name = "geolocation_file"
)

var ErrNoCoordinates = errors.New("no valid coordinates found in geolocation file")

// GeolocationFileProvider reads coordinates from a file and emits them as samples. The file is
// re-read periodically and a new sample is only emitted when the coordinates change.
//
// Each non-empty line that does not start with "#" is parsed as "lat,lon[,accuracy]". The first
// valid line wins.
type GeolocationFileProvider struct {
	name     string
	path     string
	period   time.Duration
	locateFn func() (geobus.Sample, error)
	nowFn    func() time.Time
}

// NewGeolocationFileProvider initializes a GeolocationFileProvider with a file path and the
// default update interval.
func NewGeolocationFileProvider(path string) *GeolocationFileProvider {
	provider := &GeolocationFileProvider{
		name:   name,
		path:   path,
		period: time.Minute * 2,
		nowFn:  time.Now,
	}
	provider.locateFn = provider.readFile
	return provider
}

// Name returns the name of the GeolocationFileProvider instance.
func (p *GeolocationFileProvider) Name() string {
	return p.name
}

// LookupStream continuously streams samples from the file, emitting updates when the coordinates
// change, until the context ends.
func (p *GeolocationFileProvider) LookupStream(ctx context.Context) <-chan geobus.Sample {
	out := make(chan geobus.Sample)
	go func() {
		defer close(out)
		state := geobus.GeolocationState{}
		firstRun := true

		for {
			if !firstRun {
				select {
				case <-ctx.Done():
					return
				case <-time.After(p.period):
				}
			}
			firstRun = false

			sample, err := p.locateFn()
			if err != nil {
				continue
			}

			// Only emit if values changed or it's the first read
			if !state.HasChanged(sample) {
				continue
			}
			state.Update(sample)
			sample.Timestamp = p.nowFn()
			sample.Source = p.name

			select {
			case <-ctx.Done():
				return
			case out <- sample:
			}
		}
	}()
	return out
}

// readFile reads the coordinates from the file at the configured path.
func (p *GeolocationFileProvider) readFile() (geobus.Sample, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return geobus.Sample{}, fmt.Errorf("failed to read geolocation file %q: %w", p.path, err)
	}
	return parseCoordinates(data)
}

// parseCoordinates returns the first valid "lat,lon[,accuracy]" line of data.
func parseCoordinates(data []byte) (geobus.Sample, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) != 2 && len(fields) != 3 {
			continue
		}
		values := make([]float64, len(fields))
		valid := true
		for i, field := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				valid = false
				break
			}
			values[i] = v
		}
		if !valid {
			continue
		}

		sample := geobus.NewSample(values[0], values[1], time.Time{})
		if len(values) == 3 {
			sample = sample.WithAccuracy(values[2])
		}
		return sample, nil
	}
	return geobus.Sample{}, ErrNoCoordinates
}
