// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geobus

// GeolocationState tracks the last coordinates emitted by a position source.
// It is used by providers to avoid emitting the same reading over and over.
type GeolocationState struct {
	lat, lon float64
	haveLast bool
}

// HasChanged reports whether the sample's coordinates differ from the last stored ones.
// A change in accuracy alone is not considered a positional change.
func (s *GeolocationState) HasChanged(sample Sample) bool {
	if !s.haveLast {
		return true
	}
	return sample.Latitude.Value() != s.lat || sample.Longitude.Value() != s.lon
}

// Update stores the coordinates of the given sample.
func (s *GeolocationState) Update(sample Sample) {
	s.lat = sample.Latitude.Value()
	s.lon = sample.Longitude.Value()
	s.haveLast = true
}
