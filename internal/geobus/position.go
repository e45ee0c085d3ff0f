// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geobus

import (
	"fmt"
	"math"
	"time"

	"github.com/wneessen/guia-turistico/internal/vartype"
)

// EarthRadius is the mean earth radius in meters used for great-circle distances.
const EarthRadius = 6371000.0

// Accuracy quality thresholds in meters. An accuracy below AccuracyExcellent is excellent,
// below AccuracyGood is good, below AccuracyFair is fair and anything else is poor.
const (
	AccuracyExcellent = 10.0
	AccuracyGood      = 30.0
	AccuracyFair      = 100.0
)

// Quality is a qualitative label for the accuracy of a position.
type Quality int

const (
	QualityUnknown Quality = iota
	QualityExcellent
	QualityGood
	QualityFair
	QualityPoor
)

// String returns the label of the Quality.
func (q Quality) String() string {
	switch q {
	case QualityExcellent:
		return "excellent"
	case QualityGood:
		return "good"
	case QualityFair:
		return "fair"
	case QualityPoor:
		return "poor"
	default:
		return "unknown"
	}
}

// Sample is a raw, untrusted location reading as delivered by a position source.
// Latitude and Longitude are required, all other values are optional. A zero
// Timestamp is replaced with the submit time by the GeoBus.
type Sample struct {
	Latitude  vartype.VarFloat64
	Longitude vartype.VarFloat64
	Accuracy  vartype.VarFloat64
	Altitude  vartype.VarFloat64
	Speed     vartype.VarFloat64
	Heading   vartype.VarFloat64
	Timestamp time.Time
	Source    string
}

// NewSample returns a Sample with the given coordinates and timestamp.
func NewSample(lat, lon float64, ts time.Time) Sample {
	return Sample{
		Latitude:  vartype.NewVariable(lat),
		Longitude: vartype.NewVariable(lon),
		Timestamp: ts,
	}
}

// WithAccuracy returns a copy of the Sample with the horizontal accuracy set.
func (s Sample) WithAccuracy(meters float64) Sample {
	s.Accuracy = vartype.NewVariable(meters)
	return s
}

// Position is a validated location sample. Positions are values: they are created once
// by NewPosition and never modified afterwards.
type Position struct {
	Lat       float64
	Lon       float64
	Accuracy  vartype.VarFloat64
	Altitude  vartype.VarFloat64
	Speed     vartype.VarFloat64
	Heading   vartype.VarFloat64
	Timestamp time.Time
	Source    string
}

// NewPosition validates a raw sample and converts it into a Position. It returns a
// *ValidationError with ReasonMalformed if required values are missing or any value is
// not a finite number within its valid range.
func NewPosition(s Sample) (Position, error) {
	lat, ok := s.Latitude.Get()
	if !ok {
		return Position{}, malformed("latitude is missing")
	}
	lon, ok := s.Longitude.Get()
	if !ok {
		return Position{}, malformed("longitude is missing")
	}
	if !finite(lat) || lat < -90 || lat > 90 {
		return Position{}, malformed(fmt.Sprintf("latitude %v is out of range", lat))
	}
	if !finite(lon) || lon < -180 || lon > 180 {
		return Position{}, malformed(fmt.Sprintf("longitude %v is out of range", lon))
	}

	optional := []struct {
		name string
		v    vartype.VarFloat64
	}{
		{"accuracy", s.Accuracy},
		{"altitude", s.Altitude},
		{"speed", s.Speed},
		{"heading", s.Heading},
	}
	for _, o := range optional {
		if val, set := o.v.Get(); set && !finite(val) {
			return Position{}, malformed(fmt.Sprintf("%s is not a finite number", o.name))
		}
	}
	if acc, set := s.Accuracy.Get(); set && acc < 0 {
		return Position{}, malformed("accuracy must not be negative")
	}

	return Position{
		Lat:       lat,
		Lon:       lon,
		Accuracy:  s.Accuracy,
		Altitude:  s.Altitude,
		Speed:     s.Speed,
		Heading:   s.Heading,
		Timestamp: s.Timestamp,
		Source:    s.Source,
	}, nil
}

// DistanceTo returns the great-circle distance in meters between the position and another one.
func (p Position) DistanceTo(other Position) float64 {
	return p.DistanceToCoords(other.Lat, other.Lon)
}

// DistanceToCoords returns the great-circle distance in meters between the position and the
// given coordinates. We are using the Haversine formula on a sphere (in our case: Earth).
func (p Position) DistanceToCoords(lat, lon float64) float64 {
	dLat := (lat - p.Lat) * math.Pi / 180
	dLon := (lon - p.Lon) * math.Pi / 180
	lat1 := p.Lat * math.Pi / 180
	lat2 := lat * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	h = math.Min(1, h)
	return 2 * EarthRadius * math.Asin(math.Sqrt(h))
}

// AccuracyQuality returns the qualitative label for the position's accuracy.
func (p Position) AccuracyQuality() Quality {
	acc, ok := p.Accuracy.Get()
	switch {
	case !ok:
		return QualityUnknown
	case acc < AccuracyExcellent:
		return QualityExcellent
	case acc < AccuracyGood:
		return QualityGood
	case acc < AccuracyFair:
		return QualityFair
	default:
		return QualityPoor
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
