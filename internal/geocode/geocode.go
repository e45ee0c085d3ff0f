// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package geocode resolves positions into Brazilian street addresses and caches the results.
package geocode

import (
	"context"
	"errors"
	"strings"

	"github.com/wneessen/guia-turistico/internal/geobus"
)

// ErrResolutionFailed is returned when a position could not be resolved into an address.
var ErrResolutionFailed = errors.New("address resolution failed")

// Address is the result of a reverse geocoding lookup, using the Brazilian address terms.
type Address struct {
	// Logradouro is the street, avenue or square.
	Logradouro string
	// Numero is the house number.
	Numero string
	// Bairro is the neighbourhood or district.
	Bairro string
	// Municipio is the municipality.
	Municipio string
	// UF is the two-letter code of the federal unit (state).
	UF string
	// CEP is the postal code.
	CEP         string
	Country     string
	DisplayName string
	Latitude    float64
	Longitude   float64
	// Found is false if the geocoder returned no address for the position.
	Found bool
	// CacheHit is true if the address was served from the Cache.
	CacheHit bool
	// Raw holds the provider specific response, if any.
	Raw any
}

// Geocoder defines an interface for reverse geocoding services.
type Geocoder interface {
	Name() string
	Reverse(ctx context.Context, pos geobus.Position) (Address, error)
}

// StateCode returns the federal unit code from an ISO 3166-2 subdivision code like "BR-MG".
// Values without a country prefix are returned upper-cased.
func StateCode(iso string) string {
	iso = strings.TrimSpace(iso)
	if idx := strings.LastIndex(iso, "-"); idx >= 0 {
		iso = iso[idx+1:]
	}
	return strings.ToUpper(iso)
}

// FirstOf returns the first non-empty value after trimming whitespace.
func FirstOf(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
