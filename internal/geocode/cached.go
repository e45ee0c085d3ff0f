// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geocode

import (
	"context"
	"fmt"

	"github.com/wneessen/guia-turistico/internal/geobus"
	"github.com/wneessen/guia-turistico/internal/metrics"
)

// CachedGeocoder wraps a Geocoder with an address Cache. Failed lookups are never cached.
type CachedGeocoder struct {
	coder   Geocoder
	cache   *Cache
	metrics *metrics.Collector
}

// NewCachedGeocoder returns a Geocoder that serves repeated lookups from the cache.
func NewCachedGeocoder(coder Geocoder, cache *Cache, collector *metrics.Collector) *CachedGeocoder {
	return &CachedGeocoder{
		coder:   coder,
		cache:   cache,
		metrics: collector,
	}
}

func (c *CachedGeocoder) Name() string {
	return "geocoder cache using " + c.coder.Name()
}

// Cache returns the underlying address cache.
func (c *CachedGeocoder) Cache() *Cache {
	return c.cache
}

// Reverse returns the cached address for the position or resolves it with the wrapped
// Geocoder. Errors of the wrapped Geocoder are returned wrapped in ErrResolutionFailed.
func (c *CachedGeocoder) Reverse(ctx context.Context, pos geobus.Position) (Address, error) {
	if addr, ok := c.cache.Get(pos); ok {
		return addr, nil
	}

	addr, err := c.coder.Reverse(ctx, pos)
	c.metrics.Resolution(err)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %s: %w", ErrResolutionFailed, c.coder.Name(), err)
	}
	c.cache.Put(pos, addr)
	return addr, nil
}
