// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package metrics bundles the Prometheus metrics of the tracking pipeline. All recording
// methods are safe to call on a nil *Collector, so components can run without metrics.
package metrics

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "guia_turistico"

// Collector holds the pipeline metrics.
type Collector struct {
	gatherer prometheus.Gatherer

	Samples              *prometheus.CounterVec
	NotificationFailures prometheus.Counter
	CacheLookups         *prometheus.CounterVec
	CacheEvictions       prometheus.Counter
	CacheEntries         prometheus.Gauge
	Resolutions          *prometheus.CounterVec
	ChangeEvents         *prometheus.CounterVec
	StaleAddresses       prometheus.Counter
	SpeechEnqueued       prometheus.Counter
	SpeechDropped        *prometheus.CounterVec
	SpeechSpoken         *prometheus.CounterVec
	QueueLength          prometheus.Gauge
}

// New registers the pipeline metrics against the provided registerer, defaulting to
// the global Prometheus registry when nil.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &Collector{
		gatherer: gatherer,
		Samples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "position_samples_total",
			Help:      "Position samples submitted to the geobus, labeled by result and rejection reason.",
		}, []string{"result", "reason"}),
		NotificationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_failures_total",
			Help:      "Subscriber and sink notifications that returned an error or panicked.",
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "address_cache_lookups_total",
			Help:      "Address cache lookups, labeled by hit or miss.",
		}, []string{"result"}),
		CacheEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "address_cache_evictions_total",
			Help:      "Address cache entries evicted by the LRU policy.",
		}),
		CacheEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "address_cache_entries",
			Help:      "Current number of entries in the address cache.",
		}),
		Resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "address_resolutions_total",
			Help:      "Reverse geocoding resolutions, labeled by result.",
		}, []string{"result"}),
		ChangeEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "change_events_total",
			Help:      "Address change events, labeled by field.",
		}, []string{"field"}),
		StaleAddresses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_addresses_total",
			Help:      "Resolved addresses ignored because a newer position was already applied.",
		}),
		SpeechEnqueued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "speech_enqueued_total",
			Help:      "Speech items added to the queue.",
		}),
		SpeechDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "speech_dropped_total",
			Help:      "Speech items removed without being spoken, labeled by reason.",
		}, []string{"reason"}),
		SpeechSpoken: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "speech_spoken_total",
			Help:      "Speech items handed to the speech sink, labeled by result.",
		}, []string{"result"}),
		QueueLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "speech_queue_length",
			Help:      "Current number of pending speech items.",
		}),
	}

	collectors := []prometheus.Collector{
		c.Samples, c.NotificationFailures, c.CacheLookups, c.CacheEvictions, c.CacheEntries,
		c.Resolutions, c.ChangeEvents, c.StaleAddresses, c.SpeechEnqueued, c.SpeechDropped,
		c.SpeechSpoken, c.QueueLength,
	}
	for _, col := range collectors {
		if err := reg.Register(col); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				return nil, fmt.Errorf("metrics already registered: %w", err)
			}
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}

	return c, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SampleAccepted records an accepted position sample.
func (c *Collector) SampleAccepted() {
	if c == nil {
		return
	}
	c.Samples.WithLabelValues("accepted", "").Inc()
}

// SampleRejected records a rejected position sample with its reason.
func (c *Collector) SampleRejected(reason string) {
	if c == nil {
		return
	}
	c.Samples.WithLabelValues("rejected", reason).Inc()
}

// NotificationFailed records a failed subscriber or sink notification.
func (c *Collector) NotificationFailed() {
	if c == nil {
		return
	}
	c.NotificationFailures.Inc()
}

// CacheLookup records an address cache lookup.
func (c *Collector) CacheLookup(hit bool) {
	if c == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.CacheLookups.WithLabelValues(result).Inc()
}

// CacheEvicted records an LRU eviction.
func (c *Collector) CacheEvicted() {
	if c == nil {
		return
	}
	c.CacheEvictions.Inc()
}

// CacheSize records the current number of cache entries.
func (c *Collector) CacheSize(n int) {
	if c == nil {
		return
	}
	c.CacheEntries.Set(float64(n))
}

// Resolution records the outcome of a reverse geocoding request.
func (c *Collector) Resolution(err error) {
	if c == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "failed"
	}
	c.Resolutions.WithLabelValues(result).Inc()
}

// ChangeEvent records an emitted change event for the given field.
func (c *Collector) ChangeEvent(field string) {
	if c == nil {
		return
	}
	c.ChangeEvents.WithLabelValues(field).Inc()
}

// StaleAddress records an address ignored by the out-of-order guard.
func (c *Collector) StaleAddress() {
	if c == nil {
		return
	}
	c.StaleAddresses.Inc()
}

// SpeechQueued records an enqueued speech item and the resulting queue length.
func (c *Collector) SpeechQueued(length int) {
	if c == nil {
		return
	}
	c.SpeechEnqueued.Inc()
	c.QueueLength.Set(float64(length))
}

// SpeechDrop records a speech item removed for the given reason.
func (c *Collector) SpeechDrop(reason string, length int) {
	if c == nil {
		return
	}
	c.SpeechDropped.WithLabelValues(reason).Inc()
	c.QueueLength.Set(float64(length))
}

// Spoken records a speech item handed to the sink and the resulting queue length.
func (c *Collector) Spoken(err error, length int) {
	if c == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "failed"
	}
	c.SpeechSpoken.WithLabelValues(result).Inc()
	c.QueueLength.Set(float64(length))
}
