// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestNew(t *testing.T) {
	t.Run("registering against a fresh registry succeeds", func(t *testing.T) {
		c, err := New(prometheus.NewRegistry())
		if err != nil {
			t.Fatalf("failed to create collector: %s", err)
		}
		if c == nil {
			t.Fatal("expected collector to be non-nil")
		}
	})
	t.Run("registering twice against the same registry fails", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		if _, err := New(reg); err != nil {
			t.Fatalf("failed to create collector: %s", err)
		}
		if _, err := New(reg); err == nil {
			t.Error("expected second registration to fail")
		}
	})
}

func TestCollector_Recording(t *testing.T) {
	c, err := New(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("failed to create collector: %s", err)
	}

	c.SampleAccepted()
	c.SampleRejected("insignificant")
	c.SampleRejected("insignificant")
	c.CacheLookup(true)
	c.CacheLookup(false)
	c.CacheEvicted()
	c.CacheSize(7)
	c.Resolution(nil)
	c.Resolution(errors.New("boom"))
	c.ChangeEvent("municipio")
	c.SpeechQueued(3)
	c.SpeechDrop("expired", 2)
	c.Spoken(nil, 1)

	tests := []struct {
		name      string
		collector prometheus.Collector
		want      float64
	}{
		{"accepted samples", c.Samples.WithLabelValues("accepted", ""), 1},
		{"rejected samples", c.Samples.WithLabelValues("rejected", "insignificant"), 2},
		{"cache hits", c.CacheLookups.WithLabelValues("hit"), 1},
		{"cache misses", c.CacheLookups.WithLabelValues("miss"), 1},
		{"cache evictions", c.CacheEvictions, 1},
		{"cache entries", c.CacheEntries, 7},
		{"failed resolutions", c.Resolutions.WithLabelValues("failed"), 1},
		{"municipio changes", c.ChangeEvents.WithLabelValues("municipio"), 1},
		{"expired speech items", c.SpeechDropped.WithLabelValues("expired"), 1},
		{"queue length", c.QueueLength, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := testutil.ToFloat64(tc.collector); got != tc.want {
				t.Errorf("expected %s to be %f, got %f", tc.name, tc.want, got)
			}
		})
	}
}

func TestCollector_Nil(t *testing.T) {
	t.Run("recording on a nil collector does not panic", func(t *testing.T) {
		var c *Collector
		c.SampleAccepted()
		c.SampleRejected("stale")
		c.NotificationFailed()
		c.CacheLookup(true)
		c.CacheEvicted()
		c.CacheSize(1)
		c.Resolution(nil)
		c.ChangeEvent("bairro")
		c.StaleAddress()
		c.SpeechQueued(1)
		c.SpeechDrop("capacity", 1)
		c.Spoken(nil, 0)
	})
}

func TestCollector_Handler(t *testing.T) {
	c, err := New(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("failed to create collector: %s", err)
	}
	c.SampleAccepted()

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status code 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "guia_turistico_position_samples_total") {
		t.Error("expected metrics output to contain the samples counter")
	}
}

func TestCollector_Gather(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := New(reg)
	if err != nil {
		t.Fatalf("failed to create collector: %s", err)
	}
	c.SpeechQueued(4)
	c.CacheLookup(true)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %s", err)
	}
	types := make(map[string]dto.MetricType, len(families))
	for _, family := range families {
		types[family.GetName()] = family.GetType()
	}

	tests := []struct {
		name string
		want dto.MetricType
	}{
		{namespace + "_speech_queue_length", dto.MetricType_GAUGE},
		{namespace + "_speech_enqueued_total", dto.MetricType_COUNTER},
		{namespace + "_address_cache_lookups_total", dto.MetricType_COUNTER},
	}
	for _, tc := range tests {
		t.Run(tc.name+" is exported with the expected type", func(t *testing.T) {
			got, ok := types[tc.name]
			if !ok {
				t.Fatalf("expected metric family %s to be gathered", tc.name)
			}
			if got != tc.want {
				t.Errorf("expected type %s, got %s", tc.want, got)
			}
		})
	}
}
