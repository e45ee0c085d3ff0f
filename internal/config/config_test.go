// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package config

import (
	"log/slog"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/wneessen/guia-turistico/internal/change"
)

func TestNew(t *testing.T) {
	const (
		expectLogLevel      = slog.LevelInfo
		expectMinDistance   = 20.0
		expectMinInterval   = time.Minute
		expectMaxAccuracy   = 100.0
		expectCacheCapacity = 200
		expectPrecision     = 4
		expectSpeechTTL     = time.Second * 5
		expectSpeechCap     = 5
		expectSpeechIntval  = time.Second
		expectProvider      = "nominatim"
		expectGPSDAddress   = "localhost:2947"
		expectStatusIntval  = time.Minute * 5
	)
	t.Run("new config with all defaults set", func(t *testing.T) {
		conf, err := New()
		if err != nil {
			t.Fatalf("failed to load config: %s", err)
		}
		if conf.LogLevel != expectLogLevel {
			t.Errorf("expected log level to be: %s, got %s", expectLogLevel, conf.LogLevel)
		}
		if conf.Tracking.MinDistance != expectMinDistance {
			t.Errorf("expected min distance to be: %f, got %f", expectMinDistance, conf.Tracking.MinDistance)
		}
		if conf.Tracking.MinInterval != expectMinInterval {
			t.Errorf("expected min interval to be: %s, got %s", expectMinInterval, conf.Tracking.MinInterval)
		}
		if conf.Tracking.MaxAccuracy != expectMaxAccuracy {
			t.Errorf("expected max accuracy to be: %f, got %f", expectMaxAccuracy, conf.Tracking.MaxAccuracy)
		}
		if conf.Cache.Capacity != expectCacheCapacity {
			t.Errorf("expected cache capacity to be: %d, got %d", expectCacheCapacity, conf.Cache.Capacity)
		}
		if conf.Cache.Precision != expectPrecision {
			t.Errorf("expected cache precision to be: %d, got %d", expectPrecision, conf.Cache.Precision)
		}
		if conf.Speech.TTL != expectSpeechTTL {
			t.Errorf("expected speech ttl to be: %s, got %s", expectSpeechTTL, conf.Speech.TTL)
		}
		if conf.Speech.Capacity != expectSpeechCap {
			t.Errorf("expected speech capacity to be: %d, got %d", expectSpeechCap, conf.Speech.Capacity)
		}
		if conf.Speech.Interval != expectSpeechIntval {
			t.Errorf("expected speech interval to be: %s, got %s", expectSpeechIntval, conf.Speech.Interval)
		}
		if conf.GeoCoder.Provider != expectProvider {
			t.Errorf("expected geocoder provider to be: %s, got %s", expectProvider, conf.GeoCoder.Provider)
		}
		if conf.GeoLocation.GPSDAddress != expectGPSDAddress {
			t.Errorf("expected gpsd address to be: %s, got %s", expectGPSDAddress, conf.GeoLocation.GPSDAddress)
		}
		if conf.Intervals.Status != expectStatusIntval {
			t.Errorf("expected status interval to be: %s, got %s", expectStatusIntval, conf.Intervals.Status)
		}
		if !strings.HasSuffix(conf.GeoLocation.GeoLocationFile, "geolocation") {
			t.Errorf("expected default geolocation file, got %s", conf.GeoLocation.GeoLocationFile)
		}
		if conf.Metrics.Listen != "" {
			t.Errorf("expected metrics endpoint to be disabled, got %s", conf.Metrics.Listen)
		}
	})
	t.Run("default change priority is municipio, bairro, logradouro", func(t *testing.T) {
		conf, err := New()
		if err != nil {
			t.Fatalf("failed to load config: %s", err)
		}
		priority, err := conf.ChangePriority()
		if err != nil {
			t.Fatalf("failed to parse change priority: %s", err)
		}
		if !slices.Equal(priority, change.DefaultPriority) {
			t.Errorf("expected change priority to be: %v, got %v", change.DefaultPriority, priority)
		}
	})
	t.Run("default speech priorities rank municipio highest", func(t *testing.T) {
		conf, err := New()
		if err != nil {
			t.Fatalf("failed to load config: %s", err)
		}
		prio := conf.SpeechPriorities()
		if prio[change.FieldMunicipio] != 2 || prio[change.FieldBairro] != 1 || prio[change.FieldLogradouro] != 0 {
			t.Errorf("unexpected speech priorities: %v", prio)
		}
	})
	t.Run("templates from env are returned per field", func(t *testing.T) {
		t.Setenv("GUIATURISTICO_TEMPLATES_BAIRRO", "Bairro {{.Current}}")
		conf, err := New()
		if err != nil {
			t.Fatalf("failed to load config: %s", err)
		}
		templates := conf.FieldTemplates()
		if templates[change.FieldBairro] != "Bairro {{.Current}}" {
			t.Errorf("unexpected bairro template: %q", templates[change.FieldBairro])
		}
		if templates[change.FieldMunicipio] != "" {
			t.Errorf("expected empty municipio template, got %q", templates[change.FieldMunicipio])
		}
	})
	t.Run("new config with invalid values from env", func(t *testing.T) {
		t.Setenv("GUIATURISTICO_LOGLEVEL", "invalid")
		_, err := New()
		if err == nil {
			t.Error("expected config to fail, but didn't")
		}
	})

	invalid := []struct {
		name  string
		key   string
		value string
	}{
		{"negative minimum distance", "GUIATURISTICO_TRACKING_MIN_DISTANCE", "-1"},
		{"negative minimum interval", "GUIATURISTICO_TRACKING_MIN_INTERVAL", "-1s"},
		{"negative maximum accuracy", "GUIATURISTICO_TRACKING_MAX_ACCURACY", "-5"},
		{"zero cache capacity", "GUIATURISTICO_CACHE_CAPACITY", "0"},
		{"cache precision too high", "GUIATURISTICO_CACHE_PRECISION", "9"},
		{"negative cache precision", "GUIATURISTICO_CACHE_PRECISION", "-1"},
		{"unknown change field", "GUIATURISTICO_CHANGE_PRIORITY", "[municipio,estado]"},
		{"zero speech ttl", "GUIATURISTICO_SPEECH_TTL", "0s"},
		{"zero speech capacity", "GUIATURISTICO_SPEECH_CAPACITY", "0"},
		{"zero speech interval", "GUIATURISTICO_SPEECH_INTERVAL", "0s"},
		{"negative speech width", "GUIATURISTICO_SPEECH_WIDTH", "-1"},
		{"zero status interval", "GUIATURISTICO_INTERVALS_STATUS", "0s"},
	}
	for _, tc := range invalid {
		t.Run("config validate "+tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			_, err := New()
			if err == nil {
				t.Error("expected config to fail, but didn't")
			}
		})
	}
	t.Run("locale is taken from LC_MESSAGES", func(t *testing.T) {
		t.Setenv("LC_MESSAGES", "pt_BR.UTF-8")
		conf, err := New()
		if err != nil {
			t.Fatalf("failed to load config: %s", err)
		}
		if conf.Locale != "pt-BR" {
			t.Errorf("expected locale to be: pt-BR, got %s", conf.Locale)
		}
	})
}

func TestNewFromFile(t *testing.T) {
	t.Run("reading config from valid file succeeds", func(t *testing.T) {
		conf, err := NewFromFile("../../etc", "config.toml")
		if err != nil {
			t.Fatalf("failed to load config: %s", err)
		}
		if conf.LogLevel != slog.LevelInfo {
			t.Errorf("expected log level to be: %s, got %s", slog.LevelInfo, conf.LogLevel)
		}
		if conf.Speech.Width != 80 {
			t.Errorf("expected speech width to be: 80, got %d", conf.Speech.Width)
		}
		if conf.Cache.Capacity != 200 {
			t.Errorf("expected cache capacity to be: 200, got %d", conf.Cache.Capacity)
		}
		if conf.GeoCoder.Provider != "nominatim" {
			t.Errorf("expected geocoder provider to be: nominatim, got %s", conf.GeoCoder.Provider)
		}
	})
	t.Run("reading config from non-existent file fails", func(t *testing.T) {
		_, err := NewFromFile("../../etc", "non-existent.toml")
		if err == nil {
			t.Error("expected config to fail, but didn't")
		}
	})
	t.Run("reading invalid config file fails", func(t *testing.T) {
		_, err := NewFromFile("../../testdata", "invalid.toml")
		if err == nil {
			t.Error("expected config to fail, but didn't")
		}
	})
}
