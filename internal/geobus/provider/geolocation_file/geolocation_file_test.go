// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geolocation_file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/synctest"
	"time"

	"github.com/wneessen/guia-turistico/internal/geobus"
)

const (
	testFile = "../../../../testdata/geolocation"
	testLat  = -18.4696091
	testLon  = -43.4953982
	testAcc  = 10.0
)

func TestNewGeolocationFileProvider(t *testing.T) {
	t.Run("new geolocation file provider succeeds", func(t *testing.T) {
		provider := NewGeolocationFileProvider(testFile)
		if provider == nil {
			t.Fatal("expected provider to be non-nil")
		}
	})
}

func TestGeolocationFileProvider_Name(t *testing.T) {
	provider := NewGeolocationFileProvider(testFile)
	if !strings.EqualFold(provider.Name(), name) {
		t.Errorf("expected provider name to be %s, got %s", name, provider.Name())
	}
}

func TestGeolocationFileProvider_readFile(t *testing.T) {
	t.Run("read file succeeds", func(t *testing.T) {
		provider := NewGeolocationFileProvider(testFile)
		sample, err := provider.readFile()
		if err != nil {
			t.Fatalf("failed to read file: %s", err)
		}
		if sample.Latitude.Value() != testLat {
			t.Errorf("expected latitude to be %f, got %s", testLat, sample.Latitude)
		}
		if sample.Longitude.Value() != testLon {
			t.Errorf("expected longitude to be %f, got %s", testLon, sample.Longitude)
		}
		if sample.Accuracy.Value() != testAcc {
			t.Errorf("expected accuracy to be %f, got %s", testAcc, sample.Accuracy)
		}
	})
	t.Run("read of non-existent file fails", func(t *testing.T) {
		provider := NewGeolocationFileProvider("non-existent.txt")
		if _, err := provider.readFile(); err == nil {
			t.Error("expected error, but didn't get one")
		}
	})
	t.Run("reading invalid file fails", func(t *testing.T) {
		provider := NewGeolocationFileProvider(testFile + "_nocoord")
		_, err := provider.readFile()
		if !errors.Is(err, ErrNoCoordinates) {
			t.Errorf("expected error to be %s, got %v", ErrNoCoordinates, err)
		}
	})
}

func TestParseCoordinates(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		lat     float64
		lon     float64
		hasAcc  bool
		wantErr bool
	}{
		{"coordinates without accuracy", "-18.4696091,-43.4953982", testLat, testLon, false, false},
		{"coordinates with accuracy", "-18.4696091, -43.4953982, 10", testLat, testLon, true, false},
		{"comments and blank lines are skipped", "# home\n\n-18.4696091,-43.4953982\n", testLat, testLon, false, false},
		{"invalid lines are skipped", "foo,bar\n1,2,3,4\n-18.4696091,-43.4953982", testLat, testLon, false, false},
		{"first valid line wins", "1,2\n3,4", 1, 2, false, false},
		{"no coordinates", "# nothing\nMilho Verde", 0, 0, false, true},
		{"empty file", "", 0, 0, false, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sample, err := parseCoordinates([]byte(tc.data))
			if tc.wantErr {
				if !errors.Is(err, ErrNoCoordinates) {
					t.Errorf("expected ErrNoCoordinates, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("failed to parse coordinates: %s", err)
			}
			if sample.Latitude.Value() != tc.lat || sample.Longitude.Value() != tc.lon {
				t.Errorf("expected %f,%f, got %s,%s", tc.lat, tc.lon, sample.Latitude, sample.Longitude)
			}
			if sample.Accuracy.IsSet() != tc.hasAcc {
				t.Errorf("expected accuracy to be set: %t", tc.hasAcc)
			}
		})
	}
}

func TestGeolocationFileProvider_LookupStream(t *testing.T) {
	t.Run("stream emits the coordinates of the file", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			ctx, cancel := context.WithCancel(t.Context())
			defer cancel()

			provider := NewGeolocationFileProvider(testFile)
			out := provider.LookupStream(ctx)

			sample := <-out
			cancel()
			synctest.Wait()

			if sample.Latitude.Value() != testLat {
				t.Errorf("expected latitude to be %f, got %s", testLat, sample.Latitude)
			}
			if sample.Source != name {
				t.Errorf("expected source to be %s, got %s", name, sample.Source)
			}
			if sample.Timestamp.IsZero() {
				t.Error("expected timestamp to be set")
			}
		})
	})
	t.Run("unchanged coordinates are only emitted once", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			ctx, cancel := context.WithCancel(t.Context())
			defer cancel()

			calls := 0
			provider := NewGeolocationFileProvider(testFile)
			provider.period = time.Second
			provider.locateFn = func() (geobus.Sample, error) {
				calls++
				switch calls {
				case 1:
					return geobus.Sample{}, errors.New("intentionally failing")
				case 2, 3:
					return geobus.NewSample(1, 2, time.Time{}), nil
				default:
					return geobus.NewSample(3, 4, time.Time{}), nil
				}
			}

			out := provider.LookupStream(ctx)
			first := <-out
			second := <-out
			cancel()
			synctest.Wait()

			if first.Latitude.Value() != 1 || second.Latitude.Value() != 3 {
				t.Errorf("expected latitudes 1 and 3, got %s and %s", first.Latitude, second.Latitude)
			}
			if calls != 4 {
				t.Errorf("expected 4 reads, got %d", calls)
			}
		})
	})
	t.Run("changes to the file are picked up", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "geolocation")
		if err := os.WriteFile(path, []byte("1,2\n"), 0o600); err != nil {
			t.Fatalf("failed to write geolocation file: %s", err)
		}
		provider := NewGeolocationFileProvider(path)
		sample, err := provider.readFile()
		if err != nil || sample.Latitude.Value() != 1 {
			t.Fatalf("expected latitude 1, got %s (%v)", sample.Latitude, err)
		}
		if err = os.WriteFile(path, []byte("5,6,20\n"), 0o600); err != nil {
			t.Fatalf("failed to write geolocation file: %s", err)
		}
		sample, err = provider.readFile()
		if err != nil || sample.Latitude.Value() != 5 || sample.Accuracy.Value() != 20 {
			t.Errorf("expected latitude 5 and accuracy 20, got %s and %s (%v)", sample.Latitude,
				sample.Accuracy, err)
		}
	})
}
