// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package testhelper contains helpers shared by package tests.
package testhelper

import (
	"net/http"
	"os"
	"testing"
)

const (
	// IntegrationTestEnv enables tests that talk to real services when set to "true".
	IntegrationTestEnv = "PERFORM_INTEGRATION_TESTS"

	// TestOnlineAPIURL is a cheap JSON endpoint used by integration tests.
	TestOnlineAPIURL = "https://nominatim.openstreetmap.org/status?format=json"
)

// MockRoundTripper is a http.RoundTripper that calls Fn for every request.
type MockRoundTripper struct {
	Fn func(req *http.Request) (*http.Response, error)
}

// RoundTrip implements http.RoundTripper.
func (m MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.Fn(req)
}

// FileResponse returns a round trip function that answers every request with the contents
// of the given file and status code.
func FileResponse(t *testing.T, path string, status int) func(*http.Request) (*http.Response, error) {
	t.Helper()
	return func(*http.Request) (*http.Response, error) {
		data, err := os.Open(path)
		if err != nil {
			t.Fatalf("failed to open response file: %s", err)
		}
		return &http.Response{
			StatusCode: status,
			Body:       data,
			Header:     make(http.Header),
		}, nil
	}
}

// PerformIntegrationTests skips the test unless integration tests are enabled.
func PerformIntegrationTests(t *testing.T) {
	t.Helper()
	if os.Getenv(IntegrationTestEnv) != "true" {
		t.Skipf("skipping integration test, set %s=true to enable", IntegrationTestEnv)
	}
}
