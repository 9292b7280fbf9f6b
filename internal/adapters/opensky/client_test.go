package opensky

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/giovanto/overhead/internal/core/domain"
)

var testBounds = domain.Bounds{MinLat: 52.0, MinLon: 4.4, MaxLat: 52.6, MaxLon: 5.2}

const statesPayload = `{
	"time": 1700000000,
	"states": [
		["484506", "KLM1234 ", "Kingdom of the Netherlands", 1699999998, 1700000000,
		 4.7683, 52.3105, 457.2, false, 128.6, 273.5, -4.5, null, 480.1, "1000", false, 0],
		["a1b2c3", null, "United States", null, 1700000000,
		 4.90, 52.45, null, false, null, null, null, null, null, null, false, 0],
		["000000", null, "Unknown", null, 1700000000,
		 0.0, 0.0, 100.0, false, null, null, null, null, null, null, false, 0],
		["ffffff", null, "Unknown", null, 1700000000,
		 null, 52.40, 100.0, false, null, null, null, null, null, null, false, 0]
	]
}`

func TestFetchStatesAnonymous(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/states/all" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("anonymous client must not send Authorization")
		}
		q := r.URL.Query()
		if q.Get("lamin") != "52" || q.Get("lomax") != "5.2" {
			t.Errorf("unexpected bounding box params: %v", q)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(statesPayload))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	reports, err := c.FetchStates(context.Background(), testBounds)
	if err != nil {
		t.Fatalf("FetchStates: %v", err)
	}

	// Null-island and missing-coordinate states are dropped.
	if len(reports) != 2 {
		t.Fatalf("got %d reports, want 2", len(reports))
	}

	r := reports[0]
	if r.ICAO24 != "484506" {
		t.Errorf("icao24 = %q", r.ICAO24)
	}
	if r.Callsign != "KLM1234" {
		t.Errorf("callsign not trimmed: %q", r.Callsign)
	}
	if r.Latitude == nil || *r.Latitude != 52.3105 {
		t.Errorf("latitude = %v", r.Latitude)
	}
	if r.BaroAltitudeFt == nil || math.Abs(*r.BaroAltitudeFt-1500) > 1 {
		t.Errorf("457.2 m should convert to ~1500 ft, got %v", r.BaroAltitudeFt)
	}
	if r.VelocityKt == nil || math.Abs(*r.VelocityKt-250) > 1 {
		t.Errorf("128.6 m/s should convert to ~250 kt, got %v", r.VelocityKt)
	}
	if !r.Time.Equal(time.Unix(1699999998, 0)) {
		t.Errorf("report time should use time_position, got %v", r.Time)
	}

	sparse := reports[1]
	if sparse.BaroAltitudeFt != nil || sparse.VelocityKt != nil || sparse.TrackDeg != nil {
		t.Error("null feed fields must stay nil")
	}
	if !sparse.Time.Equal(time.Unix(1700000000, 0)) {
		t.Errorf("missing time_position should fall back to feed time, got %v", sparse.Time)
	}
}

func TestFetchStatesErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	if _, err := c.FetchStates(context.Background(), testBounds); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestAccessTokenCachedUntilExpiry(t *testing.T) {
	var tokenCalls atomic.Int64

	auth := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.Form.Get("grant_type") != "client_credentials" {
			t.Errorf("grant_type = %q", r.Form.Get("grant_type"))
		}
		if r.Form.Get("client_id") != "me" || r.Form.Get("client_secret") != "secret" {
			t.Error("credentials not forwarded")
		}
		tokenCalls.Add(1)
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok-1",
			"expires_in":   1800,
		})
	}))
	defer auth.Close()

	var lastAuth atomic.Value
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastAuth.Store(r.Header.Get("Authorization"))
		w.Write([]byte(`{"time": 1700000000, "states": []}`))
	}))
	defer api.Close()

	c := NewClient(Config{
		BaseURL:      api.URL,
		AuthURL:      auth.URL,
		ClientID:     "me",
		ClientSecret: "secret",
	})

	for i := 0; i < 3; i++ {
		if _, err := c.FetchStates(context.Background(), testBounds); err != nil {
			t.Fatalf("FetchStates %d: %v", i, err)
		}
	}

	if got := tokenCalls.Load(); got != 1 {
		t.Errorf("token endpoint called %d times, want 1", got)
	}
	if got := lastAuth.Load(); got != "Bearer tok-1" {
		t.Errorf("Authorization = %v", got)
	}
}

func TestAccessTokenRefreshNearExpiry(t *testing.T) {
	var tokenCalls atomic.Int64
	auth := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := tokenCalls.Add(1)
		json.NewEncoder(w).Encode(map[string]any{
			// Expires inside the refresh margin, so every call refreshes.
			"access_token": map[int64]string{1: "tok-1", 2: "tok-2", 3: "tok-3"}[n],
			"expires_in":   30,
		})
	}))
	defer auth.Close()

	c := NewClient(Config{AuthURL: auth.URL, ClientID: "me", ClientSecret: "secret"})

	if _, err := c.accessToken(context.Background()); err != nil {
		t.Fatalf("accessToken: %v", err)
	}
	tok, err := c.accessToken(context.Background())
	if err != nil {
		t.Fatalf("accessToken: %v", err)
	}
	if tokenCalls.Load() != 2 {
		t.Errorf("token endpoint called %d times, want refresh on each call", tokenCalls.Load())
	}
	if tok != "tok-2" {
		t.Errorf("token = %q, want refreshed token", tok)
	}
}

func TestParseStatesShortVector(t *testing.T) {
	payload := &statesResponse{Time: 1700000000}
	raw := json.RawMessage(`"x"`)
	payload.States = [][]json.RawMessage{{raw, raw}}
	if got := parseStates(payload); len(got) != 0 {
		t.Errorf("short state vectors must be skipped, got %d reports", len(got))
	}
}
