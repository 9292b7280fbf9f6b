// Package opensky implements the flight source port against the OpenSky
// Network REST API, with OAuth2 client-credentials authentication.
package opensky

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/giovanto/overhead/internal/core/domain"
	"github.com/giovanto/overhead/internal/pkg/metrics"
)

const (
	metersToFeet = 3.28084
	mpsToKnots   = 1.94384
	mpsToFpm     = 196.850394

	// Tokens are refreshed this long before their reported expiry.
	tokenRefreshMargin = 60 * time.Second

	defaultTokenTTL = 1800 * time.Second
)

// Config configures the OpenSky client. Empty credentials mean anonymous
// access, which the API serves at a reduced rate limit.
type Config struct {
	BaseURL      string
	AuthURL      string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

// Client fetches state vectors from the OpenSky /states/all endpoint.
// It is safe for concurrent use.
type Client struct {
	cfg        Config
	httpClient *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewClient builds a client. Timeout defaults to 30 seconds when unset.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// statesResponse mirrors the /states/all payload: a feed timestamp plus
// positional arrays of mixed-type state vector fields.
type statesResponse struct {
	Time   int64               `json:"time"`
	States [][]json.RawMessage `json:"states"`
}

// FetchStates returns one batch of position reports inside the bounding
// box. States without usable coordinates are dropped; all other optional
// fields pass through as nil when the feed reports null.
func (c *Client) FetchStates(ctx context.Context, bounds domain.Bounds) ([]domain.PositionReport, error) {
	q := url.Values{}
	q.Set("lamin", strconv.FormatFloat(bounds.MinLat, 'f', -1, 64))
	q.Set("lamax", strconv.FormatFloat(bounds.MaxLat, 'f', -1, 64))
	q.Set("lomin", strconv.FormatFloat(bounds.MinLon, 'f', -1, 64))
	q.Set("lomax", strconv.FormatFloat(bounds.MaxLon, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/states/all?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build states request: %w", err)
	}

	if c.cfg.ClientID != "" {
		token, err := c.accessToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("acquire token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch states: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("states request failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload statesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode states response: %w", err)
	}

	return parseStates(&payload), nil
}

// accessToken returns a cached OAuth2 token, refreshing it shortly
// before expiry.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.AuthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("token request failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var token struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("token response missing access_token")
	}

	ttl := defaultTokenTTL
	if token.ExpiresIn > 0 {
		ttl = time.Duration(token.ExpiresIn) * time.Second
	}
	c.token = token.AccessToken
	c.tokenExpiry = time.Now().Add(ttl - tokenRefreshMargin)
	metrics.TokenRefreshes.Inc()

	return c.token, nil
}

// State vector field indices per the OpenSky API documentation.
const (
	fieldICAO24 = iota
	fieldCallsign
	fieldOriginCountry
	fieldTimePosition
	fieldLastContact
	fieldLongitude
	fieldLatitude
	fieldBaroAltitude
	fieldOnGround
	fieldVelocity
	fieldTrueTrack
	fieldVerticalRate
	fieldSensors
	fieldGeoAltitude
	fieldSquawk
	fieldSPI
	fieldPositionSource

	stateVectorLen = fieldPositionSource + 1
)

func parseStates(payload *statesResponse) []domain.PositionReport {
	reports := make([]domain.PositionReport, 0, len(payload.States))
	feedTime := time.Unix(payload.Time, 0).UTC()

	for _, state := range payload.States {
		if len(state) < stateVectorLen {
			continue
		}

		lon := floatField(state[fieldLongitude])
		lat := floatField(state[fieldLatitude])
		if lat == nil || lon == nil {
			continue
		}
		if *lat == 0 && *lon == 0 {
			// Null island states are sensor noise.
			continue
		}

		r := domain.PositionReport{
			ICAO24:        strings.ToLower(strings.TrimSpace(stringField(state[fieldICAO24]))),
			Callsign:      strings.TrimSpace(stringField(state[fieldCallsign])),
			OriginCountry: stringField(state[fieldOriginCountry]),
			Latitude:      lat,
			Longitude:     lon,
			OnGround:      boolField(state[fieldOnGround]),
			Squawk:        strings.TrimSpace(stringField(state[fieldSquawk])),
			SPI:           boolField(state[fieldSPI]),
			Time:          feedTime,
		}

		if ts := floatField(state[fieldTimePosition]); ts != nil {
			r.Time = time.Unix(int64(*ts), 0).UTC()
		}
		if alt := floatField(state[fieldBaroAltitude]); alt != nil {
			r.BaroAltitudeFt = scaled(*alt, metersToFeet)
		}
		if alt := floatField(state[fieldGeoAltitude]); alt != nil {
			r.GeoAltitudeFt = scaled(*alt, metersToFeet)
		}
		if v := floatField(state[fieldVelocity]); v != nil {
			r.VelocityKt = scaled(*v, mpsToKnots)
		}
		if track := floatField(state[fieldTrueTrack]); track != nil {
			r.TrackDeg = track
		}
		if vr := floatField(state[fieldVerticalRate]); vr != nil {
			r.VerticalRate = scaled(*vr, mpsToFpm)
		}
		if src := floatField(state[fieldPositionSource]); src != nil {
			r.PositionSource = int(*src)
		}

		reports = append(reports, r)
	}
	return reports
}

func scaled(v, factor float64) *float64 {
	out := v * factor
	return &out
}

func stringField(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func floatField(raw json.RawMessage) *float64 {
	var f *float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil
	}
	return f
}

func boolField(raw json.RawMessage) bool {
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return false
	}
	return b
}
