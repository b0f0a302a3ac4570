// Package ors calls the OpenRouteService isochrones endpoint. It is only
// used when an API key is configured; otherwise the local fallback engine
// derives isochrones from the road network.
package ors

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
)

const defaultBaseURL = "https://api.openrouteservice.org"

const defaultUserAgent = "YerevanHousingIndex/1.0 (personal research project)"

// Client queries OpenRouteService with a fixed API key.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	apiKey     string
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURL overrides the service URL.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// NewClient creates an ORS client for the given API key.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
		userAgent:  defaultUserAgent,
		apiKey:     apiKey,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type isochroneRequest struct {
	Locations [][2]float64 `json:"locations"`
	Range     []int        `json:"range"`
	RangeType string       `json:"range_type"`
	Smoothing float64      `json:"smoothing"`
}

// WalkingIsochrones requests foot-walking isochrones around the center, one
// polygon per minute budget. The response is the service's GeoJSON
// FeatureCollection with properties.value in seconds.
func (c *Client) WalkingIsochrones(ctx context.Context, lat, lng float64, minutes []int) (*geojson.FeatureCollection, error) {
	ranges := make([]int, len(minutes))
	for i, m := range minutes {
		ranges[i] = m * 60
	}
	body, err := json.Marshal(isochroneRequest{
		Locations: [][2]float64{{lng, lat}},
		Range:     ranges,
		RangeType: "time",
		Smoothing: 0.7,
	})
	if err != nil {
		return nil, eris.Wrap(err, "ors: encode request")
	}

	url := c.baseURL + "/v2/isochrones/foot-walking"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "ors: build request")
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/geo+json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "ors: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "ors: read body")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("ors: status %d: %s", resp.StatusCode, truncate(raw, 200))
	}

	var fc geojson.FeatureCollection
	if err := json.Unmarshal(raw, &fc); err != nil {
		return nil, eris.Wrap(err, "ors: parse response")
	}
	return &fc, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
