// Package osrm queries the public OSRM routing demo for point-to-point
// route estimates. Results are best-effort enrichment; callers must
// tolerate failures.
package osrm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "http://router.project-osrm.org"

const defaultUserAgent = "YerevanHousingIndex/1.0 (personal research project)"

// Profile selects the routing mode.
type Profile string

const (
	ProfileDriving Profile = "driving"
	ProfileWalking Profile = "walking"
)

// Route is a duration/distance estimate between two points.
type Route struct {
	DurationMin float64
	DistanceKm  float64
}

// Client queries an OSRM instance.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	limiter    *rate.Limiter
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURL overrides the OSRM instance URL.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithRateInterval sets the minimum delay between requests.
func WithRateInterval(d time.Duration) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Every(d), 1) }
}

// NewClient creates an OSRM client against the public demo server, paced
// at one request per 500ms.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    defaultBaseURL,
		userAgent:  defaultUserAgent,
		limiter:    rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type routeResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Duration float64 `json:"duration"`
		Distance float64 `json:"distance"`
	} `json:"routes"`
}

// Route returns the fastest route between two points, or nil when OSRM has
// no route for the pair. Durations are rounded to 0.1 min, distances to
// 0.01 km.
func (c *Client) Route(ctx context.Context, profile Profile, fromLat, fromLng, toLat, toLng float64) (*Route, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "osrm: rate limit")
	}

	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	url := fmt.Sprintf("%s/route/v1/%s/%s,%s;%s,%s?overview=false",
		c.baseURL, profile, f(fromLng), f(fromLat), f(toLng), f(toLat))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, eris.Wrap(err, "osrm: build request")
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "osrm: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("osrm: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "osrm: read body")
	}
	var decoded routeResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, eris.Wrap(err, "osrm: parse response")
	}
	if decoded.Code != "Ok" || len(decoded.Routes) == 0 {
		return nil, nil
	}

	r := decoded.Routes[0]
	return &Route{
		DurationMin: round1(r.Duration / 60),
		DistanceKm:  round2(r.Distance / 1000),
	}, nil
}

func round1(v float64) float64 { return float64(int(v*10+0.5)) / 10 }
func round2(v float64) float64 { return float64(int(v*100+0.5)) / 100 }
