// Package overpass queries the Overpass OSM API across an ordered list of
// mirror endpoints, with transparent on-disk caching of raw responses.
package overpass

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultMirrors is the ordered list of public Overpass instances tried for
// each query.
var DefaultMirrors = []string{
	"https://overpass-api.de/api/interpreter",
	"https://overpass.kumi.systems/api/interpreter",
	"https://overpass.nchc.org.tw/api/interpreter",
}

const defaultUserAgent = "YerevanHousingIndex/1.0 (personal research project)"

// Cache persists raw Overpass responses. A present entry is authoritative
// and skips the network entirely; there is no expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, payload []byte) error
}

// LatLon is one vertex of a way geometry.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Element is one OSM element from an Overpass response.
type Element struct {
	Type     string            `json:"type"`
	ID       int64             `json:"id"`
	Lat      float64           `json:"lat,omitempty"`
	Lon      float64           `json:"lon,omitempty"`
	Tags     map[string]string `json:"tags,omitempty"`
	Geometry []LatLon          `json:"geometry,omitempty"`
	Center   *LatLon           `json:"center,omitempty"`
}

// Response is the decoded Overpass payload.
type Response struct {
	Elements []Element `json:"elements"`
}

// Client posts Overpass QL queries with mirror fallback. HTTP 429/502/503/504
// and transport errors move on to the next mirror; other failures propagate
// immediately (a bad query will not improve on another instance).
type Client struct {
	httpClient    *http.Client
	mirrors       []string
	userAgent     string
	limiter       *rate.Limiter
	mirrorBackoff time.Duration
	cache         Cache
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMirrors overrides the mirror endpoint list.
func WithMirrors(mirrors []string) Option {
	return func(c *Client) { c.mirrors = mirrors }
}

// WithRateInterval sets the minimum delay between requests.
func WithRateInterval(d time.Duration) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Every(d), 1) }
}

// WithMirrorBackoff sets the pause before falling over to the next mirror.
func WithMirrorBackoff(d time.Duration) Option {
	return func(c *Client) { c.mirrorBackoff = d }
}

// WithCache attaches a response cache.
func WithCache(cache Cache) Option {
	return func(c *Client) { c.cache = cache }
}

// NewClient creates an Overpass client with polite defaults: 1.1s between
// requests and a 2s backoff between mirrors.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient:    &http.Client{Timeout: 45 * time.Second},
		mirrors:       DefaultMirrors,
		userAgent:     defaultUserAgent,
		limiter:       rate.NewLimiter(rate.Every(1100*time.Millisecond), 1),
		mirrorBackoff: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// retryableStatus reports whether a mirror failure is worth trying elsewhere.
func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// Query executes an Overpass QL query, trying each mirror once in order.
// Exhausting all mirrors propagates the last error.
func (c *Client) Query(ctx context.Context, query string) (*Response, error) {
	raw, err := c.fetch(ctx, query)
	if err != nil {
		return nil, err
	}
	return decode(raw)
}

// QueryCached runs Query through the attached cache under the given key.
// Without a cache it degrades to a plain Query.
func (c *Client) QueryCached(ctx context.Context, key, query string) (*Response, error) {
	if c.cache != nil {
		payload, ok, err := c.cache.Get(ctx, key)
		if err != nil {
			zap.L().Warn("overpass: cache read failed", zap.String("key", key), zap.Error(err))
		} else if ok {
			zap.L().Debug("overpass: cache hit", zap.String("key", key))
			return decode(payload)
		}
	}

	raw, err := c.fetch(ctx, query)
	if err != nil {
		return nil, err
	}
	resp, err := decode(raw)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Put(ctx, key, raw); err != nil {
			zap.L().Warn("overpass: cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return resp, nil
}

// fetch runs the mirror cascade and returns the raw payload of the first
// successful attempt.
func (c *Client) fetch(ctx context.Context, query string) ([]byte, error) {
	var lastErr error
	for i, mirror := range c.mirrors {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, eris.Wrap(ctx.Err(), "overpass: canceled")
			case <-time.After(c.mirrorBackoff):
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "overpass: rate limit")
		}

		body, err := c.post(ctx, mirror, query)
		if err == nil {
			return body, nil
		}

		var re *retryableError
		if !eris.As(err, &re) {
			return nil, err
		}
		lastErr = err
		zap.L().Warn("overpass: mirror failed, trying next",
			zap.String("mirror", mirror),
			zap.Error(err),
		)
	}
	return nil, eris.Wrap(lastErr, "overpass: all mirrors exhausted")
}

func decode(raw []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, eris.Wrap(err, "overpass: parse response")
	}
	return &resp, nil
}

// retryableError marks a mirror failure eligible for fallback.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

func (c *Client) post(ctx context.Context, mirror, query string) ([]byte, error) {
	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, mirror, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, eris.Wrap(err, "overpass: build request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &retryableError{err: eris.Wrap(err, "overpass: request")}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("overpass: %s returned status %d", mirror, resp.StatusCode)
		if retryableStatus(resp.StatusCode) {
			return nil, &retryableError{err: err}
		}
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &retryableError{err: eris.Wrap(err, "overpass: read body")}
	}
	return body, nil
}
