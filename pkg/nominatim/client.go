// Package nominatim provides a minimal client for the OSM Nominatim search
// and reverse endpoints, rate limited to the public fair-use policy.
package nominatim

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://nominatim.openstreetmap.org"

// defaultUserAgent identifies the project per the Nominatim usage policy.
const defaultUserAgent = "YerevanHousingIndex/1.0 (personal research project)"

// Result is one search hit: a coordinate plus the extent Nominatim reports
// for the matched feature. The extent drives district bounding-box caching.
type Result struct {
	Lat         float64
	Lng         float64
	DisplayName string
	Class       string
	Type        string

	// BoundingBox is the matched feature's extent (south, north, west, east).
	BoundingBox [4]float64
}

// ReverseResult is the address breakdown for a coordinate.
type ReverseResult struct {
	Road        string
	HouseNumber string
	Suburb      string
	Postcode    string
	DisplayName string
}

// SearchOptions bias or constrain a search.
type SearchOptions struct {
	// ViewBox biases results toward the box. With Bounded it becomes a hard
	// filter instead of a preference.
	ViewBox *ViewBox
	Bounded bool
}

// ViewBox is the lat/lng rectangle passed to the viewbox parameter.
type ViewBox struct {
	South, North, West, East float64
}

// Client queries a Nominatim instance.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	userAgent    string
	limiter      *rate.Limiter
	countryCodes string
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURL overrides the Nominatim instance URL.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithRateInterval sets the minimum delay between requests.
// The public instance allows at most one request per second.
func WithRateInterval(d time.Duration) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Every(d), 1) }
}

// WithCountryCodes restricts results to the given comma-separated ISO codes.
func WithCountryCodes(codes string) Option {
	return func(c *Client) { c.countryCodes = codes }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// NewClient creates a Nominatim client. The default rate interval of 1.1s
// stays under the public instance's 1 req/s policy.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    defaultBaseURL,
		userAgent:  defaultUserAgent,
		limiter:    rate.NewLimiter(rate.Every(1100*time.Millisecond), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type searchItem struct {
	Lat         string   `json:"lat"`
	Lon         string   `json:"lon"`
	DisplayName string   `json:"display_name"`
	Class       string   `json:"class"`
	Type        string   `json:"type"`
	BoundingBox []string `json:"boundingbox"`
}

// Search geocodes a free-text query and returns the best hit, or nil when
// Nominatim has no match. A nil result is not an error.
func (c *Client) Search(ctx context.Context, query string, opts SearchOptions) (*Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "nominatim: rate limit")
	}

	params := url.Values{
		"q":      {query},
		"format": {"json"},
		"limit":  {"1"},
	}
	if c.countryCodes != "" {
		params.Set("countrycodes", c.countryCodes)
	}
	if opts.ViewBox != nil {
		// viewbox takes lng,lat pairs: west,south,east,north.
		params.Set("viewbox", formatViewBox(*opts.ViewBox))
		if opts.Bounded {
			params.Set("bounded", "1")
		}
	}

	var items []searchItem
	if err := c.get(ctx, "/search", params, &items); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return parseSearchItem(items[0])
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Address     struct {
		Road        string `json:"road"`
		HouseNumber string `json:"house_number"`
		Suburb      string `json:"suburb"`
		Postcode    string `json:"postcode"`
	} `json:"address"`
}

// Reverse resolves a coordinate to its nearest address.
func (c *Client) Reverse(ctx context.Context, lat, lng float64) (*ReverseResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "nominatim: rate limit")
	}

	params := url.Values{
		"format":          {"json"},
		"lat":             {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":             {strconv.FormatFloat(lng, 'f', -1, 64)},
		"zoom":            {"19"},
		"addressdetails":  {"1"},
		"accept-language": {"en"},
	}

	var resp reverseResponse
	if err := c.get(ctx, "/reverse", params, &resp); err != nil {
		return nil, err
	}
	return &ReverseResult{
		Road:        resp.Address.Road,
		HouseNumber: resp.Address.HouseNumber,
		Suburb:      resp.Address.Suburb,
		Postcode:    resp.Address.Postcode,
		DisplayName: resp.DisplayName,
	}, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	reqURL := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return eris.Wrap(err, "nominatim: build request")
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return eris.Wrap(err, "nominatim: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("nominatim: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "nominatim: read body")
	}
	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "nominatim: parse response")
	}
	return nil
}

// parseSearchItem converts the string-typed wire format to a Result.
func parseSearchItem(item searchItem) (*Result, error) {
	lat, err := strconv.ParseFloat(item.Lat, 64)
	if err != nil {
		return nil, eris.Wrapf(err, "nominatim: parse lat %q", item.Lat)
	}
	lng, err := strconv.ParseFloat(item.Lon, 64)
	if err != nil {
		return nil, eris.Wrapf(err, "nominatim: parse lon %q", item.Lon)
	}

	r := &Result{
		Lat:         lat,
		Lng:         lng,
		DisplayName: item.DisplayName,
		Class:       item.Class,
		Type:        item.Type,
	}

	// boundingbox arrives as [south, north, west, east] strings. A malformed
	// box degrades to the zero value; callers treat that as "no extent".
	if len(item.BoundingBox) == 4 {
		var box [4]float64
		ok := true
		for i, s := range item.BoundingBox {
			v, parseErr := strconv.ParseFloat(s, 64)
			if parseErr != nil {
				ok = false
				break
			}
			box[i] = v
		}
		if ok {
			r.BoundingBox = box
		}
	}

	return r, nil
}

func formatViewBox(vb ViewBox) string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return f(vb.West) + "," + f(vb.South) + "," + f(vb.East) + "," + f(vb.North)
}
