package overpass

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResponse = `{"elements": [
	{"type": "way", "id": 42, "tags": {"highway": "residential", "name:en": "Tolstoy Street"},
	 "geometry": [{"lat": 40.18, "lon": 44.50}, {"lat": 40.181, "lon": 44.502}]}
]}`

func fastClient(mirrors []string, opts ...Option) *Client {
	base := []Option{
		WithMirrors(mirrors),
		WithRateInterval(time.Millisecond),
		WithMirrorBackoff(time.Millisecond),
	}
	return NewClient(append(base, opts...)...)
}

func TestQuery_FirstMirrorSuccess(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		require.NoError(t, r.ParseForm())
		assert.Contains(t, r.PostForm.Get("data"), "out:json")
		w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	c := fastClient([]string{srv.URL})
	resp, err := c.Query(context.Background(), WalkNetworkQuery(BBox{40.1, 44.4, 40.3, 44.65}))
	require.NoError(t, err)
	require.Len(t, resp.Elements, 1)
	assert.Equal(t, "way", resp.Elements[0].Type)
	assert.Len(t, resp.Elements[0].Geometry, 2)
	assert.Equal(t, 1, hits)
}

func TestQuery_FallsOverOnRetryableStatus(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer bad.Close()

	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleResponse))
	}))
	defer good.Close()

	c := fastClient([]string{bad.URL, good.URL})
	resp, err := c.Query(context.Background(), "query")
	require.NoError(t, err)
	assert.Len(t, resp.Elements, 1)
}

func TestQuery_NonRetryableStatusPropagates(t *testing.T) {
	var secondHit bool
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer bad.Close()

	never := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secondHit = true
		w.Write([]byte(sampleResponse))
	}))
	defer never.Close()

	c := fastClient([]string{bad.URL, never.URL})
	_, err := c.Query(context.Background(), "query")
	require.Error(t, err)
	assert.False(t, secondHit, "a bad query must not cascade through mirrors")
}

func TestQuery_AllMirrorsExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := fastClient([]string{srv.URL, srv.URL, srv.URL})
	_, err := c.Query(context.Background(), "query")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all mirrors exhausted")
}

// memCache is an in-memory Cache for tests.
type memCache struct {
	mu sync.Mutex
	m  map[string][]byte
}

func newMemCache() *memCache { return &memCache{m: make(map[string][]byte)} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[key]
	return v, ok, nil
}

func (c *memCache) Put(_ context.Context, key string, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = payload
	return nil
}

func TestQueryCached_HitSkipsNetwork(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	cache := newMemCache()
	c := fastClient([]string{srv.URL}, WithCache(cache))

	first, err := c.QueryCached(context.Background(), "street:tolstoy", "query")
	require.NoError(t, err)
	second, err := c.QueryCached(context.Background(), "street:tolstoy", "query")
	require.NoError(t, err)

	assert.Equal(t, 1, hits, "second call must be served from cache")
	assert.Equal(t, first, second)
}

func TestStreetQuery_EscapesRegexMeta(t *testing.T) {
	q := StreetQuery("Tpagrichner (printers) st.", BBox{40.1, 44.4, 40.3, 44.65})
	assert.Contains(t, q, `\(printers\)`)
	assert.Contains(t, q, `st\.`)
	assert.True(t, strings.HasSuffix(q, "out geom;"))
}

func TestWalkNetworkQuery_ExcludesMotorwaysAndPrivate(t *testing.T) {
	q := WalkNetworkQuery(BBox{40.1, 44.4, 40.3, 44.65})
	assert.Contains(t, q, "motorway|motorway_link|trunk|trunk_link")
	assert.Contains(t, q, `["access"!="private"]`)
	assert.Contains(t, q, "(40.1,44.4,40.3,44.65)")
}
