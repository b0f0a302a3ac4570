package nominatim

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(
		WithBaseURL(srv.URL),
		WithRateInterval(time.Millisecond),
		WithCountryCodes("am"),
	)
}

func TestSearch_ParsesResult(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Tolstoy Street, Kentron, Yerevan, Armenia", r.URL.Query().Get("q"))
		assert.Equal(t, "am", r.URL.Query().Get("countrycodes"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))

		w.Write([]byte(`[{
			"lat": "40.1812", "lon": "44.5136",
			"display_name": "Tolstoy Street, Kentron, Yerevan",
			"class": "highway", "type": "residential",
			"boundingbox": ["40.1800", "40.1825", "44.5100", "44.5170"]
		}]`))
	})

	res, err := c.Search(context.Background(), "Tolstoy Street, Kentron, Yerevan, Armenia", SearchOptions{})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, 40.1812, res.Lat)
	assert.Equal(t, 44.5136, res.Lng)
	assert.Equal(t, [4]float64{40.1800, 40.1825, 44.5100, 44.5170}, res.BoundingBox)
}

func TestSearch_NoMatchIsNilNotError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	res, err := c.Search(context.Background(), "Nowhere Street", SearchOptions{})
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestSearch_ViewBoxBiasAndBounded(t *testing.T) {
	var sawViewbox, sawBounded string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		sawViewbox = r.URL.Query().Get("viewbox")
		sawBounded = r.URL.Query().Get("bounded")
		w.Write([]byte(`[]`))
	})

	vb := &ViewBox{South: 40.1, North: 40.3, West: 44.4, East: 44.65}

	_, err := c.Search(context.Background(), "q", SearchOptions{ViewBox: vb})
	require.NoError(t, err)
	assert.Equal(t, "44.4,40.1,44.65,40.3", sawViewbox, "viewbox is west,south,east,north")
	assert.Empty(t, sawBounded, "bias mode must not set bounded")

	_, err = c.Search(context.Background(), "q", SearchOptions{ViewBox: vb, Bounded: true})
	require.NoError(t, err)
	assert.Equal(t, "1", sawBounded)
}

func TestSearch_ServerErrorPropagates(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.Search(context.Background(), "q", SearchOptions{})
	assert.Error(t, err)
}

func TestSearch_MalformedBoundingBoxDegradesToZero(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"lat": "40.1", "lon": "44.5", "boundingbox": ["x", "y", "z", "w"]}]`))
	})

	res, err := c.Search(context.Background(), "q", SearchOptions{})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, [4]float64{}, res.BoundingBox)
}

func TestReverse_ParsesAddress(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "19", r.URL.Query().Get("zoom"))
		w.Write([]byte(`{
			"display_name": "21 Frik Street, Yerevan",
			"address": {"road": "Frik Street", "house_number": "21", "suburb": "Kentron"}
		}`))
	})

	res, err := c.Reverse(context.Background(), 40.1852, 44.5136)
	require.NoError(t, err)
	assert.Equal(t, "Frik Street", res.Road)
	assert.Equal(t, "21", res.HouseNumber)
	assert.Equal(t, "Kentron", res.Suburb)
}
