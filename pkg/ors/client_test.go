package ors

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalkingIsochrones_RequestShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/isochrones/foot-walking", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("Authorization"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var req map[string]any
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "time", req["range_type"])
		assert.Equal(t, []any{float64(900), float64(1800)}, req["range"])
		// locations are lng,lat pairs
		locs := req["locations"].([]any)[0].([]any)
		assert.Equal(t, 44.51, locs[0])
		assert.Equal(t, 40.18, locs[1])

		w.Write([]byte(`{"type": "FeatureCollection", "features": [
			{"type": "Feature", "properties": {"value": 900},
			 "geometry": {"type": "Polygon", "coordinates": [[[44.5,40.1],[44.6,40.1],[44.6,40.2],[44.5,40.1]]]}},
			{"type": "Feature", "properties": {"value": 1800},
			 "geometry": {"type": "Polygon", "coordinates": [[[44.4,40.0],[44.7,40.0],[44.7,40.3],[44.4,40.0]]]}}
		]}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	fc, err := c.WalkingIsochrones(context.Background(), 40.18, 44.51, []int{15, 30})
	require.NoError(t, err)
	require.Len(t, fc.Features, 2)
	assert.Equal(t, float64(900), fc.Features[0].Properties["value"])
}

func TestWalkingIsochrones_ErrorIncludesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error": "quota exceeded"}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := c.WalkingIsochrones(context.Background(), 40.18, 44.51, []int{15})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "quota exceeded")
}
