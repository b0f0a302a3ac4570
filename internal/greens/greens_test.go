package greens

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	geom "github.com/twpayne/go-geom"

	"github.com/ararat-labs/housing-cli/pkg/overpass"
)

type fakeFetcher struct{ resp *overpass.Response }

func (f *fakeFetcher) QueryCached(context.Context, string, string) (*overpass.Response, error) {
	return f.resp, nil
}

func TestFetch_ConvertsElementKinds(t *testing.T) {
	square := []overpass.LatLon{
		{Lat: 40.18, Lon: 44.51}, {Lat: 40.18, Lon: 44.52},
		{Lat: 40.19, Lon: 44.52}, {Lat: 40.18, Lon: 44.51},
	}
	resp := &overpass.Response{Elements: []overpass.Element{
		{Type: "node", ID: 1, Lat: 40.185, Lon: 44.515, Tags: map[string]string{"leisure": "dog_park"}},
		{Type: "way", ID: 2, Geometry: square, Tags: map[string]string{"leisure": "park", "name": "Lovers' Park"}},
		{Type: "way", ID: 3, Geometry: square[:3], Tags: map[string]string{"leisure": "garden", "name:en": "Botanical Garden"}},
		{Type: "relation", ID: 4, Center: &overpass.LatLon{Lat: 40.2, Lon: 44.5}, Tags: map[string]string{"leisure": "park"}},
		{Type: "way", ID: 5, Geometry: square, Tags: map[string]string{"leisure": "pitch"}},
	}}

	fc, err := Fetch(context.Background(), &fakeFetcher{resp}, overpass.BBox{South: 40.1, West: 44.4, North: 40.3, East: 44.65})
	require.NoError(t, err)
	require.Len(t, fc.Features, 4, "non-green leisure is filtered out")

	assert.IsType(t, &geom.Point{}, fc.Features[0].Geometry)
	assert.Equal(t, "dog_park", fc.Features[0].Properties["kind"])

	assert.IsType(t, &geom.Polygon{}, fc.Features[1].Geometry, "closed way becomes a polygon")
	assert.Equal(t, "Lovers' Park", fc.Features[1].Properties["name"])

	assert.IsType(t, &geom.LineString{}, fc.Features[2].Geometry, "open way stays a line")
	assert.Equal(t, "Botanical Garden", fc.Features[2].Properties["name"], "name:en fills a missing name")

	assert.IsType(t, &geom.Point{}, fc.Features[3].Geometry, "relation degrades to its center")
	assert.Equal(t, int64(4), fc.Features[3].Properties["osm_id"])
}
