package isochrone

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/ararat-labs/housing-cli/internal/geo"
	"github.com/ararat-labs/housing-cli/pkg/overpass"
)

type fakeNetwork struct {
	resp *overpass.Response
	keys []string
}

func (f *fakeNetwork) QueryCached(_ context.Context, key, _ string) (*overpass.Response, error) {
	f.keys = append(f.keys, key)
	return f.resp, nil
}

// gridNetwork builds a 5x5 street grid around the center, ~111m spacing.
func gridNetwork(center geo.Point) *overpass.Response {
	resp := &overpass.Response{}
	var id int64
	for i := -2; i <= 2; i++ {
		lat := center.Lat + float64(i)*0.001
		var row overpass.Element
		id++
		row = overpass.Element{Type: "way", ID: id}
		for j := -2; j <= 2; j++ {
			row.Geometry = append(row.Geometry, overpass.LatLon{Lat: lat, Lon: center.Lng + float64(j)*0.001})
		}
		resp.Elements = append(resp.Elements, row)
	}
	for j := -2; j <= 2; j++ {
		lng := center.Lng + float64(j)*0.001
		id++
		col := overpass.Element{Type: "way", ID: id}
		for i := -2; i <= 2; i++ {
			col.Geometry = append(col.Geometry, overpass.LatLon{Lat: center.Lat + float64(i)*0.001, Lon: lng})
		}
		resp.Elements = append(resp.Elements, col)
	}
	return resp
}

func TestGenerate_FallbackEmitsOneFeaturePerBudget(t *testing.T) {
	center := geo.Point{Lat: 40.18, Lng: 44.51}
	network := &fakeNetwork{resp: gridNetwork(center)}
	e := NewEngine(network)

	fc, err := e.Generate(context.Background(), center, []int{30, 15})
	require.NoError(t, err)
	require.Len(t, fc.Features, 2)

	assert.Equal(t, 900, fc.Features[0].Properties["value"], "budgets are sorted ascending")
	assert.Equal(t, 1800, fc.Features[1].Properties["value"])

	for _, f := range fc.Features {
		poly, ok := f.Geometry.(*geom.Polygon)
		require.True(t, ok)
		require.Equal(t, 1, poly.NumLinearRings())
		assert.GreaterOrEqual(t, poly.LinearRing(0).NumCoords(), 4)
	}

	require.Len(t, network.keys, 1, "one network fetch covers all budgets")
	assert.Contains(t, network.keys[0], "30min", "cache key reflects the widest budget")
}

func TestGenerate_HullCoversReachableExtent(t *testing.T) {
	center := geo.Point{Lat: 40.18, Lng: 44.51}
	e := NewEngine(&fakeNetwork{resp: gridNetwork(center)})

	fc, err := e.Generate(context.Background(), center, []int{30})
	require.NoError(t, err)
	poly := fc.Features[0].Geometry.(*geom.Polygon)

	// The whole grid is reachable in 30 minutes; the buffered hull must
	// contain the grid's far corner.
	ringCoords := poly.LinearRing(0).Coords()
	ring := make([]geo.Point, 0, len(ringCoords))
	for _, c := range ringCoords {
		ring = append(ring, geo.Point{Lat: c.Y(), Lng: c.X()})
	}
	corner := geo.Point{Lat: center.Lat + 0.002, Lng: center.Lng + 0.002}
	assert.True(t, geo.RingCovers(corner, ring))
}

func TestGenerate_EmptyNetworkIsFatal(t *testing.T) {
	e := NewEngine(&fakeNetwork{resp: &overpass.Response{}})
	_, err := e.Generate(context.Background(), geo.Point{Lat: 40.18, Lng: 44.51}, []int{15})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no nodes")
}

type fakeService struct{ called bool }

func (f *fakeService) WalkingIsochrones(context.Context, float64, float64, []int) (*geojson.FeatureCollection, error) {
	f.called = true
	return &geojson.FeatureCollection{}, nil
}

func TestGenerate_PrefersConfiguredService(t *testing.T) {
	svc := &fakeService{}
	network := &fakeNetwork{resp: &overpass.Response{}}
	e := NewEngine(network, WithService(svc))

	_, err := e.Generate(context.Background(), geo.Point{Lat: 40.18, Lng: 44.51}, []int{15})
	require.NoError(t, err)
	assert.True(t, svc.called)
	assert.Empty(t, network.keys, "service path never touches Overpass")
}
