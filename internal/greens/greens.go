// Package greens extracts parks, gardens and dog parks from OSM and
// converts them to a GeoJSON FeatureCollection for the map frontend.
package greens

import (
	"context"

	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/ararat-labs/housing-cli/pkg/overpass"
)

// Fetcher is the subset of the Overpass client this package uses.
type Fetcher interface {
	QueryCached(ctx context.Context, key, query string) (*overpass.Response, error)
}

var leisureKinds = map[string]bool{"park": true, "garden": true, "dog_park": true}

// Fetch queries green spaces inside the box and converts each element to a
// feature: nodes become points, closed ways polygons, open ways line
// strings, and anything else degrades to its center point.
func Fetch(ctx context.Context, fetcher Fetcher, box overpass.BBox) (*geojson.FeatureCollection, error) {
	resp, err := fetcher.QueryCached(ctx, "greens", overpass.LeisureQuery(box))
	if err != nil {
		return nil, eris.Wrap(err, "greens: fetch")
	}

	fc := &geojson.FeatureCollection{}
	for _, e := range resp.Elements {
		kind := e.Tags["leisure"]
		if !leisureKinds[kind] {
			continue
		}
		g := elementGeometry(e)
		if g == nil {
			continue
		}

		name := e.Tags["name"]
		if name == "" {
			name = e.Tags["name:en"]
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			Properties: map[string]any{
				"kind":     kind,
				"name":     name,
				"osm_type": e.Type,
				"osm_id":   e.ID,
			},
			Geometry: g,
		})
	}
	return fc, nil
}

func elementGeometry(e overpass.Element) geom.T {
	if e.Type == "node" {
		if e.Lat == 0 && e.Lon == 0 {
			return nil
		}
		return geom.NewPointFlat(geom.XY, []float64{e.Lon, e.Lat})
	}

	if len(e.Geometry) >= 2 {
		coords := make([]geom.Coord, len(e.Geometry))
		for i, v := range e.Geometry {
			coords[i] = geom.Coord{v.Lon, v.Lat}
		}
		closed := len(coords) >= 4 && coords[0].Equal(geom.XY, coords[len(coords)-1])
		if closed {
			poly := geom.NewPolygon(geom.XY)
			poly.MustSetCoords([][]geom.Coord{coords})
			return poly
		}
		ls := geom.NewLineString(geom.XY)
		ls.MustSetCoords(coords)
		return ls
	}

	if e.Center != nil {
		return geom.NewPointFlat(geom.XY, []float64{e.Center.Lon, e.Center.Lat})
	}
	return nil
}
