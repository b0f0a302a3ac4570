// Package isochrone produces walking-time reachability polygons around a
// center point: via OpenRouteService when an API key is configured, or by
// running a capped shortest-path search over the OSM walk network.
package isochrone

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/ararat-labs/housing-cli/internal/geo"
	"github.com/ararat-labs/housing-cli/pkg/overpass"
)

const (
	// DefaultWalkSpeedMps is ~4.9 km/h.
	DefaultWalkSpeedMps = 1.35

	// bboxPad widens the network fetch box beyond the theoretical maximum
	// walking distance.
	bboxPad = 1.2

	// smoothBufferM rounds off the hull's sawtooth edges.
	smoothBufferM = 70.0
)

// IsochroneService is the ORS client surface, present only when a key is
// configured.
type IsochroneService interface {
	WalkingIsochrones(ctx context.Context, lat, lng float64, minutes []int) (*geojson.FeatureCollection, error)
}

// NetworkFetcher is the subset of the Overpass client the engine uses.
type NetworkFetcher interface {
	QueryCached(ctx context.Context, key, query string) (*overpass.Response, error)
}

// Engine generates isochrone feature collections.
type Engine struct {
	service      IsochroneService
	fetcher      NetworkFetcher
	walkSpeedMps float64
}

// Option configures the engine.
type Option func(*Engine)

// WithService routes generation through a dedicated isochrone service
// instead of the local fallback.
func WithService(s IsochroneService) Option {
	return func(e *Engine) { e.service = s }
}

// WithWalkSpeed overrides the pedestrian speed model.
func WithWalkSpeed(mps float64) Option {
	return func(e *Engine) { e.walkSpeedMps = mps }
}

// NewEngine creates an engine that falls back to the Overpass walk network.
func NewEngine(fetcher NetworkFetcher, opts ...Option) *Engine {
	e := &Engine{fetcher: fetcher, walkSpeedMps: DefaultWalkSpeedMps}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Generate returns one polygon feature per requested minute budget, each
// tagged with properties.value in seconds.
func (e *Engine) Generate(ctx context.Context, center geo.Point, minutes []int) (*geojson.FeatureCollection, error) {
	if e.service != nil {
		fc, err := e.service.WalkingIsochrones(ctx, center.Lat, center.Lng, minutes)
		return fc, eris.Wrap(err, "isochrone: service request")
	}
	return e.generateFromNetwork(ctx, center, minutes)
}

func (e *Engine) generateFromNetwork(ctx context.Context, center geo.Point, minutes []int) (*geojson.FeatureCollection, error) {
	budgets := dedupeSorted(minutes)
	if len(budgets) == 0 {
		return &geojson.FeatureCollection{}, nil
	}
	maxMinutes := budgets[len(budgets)-1]

	// Nothing reachable on foot can be farther than time * speed; pad and
	// fetch every pedestrian way inside that box.
	maxM := float64(maxMinutes) * 60 * e.walkSpeedMps * bboxPad
	box := geo.BBoxAround(center, maxM)
	obox := overpass.BBox{South: box.South, West: box.West, North: box.North, East: box.East}

	key := fmt.Sprintf("walk_network:%.4f,%.4f:%dmin", center.Lat, center.Lng, maxMinutes)
	resp, err := e.fetcher.QueryCached(ctx, key, overpass.WalkNetworkQuery(obox))
	if err != nil {
		return nil, eris.Wrap(err, "isochrone: fetch walk network")
	}

	g := BuildGraph(resp, e.walkSpeedMps)
	zap.L().Info("isochrone: graph built", zap.Int("nodes", g.NodeCount()))
	src, ok := g.Nearest(center)
	if !ok {
		return nil, eris.New("isochrone: no nodes in walk network")
	}

	times := g.Times(src, float64(maxMinutes)*60)

	fc := &geojson.FeatureCollection{}
	for _, m := range budgets {
		budgetS := m * 60
		var pts []geo.Point
		for n, t := range times {
			if t <= float64(budgetS) {
				pts = append(pts, geo.Point{Lat: n.Lat, Lng: n.Lng})
			}
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			Properties: map[string]any{"value": budgetS},
			Geometry:   reachablePolygon(pts),
		})
	}
	return fc, nil
}

// reachablePolygon hulls the reachable nodes and applies the smoothing
// buffer. Fewer than three points yields an empty polygon.
func reachablePolygon(pts []geo.Point) *geom.Polygon {
	poly := geom.NewPolygon(geom.XY)
	hull := geo.ConcaveHull(pts, hullNeighbors(len(pts)))
	if hull == nil {
		return poly
	}
	ring := geo.BufferRing(hull, smoothBufferM)

	coords := make([]geom.Coord, 0, len(ring)+1)
	for _, p := range ring {
		coords = append(coords, geom.Coord{p.Lng, p.Lat})
	}
	coords = append(coords, coords[0])
	poly.MustSetCoords([][]geom.Coord{coords})
	return poly
}

// hullNeighbors picks the k-nearest-neighbor count for the concave hull.
// Larger point sets get more neighbors, which plays the role of shapely's
// concavity ratio: more neighbors, closer to the convex hull.
func hullNeighbors(n int) int {
	k := int(math.Ceil(0.35 * math.Sqrt(float64(n))))
	if k < 3 {
		return 3
	}
	return k
}

func dedupeSorted(minutes []int) []int {
	seen := make(map[int]bool)
	var out []int
	for _, m := range minutes {
		if m > 0 && !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	sort.Ints(out)
	return out
}
