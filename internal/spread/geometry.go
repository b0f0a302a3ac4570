package spread

import (
	"context"
	"sort"

	"github.com/ararat-labs/housing-cli/internal/geo"
	"github.com/ararat-labs/housing-cli/internal/resolver"
	"github.com/ararat-labs/housing-cli/pkg/overpass"
)

// StreetFetcher is the subset of the Overpass client the engine uses.
type StreetFetcher interface {
	QueryCached(ctx context.Context, key, query string) (*overpass.Response, error)
}

const (
	// maxKeepDistM drops geometry segments far from the group's centroid;
	// the loose name regex can match same-named streets across the city.
	maxKeepDistM = 2000.0

	// nearestFallback keeps the closest few segments when nothing passes
	// the distance filter.
	nearestFallback = 5

	// minUsableLengthM rejects geometry too short to spread along.
	minUsableLengthM = 50.0
)

// fetchStreetGeometry returns the named street's road polylines near the
// centroid, cached per normalized street name. A nil result means no
// usable geometry: the street was not found, or its total length is too
// short to interpolate along.
func fetchStreetGeometry(ctx context.Context, fetcher StreetFetcher, street string, centroid geo.Point, box overpass.BBox) (geo.MultiLine, error) {
	normalized := resolver.NormalizeStreet(street)
	key := "street:" + resolver.Slug(normalized)

	resp, err := fetcher.QueryCached(ctx, key, overpass.StreetQuery(normalized, box))
	if err != nil {
		return nil, err
	}

	var candidates geo.MultiLine
	for _, e := range resp.Elements {
		if e.Type != "way" || len(e.Geometry) < 2 {
			continue
		}
		line := make(geo.Polyline, len(e.Geometry))
		for i, v := range e.Geometry {
			line[i] = geo.Point{Lat: v.Lat, Lng: v.Lon}
		}
		candidates = append(candidates, line)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	type scored struct {
		line  geo.Polyline
		distM float64
	}
	ranked := make([]scored, len(candidates))
	for i, line := range candidates {
		ranked[i] = scored{line, line.NearestVertexDistM(centroid)}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].distM < ranked[j].distM })

	var kept geo.MultiLine
	for _, s := range ranked {
		if s.distM <= maxKeepDistM {
			kept = append(kept, s.line)
		}
	}
	if len(kept) == 0 {
		for i := 0; i < len(ranked) && i < nearestFallback; i++ {
			kept = append(kept, ranked[i].line)
		}
	}

	if kept.TotalLengthM() <= minUsableLengthM {
		return nil, nil
	}
	return kept, nil
}
