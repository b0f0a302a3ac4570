// Package spread de-collides listings that share approximate coordinates,
// redistributing them along real street geometry where possible and by
// deterministic jitter otherwise.
package spread

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/ararat-labs/housing-cli/internal/geo"
	"github.com/ararat-labs/housing-cli/internal/model"
	"github.com/ararat-labs/housing-cli/pkg/overpass"
)

const (
	streetJitterRadiusM   = 80.0
	areaJitterRadiusM     = 300.0
	districtJitterRadiusM = 400.0
)

// Engine spreads stacked listings. It mutates listings in place through
// the explicit Reposition path, never the resolver's guarded setter.
type Engine struct {
	fetcher StreetFetcher
	bbox    overpass.BBox
}

// NewEngine creates a spreading engine searching street geometry inside
// the given city box.
func NewEngine(fetcher StreetFetcher, bbox overpass.BBox) *Engine {
	return &Engine{fetcher: fetcher, bbox: bbox}
}

// Summary counts the outcomes of a spreading pass.
type Summary struct {
	Moved         int `json:"moved"`
	StreetsSpread int `json:"streets_spread"`
	Jittered      int `json:"jittered"`
}

// isAreaLike reports whether a street label actually names a neighborhood.
func isAreaLike(street string) bool {
	return strings.Contains(strings.ToLower(street), "district")
}

// Run spreads every street group with 2+ listings and jitters stacked
// district-centroid groups. Street groups form on the raw street label, not
// identical coordinates: earlier jitter may have separated the raw numbers
// while the underlying pile remains.
func (e *Engine) Run(ctx context.Context, listings []model.Listing) (Summary, error) {
	var summary Summary

	byStreet := make(map[string][]*model.Listing)
	var districtLevel []*model.Listing
	for i := range listings {
		l := &listings[i]
		if !l.HasCoordinates() {
			continue
		}
		street := strings.TrimSpace(l.Street)
		switch {
		case street != "" && l.GeocodePrecision.StreetLevel():
			byStreet[street] = append(byStreet[street], l)
		case l.GeocodePrecision == model.PrecisionDistrict:
			districtLevel = append(districtLevel, l)
		}
	}

	type group struct {
		street string
		items  []*model.Listing
	}
	var groups []group
	for street, items := range byStreet {
		if len(items) > 1 {
			groups = append(groups, group{street, items})
		}
	}
	// Largest piles first; name as tiebreaker for a stable order.
	sort.Slice(groups, func(i, j int) bool {
		if len(groups[i].items) != len(groups[j].items) {
			return len(groups[i].items) > len(groups[j].items)
		}
		return strings.ToLower(groups[i].street) < strings.ToLower(groups[j].street)
	})

	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		sort.Slice(g.items, func(i, j int) bool { return g.items[i].ID < g.items[j].ID })
		e.spreadStreetGroup(ctx, g.street, g.items, &summary)
	}

	e.jitterDistrictStacks(districtLevel, &summary)

	zap.L().Info("spread: pass complete",
		zap.Int("moved", summary.Moved),
		zap.Int("streets_spread", summary.StreetsSpread),
		zap.Int("jittered", summary.Jittered),
	)
	return summary, nil
}

// spreadStreetGroup places one street's listings: along real geometry when
// enough of it exists, by jitter otherwise. Items arrive sorted by id.
func (e *Engine) spreadStreetGroup(ctx context.Context, street string, items []*model.Listing, summary *Summary) {
	if isAreaLike(street) {
		// The "street" is a neighborhood label; line interpolation would
		// be meaningless. Re-tag as district-level jitter.
		center := geo.Point{Lat: *items[0].Lat, Lng: *items[0].Lng}
		for _, l := range items {
			p := Jitter(center, l.ID, areaJitterRadiusM)
			l.Reposition(p.Lat, p.Lng, model.PrecisionDistrictJitter)
			summary.Moved++
			summary.Jittered++
		}
		return
	}

	center := averagePosition(items)
	geom, err := fetchStreetGeometry(ctx, e.fetcher, street, center, e.bbox)
	if err != nil {
		zap.L().Warn("spread: street geometry fetch failed",
			zap.String("street", street), zap.Error(err))
		geom = nil
	}

	if geom == nil {
		for _, l := range items {
			p := Jitter(center, l.ID, streetJitterRadiusM)
			l.Reposition(p.Lat, p.Lng, model.PrecisionStreetJitter)
			summary.Moved++
			summary.Jittered++
		}
		return
	}

	points := geom.Interpolate(len(items))
	if len(points) != len(items) {
		return
	}
	summary.StreetsSpread++
	for i, l := range items {
		l.Reposition(points[i].Lat, points[i].Lng, model.PrecisionStreetSpread)
		summary.Moved++
	}
}

// jitterDistrictStacks spreads groups of district-centroid listings that
// share an identical coordinate.
func (e *Engine) jitterDistrictStacks(districtLevel []*model.Listing, summary *Summary) {
	stacks := make(map[geo.Point][]*model.Listing)
	for _, l := range districtLevel {
		stacks[geo.Point{Lat: *l.Lat, Lng: *l.Lng}] = append(stacks[geo.Point{Lat: *l.Lat, Lng: *l.Lng}], l)
	}
	for center, group := range stacks {
		if len(group) <= 1 {
			continue
		}
		for _, l := range group {
			p := Jitter(center, l.ID, districtJitterRadiusM)
			l.Reposition(p.Lat, p.Lng, model.PrecisionDistrictJitter)
			summary.Moved++
			summary.Jittered++
		}
	}
}

func averagePosition(items []*model.Listing) geo.Point {
	var lat, lng float64
	for _, l := range items {
		lat += *l.Lat
		lng += *l.Lng
	}
	n := float64(len(items))
	return geo.Point{Lat: lat / n, Lng: lng / n}
}
