// Package distance enriches listings with their distance to a fixed
// reference point: an authoritative straight-line figure plus best-effort
// OSRM route estimates.
package distance

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/ararat-labs/housing-cli/internal/geo"
	"github.com/ararat-labs/housing-cli/internal/model"
	"github.com/ararat-labs/housing-cli/pkg/osrm"
)

// Router is the subset of the OSRM client this package uses.
type Router interface {
	Route(ctx context.Context, profile osrm.Profile, fromLat, fromLng, toLat, toLng float64) (*osrm.Route, error)
}

// Summary counts the outcomes of an enrichment pass.
type Summary struct {
	Enriched      int `json:"enriched"`
	Unresolved    int `json:"unresolved"`
	RouteFailures int `json:"route_failures"`
}

// Enrich computes distances from every geocoded listing to the reference
// point. Unresolved listings get all distance fields cleared. Route
// lookups that fail leave only the route fields nil; the straight-line
// value always lands.
func Enrich(ctx context.Context, listings []model.Listing, ref geo.Point, router Router) (Summary, error) {
	var summary Summary
	for i := range listings {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		l := &listings[i]
		if !l.HasCoordinates() {
			l.StraightLineKm = nil
			l.WalkMins, l.WalkKm = nil, nil
			l.DriveMins, l.DriveKm = nil, nil
			summary.Unresolved++
			continue
		}

		straight := round2(geo.HaversineM(*l.Lat, *l.Lng, ref.Lat, ref.Lng) / 1000)
		l.StraightLineKm = &straight

		l.DriveMins, l.DriveKm = route(ctx, router, osrm.ProfileDriving, l, ref, &summary)
		l.WalkMins, l.WalkKm = route(ctx, router, osrm.ProfileWalking, l, ref, &summary)
		summary.Enriched++
	}
	return summary, nil
}

func route(ctx context.Context, router Router, profile osrm.Profile, l *model.Listing, ref geo.Point, summary *Summary) (*float64, *float64) {
	r, err := router.Route(ctx, profile, *l.Lat, *l.Lng, ref.Lat, ref.Lng)
	if err != nil {
		zap.L().Warn("distance: route lookup failed",
			zap.Int64("id", l.ID),
			zap.String("profile", string(profile)),
			zap.Error(err),
		)
		summary.RouteFailures++
		return nil, nil
	}
	if r == nil {
		summary.RouteFailures++
		return nil, nil
	}
	return &r.DurationMin, &r.DistanceKm
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
