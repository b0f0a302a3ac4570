// Package resolver maps listing address fields to coordinates through a
// tiered cascade of progressively coarser geocoding queries, each validated
// against the listing's district bounding box.
package resolver

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ararat-labs/housing-cli/internal/district"
	"github.com/ararat-labs/housing-cli/internal/geo"
	"github.com/ararat-labs/housing-cli/internal/model"
	"github.com/ararat-labs/housing-cli/pkg/nominatim"
)

// Geocoder is the subset of the Nominatim client the resolver uses.
type Geocoder interface {
	Search(ctx context.Context, query string, opts nominatim.SearchOptions) (*nominatim.Result, error)
}

// BoxChecker answers district containment questions.
type BoxChecker interface {
	Box(ctx context.Context, name string) (geo.BBox, bool)
	Contains(ctx context.Context, name string, lat, lng float64) district.Status
}

// Resolver runs the tier cascade for one listing at a time. All external
// calls go through the rate-limited geocoder; the resolver itself is
// sequential by design.
type Resolver struct {
	geocoder  Geocoder
	boxes     BoxChecker
	overrides *Overrides
	suffix    string
}

// Option configures the resolver.
type Option func(*Resolver)

// WithQuerySuffix overrides the ", City, Country" tail appended to every
// query.
func WithQuerySuffix(s string) Option {
	return func(r *Resolver) { r.suffix = s }
}

// New creates a resolver.
func New(geocoder Geocoder, boxes BoxChecker, overrides *Overrides, opts ...Option) *Resolver {
	r := &Resolver{
		geocoder:  geocoder,
		boxes:     boxes,
		overrides: overrides,
		suffix:    "Yerevan, Armenia",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Summary counts the outcomes of a batch run.
type Summary struct {
	Skipped     int                            `json:"skipped"`
	Resolved    int                            `json:"resolved"`
	Failed      int                            `json:"failed"`
	ByPrecision map[model.GeocodePrecision]int `json:"by_precision"`
}

// Resolve assigns coordinates and a precision tier to one listing. Tiers
// are tried in order of decreasing specificity; the first validated result
// wins. Network failures on a tier degrade to the next tier, never abort.
func (r *Resolver) Resolve(ctx context.Context, l *model.Listing) {
	if ov, ok := r.overrides.Get(l.ID); ok && ov.Filled() {
		l.SetResolved(*ov.Lat, *ov.Lng, model.PrecisionOverride)
		return
	}

	street := NormalizeStreet(l.Street)
	dist := district.Canonical(l.District)

	if l.ParsedAddressNumber != "" && street != "" {
		q := fmt.Sprintf("%s %s, %s, %s", l.ParsedAddressNumber, street, dist, r.suffix)
		if res := r.validated(ctx, q, dist); res != nil {
			l.SetResolved(res.Lat, res.Lng, model.PrecisionAddress)
			return
		}
	}

	if street != "" {
		q := fmt.Sprintf("%s, %s, %s", street, dist, r.suffix)
		if res := r.validated(ctx, q, dist); res != nil {
			l.SetResolved(res.Lat, res.Lng, model.PrecisionStreet)
			return
		}

		// Dropping the district qualifier handles listings whose site
		// district label does not match OSM's admin hierarchy.
		q = fmt.Sprintf("%s, %s", street, r.suffix)
		if res := r.validated(ctx, q, dist); res != nil {
			l.SetResolved(res.Lat, res.Lng, model.PrecisionStreet)
			return
		}
	}

	if dist != "" {
		// Lowest-confidence tier; nothing left to validate against.
		if res := r.search(ctx, fmt.Sprintf("%s, %s", dist, r.suffix), nominatim.SearchOptions{}); res != nil {
			l.SetResolved(res.Lat, res.Lng, model.PrecisionDistrict)
			return
		}
	}

	l.MarkFailed()
	r.overrides.MarkFailed(l)
}

// validated geocodes with the district box as a soft bias, then checks the
// candidate against the buffered box. An out-of-box candidate earns exactly
// one retry with the box enforced as a hard filter; a second miss abandons
// the tier. An unknown box accepts the candidate as-is.
func (r *Resolver) validated(ctx context.Context, query, dist string) *nominatim.Result {
	opts := nominatim.SearchOptions{}
	box, known := r.boxes.Box(ctx, dist)
	if known {
		opts.ViewBox = &nominatim.ViewBox{
			South: box.South, North: box.North, West: box.West, East: box.East,
		}
	}

	res := r.search(ctx, query, opts)
	if res == nil {
		return nil
	}
	if !known || r.boxes.Contains(ctx, dist, res.Lat, res.Lng) != district.StatusOutside {
		return res
	}

	zap.L().Debug("resolver: candidate outside district box, retrying bounded",
		zap.String("query", query), zap.String("district", dist))
	opts.Bounded = true
	res = r.search(ctx, query, opts)
	if res == nil || r.boxes.Contains(ctx, dist, res.Lat, res.Lng) == district.StatusOutside {
		return nil
	}
	return res
}

// search wraps one geocoder call; errors are logged and treated as no
// result so resolution proceeds to the next tier.
func (r *Resolver) search(ctx context.Context, query string, opts nominatim.SearchOptions) *nominatim.Result {
	res, err := r.geocoder.Search(ctx, query, opts)
	if err != nil {
		zap.L().Warn("resolver: geocode failed", zap.String("query", query), zap.Error(err))
		return nil
	}
	return res
}

// RunBatch resolves every listing that has no coordinates yet. Listings
// already geocoded are skipped; that keeps re-runs cheap and idempotent.
func (r *Resolver) RunBatch(ctx context.Context, listings []model.Listing) (Summary, error) {
	summary := Summary{ByPrecision: make(map[model.GeocodePrecision]int)}

	for i := range listings {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		l := &listings[i]
		if l.HasCoordinates() {
			summary.Skipped++
			continue
		}

		r.Resolve(ctx, l)
		summary.ByPrecision[l.GeocodePrecision]++
		if l.HasCoordinates() {
			summary.Resolved++
			zap.L().Info("resolver: resolved",
				zap.Int64("id", l.ID),
				zap.String("street", l.Street),
				zap.String("precision", string(l.GeocodePrecision)),
			)
		} else {
			summary.Failed++
			zap.L().Warn("resolver: failed",
				zap.Int64("id", l.ID),
				zap.String("street", l.Street),
				zap.String("district", l.District),
			)
		}
	}
	return summary, nil
}
