package resolver

import (
	"context"

	"go.uber.org/zap"

	"github.com/ararat-labs/housing-cli/internal/district"
	"github.com/ararat-labs/housing-cli/internal/model"
)

// ResetForRegeocode nulls the coordinates of listings worth another
// resolver pass: district-band results are always retried (the centroid
// tier is weak and cheap), and street-band results are retried when their
// current position fails the district box check, which usually means a
// wrong-district match from an earlier run. Trusted precisions are never
// touched. Returns the number of listings reset.
func ResetForRegeocode(ctx context.Context, listings []model.Listing, boxes BoxChecker) int {
	reset := 0
	for i := range listings {
		l := &listings[i]
		if !l.HasCoordinates() || l.GeocodePrecision.Trusted() {
			continue
		}

		switch {
		case l.GeocodePrecision.DistrictLevel():
			l.ResetCoordinates()
			reset++
		case l.GeocodePrecision.StreetLevel():
			dist := district.Canonical(l.District)
			if boxes.Contains(ctx, dist, *l.Lat, *l.Lng) == district.StatusOutside {
				zap.L().Info("resolver: street result outside district box, resetting",
					zap.Int64("id", l.ID),
					zap.String("street", l.Street),
					zap.String("district", dist),
				)
				l.ResetCoordinates()
				reset++
			}
		}
	}
	return reset
}
