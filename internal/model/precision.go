package model

// GeocodePrecision describes how a listing's coordinates were derived.
// Values are ordered by confidence; see Rank.
type GeocodePrecision string

const (
	// PrecisionOverride marks manually corrected coordinates. Highest trust.
	PrecisionOverride GeocodePrecision = "override"

	// PrecisionSourceMap marks coordinates embedded by the source site itself
	// (e.g. a Yandex map pin on the detail page).
	PrecisionSourceMap GeocodePrecision = "source_map"

	// PrecisionAddress marks a full street+number geocoder match.
	PrecisionAddress GeocodePrecision = "address"

	// Street-level matches, possibly de-collided by the spreading engine.
	PrecisionStreet       GeocodePrecision = "street"
	PrecisionStreetSpread GeocodePrecision = "street_spread"
	PrecisionStreetJitter GeocodePrecision = "street_jitter"

	// District-centroid matches, possibly de-collided.
	PrecisionDistrict       GeocodePrecision = "district"
	PrecisionDistrictJitter GeocodePrecision = "district_jitter"

	// PrecisionSourceApprox marks approximate coordinates supplied by the
	// source site (district-level pins).
	PrecisionSourceApprox GeocodePrecision = "source_approx"

	// PrecisionFailed marks a listing no tier could resolve.
	PrecisionFailed GeocodePrecision = "failed"

	// PrecisionNone is the zero value: not yet geocoded.
	PrecisionNone GeocodePrecision = ""
)

// Rank returns the confidence ordering of a precision tier. Higher is more
// trustworthy. Tiers within the same band (street, district) share a rank:
// spreading a street-level listing along its street does not change how much
// we trust the underlying geocode.
func (p GeocodePrecision) Rank() int {
	switch p {
	case PrecisionOverride:
		return 7
	case PrecisionSourceMap:
		return 6
	case PrecisionAddress:
		return 5
	case PrecisionStreet, PrecisionStreetSpread, PrecisionStreetJitter:
		return 4
	case PrecisionDistrict, PrecisionDistrictJitter:
		return 3
	case PrecisionSourceApprox:
		return 2
	case PrecisionFailed:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether p is at least as trustworthy as other.
func (p GeocodePrecision) AtLeast(other GeocodePrecision) bool {
	return p.Rank() >= other.Rank()
}

// StreetLevel reports whether p belongs to the street band.
func (p GeocodePrecision) StreetLevel() bool {
	return p == PrecisionStreet || p == PrecisionStreetSpread || p == PrecisionStreetJitter
}

// DistrictLevel reports whether p belongs to the district band.
func (p GeocodePrecision) DistrictLevel() bool {
	return p == PrecisionDistrict || p == PrecisionDistrictJitter
}

// Trusted reports whether coordinates with this precision must never be
// reset by the automatic re-geocode pass.
func (p GeocodePrecision) Trusted() bool {
	switch p {
	case PrecisionOverride, PrecisionSourceMap, PrecisionSourceApprox, PrecisionAddress:
		return true
	}
	return false
}

// Valid reports whether p is one of the known tiers.
func (p GeocodePrecision) Valid() bool {
	return p.Rank() > 0
}
