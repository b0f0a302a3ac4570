// Package model defines the listing records shared by the scraper outputs,
// the geocoding resolver, the spreading engine and the exporters.
package model

// Source identifies which site produced a listing. Listing IDs are unique
// per source only.
type Source string

const (
	SourceBesthouse Source = "besthouse"
	SourceKentron   Source = "kentron"
	SourceListam    Source = "listam"
)

// RawListing is one rental advertisement as scraped, before enrichment.
type RawListing struct {
	ID     int64  `json:"id"`
	URL    string `json:"url,omitempty"`
	Source Source `json:"source"`

	Title               string `json:"title,omitempty"`
	Street              string `json:"street"`
	District            string `json:"district"`
	City                string `json:"city"`
	ParsedAddressNumber string `json:"parsed_address_number,omitempty"`

	PriceUSD        *int     `json:"price_usd"`
	Rooms           *int     `json:"rooms,omitempty"`
	Bathrooms       *int     `json:"bathrooms,omitempty"`
	Floors          *int     `json:"floors,omitempty"`
	BuildingAreaSqm *float64 `json:"building_area_sqm,omitempty"`
	LandAreaSqm     *float64 `json:"land_area_sqm,omitempty"`

	PhotoURLs   []string `json:"photo_urls,omitempty"`
	PhotoCount  int      `json:"photo_count,omitempty"`
	Description string   `json:"description,omitempty"`
}

// Listing is a RawListing plus the enrichment fields added by the pipeline.
// Lat/Lng are nil until the resolver assigns them (or fails to).
type Listing struct {
	RawListing

	Lat              *float64         `json:"lat"`
	Lng              *float64         `json:"lng"`
	GeocodePrecision GeocodePrecision `json:"geocode_precision,omitempty"`

	// Populated by out-of-pipeline collaborators; carried through untouched.
	AIScore         *float64 `json:"ai_score,omitempty"`
	AISummary       string   `json:"ai_summary,omitempty"`
	ResolvedAddress string   `json:"resolved_address,omitempty"`

	// Distance enrichment relative to the configured reference point.
	StraightLineKm *float64 `json:"straight_line_km_to_ref,omitempty"`
	WalkMins       *float64 `json:"walk_mins_to_ref,omitempty"`
	WalkKm         *float64 `json:"walk_km_to_ref,omitempty"`
	DriveMins      *float64 `json:"drive_mins_to_ref,omitempty"`
	DriveKm        *float64 `json:"drive_km_to_ref,omitempty"`
}

// HasCoordinates reports whether the listing has been geocoded.
func (l *Listing) HasCoordinates() bool {
	return l.Lat != nil && l.Lng != nil
}

// SetResolved assigns coordinates from the resolver. It refuses to overwrite
// an existing position with a lower-confidence one: downgrades must go
// through ResetCoordinates first. Returns true if the assignment was applied.
func (l *Listing) SetResolved(lat, lng float64, p GeocodePrecision) bool {
	if l.HasCoordinates() && !p.AtLeast(l.GeocodePrecision) {
		return false
	}
	l.Lat = &lat
	l.Lng = &lng
	l.GeocodePrecision = p
	return true
}

// Reposition moves a listing deliberately, bypassing the downgrade guard.
// Used by the spreading engine, which may re-tag a street-level listing as
// district_jitter when its "street" turns out to be an area label.
func (l *Listing) Reposition(lat, lng float64, p GeocodePrecision) {
	l.Lat = &lat
	l.Lng = &lng
	l.GeocodePrecision = p
}

// MarkFailed records that every tier failed for this listing.
func (l *Listing) MarkFailed() {
	l.Lat = nil
	l.Lng = nil
	l.GeocodePrecision = PrecisionFailed
}

// ResetCoordinates nulls the position so the next resolver batch re-processes
// the listing. The explicit reset path is the only sanctioned downgrade.
func (l *Listing) ResetCoordinates() {
	l.Lat = nil
	l.Lng = nil
	l.GeocodePrecision = PrecisionNone
}
