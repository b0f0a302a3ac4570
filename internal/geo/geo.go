// Package geo holds the geometric primitives shared by the resolver, the
// spreading engine and the isochrone engine: haversine distances, bounding
// boxes, polyline interpolation and hull construction.
package geo

import "math"

const (
	// EarthRadiusM is the mean Earth radius used for haversine distances.
	EarthRadiusM = 6371000.0

	// MetersPerDegree approximates one degree of latitude (and one degree of
	// longitude at the equator) in meters.
	MetersPerDegree = 111_111.0
)

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// HaversineM returns the great-circle distance between two points in meters.
func HaversineM(lat1, lng1, lat2, lng2 float64) float64 {
	p1 := lat1 * math.Pi / 180
	p2 := lat2 * math.Pi / 180
	dp := p2 - p1
	dl := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dp/2)*math.Sin(dp/2) +
		math.Cos(p1)*math.Cos(p2)*math.Sin(dl/2)*math.Sin(dl/2)
	return 2 * EarthRadiusM * math.Asin(math.Sqrt(a))
}

// DistanceM returns the distance between two points in meters.
func DistanceM(a, b Point) float64 {
	return HaversineM(a.Lat, a.Lng, b.Lat, b.Lng)
}

// OffsetM shifts a point by the given meters north and east, correcting the
// longitude step for meridian convergence at the point's latitude.
func OffsetM(p Point, northM, eastM float64) Point {
	dlat := northM / MetersPerDegree
	denom := MetersPerDegree * math.Max(math.Cos(p.Lat*math.Pi/180), 1e-6)
	dlng := eastM / denom
	return Point{Lat: p.Lat + dlat, Lng: p.Lng + dlng}
}

// DegreesForMeters converts a distance in meters to an approximate degree
// span at the given latitude, returning the latitude and longitude deltas.
func DegreesForMeters(m, atLat float64) (dlat, dlng float64) {
	dlat = m / MetersPerDegree
	dlng = m / (MetersPerDegree * math.Max(math.Cos(atLat*math.Pi/180), 1e-6))
	return dlat, dlng
}
