package geo

// BBox is an axis-aligned latitude/longitude rectangle.
type BBox struct {
	South float64 `json:"south"`
	North float64 `json:"north"`
	West  float64 `json:"west"`
	East  float64 `json:"east"`
}

// Valid reports whether the box has positive extent in both axes.
func (b BBox) Valid() bool {
	return b.North > b.South && b.East > b.West
}

// Contains reports whether the point lies inside the box, edges included.
func (b BBox) Contains(lat, lng float64) bool {
	return lat >= b.South && lat <= b.North && lng >= b.West && lng <= b.East
}

// Center returns the box midpoint.
func (b BBox) Center() Point {
	return Point{Lat: (b.South + b.North) / 2, Lng: (b.West + b.East) / 2}
}

// Buffer expands the box by the given distance in meters on every side.
// The longitude expansion is corrected for the box's central latitude.
func (b BBox) Buffer(m float64) BBox {
	dlat, dlng := DegreesForMeters(m, b.Center().Lat)
	return BBox{
		South: b.South - dlat,
		North: b.North + dlat,
		West:  b.West - dlng,
		East:  b.East + dlng,
	}
}

// BBoxAround returns a box extending the given number of meters from a
// center point in every direction.
func BBoxAround(center Point, m float64) BBox {
	dlat, dlng := DegreesForMeters(m, center.Lat)
	return BBox{
		South: center.Lat - dlat,
		North: center.Lat + dlat,
		West:  center.Lng - dlng,
		East:  center.Lng + dlng,
	}
}
