package geo

import (
	"math"
	"sort"
)

// ConvexHull returns the convex hull of the points as a counter-clockwise
// ring without a repeated closing vertex (Andrew's monotone chain).
// Returns nil for fewer than 3 distinct points.
func ConvexHull(points []Point) []Point {
	pts := dedupe(points)
	if len(pts) < 3 {
		return nil
	}

	sort.Slice(pts, func(i, j int) bool {
		if pts[i].Lng != pts[j].Lng {
			return pts[i].Lng < pts[j].Lng
		}
		return pts[i].Lat < pts[j].Lat
	})

	var lower, upper []Point
	for _, p := range pts {
		for len(lower) >= 2 && cross(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}
	for i := len(pts) - 1; i >= 0; i-- {
		p := pts[i]
		for len(upper) >= 2 && cross(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}

	hull := append(lower[:len(lower)-1], upper[:len(upper)-1]...)
	if len(hull) < 3 {
		return nil
	}
	return hull
}

// ConcaveHull computes a concave hull of the points using the
// k-nearest-neighbours algorithm (Moreira & Santos 2007). k controls how
// tightly the hull hugs the point cloud; it is escalated automatically when
// the walk dead-ends or leaves points outside, and the convex hull is the
// terminal fallback, so the result is always a simple ring enclosing every
// input point (or nil for fewer than 3 distinct points).
func ConcaveHull(points []Point, k int) []Point {
	pts := dedupe(points)
	if len(pts) < 3 {
		return nil
	}
	if len(pts) == 3 {
		return pts
	}

	if k < 3 {
		k = 3
	}
	// Escalation is capped: on large quantized point clouds an unbounded
	// retry loop degenerates into repeated near-O(n^2) walks, and the convex
	// fallback is an acceptable hull by then.
	maxK := k + 16
	if maxK > len(pts)-1 {
		maxK = len(pts) - 1
	}
	for ; k <= maxK; k++ {
		if hull := concaveHullK(pts, k); hull != nil {
			return hull
		}
	}
	return ConvexHull(pts)
}

// concaveHullK runs one gift-wrapping walk with a fixed neighbour count.
// Returns nil when the walk cannot close or excludes points, signalling the
// caller to retry with a larger k.
func concaveHullK(pts []Point, k int) []Point {
	first := pts[0]
	for _, p := range pts[1:] {
		if p.Lat < first.Lat || (p.Lat == first.Lat && p.Lng < first.Lng) {
			first = p
		}
	}

	remaining := make([]Point, 0, len(pts)-1)
	for _, p := range pts {
		if p != first {
			remaining = append(remaining, p)
		}
	}

	hull := []Point{first}
	current := first
	prevAngle := 0.0

	for step := 2; ; step++ {
		if step == 5 {
			remaining = append(remaining, first)
		}

		candidates := nearestK(remaining, current, k)
		sortByTurn(candidates, current, prevAngle)

		var next *Point
		for i := range candidates {
			c := candidates[i]
			if c == first && len(hull) < 3 {
				continue // too early to close
			}
			if !intersectsHull(hull, current, c, c == first) {
				next = &candidates[i]
				break
			}
		}
		if next == nil {
			return nil
		}

		if *next == first {
			break
		}

		hull = append(hull, *next)
		prevAngle = angle(*next, current)
		current = *next
		remaining = remove(remaining, *next)
		if len(remaining) == 0 {
			break
		}
	}

	if len(hull) < 3 {
		return nil
	}
	for _, p := range pts {
		if !RingCovers(p, hull) {
			return nil
		}
	}
	return hull
}

// ringEdgeTolDeg is the tolerance for treating a point as lying on a ring
// edge, in degrees (~0.1m). Road nodes quantized to 6 decimals routinely sit
// this far off the chord of a straight way.
const ringEdgeTolDeg = 1e-6

// RingCovers reports whether p lies inside the ring, on one of its vertices,
// or within tolerance of one of its edges.
func RingCovers(p Point, ring []Point) bool {
	if PointInRing(p, ring) {
		return true
	}
	n := len(ring)
	for i := 0; i < n; i++ {
		if pointSegDistDeg(p, ring[i], ring[(i+1)%n]) <= ringEdgeTolDeg {
			return true
		}
	}
	return false
}

// pointSegDistDeg returns the planar distance in degrees from p to segment ab.
func pointSegDistDeg(p, a, b Point) float64 {
	dx := b.Lng - a.Lng
	dy := b.Lat - a.Lat
	l2 := dx*dx + dy*dy
	t := 0.0
	if l2 > 0 {
		t = ((p.Lng-a.Lng)*dx + (p.Lat-a.Lat)*dy) / l2
		t = math.Max(0, math.Min(1, t))
	}
	qx := a.Lng + t*dx
	qy := a.Lat + t*dy
	return math.Hypot(p.Lng-qx, p.Lat-qy)
}

// PointInRing reports whether p lies strictly inside the ring (ray casting).
func PointInRing(p Point, ring []Point) bool {
	inside := false
	n := len(ring)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := ring[i], ring[j]
		if (a.Lat > p.Lat) != (b.Lat > p.Lat) {
			x := (b.Lng-a.Lng)*(p.Lat-a.Lat)/(b.Lat-a.Lat) + a.Lng
			if p.Lng < x {
				inside = !inside
			}
		}
	}
	return inside
}

// BufferRing offsets every ring vertex outward (away from the ring centroid)
// by the given number of meters. A crude but cheap smoothing step for hull
// polygons; not a true geometric buffer.
func BufferRing(ring []Point, meters float64) []Point {
	if len(ring) < 3 || meters <= 0 {
		return ring
	}

	var c Point
	for _, p := range ring {
		c.Lat += p.Lat
		c.Lng += p.Lng
	}
	c.Lat /= float64(len(ring))
	c.Lng /= float64(len(ring))

	out := make([]Point, len(ring))
	for i, p := range ring {
		north := (p.Lat - c.Lat) * MetersPerDegree
		east := (p.Lng - c.Lng) * MetersPerDegree * math.Cos(p.Lat*math.Pi/180)
		norm := math.Hypot(north, east)
		if norm < 1e-9 {
			out[i] = p
			continue
		}
		out[i] = OffsetM(p, meters*north/norm, meters*east/norm)
	}
	return out
}

func dedupe(points []Point) []Point {
	seen := make(map[Point]struct{}, len(points))
	out := make([]Point, 0, len(points))
	for _, p := range points {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// cross returns the z-component of (b-a) x (c-a) in the lng/lat plane.
func cross(a, b, c Point) float64 {
	return (b.Lng-a.Lng)*(c.Lat-a.Lat) - (b.Lat-a.Lat)*(c.Lng-a.Lng)
}

func angle(from, to Point) float64 {
	return math.Atan2(to.Lat-from.Lat, to.Lng-from.Lng)
}

func nearestK(pts []Point, from Point, k int) []Point {
	cand := make([]Point, len(pts))
	copy(cand, pts)
	sort.Slice(cand, func(i, j int) bool {
		return DistanceM(from, cand[i]) < DistanceM(from, cand[j])
	})
	if len(cand) > k {
		cand = cand[:k]
	}
	return cand
}

// sortByTurn orders candidates by descending right-hand turn relative to the
// previous edge heading, which keeps the walk hugging the point cloud.
func sortByTurn(cand []Point, current Point, prevAngle float64) {
	turn := func(p Point) float64 {
		a := prevAngle - angle(current, p)
		for a < 0 {
			a += 2 * math.Pi
		}
		for a >= 2*math.Pi {
			a -= 2 * math.Pi
		}
		return a
	}
	sort.Slice(cand, func(i, j int) bool { return turn(cand[i]) > turn(cand[j]) })
}

// intersectsHull reports whether segment current→next crosses any existing
// hull edge, ignoring the edges adjacent to the walk endpoints.
func intersectsHull(hull []Point, current, next Point, closing bool) bool {
	last := len(hull) - 1
	for i := 0; i < last; i++ {
		if closing && i == 0 {
			continue // the closing edge shares the first vertex
		}
		if i == last-1 {
			continue // shares the current vertex
		}
		if segmentsCross(hull[i], hull[i+1], current, next) {
			return true
		}
	}
	return false
}

// segmentsCross reports proper intersection of segments ab and cd.
func segmentsCross(a, b, c, d Point) bool {
	d1 := cross(c, d, a)
	d2 := cross(c, d, b)
	d3 := cross(a, b, c)
	d4 := cross(a, b, d)
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}

func remove(pts []Point, p Point) []Point {
	for i := range pts {
		if pts[i] == p {
			return append(pts[:i], pts[i+1:]...)
		}
	}
	return pts
}
