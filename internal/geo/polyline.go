package geo

// Polyline is an ordered sequence of vertices along a road segment.
type Polyline []Point

// LengthM returns the polyline's arc length in meters.
func (pl Polyline) LengthM() float64 {
	if len(pl) < 2 {
		return 0
	}
	var total float64
	for i := 1; i < len(pl); i++ {
		total += DistanceM(pl[i-1], pl[i])
	}
	return total
}

// PointAt returns the point at the given arc-length distance from the start,
// linearly interpolating within the containing segment. Distances beyond the
// end clamp to the last vertex.
func (pl Polyline) PointAt(distM float64) Point {
	if distM <= 0 || len(pl) == 1 {
		return pl[0]
	}
	remaining := distM
	for i := 1; i < len(pl); i++ {
		seg := DistanceM(pl[i-1], pl[i])
		if seg <= 0 {
			continue
		}
		if remaining <= seg {
			t := remaining / seg
			return Point{
				Lat: pl[i-1].Lat + (pl[i].Lat-pl[i-1].Lat)*t,
				Lng: pl[i-1].Lng + (pl[i].Lng-pl[i-1].Lng)*t,
			}
		}
		remaining -= seg
	}
	return pl[len(pl)-1]
}

// NearestVertexDistM returns the distance from p to the closest vertex of
// the polyline. Vertex granularity is enough for the 2km relevance filter;
// no segment projection needed.
func (pl Polyline) NearestVertexDistM(p Point) float64 {
	best := -1.0
	for _, v := range pl {
		d := DistanceM(p, v)
		if best < 0 || d < best {
			best = d
		}
	}
	return best
}

// MultiLine is a set of disconnected polylines representing one named
// street's road segments.
type MultiLine []Polyline

// TotalLengthM returns the combined arc length of all member polylines.
func (ml MultiLine) TotalLengthM() float64 {
	var total float64
	for _, pl := range ml {
		total += pl.LengthM()
	}
	return total
}

// Interpolate places n points evenly along the combined length of the
// multiline: point i sits at fractional position (i+0.5)/n of the total
// length, so no point ever lands exactly on the first or last vertex.
func (ml MultiLine) Interpolate(n int) []Point {
	if n <= 0 {
		return nil
	}

	lengths := make([]float64, len(ml))
	var total float64
	for i, pl := range ml {
		lengths[i] = pl.LengthM()
		total += lengths[i]
	}
	if total <= 0 {
		return nil
	}

	out := make([]Point, 0, n)
	for i := 0; i < n; i++ {
		target := total * (float64(i) + 0.5) / float64(n)

		// Walk the cumulative length table to find the containing polyline.
		var prev float64
		idx := len(ml) - 1
		for j, ln := range lengths {
			if target <= prev+ln {
				idx = j
				break
			}
			prev += ln
		}
		out = append(out, ml[idx].PointAt(target-prev))
	}
	return out
}
