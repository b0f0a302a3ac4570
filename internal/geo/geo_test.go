package geo

import (
	"math"
	"testing"
)

func TestHaversineM_KnownDistance(t *testing.T) {
	// Republic Square to the Cascade complex, roughly 1.5 km.
	d := HaversineM(40.1776, 44.5126, 40.1916, 44.5152)
	if d < 1400 || d > 1700 {
		t.Errorf("expected ~1.5km, got %.0fm", d)
	}
}

func TestHaversineM_ZeroForSamePoint(t *testing.T) {
	if d := HaversineM(40.18, 44.51, 40.18, 44.51); d != 0 {
		t.Errorf("expected 0, got %f", d)
	}
}

func TestOffsetM_RoundTripsDistance(t *testing.T) {
	p := Point{Lat: 40.18, Lng: 44.51}
	q := OffsetM(p, 300, 400) // 500m displacement
	d := DistanceM(p, q)
	if math.Abs(d-500) > 5 {
		t.Errorf("expected ~500m offset, got %.1fm", d)
	}
}

func TestOffsetM_LongitudeScaledByLatitude(t *testing.T) {
	nearEquator := OffsetM(Point{Lat: 0, Lng: 44}, 0, 1000)
	atYerevan := OffsetM(Point{Lat: 40.18, Lng: 44}, 0, 1000)

	dEq := nearEquator.Lng - 44
	dYe := atYerevan.Lng - 44
	if dYe <= dEq {
		t.Errorf("expected larger degree step at higher latitude: equator=%g yerevan=%g", dEq, dYe)
	}
}

func TestBBox_ContainsEdges(t *testing.T) {
	b := BBox{South: 40.10, North: 40.30, West: 44.40, East: 44.65}

	if !b.Contains(40.10, 44.40) {
		t.Error("corner should be inside (edges inclusive)")
	}
	if !b.Contains(40.20, 44.50) {
		t.Error("interior point should be inside")
	}
	if b.Contains(40.31, 44.50) {
		t.Error("point north of box should be outside")
	}
}

func TestBBox_BufferedCornerInside(t *testing.T) {
	b := BBox{South: 40.10, North: 40.30, West: 44.40, East: 44.65}
	buffered := b.Buffer(300)

	// The original corner sits inside the buffered box.
	if !buffered.Contains(b.South, b.West) {
		t.Error("original corner must be inside buffered box")
	}
	// The buffered corner itself is classified inside (edges inclusive).
	if !buffered.Contains(buffered.South, buffered.West) {
		t.Error("buffered corner must be inside")
	}
	// A point 1km beyond the buffer is outside.
	far := OffsetM(Point{Lat: b.South, Lng: b.West}, -1300, -1300)
	if buffered.Contains(far.Lat, far.Lng) {
		t.Error("point 1km outside buffered box must be outside")
	}
}

func TestBBoxAround_Extent(t *testing.T) {
	b := BBoxAround(Point{Lat: 40.18, Lng: 44.51}, 2000)
	if !b.Valid() {
		t.Fatal("expected valid box")
	}
	height := HaversineM(b.South, 44.51, b.North, 44.51)
	if math.Abs(height-4000) > 40 {
		t.Errorf("expected ~4km north-south extent, got %.0fm", height)
	}
}
