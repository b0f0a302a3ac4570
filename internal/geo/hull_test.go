package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square() []Point {
	return []Point{
		{Lat: 40.10, Lng: 44.40},
		{Lat: 40.10, Lng: 44.50},
		{Lat: 40.20, Lng: 44.50},
		{Lat: 40.20, Lng: 44.40},
	}
}

func TestConvexHull_Square(t *testing.T) {
	pts := append(square(), Point{Lat: 40.15, Lng: 44.45}) // interior point
	hull := ConvexHull(pts)
	require.Len(t, hull, 4)
	for _, corner := range square() {
		assert.Contains(t, hull, corner)
	}
}

func TestConvexHull_Degenerate(t *testing.T) {
	assert.Nil(t, ConvexHull(nil))
	assert.Nil(t, ConvexHull([]Point{{Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}}))
	// Duplicates of one point are still degenerate.
	assert.Nil(t, ConvexHull([]Point{{Lat: 1, Lng: 1}, {Lat: 1, Lng: 1}, {Lat: 1, Lng: 1}}))
}

func TestConcaveHull_EnclosesAllPoints(t *testing.T) {
	// A 5x5 grid with one offset straggler.
	var pts []Point
	for i := 0; i < 5; i++ {
		for j := 0; j < 5; j++ {
			pts = append(pts, Point{Lat: 40.10 + float64(i)*0.01, Lng: 44.40 + float64(j)*0.01})
		}
	}
	pts = append(pts, Point{Lat: 40.17, Lng: 44.47})

	hull := ConcaveHull(pts, 3)
	require.GreaterOrEqual(t, len(hull), 3)

	for _, p := range pts {
		assert.Truef(t, RingCovers(p, hull), "point %+v outside hull", p)
	}
}

func TestConcaveHull_TriangleIsIdentity(t *testing.T) {
	tri := []Point{{Lat: 1, Lng: 1}, {Lat: 2, Lng: 3}, {Lat: 3, Lng: 1}}
	hull := ConcaveHull(tri, 3)
	assert.ElementsMatch(t, tri, hull)
}

func TestConcaveHull_Degenerate(t *testing.T) {
	assert.Nil(t, ConcaveHull([]Point{{Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}}, 3))
}

func TestPointInRing(t *testing.T) {
	ring := square()
	assert.True(t, PointInRing(Point{Lat: 40.15, Lng: 44.45}, ring))
	assert.False(t, PointInRing(Point{Lat: 40.30, Lng: 44.45}, ring))
}

func TestBufferRing_ExpandsOutward(t *testing.T) {
	ring := square()
	buffered := BufferRing(ring, 70)
	require.Len(t, buffered, len(ring))

	// Every original vertex stays inside or on the buffered ring, and the
	// buffered ring is strictly larger.
	for i, p := range ring {
		assert.True(t, PointInRing(p, buffered), "original vertex must be enclosed")
		moved := DistanceM(p, buffered[i])
		assert.InDelta(t, 70, moved, 5, "vertex should move ~70m")
	}
}

func TestBufferRing_NoOpForSmallInputs(t *testing.T) {
	two := []Point{{Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}}
	assert.Equal(t, two, BufferRing(two, 70))

	ring := square()
	assert.Equal(t, ring, BufferRing(ring, 0))
}
