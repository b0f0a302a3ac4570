package spread

import (
	"crypto/sha256"
	"encoding/binary"
	"math"
	"strconv"

	"github.com/ararat-labs/housing-cli/internal/geo"
)

func stableU32(s string) uint32 {
	h := sha256.Sum256([]byte(s))
	return binary.BigEndian.Uint32(h[:4])
}

// Jitter deterministically places a point within radiusM of center. The
// offset is a pure function of (center, id, radiusM): the id hashes to an
// angle, and the id with a ":r" suffix hashes to an independent radius
// sample, square-rooted for uniform density by area. Re-running the
// pipeline therefore reproduces bit-identical positions.
func Jitter(center geo.Point, id int64, radiusM float64) geo.Point {
	key := strconv.FormatInt(id, 10)

	u := stableU32(key)
	angle := float64(u%3600) / 3600 * 2 * math.Pi

	u2 := stableU32(key + ":r")
	r := radiusM * math.Sqrt(float64(u2%10_000)/10_000)

	return geo.OffsetM(center, r*math.Cos(angle), r*math.Sin(angle))
}
