package overpass

import (
	"fmt"
	"regexp"
	"strings"
)

// BBox is the (south, west, north, east) rectangle used in Overpass QL
// bounding-box filters.
type BBox struct {
	South, West, North, East float64
}

func (b BBox) ql() string {
	return fmt.Sprintf("(%g,%g,%g,%g)", b.South, b.West, b.North, b.East)
}

// StreetQuery matches highway ways whose name (English or local) matches the
// street name, case-insensitively, inside the box. The name is regex-escaped
// so literal street names with dots or parens cannot widen the match.
func StreetQuery(name string, box BBox) string {
	pattern := strings.ReplaceAll(regexp.QuoteMeta(name), `"`, `\"`)
	return `[out:json][timeout:60];` +
		`(way["highway"]["name:en"~"` + pattern + `",i]` + box.ql() + `;` +
		`way["highway"]["name"~"` + pattern + `",i]` + box.ql() + `;);` +
		`out geom;`
}

// WalkNetworkQuery fetches every pedestrian-usable way inside the box:
// all highways except motorways/trunks and private-access ways.
func WalkNetworkQuery(box BBox) string {
	return `[out:json][timeout:60];` +
		`way[highway][area!=yes]` + box.ql() +
		`["highway"!~"motorway|motorway_link|trunk|trunk_link"]` +
		`["access"!="private"]` +
		`;out geom;`
}

// LeisureQuery fetches parks, gardens and dog parks inside the box, with
// centers for non-node elements so they can still be rendered as points.
func LeisureQuery(box BBox) string {
	var b strings.Builder
	b.WriteString(`[out:json][timeout:60];(`)
	for _, kind := range []string{"park", "garden", "dog_park"} {
		fmt.Fprintf(&b, `nwr["leisure"=%q]%s;`, kind, box.ql())
	}
	b.WriteString(`);out center geom;`)
	return b.String()
}
