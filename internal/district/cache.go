package district

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ararat-labs/housing-cli/internal/geo"
	"github.com/ararat-labs/housing-cli/pkg/nominatim"
)

// Status is the tri-state answer to "is this point in district D?".
type Status int

const (
	// StatusUnknown means no bounding box could be resolved for the
	// district, so containment cannot be judged.
	StatusUnknown Status = iota
	StatusInside
	StatusOutside
)

func (s Status) String() string {
	switch s {
	case StatusInside:
		return "inside"
	case StatusOutside:
		return "outside"
	default:
		return "unknown"
	}
}

// Searcher is the subset of the Nominatim client the cache needs.
type Searcher interface {
	Search(ctx context.Context, query string, opts nominatim.SearchOptions) (*nominatim.Result, error)
}

// Cache resolves and memoizes district bounding boxes. Boxes are fetched
// once from Nominatim, kept in memory, and persisted as JSON so later runs
// need no network calls for known districts. Districts don't move; entries
// never expire.
type Cache struct {
	path     string
	search   Searcher
	suffix   string
	bufferM  float64
	boxes    map[string][4]float64 // canonical name -> south, north, west, east
	misses   map[string]bool       // in-process only, not persisted
	modified bool
}

// CacheOption configures the cache.
type CacheOption func(*Cache)

// WithQuerySuffix overrides the ", City, Country" tail of the lookup query.
func WithQuerySuffix(s string) CacheOption {
	return func(c *Cache) { c.suffix = s }
}

// WithBufferMeters overrides the containment tolerance.
func WithBufferMeters(m float64) CacheOption {
	return func(c *Cache) { c.bufferM = m }
}

// NewCache loads the persisted box file (a missing file is an empty cache)
// and attaches the geocoder used for lazy fetches. Corrupt entries are
// skipped individually rather than failing the whole cache.
func NewCache(path string, search Searcher, opts ...CacheOption) (*Cache, error) {
	c := &Cache{
		path:    path,
		search:  search,
		suffix:  "Yerevan, Armenia",
		bufferM: 300,
		boxes:   make(map[string][4]float64),
		misses:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(c)
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "district: read cache %s", path)
	}

	var raw map[string][]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, eris.Wrapf(err, "district: parse cache %s", path)
	}
	for name, vals := range raw {
		box, ok := validBox(vals)
		if !ok {
			zap.L().Warn("district: skipping corrupt cache entry", zap.String("district", name))
			continue
		}
		c.boxes[name] = box
	}
	return c, nil
}

func validBox(vals []float64) ([4]float64, bool) {
	if len(vals) != 4 {
		return [4]float64{}, false
	}
	var box [4]float64
	for i, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return [4]float64{}, false
		}
		box[i] = v
	}
	if box[0] >= box[1] || box[2] >= box[3] {
		return [4]float64{}, false
	}
	return box, true
}

// Box returns the buffered bounding box for a district, fetching it on
// first use. ok is false when the district has no resolvable box; fetch
// errors also report not-ok so callers degrade to the unknown path.
func (c *Cache) Box(ctx context.Context, name string) (geo.BBox, bool) {
	canon := Canonical(name)
	if canon == "" {
		return geo.BBox{}, false
	}

	if box, ok := c.boxes[canon]; ok {
		return c.buffered(box), true
	}
	if c.misses[canon] {
		return geo.BBox{}, false
	}

	res, err := c.search.Search(ctx, canon+", "+c.suffix, nominatim.SearchOptions{})
	if err != nil {
		zap.L().Warn("district: bbox lookup failed",
			zap.String("district", canon), zap.Error(err))
		c.misses[canon] = true
		return geo.BBox{}, false
	}
	if res == nil || res.BoundingBox == [4]float64{} {
		zap.L().Debug("district: no bbox for district", zap.String("district", canon))
		c.misses[canon] = true
		return geo.BBox{}, false
	}

	c.boxes[canon] = res.BoundingBox
	c.modified = true
	return c.buffered(res.BoundingBox), true
}

func (c *Cache) buffered(box [4]float64) geo.BBox {
	b := geo.BBox{South: box[0], North: box[1], West: box[2], East: box[3]}
	return b.Buffer(c.bufferM)
}

// Contains classifies a point against the district's buffered box.
func (c *Cache) Contains(ctx context.Context, name string, lat, lng float64) Status {
	box, ok := c.Box(ctx, name)
	if !ok {
		return StatusUnknown
	}
	if box.Contains(lat, lng) {
		return StatusInside
	}
	return StatusOutside
}

// Save persists the box map when it changed since load.
func (c *Cache) Save() error {
	if !c.modified {
		return nil
	}
	out := make(map[string][]float64, len(c.boxes))
	for name, box := range c.boxes {
		out[name] = box[:]
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return eris.Wrap(err, "district: marshal cache")
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return eris.Wrap(err, "district: create cache dir")
	}
	tmp, err := os.CreateTemp(filepath.Dir(c.path), ".districts-*.json")
	if err != nil {
		return eris.Wrap(err, "district: create temp file")
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return eris.Wrap(err, "district: write cache")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return eris.Wrap(err, "district: close temp file")
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		os.Remove(tmp.Name())
		return eris.Wrap(err, "district: rename cache")
	}
	c.modified = false
	return nil
}
