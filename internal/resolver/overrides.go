package resolver

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/ararat-labs/housing-cli/internal/model"
)

// Override is one manually supplied correction, keyed by listing id. An
// entry with nil coordinates is a marker waiting for a human to fill in.
type Override struct {
	Lat    *float64 `json:"lat"`
	Lng    *float64 `json:"lng"`
	Street string   `json:"street,omitempty"`
	Note   string   `json:"note,omitempty"`
}

// Filled reports whether the override carries usable coordinates.
func (o Override) Filled() bool {
	return o.Lat != nil && o.Lng != nil
}

// Overrides is the persisted override map. Entries are appended when
// automated resolution fails and never removed automatically.
type Overrides struct {
	path     string
	entries  map[string]Override
	modified bool
}

// LoadOverrides reads the override file; a missing file is an empty map.
func LoadOverrides(path string) (*Overrides, error) {
	o := &Overrides{path: path, entries: make(map[string]Override)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return o, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "resolver: read overrides %s", path)
	}
	if err := json.Unmarshal(data, &o.entries); err != nil {
		return nil, eris.Wrapf(err, "resolver: parse overrides %s", path)
	}
	return o, nil
}

// Get returns the override for a listing id, if any.
func (o *Overrides) Get(id int64) (Override, bool) {
	ov, ok := o.entries[strconv.FormatInt(id, 10)]
	return ov, ok
}

// Len returns the number of entries.
func (o *Overrides) Len() int { return len(o.entries) }

// MarkFailed queues a listing for manual geocoding. Existing entries are
// left untouched so a human-filled value is never clobbered.
func (o *Overrides) MarkFailed(l *model.Listing) {
	key := strconv.FormatInt(l.ID, 10)
	if _, ok := o.entries[key]; ok {
		return
	}
	o.entries[key] = Override{
		Street: l.Street,
		Note:   "needs manual geocoding",
	}
	o.modified = true
}

// Save persists the map when it changed since load.
func (o *Overrides) Save() error {
	if !o.modified {
		return nil
	}
	data, err := json.MarshalIndent(o.entries, "", "  ")
	if err != nil {
		return eris.Wrap(err, "resolver: marshal overrides")
	}

	if err := os.MkdirAll(filepath.Dir(o.path), 0o755); err != nil {
		return eris.Wrap(err, "resolver: create overrides dir")
	}
	tmp, err := os.CreateTemp(filepath.Dir(o.path), ".overrides-*.json")
	if err != nil {
		return eris.Wrap(err, "resolver: create temp file")
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return eris.Wrap(err, "resolver: write overrides")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return eris.Wrap(err, "resolver: close temp file")
	}
	if err := os.Rename(tmp.Name(), o.path); err != nil {
		os.Remove(tmp.Name())
		return eris.Wrap(err, "resolver: rename overrides")
	}
	o.modified = false
	return nil
}
