package model

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// LoadListings reads a listings dataset from a JSON file. A missing file is
// not an error: it returns an empty slice so a first run starts clean.
func LoadListings(path string) ([]Listing, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "model: read listings %s", path)
	}

	var listings []Listing
	if err := json.Unmarshal(data, &listings); err != nil {
		return nil, eris.Wrapf(err, "model: parse listings %s", path)
	}
	return listings, nil
}

// MergeListings concatenates per-source listing files into one dataset,
// preserving file order. IDs are unique per source, not globally.
func MergeListings(paths ...string) ([]Listing, error) {
	var all []Listing
	for _, p := range paths {
		ls, err := LoadListings(p)
		if err != nil {
			return nil, err
		}
		all = append(all, ls...)
	}
	return all, nil
}

// SaveListings writes the dataset atomically: a temp file in the same
// directory is renamed over the target, so an interrupted run never leaves a
// truncated dataset behind.
func SaveListings(path string, listings []Listing) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "model: mkdir for %s", path)
	}

	data, err := json.MarshalIndent(listings, "", "  ")
	if err != nil {
		return eris.Wrap(err, "model: marshal listings")
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".listings-*.json")
	if err != nil {
		return eris.Wrap(err, "model: create temp file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return eris.Wrap(err, "model: write temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return eris.Wrap(err, "model: close temp file")
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return eris.Wrapf(err, "model: rename into %s", path)
	}
	return nil
}
