// Package district validates geocode candidates against per-district
// bounding boxes fetched lazily from Nominatim and persisted across runs.
package district

import (
	_ "embed"

	"gopkg.in/yaml.v3"
)

//go:embed aliases.yaml
var aliasesYAML []byte

var aliases = mustLoadAliases()

func mustLoadAliases() map[string]string {
	m := make(map[string]string)
	if err := yaml.Unmarshal(aliasesYAML, &m); err != nil {
		panic("district: bad embedded alias table: " + err.Error())
	}
	return m
}

// Canonical maps a scraped district spelling to the canonical OSM name.
// Unknown names pass through unchanged.
func Canonical(name string) string {
	if canon, ok := aliases[name]; ok {
		return canon
	}
	return name
}
