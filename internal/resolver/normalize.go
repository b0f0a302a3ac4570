package resolver

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	parenthetical = regexp.MustCompile(`\s*\([^)]*\)\s*`)

	// Scraped street fields sometimes carry the kind of place as a suffix
	// ("Norashen district", "Saryan dead end"); strip it so the geocoder
	// sees a plain street name. "hightway" is a recurring source typo.
	trailingKind = regexp.MustCompile(`(?i)\s+(district|dead end|alley|hightway|highway)$`)

	abbrevAvenue = regexp.MustCompile(`(?i)\bave?\b\.?`)
	abbrevStreet = regexp.MustCompile(`\bSt\b\.?`)
	spaces       = regexp.MustCompile(`\s+`)

	nonSlug = regexp.MustCompile(`[^a-z0-9]+`)
)

// NormalizeStreet cleans a scraped street label into a geocoder-friendly
// name: parenthetical asides and trailing kind suffixes are removed, and
// common abbreviations expanded.
func NormalizeStreet(street string) string {
	s := parenthetical.ReplaceAllString(street, " ")
	s = strings.TrimSpace(s)
	s = trailingKind.ReplaceAllString(s, "")
	s = abbrevAvenue.ReplaceAllString(s, "Avenue")
	s = abbrevStreet.ReplaceAllString(s, "Street")
	return strings.TrimSpace(spaces.ReplaceAllString(s, " "))
}

var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slug derives a stable cache key from a street name: accents folded,
// lowercased, non-alphanumeric runs collapsed to underscores.
func Slug(name string) string {
	folded, _, err := transform.String(deaccent, name)
	if err != nil {
		folded = name
	}
	s := strings.ToLower(strings.TrimSpace(folded))
	s = nonSlug.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if s == "" {
		return "street"
	}
	return s
}
