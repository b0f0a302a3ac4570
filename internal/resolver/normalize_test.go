package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeStreet(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Tpagrichner (printers) st.", "Tpagrichner Street"},
		{"Norashen district", "Norashen"},
		{"Saryan dead end", "Saryan"},
		{"Mashtots Ave", "Mashtots Avenue"},
		{"Mashtots av.", "Mashtots Avenue"},
		{"Isakov hightway", "Isakov"},
		{"  Tolstoy   Street  ", "Tolstoy Street"},
		{"Abovyan", "Abovyan"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, NormalizeStreet(c.in), "input %q", c.in)
	}
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "tolstoy_street", Slug("Tolstoy Street"))
	assert.Equal(t, "nor_nork_2nd_micro_district", Slug("Nor-Nork 2nd Micro District"))
	assert.Equal(t, "sayat_nova", Slug("Sayat-Nová"), "accents are folded")
	assert.Equal(t, "street", Slug("   "), "blank input gets a stable placeholder")
}
