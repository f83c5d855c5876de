// internal/location/normalize_test.go
package location

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"accents and case", "São Paulo", "sao paulo"},
		{"already canonical", "sao paulo", "sao paulo"},
		{"surrounding and inner whitespace", "  Rio   de \tJaneiro ", "rio de janeiro"},
		{"cedilla", "Açaí Paraná", "acai parana"},
		{"circumflex and tilde", "Goiânia Maranhão", "goiania maranhao"},
		{"ordinal indicator", "Rua 1ª", "rua 1a"},
		{"ligature", "Cœur", "coeur"},
		{"empty", "", ""},
		{"only spaces", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	for _, in := range []string{"São Paulo", "Florianópolis", "BELÉM", "Espírito  Santo"} {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), in)
	}
}

func TestVariations_AliasEquivalence(t *testing.T) {
	assert.Equal(t, Normalize("São Paulo"), Normalize("sao paulo"))

	variants := Variations("SP")
	assert.True(t, variants.Contains(Normalize("São Paulo")))
	assert.True(t, variants.Contains(Normalize("sao paulo")))
	assert.True(t, variants.Contains("sp"))
	assert.True(t, variants.Contains("SP"), "raw input is kept")
	assert.True(t, variants.Contains("sao_paulo"), "canonical key is included")
}

func TestVariations_SameSetFromAnyAlias(t *testing.T) {
	fromAbbrev := Variations("rj")
	fromName := Variations("Rio de Janeiro")

	for _, v := range []string{"rio de janeiro", "rj", "rio", "rio_de_janeiro"} {
		assert.True(t, fromAbbrev.Contains(v), v)
		assert.True(t, fromName.Contains(v), v)
	}
}

func TestVariations_UnknownLocation(t *testing.T) {
	variants := Variations("Springfield ")
	assert.Len(t, variants, 2)
	assert.True(t, variants.Contains("Springfield "))
	assert.True(t, variants.Contains("springfield"))

	assert.Len(t, Variations("springfield"), 1, "raw and canonical collapse when equal")
	assert.Empty(t, Variations("").Slice())
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		query    string
		expected bool
	}{
		{"abbreviation vs accented name", "São Paulo", "sp", true},
		{"name vs abbreviation", "SP", "são paulo", true},
		{"federal district english", "Federal District", "DF", true},
		{"different states", "Paraná", "sp", false},
		{"substring is not a match", "sao paulo do sul", "sp", false},
		{"unknown literal match", "Springfield", "springfield", true},
		{"unknown mismatch", "Shelbyville", "springfield", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Matches(tt.value, Variations(tt.query)))
			assert.Equal(t, tt.expected, Equivalent(tt.query, tt.value))
		})
	}
}

// The anchored pattern and the set membership must accept exactly the same
// canonical values, whichever one the store uses.
func TestPattern_AgreesWithMembership(t *testing.T) {
	variants := Variations("São Paulo")
	re := regexp.MustCompile(variants.Pattern())

	candidates := []string{"sao paulo", "sp", "sao_paulo", "sao paulo city", "xsp", "rj", "", "são paulo"}
	for _, c := range candidates {
		assert.Equal(t, variants.Contains(c), re.MatchString(c), c)
	}
}

func TestSet_SliceIsSorted(t *testing.T) {
	s := Variations("mg").Slice()
	assert.Equal(t, []string{"mg", "minas gerais", "minas_gerais"}, s)
}
