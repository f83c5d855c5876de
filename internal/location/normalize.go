// internal/location/normalize.go

// Package location resolves free-text place names to a canonical comparable
// form and expands them into the alias set known for that place.
//
// The same canonical form is written to the normalized location columns of the
// catalog tables, so an alias set can be matched either in memory (Matches) or
// by the store (Slice as an IN/ANY list, Pattern as an anchored regex).
package location

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// residualFolds covers characters that survive NFD decomposition plus mark
// removal (ligatures, ordinal indicators, stroked letters).
var residualFolds = map[rune]string{
	'ª': "a",
	'º': "o",
	'ø': "o",
	'æ': "ae",
	'œ': "oe",
	'ß': "ss",
	'ł': "l",
	'đ': "d",
	'ı': "i",
	'’': "'",
	'´': "",
	'`': "",
}

var whitespace = regexp.MustCompile(`\s+`)

// Normalize lower-cases, strips diacritics and collapses whitespace.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, strings.ToLower(text))
	if err != nil {
		stripped = strings.ToLower(text)
	}

	var b strings.Builder
	b.Grow(len(stripped))
	for _, r := range stripped {
		if fold, ok := residualFolds[r]; ok {
			b.WriteString(fold)
			continue
		}
		b.WriteRune(r)
	}

	return strings.TrimSpace(whitespace.ReplaceAllString(b.String(), " "))
}

// Set is a closed set of comparable location spellings.
type Set map[string]struct{}

func (s Set) add(v string) {
	if v != "" {
		s[v] = struct{}{}
	}
}

func (s Set) Contains(v string) bool {
	_, ok := s[v]
	return ok
}

// Slice returns the members sorted, suitable for an IN/ANY list.
func (s Set) Slice() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Pattern returns an exact-match regex alternation anchored at both ends.
func (s Set) Pattern() string {
	members := s.Slice()
	quoted := make([]string, len(members))
	for i, m := range members {
		quoted[i] = regexp.QuoteMeta(m)
	}
	return "^(?:" + strings.Join(quoted, "|") + ")$"
}

// Variations returns the raw input, its canonical form and, when the canonical
// form is a known key or alias, every alias of that place. Unknown places
// degrade to the raw and canonical spellings only.
func Variations(text string) Set {
	set := Set{}
	set.add(text)

	normalized := Normalize(text)
	set.add(normalized)
	if normalized == "" {
		return set
	}

	for _, key := range aliasIndex[normalized] {
		set.add(Normalize(key))
		for _, alias := range aliasTable[key] {
			set.add(Normalize(alias))
		}
	}
	return set
}

// Matches reports whether value, once normalized, belongs to variants.
// It is the in-memory twin of the ANY($n) predicate on normalized columns.
func Matches(value string, variants Set) bool {
	return variants.Contains(Normalize(value))
}

// Equivalent reports whether two spellings resolve to overlapping alias sets.
func Equivalent(a, b string) bool {
	return Matches(b, Variations(a))
}
