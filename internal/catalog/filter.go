// internal/catalog/filter.go

// Package catalog reads plants, partner profiles and question categories.
//
// Every store-side predicate built here has an in-memory twin (Matches) that
// must select exactly the same rows; the tests hold the two in lockstep.
package catalog

import (
	"errors"
	"fmt"
	"strings"

	"survey-recommender/internal/location"
	"survey-recommender/internal/models"
)

var ErrCatalogQueryFailed = errors.New("CATALOG_QUERY_FAILED")

// TagCriterion asks for a plant tag in Category containing Value, ignoring case.
type TagCriterion struct {
	Category models.QuestionCategory
	Value    string
}

func (c TagCriterion) Matches(p models.Plant) bool {
	needle := strings.ToLower(c.Value)
	for _, tag := range p.Tags(c.Category) {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

// LocationCriterion asks for a plant location whose canonical value is in
// Variants. An empty Type accepts any location type.
type LocationCriterion struct {
	Type     string
	Value    string
	Variants location.Set
}

func NewLocationCriterion(locationType, value string) LocationCriterion {
	return LocationCriterion{Type: locationType, Value: value, Variants: location.Variations(value)}
}

func (c LocationCriterion) Matches(p models.Plant) bool {
	for _, loc := range p.Locations {
		if c.Type != "" && loc.Type != c.Type {
			continue
		}
		if location.Matches(loc.Value, c.Variants) {
			return true
		}
	}
	return false
}

// PlantFilter is the conjunction of all its criteria.
type PlantFilter struct {
	Tags      []TagCriterion
	Locations []LocationCriterion
	Limit     int
}

func (f PlantFilter) Empty() bool {
	return len(f.Tags) == 0 && len(f.Locations) == 0
}

func (f PlantFilter) Matches(p models.Plant) bool {
	for _, c := range f.Tags {
		if !c.Matches(p) {
			return false
		}
	}
	for _, c := range f.Locations {
		if !c.Matches(p) {
			return false
		}
	}
	return true
}

// Explain lists one reason per criterion the plant satisfies.
func (f PlantFilter) Explain(p models.Plant) []string {
	reasons := []string{}
	for _, c := range f.Tags {
		if c.Matches(p) {
			reasons = append(reasons, reason(c.Category, c.Value))
		}
	}
	for _, c := range f.Locations {
		if c.Matches(p) {
			reasons = append(reasons, reason(models.CategoryLocation, c.Value))
		}
	}
	return reasons
}

func reason(category models.QuestionCategory, value string) string {
	return fmt.Sprintf("matches preference for %s (%s)", category.Label(), value)
}

// PartnerFilter selects active partners located in one of the state
// variants and one of the city variants.
type PartnerFilter struct {
	States location.Set
	Cities location.Set
	Limit  int
}

func (f PartnerFilter) Matches(p models.PartnerProfile) bool {
	return p.Status == models.PartnerStatusActive &&
		location.Matches(p.State, f.States) &&
		location.Matches(p.City, f.Cities)
}

// likePattern escapes LIKE metacharacters and wraps v for a substring match.
func likePattern(v string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(v) + "%"
}

// wildcardPattern escapes Elasticsearch wildcard metacharacters and wraps v
// for a substring match.
func wildcardPattern(v string) string {
	r := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)
	return "*" + r.Replace(v) + "*"
}
