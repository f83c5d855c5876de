// internal/catalog/plants_elasticsearch.go
package catalog

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"survey-recommender/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/goccy/go-json"
)

// tagFields maps each tag category to its keyword field in the plant index.
var tagFields = map[models.QuestionCategory]string{
	models.CategorySpaceType:      "spaceTypes",
	models.CategoryAreaSize:       "areaSizes",
	models.CategoryChallenge:      "challenges",
	models.CategoryTechPreference: "techPreferences",
}

// Plant index sort keys. The index must map id as keyword; name may be text
// as long as it carries a "keyword" subfield, the dynamic-mapping default.
const (
	sortNameField = "name.keyword"
	sortIDField   = "id"
)

// ElasticsearchPlantCatalog searches a plant index whose documents carry the
// tag arrays as keyword fields and locations as a nested
// {locationType, locationValue, normalizedValue} collection.
type ElasticsearchPlantCatalog struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticsearchPlantCatalog(client *elasticsearch.Client, index string) *ElasticsearchPlantCatalog {
	return &ElasticsearchPlantCatalog{client: client, index: index}
}

type esLocation struct {
	Type       string `json:"locationType"`
	Value      string `json:"locationValue"`
	Normalized string `json:"normalizedValue"`
}

type esPlant struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	ScientificName  string       `json:"scientificName"`
	Description     string       `json:"description"`
	ImageURL        string       `json:"imageUrl"`
	SpaceTypes      []string     `json:"spaceTypes"`
	AreaSizes       []string     `json:"areaSizes"`
	Challenges      []string     `json:"challenges"`
	TechPreferences []string     `json:"techPreferences"`
	Locations       []esLocation `json:"locations"`
}

type esSearchResponse struct {
	Hits struct {
		Hits []struct {
			Source esPlant `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// BuildPlantSearch renders filter as a search body: every criterion becomes a
// non-scoring clause of one bool filter.
func BuildPlantSearch(filter PlantFilter) (map[string]interface{}, error) {
	clauses := []interface{}{
		map[string]interface{}{"term": map[string]interface{}{"deleted": false}},
	}

	for _, c := range filter.Tags {
		field, ok := tagFields[c.Category]
		if !ok {
			return nil, fmt.Errorf("no tag field for category %q", c.Category)
		}
		clauses = append(clauses, map[string]interface{}{
			"wildcard": map[string]interface{}{
				field: map[string]interface{}{
					"value":            wildcardPattern(c.Value),
					"case_insensitive": true,
				},
			},
		})
	}

	for _, c := range filter.Locations {
		inner := []interface{}{
			map[string]interface{}{"terms": map[string]interface{}{"locations.normalizedValue": c.Variants.Slice()}},
		}
		if c.Type != "" {
			inner = append(inner, map[string]interface{}{"term": map[string]interface{}{"locations.locationType": c.Type}})
		}
		clauses = append(clauses, map[string]interface{}{
			"nested": map[string]interface{}{
				"path":  "locations",
				"query": map[string]interface{}{"bool": map[string]interface{}{"filter": inner}},
			},
		})
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{"filter": clauses},
		},
		"sort": []interface{}{
			map[string]interface{}{sortNameField: "asc"},
			map[string]interface{}{sortIDField: "asc"},
		},
	}, nil
}

func (c *ElasticsearchPlantCatalog) FindPlants(ctx context.Context, filter PlantFilter) ([]models.Plant, error) {
	body, err := BuildPlantSearch(filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogQueryFailed, err)
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: encode search: %v", ErrCatalogQueryFailed, err)
	}

	req := esapi.SearchRequest{
		Index: []string{c.index},
		Body:  bytes.NewReader(payload),
	}
	if filter.Limit > 0 {
		size := filter.Limit
		req.Size = &size
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogQueryFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, fmt.Errorf("%w: search %s: %s", ErrCatalogQueryFailed, res.Status(), bytes.TrimSpace(msg))
	}

	var parsed esSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode search: %v", ErrCatalogQueryFailed, err)
	}

	plants := make([]models.Plant, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		plants = append(plants, hit.Source.toModel())
	}
	return plants, nil
}

func (d esPlant) toModel() models.Plant {
	p := models.Plant{
		ID:              d.ID,
		Name:            d.Name,
		ScientificName:  d.ScientificName,
		Description:     d.Description,
		ImageURL:        d.ImageURL,
		SpaceTypes:      nonNil(d.SpaceTypes),
		AreaSizes:       nonNil(d.AreaSizes),
		Challenges:      nonNil(d.Challenges),
		TechPreferences: nonNil(d.TechPreferences),
		Locations:       make([]models.PlantLocation, 0, len(d.Locations)),
	}
	for _, l := range d.Locations {
		p.Locations = append(p.Locations, models.PlantLocation{Type: l.Type, Value: l.Value})
	}
	return p
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
