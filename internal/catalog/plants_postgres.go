// internal/catalog/plants_postgres.go
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"survey-recommender/internal/models"

	"github.com/lib/pq"
)

// PlantCatalog finds live plants satisfying a filter, ordered by name then id.
type PlantCatalog interface {
	FindPlants(ctx context.Context, filter PlantFilter) ([]models.Plant, error)
}

// tagColumns whitelists the array column behind each tag category.
var tagColumns = map[models.QuestionCategory]string{
	models.CategorySpaceType:      "p.space_types",
	models.CategoryAreaSize:       "p.area_sizes",
	models.CategoryChallenge:      "p.challenges",
	models.CategoryTechPreference: "p.tech_preferences",
}

type PostgresPlantCatalog struct {
	db *sql.DB
}

func NewPostgresPlantCatalog(db *sql.DB) *PostgresPlantCatalog {
	return &PostgresPlantCatalog{db: db}
}

// BuildPlantQuery renders filter as a parameterized SELECT over plants.
func BuildPlantQuery(filter PlantFilter) (string, []interface{}, error) {
	var (
		where = []string{"p.deleted = false"}
		args  []interface{}
	)
	next := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	for _, c := range filter.Tags {
		column, ok := tagColumns[c.Category]
		if !ok {
			return "", nil, fmt.Errorf("no tag column for category %q", c.Category)
		}
		where = append(where, fmt.Sprintf(
			`EXISTS (SELECT 1 FROM unnest(%s) t WHERE t ILIKE %s ESCAPE '\')`,
			column, next(likePattern(c.Value))))
	}

	for _, c := range filter.Locations {
		clause := "l.plant_id = p.id"
		if c.Type != "" {
			clause += " AND l.location_type = " + next(c.Type)
		}
		clause += " AND l.normalized_value = ANY(" + next(pq.Array(c.Variants.Slice())) + ")"
		where = append(where, "EXISTS (SELECT 1 FROM plant_locations l WHERE "+clause+")")
	}

	query := `SELECT p.id, p.name, p.scientific_name, p.description, p.image_url,
		p.space_types, p.area_sizes, p.challenges, p.tech_preferences
		FROM plants p
		WHERE ` + strings.Join(where, "\n\t\tAND ") + `
		ORDER BY p.name, p.id`
	if filter.Limit > 0 {
		query += " LIMIT " + next(filter.Limit)
	}
	return query, args, nil
}

func (c *PostgresPlantCatalog) FindPlants(ctx context.Context, filter PlantFilter) ([]models.Plant, error) {
	query, args, err := BuildPlantQuery(filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogQueryFailed, err)
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogQueryFailed, err)
	}
	defer rows.Close()

	plants := []models.Plant{}
	index := make(map[string]int)
	for rows.Next() {
		var p models.Plant
		if err := rows.Scan(&p.ID, &p.Name, &p.ScientificName, &p.Description, &p.ImageURL,
			pq.Array(&p.SpaceTypes), pq.Array(&p.AreaSizes),
			pq.Array(&p.Challenges), pq.Array(&p.TechPreferences)); err != nil {
			return nil, fmt.Errorf("%w: scan plant: %v", ErrCatalogQueryFailed, err)
		}
		p.SpaceTypes = nonNil(p.SpaceTypes)
		p.AreaSizes = nonNil(p.AreaSizes)
		p.Challenges = nonNil(p.Challenges)
		p.TechPreferences = nonNil(p.TechPreferences)
		p.Locations = []models.PlantLocation{}
		index[p.ID] = len(plants)
		plants = append(plants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogQueryFailed, err)
	}
	if len(plants) == 0 {
		return plants, nil
	}

	if err := c.attachLocations(ctx, plants, index); err != nil {
		return nil, err
	}
	return plants, nil
}

func (c *PostgresPlantCatalog) attachLocations(ctx context.Context, plants []models.Plant, index map[string]int) error {
	ids := make([]string, len(plants))
	for i, p := range plants {
		ids[i] = p.ID
	}

	rows, err := c.db.QueryContext(ctx, `
		SELECT plant_id, location_type, location_value
		FROM plant_locations
		WHERE plant_id = ANY($1::uuid[])
		ORDER BY plant_id, location_type, location_value`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("%w: load plant locations: %v", ErrCatalogQueryFailed, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			plantID string
			loc     models.PlantLocation
		)
		if err := rows.Scan(&plantID, &loc.Type, &loc.Value); err != nil {
			return fmt.Errorf("%w: scan plant location: %v", ErrCatalogQueryFailed, err)
		}
		if i, ok := index[plantID]; ok {
			plants[i].Locations = append(plants[i].Locations, loc)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCatalogQueryFailed, err)
	}
	return nil
}
