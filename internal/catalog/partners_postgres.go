// internal/catalog/partners_postgres.go
package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"survey-recommender/internal/models"

	"github.com/lib/pq"
)

// PartnerCatalog finds active partners in a location, best rated first.
type PartnerCatalog interface {
	FindPartners(ctx context.Context, filter PartnerFilter) ([]models.PartnerProfile, error)
}

type PostgresPartnerCatalog struct {
	db *sql.DB
}

func NewPostgresPartnerCatalog(db *sql.DB) *PostgresPartnerCatalog {
	return &PostgresPartnerCatalog{db: db}
}

func (c *PostgresPartnerCatalog) FindPartners(ctx context.Context, filter PartnerFilter) ([]models.PartnerProfile, error) {
	if len(filter.States) == 0 || len(filter.Cities) == 0 {
		return []models.PartnerProfile{}, nil
	}

	query := `
		SELECT id, name, description, email, phone, website, logo_url,
		       status, state, city, rating
		FROM partner_profiles
		WHERE deleted = false
		  AND status = $1
		  AND state_normalized = ANY($2)
		  AND city_normalized = ANY($3)
		ORDER BY rating DESC NULLS LAST, id`
	args := []interface{}{
		models.PartnerStatusActive,
		pq.Array(filter.States.Slice()),
		pq.Array(filter.Cities.Slice()),
	}
	if filter.Limit > 0 {
		query += " LIMIT $4"
		args = append(args, filter.Limit)
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogQueryFailed, err)
	}
	defer rows.Close()

	partners := []models.PartnerProfile{}
	for rows.Next() {
		var (
			p      models.PartnerProfile
			rating sql.NullFloat64
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Email, &p.Phone, &p.Website,
			&p.LogoURL, &p.Status, &p.State, &p.City, &rating); err != nil {
			return nil, fmt.Errorf("%w: scan partner: %v", ErrCatalogQueryFailed, err)
		}
		if rating.Valid {
			r := rating.Float64
			p.Rating = &r
		}
		partners = append(partners, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogQueryFailed, err)
	}
	return partners, nil
}
