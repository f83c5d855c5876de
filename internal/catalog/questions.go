// internal/catalog/questions.go
package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"survey-recommender/internal/models"

	"github.com/lib/pq"
)

// QuestionStore resolves the matcher category tagged on each survey question.
type QuestionStore struct {
	db *sql.DB
}

func NewQuestionStore(db *sql.DB) *QuestionStore {
	return &QuestionStore{db: db}
}

// Categories returns the category of every question in ids that has one.
// Unknown ids and untagged questions are absent from the map.
func (s *QuestionStore) Categories(ctx context.Context, ids []string) (map[string]models.QuestionCategory, error) {
	out := make(map[string]models.QuestionCategory, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, category
		FROM survey_questions
		WHERE id = ANY($1::uuid[]) AND category IS NOT NULL`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("%w: load question categories: %v", ErrCatalogQueryFailed, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, category string
		if err := rows.Scan(&id, &category); err != nil {
			return nil, fmt.Errorf("%w: scan question: %v", ErrCatalogQueryFailed, err)
		}
		if c := models.QuestionCategory(category); c.Valid() {
			out[id] = c
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogQueryFailed, err)
	}
	return out, nil
}
