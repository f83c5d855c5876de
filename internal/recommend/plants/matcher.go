// internal/recommend/plants/matcher.go

// Package plants recommends catalog plants for a response's answers.
//
// Every answer whose question carries a category contributes one criterion;
// address answers always contribute a state criterion. A plant is recommended
// only when it satisfies all of them.
package plants

import (
	"context"
	"strings"
	"time"

	"survey-recommender/internal/catalog"
	"survey-recommender/internal/common/logger"
	"survey-recommender/internal/common/metrics"
	"survey-recommender/internal/models"
)

const (
	DefaultLimit = 20
	metricKind   = "plants"
)

// CategoryResolver resolves the category tagged on each question.
type CategoryResolver interface {
	Categories(ctx context.Context, questionIDs []string) (map[string]models.QuestionCategory, error)
}

type Matcher struct {
	catalog   catalog.PlantCatalog
	questions CategoryResolver
	limit     int
	logger    logger.Logger
}

func NewMatcher(plants catalog.PlantCatalog, questions CategoryResolver, limit int, log logger.Logger) *Matcher {
	if limit <= 0 || limit > DefaultLimit {
		limit = DefaultLimit
	}
	return &Matcher{
		catalog:   plants,
		questions: questions,
		limit:     limit,
		logger:    logger.Component(log, "plant-matcher"),
	}
}

// Recommend returns at most the configured number of plants satisfying every
// criterion derived from answers, each with the reasons it matched.
func (m *Matcher) Recommend(ctx context.Context, answers []models.Answer) ([]models.PlantRecommendation, error) {
	start := time.Now()
	defer func() {
		metrics.RecommendationDuration.WithLabelValues(metricKind).Observe(time.Since(start).Seconds())
	}()

	categories, err := m.questions.Categories(ctx, questionIDs(answers))
	if err != nil {
		return nil, err
	}

	filter := BuildFilter(answers, categories)
	filter.Limit = m.limit

	plants, err := m.catalog.FindPlants(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(plants) > m.limit {
		plants = plants[:m.limit]
	}

	recs := make([]models.PlantRecommendation, 0, len(plants))
	for _, p := range plants {
		recs = append(recs, models.PlantRecommendation{Plant: p, WhyRecommended: filter.Explain(p)})
	}

	metrics.RecommendationResults.WithLabelValues(metricKind).Observe(float64(len(recs)))
	m.logger.Debug("plants matched", map[string]interface{}{
		"criteria": len(filter.Tags) + len(filter.Locations),
		"results":  len(recs),
	})
	return recs, nil
}

// BuildFilter derives one criterion per usable answer. Choice answers without
// a category or a selection are ignored.
func BuildFilter(answers []models.Answer, categories map[string]models.QuestionCategory) catalog.PlantFilter {
	var f catalog.PlantFilter
	for _, a := range answers {
		switch a.Type {
		case models.AnswerTypeAddress:
			if a.SelectedAddress == nil {
				continue
			}
			if state := strings.TrimSpace(a.SelectedAddress.State); state != "" {
				f.Locations = append(f.Locations, catalog.NewLocationCriterion(models.LocationTypeState, state))
			}
		case models.AnswerTypeChoice:
			value := strings.TrimSpace(a.SelectedOption)
			category, ok := categories[a.QuestionID]
			if value == "" || !ok {
				continue
			}
			if category == models.CategoryLocation {
				f.Locations = append(f.Locations, catalog.NewLocationCriterion("", value))
				continue
			}
			f.Tags = append(f.Tags, catalog.TagCriterion{Category: category, Value: value})
		}
	}
	return f
}

func questionIDs(answers []models.Answer) []string {
	ids := make([]string, 0, len(answers))
	for _, a := range answers {
		if a.Type == models.AnswerTypeChoice {
			ids = append(ids, a.QuestionID)
		}
	}
	return ids
}
