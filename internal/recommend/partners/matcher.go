// internal/recommend/partners/matcher.go

// Package partners recommends active partners near a respondent whose answers
// satisfy the partner eligibility rules.
package partners

import (
	"context"
	"fmt"
	"strings"
	"time"

	"survey-recommender/internal/catalog"
	"survey-recommender/internal/common/logger"
	"survey-recommender/internal/common/metrics"
	"survey-recommender/internal/location"
	"survey-recommender/internal/models"
	"survey-recommender/internal/rules"
)

const (
	DefaultLimit    = 20
	DefaultRuleName = "partner_recommendation"
	metricKind      = "partners"
)

type Matcher struct {
	rules    rules.Source
	engine   *rules.Engine
	catalog  catalog.PartnerCatalog
	ruleName string
	limit    int
	logger   logger.Logger
}

func NewMatcher(source rules.Source, partners catalog.PartnerCatalog, ruleName string, limit int, log logger.Logger) *Matcher {
	if ruleName == "" {
		ruleName = DefaultRuleName
	}
	if limit <= 0 || limit > DefaultLimit {
		limit = DefaultLimit
	}
	return &Matcher{
		rules:    source,
		engine:   rules.NewEngine(),
		catalog:  partners,
		ruleName: ruleName,
		limit:    limit,
		logger:   logger.Component(log, "partner-matcher"),
	}
}

// Recommend returns an empty list, not an error, when the answers carry no
// complete address or match no eligibility rule.
func (m *Matcher) Recommend(ctx context.Context, answers []models.Answer) ([]models.PartnerRecommendation, error) {
	start := time.Now()
	defer func() {
		metrics.RecommendationDuration.WithLabelValues(metricKind).Observe(time.Since(start).Seconds())
	}()

	recs := []models.PartnerRecommendation{}

	addressAnswer, ok := models.AddressAnswer(answers)
	if !ok || !addressAnswer.SelectedAddress.Complete() {
		m.observe(recs, "no_address")
		return recs, nil
	}
	addr := addressAnswer.SelectedAddress

	ruleSet, err := m.rules.LoadByName(ctx, m.ruleName)
	if err != nil {
		return nil, fmt.Errorf("load rules %q: %w", m.ruleName, err)
	}
	result := m.engine.Evaluate(ruleSet, answers)
	if !result.Any() {
		m.observe(recs, "no_rule_match")
		return recs, nil
	}

	found, err := m.catalog.FindPartners(ctx, catalog.PartnerFilter{
		States: location.Variations(strings.TrimSpace(addr.State)),
		Cities: location.Variations(strings.TrimSpace(addr.City)),
		Limit:  m.limit,
	})
	if err != nil {
		return nil, err
	}
	if len(found) > m.limit {
		found = found[:m.limit]
	}

	selections := result.SelectedValues()
	for _, p := range found {
		recs = append(recs, models.PartnerRecommendation{
			PartnerProfile: p,
			WhyRecommended: Explain(p, addr, selections),
		})
	}

	m.observe(recs, "matched")
	return recs, nil
}

func (m *Matcher) observe(recs []models.PartnerRecommendation, gate string) {
	metrics.RecommendationResults.WithLabelValues(metricKind).Observe(float64(len(recs)))
	m.logger.Debug("partners matched", map[string]interface{}{
		"gate":    gate,
		"results": len(recs),
	})
}

// Explain summarizes the location match and the selections that satisfied
// the eligibility rules.
func Explain(p models.PartnerProfile, addr *models.Address, selections []string) string {
	msg := fmt.Sprintf("Located in %s, %s, matching your address in %s, %s",
		p.City, p.State, strings.TrimSpace(addr.City), strings.TrimSpace(addr.State))
	if len(selections) > 0 {
		msg += fmt.Sprintf("; recommended for: %s", strings.Join(selections, ", "))
	}
	return msg
}
