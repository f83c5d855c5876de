// internal/recommend/plants/matcher_test.go
package plants

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"survey-recommender/internal/catalog"
	"survey-recommender/internal/common/logger"
	"survey-recommender/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	qSpace    = "q-space"
	qArea     = "q-area"
	qRegion   = "q-region"
	qUnknown  = "q-unknown"
	qAddress  = "q-address"
	qNoOption = "q-no-option"
)

type fakeResolver struct {
	categories map[string]models.QuestionCategory
	err        error
	asked      []string
}

func (f *fakeResolver) Categories(_ context.Context, ids []string) (map[string]models.QuestionCategory, error) {
	f.asked = ids
	return f.categories, f.err
}

// memoryCatalog filters its plants with the in-memory predicate.
type memoryCatalog struct {
	plants []models.Plant
	last   catalog.PlantFilter
	err    error
	raw    bool
}

func (c *memoryCatalog) FindPlants(_ context.Context, f catalog.PlantFilter) ([]models.Plant, error) {
	c.last = f
	if c.err != nil {
		return nil, c.err
	}
	if c.raw {
		return c.plants, nil
	}
	out := []models.Plant{}
	for _, p := range c.plants {
		if f.Matches(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

func defaultResolver() *fakeResolver {
	return &fakeResolver{categories: map[string]models.QuestionCategory{
		qSpace:  models.CategorySpaceType,
		qArea:   models.CategoryAreaSize,
		qRegion: models.CategoryLocation,
	}}
}

func choice(questionID, option string) models.Answer {
	return models.Answer{QuestionID: questionID, Type: models.AnswerTypeChoice, SelectedOption: option}
}

func address(state, city string) models.Answer {
	return models.Answer{
		QuestionID:      qAddress,
		Type:            models.AnswerTypeAddress,
		SelectedAddress: &models.Address{State: state, City: city},
	}
}

func newTestMatcher(t *testing.T, c catalog.PlantCatalog, r CategoryResolver) *Matcher {
	return NewMatcher(c, r, 20, logger.NewTestLogger(t))
}

// ==========================================
// Filter construction
// ==========================================

func TestBuildFilter(t *testing.T) {
	answers := []models.Answer{
		choice(qSpace, " Indoor "),
		choice(qArea, "Small"),
		choice(qRegion, "SP"),
		choice(qUnknown, "Purple"),
		choice(qNoOption, ""),
		address("São Paulo", "Campinas"),
	}

	f := BuildFilter(answers, defaultResolver().categories)

	assert.Equal(t, []catalog.TagCriterion{
		{Category: models.CategorySpaceType, Value: "Indoor"},
		{Category: models.CategoryAreaSize, Value: "Small"},
	}, f.Tags)
	require.Len(t, f.Locations, 2)
	assert.Equal(t, "", f.Locations[0].Type)
	assert.Equal(t, "SP", f.Locations[0].Value)
	assert.Equal(t, models.LocationTypeState, f.Locations[1].Type)
	assert.Equal(t, "São Paulo", f.Locations[1].Value)
	assert.True(t, f.Locations[1].Variants.Contains("sp"))
}

func TestBuildFilter_IncompleteAddress(t *testing.T) {
	f := BuildFilter([]models.Answer{
		address("", "Campinas"),
		{QuestionID: qAddress, Type: models.AnswerTypeAddress},
	}, nil)

	assert.True(t, f.Empty())
}

// ==========================================
// Recommend
// ==========================================

func TestMatcher_Recommend_ExplainsMatches(t *testing.T) {
	plantCatalog := &memoryCatalog{plants: []models.Plant{
		{ID: "p-1", Name: "Fern", SpaceTypes: []string{"Indoor"}, AreaSizes: []string{"Small"},
			Locations: []models.PlantLocation{{Type: "state", Value: "SP"}}},
		{ID: "p-2", Name: "Palm", SpaceTypes: []string{"Outdoor"}, AreaSizes: []string{"Small"}},
	}}
	resolver := defaultResolver()

	recs, err := newTestMatcher(t, plantCatalog, resolver).Recommend(context.Background(), []models.Answer{
		choice(qSpace, "indoor"),
		address("São Paulo", "São Paulo"),
	})

	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "p-1", recs[0].ID)
	assert.Equal(t, []string{
		"matches preference for space type (indoor)",
		"matches preference for location (São Paulo)",
	}, recs[0].WhyRecommended)
	assert.Equal(t, []string{qSpace}, resolver.asked)
	assert.Equal(t, 20, plantCatalog.last.Limit)
}

func TestMatcher_Recommend_KeepsUnexplainedCandidates(t *testing.T) {
	plantCatalog := &memoryCatalog{raw: true, plants: []models.Plant{{ID: "p-9", Name: "Orchid"}}}

	recs, err := newTestMatcher(t, plantCatalog, defaultResolver()).Recommend(context.Background(), []models.Answer{
		choice(qSpace, "Indoor"),
	})

	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.NotNil(t, recs[0].WhyRecommended)
	assert.Empty(t, recs[0].WhyRecommended)
}

func TestMatcher_Recommend_CapsResults(t *testing.T) {
	plants := make([]models.Plant, 50)
	for i := range plants {
		plants[i] = models.Plant{ID: fmt.Sprintf("p-%02d", i), Name: "Fern", SpaceTypes: []string{"Indoor"}}
	}

	for _, raw := range []bool{false, true} {
		recs, err := newTestMatcher(t, &memoryCatalog{plants: plants, raw: raw}, defaultResolver()).
			Recommend(context.Background(), []models.Answer{choice(qSpace, "Indoor")})

		require.NoError(t, err)
		assert.Len(t, recs, 20)
	}
}

func TestNewMatcher_ClampsLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, NewMatcher(nil, nil, 0, logger.NewNoOpLogger()).limit)
	assert.Equal(t, DefaultLimit, NewMatcher(nil, nil, 100, logger.NewNoOpLogger()).limit)
	assert.Equal(t, 5, NewMatcher(nil, nil, 5, logger.NewNoOpLogger()).limit)
}

func TestMatcher_Recommend_IsIdempotent(t *testing.T) {
	plantCatalog := &memoryCatalog{plants: []models.Plant{
		{ID: "p-1", Name: "Aloe", SpaceTypes: []string{"Indoor"}},
		{ID: "p-2", Name: "Basil", SpaceTypes: []string{"Indoor kitchen"}},
	}}
	m := newTestMatcher(t, plantCatalog, defaultResolver())
	answers := []models.Answer{choice(qSpace, "indoor")}

	first, err := m.Recommend(context.Background(), answers)
	require.NoError(t, err)
	second, err := m.Recommend(context.Background(), answers)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestMatcher_Recommend_Errors(t *testing.T) {
	t.Run("category lookup", func(t *testing.T) {
		resolver := &fakeResolver{err: catalog.ErrCatalogQueryFailed}

		_, err := newTestMatcher(t, &memoryCatalog{}, resolver).Recommend(context.Background(), nil)

		assert.ErrorIs(t, err, catalog.ErrCatalogQueryFailed)
	})

	t.Run("catalog", func(t *testing.T) {
		plantCatalog := &memoryCatalog{err: fmt.Errorf("%w: boom", catalog.ErrCatalogQueryFailed)}

		_, err := newTestMatcher(t, plantCatalog, defaultResolver()).Recommend(context.Background(), nil)

		assert.True(t, errors.Is(err, catalog.ErrCatalogQueryFailed))
	})
}
