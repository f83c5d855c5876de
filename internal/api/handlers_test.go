// internal/api/handlers_test.go
package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"survey-recommender/internal/answers"
	"survey-recommender/internal/catalog"
	"survey-recommender/internal/common/logger"
	"survey-recommender/internal/common/validation"
	"survey-recommender/internal/models"
	"survey-recommender/internal/rules"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	responseID = "0b8e4a5c-2d1f-4f7e-9a3b-6c5d4e3f2a10"
	q1         = "6f1c2f1e-6f4a-4a39-9c1b-0b6f3e2a9a01"
	q2         = "6f1c2f1e-6f4a-4a39-9c1b-0b6f3e2a9a02"
)

type fakeSubmitter struct {
	id     string
	err    error
	inputs []models.AnswerInput
	calls  int
}

func (f *fakeSubmitter) Submit(_ context.Context, inputs []models.AnswerInput) (string, error) {
	f.calls++
	f.inputs = inputs
	return f.id, f.err
}

type fakeLoader struct {
	answers map[string][]models.Answer
	err     error
}

func (f *fakeLoader) LoadByResponse(_ context.Context, id string) ([]models.Answer, error) {
	if f.err != nil {
		return nil, f.err
	}
	stored, ok := f.answers[id]
	if !ok {
		return nil, answers.ErrResponseNotFound
	}
	return stored, nil
}

type plantsFunc func(ctx context.Context, answers []models.Answer) ([]models.PlantRecommendation, error)

func (f plantsFunc) Recommend(ctx context.Context, a []models.Answer) ([]models.PlantRecommendation, error) {
	return f(ctx, a)
}

type partnersFunc func(ctx context.Context, answers []models.Answer) ([]models.PartnerRecommendation, error)

func (f partnersFunc) Recommend(ctx context.Context, a []models.Answer) ([]models.PartnerRecommendation, error) {
	return f(ctx, a)
}

type errorBody struct {
	Error struct {
		Code     string                 `json:"code"`
		Details  string                 `json:"details"`
		Metadata map[string]interface{} `json:"metadata"`
	} `json:"error"`
}

func storedAnswers() map[string][]models.Answer {
	return map[string][]models.Answer{
		responseID: {{ID: "a-1", ResponseID: responseID, QuestionID: q1, Type: models.AnswerTypeChoice, SelectedOption: "Indoor"}},
	}
}

func newTestRouter(t *testing.T, cfg Config) http.Handler {
	cfg.Logger = logger.NewTestLogger(t)
	if cfg.Submitter == nil {
		cfg.Submitter = &fakeSubmitter{id: responseID}
	}
	if cfg.Answers == nil {
		cfg.Answers = &fakeLoader{answers: storedAnswers()}
	}
	if cfg.Plants == nil {
		cfg.Plants = plantsFunc(func(context.Context, []models.Answer) ([]models.PlantRecommendation, error) { return nil, nil })
	}
	if cfg.Partners == nil {
		cfg.Partners = partnersFunc(func(context.Context, []models.Answer) ([]models.PartnerRecommendation, error) { return nil, nil })
	}
	cfg.MetricsHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("# metrics\n"))
	})
	return NewRouter(cfg)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// ==========================================
// POST /answers
// ==========================================

func TestSubmitAnswers_Created(t *testing.T) {
	submitter := &fakeSubmitter{id: responseID}
	router := newTestRouter(t, Config{Submitter: submitter})

	rec := do(t, router, http.MethodPost, "/answers", fmt.Sprintf(`{"answers": [
		{"questionId": %q, "type": 1, "selectedOption": "Indoor"},
		{"questionId": %q, "type": 2, "selectedAddress": {"state": "São Paulo", "city": "Campinas", "zipCode": "13010-000"}}
	]}`, q1, q2))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.JSONEq(t, fmt.Sprintf(`{"responseId": %q}`, responseID), rec.Body.String())
	require.Len(t, submitter.inputs, 2)
	assert.Equal(t, "Indoor", *submitter.inputs[0].SelectedOption)
	assert.Equal(t, "13010-000", submitter.inputs[1].SelectedAddress.ZipCode)
}

func TestSubmitAnswers_RejectsMalformedBodies(t *testing.T) {
	cases := map[string]struct {
		body  string
		field string
	}{
		"not json":              {body: `{"answers": [`, field: "(root)"},
		"no answers":            {body: `{}`, field: "answers"},
		"unknown kind":          {body: fmt.Sprintf(`{"answers": [{"questionId": %q, "type": 3}]}`, q1), field: "answers[0].type"},
		"choice without option": {body: fmt.Sprintf(`{"answers": [{"questionId": %q, "type": 1}]}`, q1), field: "answers[0].selectedOption"},
		"address without city": {
			body:  fmt.Sprintf(`{"answers": [{"questionId": %q, "type": 2, "selectedAddress": {"state": "SP"}}]}`, q1),
			field: "answers[0].selectedAddress.city",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			submitter := &fakeSubmitter{id: responseID}
			router := newTestRouter(t, Config{Submitter: submitter})

			rec := do(t, router, http.MethodPost, "/answers", tc.body)

			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			body := decodeError(t, rec)
			assert.Equal(t, "VALIDATION_FAILED", body.Error.Code)
			assert.Contains(t, rec.Body.String(), tc.field)
			assert.Zero(t, submitter.calls)
		})
	}
}

func TestSubmitAnswers_ServiceValidation(t *testing.T) {
	result := &validation.ValidationResult{Errors: []validation.ValidationError{
		{Field: "answers[1].questionId", Message: "duplicate question", Code: "DUPLICATE_QUESTION"},
	}}
	submitter := &fakeSubmitter{err: &answers.InvalidAnswersError{Result: result}}
	router := newTestRouter(t, Config{Submitter: submitter})

	rec := do(t, router, http.MethodPost, "/answers", fmt.Sprintf(`{"answers": [
		{"questionId": %q, "type": 1, "selectedOption": "Indoor"},
		{"questionId": %q, "type": 1, "selectedOption": "Balcony"}
	]}`, q1, q1))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "DUPLICATE_QUESTION")
}

func TestSubmitAnswers_StoreFailureIs5xx(t *testing.T) {
	submitter := &fakeSubmitter{err: fmt.Errorf("%w: connection reset", answers.ErrInsertFailed)}
	router := newTestRouter(t, Config{Submitter: submitter})

	rec := do(t, router, http.MethodPost, "/answers", fmt.Sprintf(`{"answers": [{"questionId": %q, "type": 1, "selectedOption": "Indoor"}]}`, q1))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "DATABASE_INSERT_FAILED", decodeError(t, rec).Error.Code)
}

func TestSubmitAnswers_BodyTooLarge(t *testing.T) {
	router := newTestRouter(t, Config{})
	huge := `{"answers": [{"questionId": "` + strings.Repeat("a", maxBodyBytes) + `"}]}`

	rec := do(t, router, http.MethodPost, "/answers", huge)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ==========================================
// GET /answers/{responseId}/...
// ==========================================

func TestPlantRecommendations(t *testing.T) {
	var received []models.Answer
	router := newTestRouter(t, Config{
		Plants: plantsFunc(func(_ context.Context, a []models.Answer) ([]models.PlantRecommendation, error) {
			received = a
			return []models.PlantRecommendation{{
				Plant:          models.Plant{ID: "p-1", Name: "Boston Fern"},
				WhyRecommended: []string{"matches preference for space type (Indoor)"},
			}}, nil
		}),
	})

	rec := do(t, router, http.MethodGet, "/answers/"+responseID+"/plants", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body plantRecommendationsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.PlantRecommendations, 1)
	assert.Equal(t, "Boston Fern", body.PlantRecommendations[0].Name)
	assert.Equal(t, storedAnswers()[responseID], received)
}

func TestRecommendations_EmptyListsAreArrays(t *testing.T) {
	router := newTestRouter(t, Config{})

	rec := do(t, router, http.MethodGet, "/answers/"+responseID+"/plants", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"plantRecommendations": []}`, rec.Body.String())

	rec = do(t, router, http.MethodGet, "/answers/"+responseID+"/partners", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"partnerRecommendations": []}`, rec.Body.String())
}

func TestRecommendations_UnknownResponse(t *testing.T) {
	router := newTestRouter(t, Config{})

	for _, kind := range []string{"plants", "partners"} {
		rec := do(t, router, http.MethodGet, "/answers/d3b07384-d113-4ec6-a5b8-7c0f2f2e6b11/"+kind, "")

		assert.Equal(t, http.StatusNotFound, rec.Code, kind)
		assert.Equal(t, "RESPONSE_NOT_FOUND", decodeError(t, rec).Error.Code)
	}
}

func TestRecommendations_Failures(t *testing.T) {
	cases := map[string]struct {
		cfg  Config
		path string
		code string
	}{
		"answer load": {
			cfg:  Config{Answers: &fakeLoader{err: fmt.Errorf("%w: timeout", answers.ErrQueryFailed)}},
			path: "/plants",
			code: "QUERY_EXECUTION_FAILED",
		},
		"plant catalog": {
			cfg: Config{Plants: plantsFunc(func(context.Context, []models.Answer) ([]models.PlantRecommendation, error) {
				return nil, fmt.Errorf("%w: index missing", catalog.ErrCatalogQueryFailed)
			})},
			path: "/plants",
			code: "CATALOG_QUERY_FAILED",
		},
		"partner rules": {
			cfg: Config{Partners: partnersFunc(func(context.Context, []models.Answer) ([]models.PartnerRecommendation, error) {
				return nil, fmt.Errorf("load rules: %w", rules.ErrRuleLoadFailed)
			})},
			path: "/partners",
			code: "RULE_LOAD_FAILED",
		},
		"unexpected": {
			cfg: Config{Partners: partnersFunc(func(context.Context, []models.Answer) ([]models.PartnerRecommendation, error) {
				return nil, errors.New("boom")
			})},
			path: "/partners",
			code: "INTERNAL_ERROR",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec := do(t, newTestRouter(t, tc.cfg), http.MethodGet, "/answers/"+responseID+tc.path, "")

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, tc.code, decodeError(t, rec).Error.Code)
		})
	}
}

// ==========================================
// Operational endpoints
// ==========================================

func TestHealthAndMetrics(t *testing.T) {
	router := newTestRouter(t, Config{})

	rec := do(t, router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "ok"}`, rec.Body.String())

	rec = do(t, router, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("# metrics")))
}

func TestReady(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("dial tcp: connection refused") }

	rec := do(t, newTestRouter(t, Config{ReadyChecks: map[string]Check{"postgres": ok, "redis": ok}}), http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "ready", "checks": {"postgres": "ok", "redis": "ok"}}`, rec.Body.String())

	rec = do(t, newTestRouter(t, Config{ReadyChecks: map[string]Check{"postgres": ok, "redis": down}}), http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestSubmitAnswers_RateLimitedPerClient(t *testing.T) {
	router := newTestRouter(t, Config{SubmitLimit: RateLimit{Requests: 1, Window: time.Minute}})
	body := fmt.Sprintf(`{"answers": [{"questionId": %q, "type": 1, "selectedOption": "Indoor"}]}`, q1)

	rec := do(t, router, http.MethodPost, "/answers", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, router, http.MethodPost, "/answers", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = do(t, router, http.MethodGet, "/answers/"+responseID+"/plants", "")
	assert.Equal(t, http.StatusOK, rec.Code, "reads are not limited")
}

func TestCORS_AllowedOrigins(t *testing.T) {
	router := newTestRouter(t, Config{AllowedOrigins: []string{"https://survey.example.com"}})

	for origin, want := range map[string]string{
		"https://survey.example.com": "https://survey.example.com",
		"https://evil.example.com":   "",
	} {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", origin)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, want, rec.Header().Get("Access-Control-Allow-Origin"), origin)
	}
}
