// internal/api/handlers.go
package api

import (
	"errors"
	"io"
	"net/http"

	"survey-recommender/internal/answers"
	"survey-recommender/internal/catalog"
	apperrors "survey-recommender/internal/common/errors"
	"survey-recommender/internal/common/validation"
	"survey-recommender/internal/models"
	"survey-recommender/internal/rules"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
)

const maxBodyBytes = 1 << 20

type submitAnswersRequest struct {
	Answers []models.AnswerInput `json:"answers"`
}

type submitAnswersResponse struct {
	ResponseID string `json:"responseId"`
}

type plantRecommendationsResponse struct {
	PlantRecommendations []models.PlantRecommendation `json:"plantRecommendations"`
}

type partnerRecommendationsResponse struct {
	PartnerRecommendations []models.PartnerRecommendation `json:"partnerRecommendations"`
}

func (h *Handler) submitAnswersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			h.errors.Write(w, r, apperrors.NewValidationFailedError("request body could not be read", nil))
			return
		}

		if result := validation.ValidateSubmissionBody(body); !result.Valid {
			h.errors.Write(w, r, apperrors.NewValidationFailedError("request body does not match the submission schema", result.Errors))
			return
		}

		var req submitAnswersRequest
		if err := json.Unmarshal(body, &req); err != nil {
			h.errors.Write(w, r, apperrors.NewValidationFailedError(err.Error(), nil))
			return
		}

		responseID, err := h.submitter.Submit(r.Context(), req.Answers)
		if err != nil {
			h.errors.Write(w, r, submitError(err))
			return
		}

		writeJSON(w, http.StatusCreated, submitAnswersResponse{ResponseID: responseID})
	}
}

func (h *Handler) plantRecommendationsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stored, ok := h.loadAnswers(w, r)
		if !ok {
			return
		}

		recs, err := h.plants.Recommend(r.Context(), stored)
		if err != nil {
			h.errors.Write(w, r, recommendError("plants", err))
			return
		}
		if recs == nil {
			recs = []models.PlantRecommendation{}
		}
		writeJSON(w, http.StatusOK, plantRecommendationsResponse{PlantRecommendations: recs})
	}
}

func (h *Handler) partnerRecommendationsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stored, ok := h.loadAnswers(w, r)
		if !ok {
			return
		}

		recs, err := h.partners.Recommend(r.Context(), stored)
		if err != nil {
			h.errors.Write(w, r, recommendError("partners", err))
			return
		}
		if recs == nil {
			recs = []models.PartnerRecommendation{}
		}
		writeJSON(w, http.StatusOK, partnerRecommendationsResponse{PartnerRecommendations: recs})
	}
}

// loadAnswers writes the error response itself and reports false when the
// response's answers cannot be served.
func (h *Handler) loadAnswers(w http.ResponseWriter, r *http.Request) ([]models.Answer, bool) {
	responseID := chi.URLParam(r, "responseId")

	stored, err := h.answers.LoadByResponse(r.Context(), responseID)
	switch {
	case errors.Is(err, answers.ErrResponseNotFound):
		h.errors.Write(w, r, apperrors.NewResponseNotFoundError(responseID))
		return nil, false
	case err != nil:
		h.errors.Write(w, r, apperrors.NewQueryExecutionFailedError("load_answers", err))
		return nil, false
	}
	return stored, true
}

func submitError(err error) error {
	var invalid *answers.InvalidAnswersError
	switch {
	case errors.As(err, &invalid):
		return apperrors.NewValidationFailedError("answers failed validation", invalid.Result.Errors)
	case errors.Is(err, answers.ErrInsertFailed):
		return apperrors.NewDatabaseInsertFailedError(err)
	}
	return apperrors.NewInternalError(err)
}

func recommendError(kind string, err error) error {
	switch {
	case errors.Is(err, rules.ErrRuleLoadFailed):
		return apperrors.NewRuleLoadFailedError(err)
	case errors.Is(err, catalog.ErrCatalogQueryFailed):
		return apperrors.NewCatalogQueryFailedError(kind, err)
	}
	return apperrors.NewInternalError(err)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
