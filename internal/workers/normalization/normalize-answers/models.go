// internal/workers/normalization/normalize-answers/models.go
package normalizeanswers

import "survey-recommender/internal/models"

type Input = models.NormalizationTask

const (
	OutcomeNormalized = "normalized"
	OutcomeSkipped    = "skipped"
	OutcomeFailed     = "failed"
)

type Output struct {
	ResponseID       string `json:"responseId"`
	Outcome          string `json:"outcome"`
	Stage            string `json:"stage,omitempty"`
	DetectedLanguage string `json:"detectedLanguage,omitempty"`
	UpdatedAnswers   int    `json:"updatedAnswers"`
}
