// internal/workers/normalization/normalize-answers/handler.go
package normalizeanswers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/goccy/go-json"

	apperrors "survey-recommender/internal/common/errors"
	"survey-recommender/internal/common/logger"
	"survey-recommender/internal/common/metrics"
	"survey-recommender/internal/common/translation"
	"survey-recommender/internal/models"
)

const (
	TaskType = "normalize-answers"

	// jobDeadlineMargin is how long before the job deadline a pass gives up,
	// so it never overlaps a re-activation of the same job.
	jobDeadlineMargin = time.Second
)

const (
	StageParse     = "parse"
	StageDetect    = "detect"
	StageTranslate = "translate"
	StageUpdate    = "update"
)

var (
	ErrNoFreeText      = errors.New("NO_FREE_TEXT")
	ErrLanguageSkipped = errors.New("LANGUAGE_NOT_NORMALIZED")
)

// StageError records which step of the normalization pass failed.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }

func (e *StageError) Unwrap() error { return e.Err }

type answerUpdater interface {
	ApplyNormalization(ctx context.Context, responseID string, answers []models.Answer) error
}

type Handler struct {
	config     *Config
	translator translation.Translator
	store      answerUpdater
	logger     logger.Logger
}

func NewHandler(config *Config, translator translation.Translator, store answerUpdater, log logger.Logger) *Handler {
	return &Handler{
		config:     config,
		translator: translator,
		store:      store,
		logger:     log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Handle serves the workflow job. The job is always completed: normalization
// is best effort and never retried.
func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	var output *Output
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.logFailure(input.ResponseID, &StageError{Stage: StageParse, Err: err})
		output = &Output{Outcome: OutcomeFailed, Stage: StageParse}
	} else {
		ctx, cancel := jobContext(context.Background(), job)
		output = h.Run(ctx, input)
		cancel()
	}

	if output.Outcome == OutcomeFailed {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, output.Stage).Inc()
	}
	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
}

// jobContext bounds a pass by the job's activation deadline.
func jobContext(parent context.Context, job entities.Job) (context.Context, context.CancelFunc) {
	if job.ActivatedJob == nil || job.GetDeadline() <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithDeadline(parent, time.UnixMilli(job.GetDeadline()).Add(-jobDeadlineMargin))
}

// Run performs one normalization pass and swallows every failure after
// logging it. It is the entry point of the in-process queue.
func (h *Handler) Run(ctx context.Context, input Input) *Output {
	output, err := h.execute(ctx, &input)
	switch {
	case err == nil:
		metrics.NormalizationOutcomes.WithLabelValues(OutcomeNormalized, "").Inc()
		h.logger.Info("answers normalized", map[string]interface{}{
			"responseId": input.ResponseID,
			"language":   output.DetectedLanguage,
			"updated":    output.UpdatedAnswers,
		})
	case errors.Is(err, ErrNoFreeText), errors.Is(err, ErrLanguageSkipped):
		metrics.NormalizationOutcomes.WithLabelValues(OutcomeSkipped, "").Inc()
		h.logger.Debug("normalization skipped", map[string]interface{}{
			"responseId": input.ResponseID,
			"reason":     err.Error(),
		})
	default:
		stage := ""
		var stageErr *StageError
		if errors.As(err, &stageErr) {
			stage = stageErr.Stage
		}
		metrics.NormalizationOutcomes.WithLabelValues(OutcomeFailed, stage).Inc()
		h.logFailure(input.ResponseID, err)
	}
	return output
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, fmt.Errorf("input cannot be nil")
	}
	output := &Output{ResponseID: input.ResponseID, Outcome: OutcomeSkipped}

	sample := firstFreeText(input.Answers)
	if sample == "" {
		return output, ErrNoFreeText
	}

	lang, err := h.translator.Detect(ctx, sample)
	if err != nil {
		output.Outcome, output.Stage = OutcomeFailed, StageDetect
		return output, &StageError{Stage: StageDetect, Err: err}
	}
	output.DetectedLanguage = lang

	if !strings.EqualFold(lang, h.config.SourceLanguage) {
		return output, fmt.Errorf("%w: detected %q", ErrLanguageSkipped, lang)
	}

	normalized, err := h.normalize(ctx, input.Answers)
	if err != nil {
		output.Outcome, output.Stage = OutcomeFailed, StageTranslate
		return output, &StageError{Stage: StageTranslate, Err: err}
	}

	if err := h.store.ApplyNormalization(ctx, input.ResponseID, normalized); err != nil {
		output.Outcome, output.Stage = OutcomeFailed, StageUpdate
		return output, &StageError{Stage: StageUpdate, Err: err}
	}

	output.Outcome = OutcomeNormalized
	output.UpdatedAnswers = len(normalized)
	return output, nil
}

// normalize translates every choice selection in one call and tidies address
// components. Identity fields are left untouched.
func (h *Handler) normalize(ctx context.Context, answers []models.Answer) ([]models.Answer, error) {
	out := make([]models.Answer, len(answers))
	var (
		texts   []string
		indexes []int
	)
	for i, a := range answers {
		out[i] = a
		switch a.Type {
		case models.AnswerTypeChoice:
			if strings.TrimSpace(a.SelectedOption) != "" {
				texts = append(texts, a.SelectedOption)
				indexes = append(indexes, i)
			}
		case models.AnswerTypeAddress:
			out[i].SelectedAddress = tidyAddress(a.SelectedAddress)
		}
	}

	if len(texts) > 0 {
		translated, err := h.translator.Translate(ctx, texts, h.config.SourceLanguage, h.config.TargetLanguage)
		if err != nil {
			return nil, err
		}
		for j, idx := range indexes {
			if t := collapseSpaces(translated[j]); t != "" {
				out[idx].SelectedOption = t
			}
		}
	}
	return out, nil
}

func firstFreeText(answers []models.Answer) string {
	for _, a := range answers {
		if text := a.FreeText(); text != "" {
			return text
		}
	}
	return ""
}

func tidyAddress(a *models.Address) *models.Address {
	if a == nil {
		return nil
	}
	return &models.Address{
		State:   collapseSpaces(a.State),
		City:    collapseSpaces(a.City),
		Street:  collapseSpaces(a.Street),
		Country: collapseSpaces(a.Country),
		ZipCode: collapseSpaces(a.ZipCode),
	}
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func (h *Handler) logFailure(responseID string, err error) {
	stage := ""
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		stage = stageErr.Stage
	}
	stdErr := failureError(stage, err)
	h.logger.Error("answer normalization failed", map[string]interface{}{
		"responseId":    responseID,
		"stage":         stage,
		"errorCode":     string(stdErr.Code),
		"errorCategory": apperrors.GetErrorCategory(stdErr.Code),
		"error":         stdErr.Details,
	})
}

// failureError classifies a failed pass by the stage that failed.
func failureError(stage string, err error) *apperrors.StandardError {
	switch stage {
	case StageDetect:
		return apperrors.NewLanguageDetectionFailedError(err)
	case StageTranslate:
		return apperrors.NewTranslationFailedError(err)
	case StageUpdate:
		return apperrors.NewQueryExecutionFailedError("apply_normalization", err)
	default:
		return apperrors.NewInternalError(err)
	}
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
