// internal/answers/service.go
package answers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"survey-recommender/internal/common/logger"
	"survey-recommender/internal/common/metrics"
	"survey-recommender/internal/common/validation"
	"survey-recommender/internal/models"
)

var ErrValidationFailed = errors.New("VALIDATION_FAILED")

// InvalidAnswersError carries the field-level problems of a rejected submission.
type InvalidAnswersError struct {
	Result *validation.ValidationResult
}

func (e *InvalidAnswersError) Error() string {
	return fmt.Sprintf("%s: %d invalid field(s)", ErrValidationFailed, len(e.Result.Errors))
}

func (e *InvalidAnswersError) Unwrap() error { return ErrValidationFailed }

// Dispatcher schedules background normalization. Implementations must not
// block on the normalization itself and give the caller no handle on it.
type Dispatcher interface {
	Dispatch(ctx context.Context, task models.NormalizationTask) error
}

type creator interface {
	Create(ctx context.Context, inputs []models.AnswerInput) (string, []models.Answer, error)
}

const dispatchTimeout = 5 * time.Second

type Service struct {
	store      creator
	dispatcher Dispatcher
	logger     logger.Logger
}

func NewService(store creator, dispatcher Dispatcher, log logger.Logger) *Service {
	return &Service{
		store:      store,
		dispatcher: dispatcher,
		logger:     logger.Component(log, "answer-ingestion"),
	}
}

// Submit validates and persists a submission, schedules its normalization and
// returns the new response id. Dispatch failures never fail the submission.
func (s *Service) Submit(ctx context.Context, inputs []models.AnswerInput) (string, error) {
	if result := validation.ValidateAnswers(inputs); !result.Valid {
		metrics.AnswerSubmissions.WithLabelValues("invalid").Inc()
		return "", &InvalidAnswersError{Result: result}
	}

	responseID, stored, err := s.store.Create(ctx, inputs)
	if err != nil {
		metrics.AnswerSubmissions.WithLabelValues("failed").Inc()
		s.logger.Error("failed to persist submission", map[string]interface{}{
			"answerCount": len(inputs),
			"error":       err.Error(),
		})
		return "", err
	}
	metrics.AnswerSubmissions.WithLabelValues("accepted").Inc()

	dispatchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), dispatchTimeout)
	defer cancel()

	task := models.NormalizationTask{ResponseID: responseID, Answers: stored}
	if err := s.dispatcher.Dispatch(dispatchCtx, task); err != nil {
		s.logger.Warn("normalization not scheduled", map[string]interface{}{
			"responseId": responseID,
			"error":      err.Error(),
		})
	}

	s.logger.Info("submission stored", map[string]interface{}{
		"responseId":  responseID,
		"answerCount": len(stored),
	})
	return responseID, nil
}
