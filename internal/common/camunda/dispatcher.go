// internal/common/camunda/dispatcher.go
package camunda

import (
	"context"

	"survey-recommender/internal/common/logger"
	"survey-recommender/internal/models"
)

type createInstanceFunc func(ctx context.Context, processID string, vars interface{}) error

// Dispatcher schedules normalization by starting a process instance whose
// service task is served by the normalize-answers job worker.
type Dispatcher struct {
	create    createInstanceFunc
	processID string
	logger    logger.Logger
}

func NewDispatcher(client *Client, processID string, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		create:    client.CreateInstance,
		processID: processID,
		logger:    logger.Component(log, "camunda-dispatcher"),
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, task models.NormalizationTask) error {
	if err := d.create(ctx, d.processID, task); err != nil {
		return err
	}
	d.logger.Debug("normalization process started", map[string]interface{}{
		"responseId": task.ResponseID,
		"processId":  d.processID,
	})
	return nil
}
