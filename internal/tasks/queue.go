// internal/tasks/queue.go

// Package tasks runs background normalization in-process. Delivery is
// at-most-once: a task is either accepted into a bounded buffer and run
// once, or dropped. Callers get no handle to await, cancel or retry it.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"survey-recommender/internal/common/logger"
	"survey-recommender/internal/common/metrics"
	"survey-recommender/internal/models"
)

var (
	ErrQueueFull   = errors.New("QUEUE_FULL")
	ErrQueueClosed = errors.New("QUEUE_CLOSED")
)

// Handler processes one task. It owns its own error handling.
type Handler func(ctx context.Context, task models.NormalizationTask)

type Queue struct {
	tasks       chan models.NormalizationTask
	handler     Handler
	concurrency int
	logger      logger.Logger

	mu      sync.RWMutex
	closed  bool
	started bool
	wg      sync.WaitGroup
}

func NewQueue(size, concurrency int, handler Handler, log logger.Logger) *Queue {
	if size < 1 {
		size = 1
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Queue{
		tasks:       make(chan models.NormalizationTask, size),
		handler:     handler,
		concurrency: concurrency,
		logger:      logger.Component(log, "normalization-queue"),
	}
}

// Start launches the consumer goroutines. It is safe to call once.
func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started || q.closed {
		return
	}
	q.started = true

	for i := 0; i < q.concurrency; i++ {
		q.wg.Add(1)
		go q.consume(i)
	}
	q.logger.Info("normalization queue started", map[string]interface{}{
		"concurrency": q.concurrency,
		"capacity":    cap(q.tasks),
	})
}

// Dispatch enqueues task without blocking. A full or closed queue drops it.
func (q *Queue) Dispatch(_ context.Context, task models.NormalizationTask) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.tasks <- task:
		return nil
	default:
		metrics.NormalizationQueueDropped.Inc()
		return fmt.Errorf("%w: dropping normalization of response %s", ErrQueueFull, task.ResponseID)
	}
}

func (q *Queue) consume(worker int) {
	defer q.wg.Done()
	for task := range q.tasks {
		q.run(worker, task)
	}
}

func (q *Queue) run(worker int, task models.NormalizationTask) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("normalization task panicked", map[string]interface{}{
				"responseId": task.ResponseID,
				"worker":     worker,
				"panic":      fmt.Sprint(r),
			})
		}
	}()
	q.handler(context.Background(), task)
}

// Shutdown stops accepting tasks and waits for buffered ones to finish or
// for ctx to expire, whichever comes first.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.tasks)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		q.logger.Warn("normalization queue shutdown timed out", map[string]interface{}{
			"pending": len(q.tasks),
		})
		return ctx.Err()
	}
}
