// internal/tasks/queue_test.go
package tasks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"survey-recommender/internal/common/logger"
	"survey-recommender/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func task(id string) models.NormalizationTask {
	return models.NormalizationTask{ResponseID: id}
}

func TestQueue_RunsDispatchedTasks(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
		wg   sync.WaitGroup
	)
	wg.Add(3)
	q := NewQueue(10, 2, func(ctx context.Context, task models.NormalizationTask) {
		defer wg.Done()
		mu.Lock()
		seen = append(seen, task.ResponseID)
		mu.Unlock()
	}, logger.NewTestLogger(t))
	q.Start()

	for _, id := range []string{"r1", "r2", "r3"} {
		require.NoError(t, q.Dispatch(context.Background(), task(id)))
	}
	wg.Wait()

	assert.ElementsMatch(t, []string{"r1", "r2", "r3"}, seen)
	assert.NoError(t, q.Shutdown(context.Background()))
}

func TestQueue_DropsWhenFull(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	q := NewQueue(1, 1, func(ctx context.Context, task models.NormalizationTask) {
		started <- struct{}{}
		<-release
	}, logger.NewTestLogger(t))
	q.Start()

	require.NoError(t, q.Dispatch(context.Background(), task("running")))
	<-started
	require.NoError(t, q.Dispatch(context.Background(), task("buffered")))

	begin := time.Now()
	err := q.Dispatch(context.Background(), task("dropped"))

	assert.True(t, errors.Is(err, ErrQueueFull))
	assert.Less(t, time.Since(begin), 100*time.Millisecond, "dispatch never blocks")

	close(release)
	assert.NoError(t, q.Shutdown(context.Background()))
}

func TestQueue_RejectsAfterShutdown(t *testing.T) {
	q := NewQueue(1, 1, func(ctx context.Context, task models.NormalizationTask) {}, logger.NewTestLogger(t))
	q.Start()
	require.NoError(t, q.Shutdown(context.Background()))

	err := q.Dispatch(context.Background(), task("late"))
	assert.ErrorIs(t, err, ErrQueueClosed)
	assert.NoError(t, q.Shutdown(context.Background()), "shutdown is idempotent")
}

func TestQueue_SurvivesPanickingHandler(t *testing.T) {
	done := make(chan string, 2)
	q := NewQueue(4, 1, func(ctx context.Context, task models.NormalizationTask) {
		if task.ResponseID == "boom" {
			panic("unexpected nil address")
		}
		done <- task.ResponseID
	}, logger.NewTestLogger(t))
	q.Start()

	require.NoError(t, q.Dispatch(context.Background(), task("boom")))
	require.NoError(t, q.Dispatch(context.Background(), task("ok")))

	select {
	case id := <-done:
		assert.Equal(t, "ok", id)
	case <-time.After(2 * time.Second):
		t.Fatal("worker stopped after a panic")
	}
	assert.NoError(t, q.Shutdown(context.Background()))
}

func TestQueue_ShutdownTimesOut(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	q := NewQueue(1, 1, func(ctx context.Context, task models.NormalizationTask) {
		close(started)
		<-release
	}, logger.NewTestLogger(t))
	q.Start()
	require.NoError(t, q.Dispatch(context.Background(), task("hung")))
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, q.Shutdown(ctx), context.DeadlineExceeded)
	close(release)
}
