package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicpulse/classifier/internal/config"
	"github.com/civicpulse/classifier/internal/logging"
)

func newTestQueue(t *testing.T) (*Queue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	q := New(rdb, config.QueueConfig{
		Name:        "reports",
		Attempts:    3,
		BackoffBase: 5 * time.Second,
	}, logging.NewNop())
	return q, mr
}

func TestEnqueueAndDequeue(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	jobID, err := q.Enqueue(ctx, "rep-1")
	require.NoError(t, err)
	assert.NotEmpty(t, jobID)

	job, err := q.Dequeue(ctx, 100*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, jobID, job.ID)
	assert.Equal(t, "rep-1", job.ReportID)
	assert.Zero(t, job.Attempts)
	assert.Equal(t, 3, job.MaxAttempts)
}

func TestDequeueEmptyReturnsNil(t *testing.T) {
	q, _ := newTestQueue(t)

	job, err := q.Dequeue(context.Background(), 50*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, job)
}

func TestDequeueIsFIFO(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	_, err := q.Enqueue(ctx, "rep-a")
	require.NoError(t, err)
	_, err = q.Enqueue(ctx, "rep-b")
	require.NoError(t, err)

	first, err := q.Dequeue(ctx, 100*time.Millisecond)
	require.NoError(t, err)
	second, err := q.Dequeue(ctx, 100*time.Millisecond)
	require.NoError(t, err)

	assert.Equal(t, "rep-a", first.ReportID)
	assert.Equal(t, "rep-b", second.ReportID)
}

func TestRetrySchedulesBackoff(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	job := Job{ID: "j1", ReportID: "rep-1", Attempts: 0, MaxAttempts: 3}
	require.NoError(t, q.Retry(ctx, job))

	stats, err := q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Delayed)
	assert.Zero(t, stats.Waiting)
	assert.Zero(t, stats.Failed)

	// Not due yet: first backoff is 5s.
	promoted, err := q.PromoteDue(ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, promoted)

	// Due once the backoff has elapsed.
	promoted, err = q.PromoteDue(ctx, time.Now().Add(6*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 1, promoted)

	ready, err := q.Dequeue(ctx, 100*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, ready)
	assert.Equal(t, 1, ready.Attempts)
}

func TestRetryBackoffDoubles(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	// Second failure: backoff 5s<<1 = 10s.
	job := Job{ID: "j2", ReportID: "rep-2", Attempts: 1, MaxAttempts: 3}
	require.NoError(t, q.Retry(ctx, job))

	promoted, err := q.PromoteDue(ctx, time.Now().Add(6*time.Second))
	require.NoError(t, err)
	assert.Zero(t, promoted)

	promoted, err = q.PromoteDue(ctx, time.Now().Add(11*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 1, promoted)
}

func TestRetryExhaustionParksOnFailedList(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	job := Job{ID: "j3", ReportID: "rep-3", Attempts: 2, MaxAttempts: 3}
	require.NoError(t, q.Retry(ctx, job))

	stats, err := q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Failed)
	assert.Zero(t, stats.Delayed)
}

func TestCompleteCounts(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	require.NoError(t, q.Complete(ctx, Job{ID: "j4"}))
	require.NoError(t, q.Complete(ctx, Job{ID: "j5"}))

	stats, err := q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Completed)
}

func TestConsumerProcessesJobs(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	processed := make(chan Job, 4)
	consumer := NewConsumer(q, func(_ context.Context, job Job) error {
		processed <- job
		return nil
	}, 2, logging.NewNop())

	require.NoError(t, consumer.Start(ctx))
	defer consumer.Stop()

	_, err := q.Enqueue(ctx, "rep-x")
	require.NoError(t, err)
	_, err = q.Enqueue(ctx, "rep-y")
	require.NoError(t, err)

	got := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case job := <-processed:
			got[job.ReportID] = true
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for jobs")
		}
	}
	assert.True(t, got["rep-x"])
	assert.True(t, got["rep-y"])

	require.Eventually(t, func() bool {
		stats, statsErr := q.Stats(ctx)
		return statsErr == nil && stats.Completed == 2
	}, 5*time.Second, 50*time.Millisecond)
}

func TestConsumerRetriesFailedJobs(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	attempts := make(chan int, 1)
	consumer := NewConsumer(q, func(_ context.Context, job Job) error {
		attempts <- job.Attempts
		return assert.AnError
	}, 1, logging.NewNop())

	require.NoError(t, consumer.Start(ctx))
	defer consumer.Stop()

	_, err := q.Enqueue(ctx, "rep-fail")
	require.NoError(t, err)

	select {
	case n := <-attempts:
		assert.Zero(t, n)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for first attempt")
	}

	require.Eventually(t, func() bool {
		stats, statsErr := q.Stats(ctx)
		return statsErr == nil && stats.Delayed == 1
	}, 5*time.Second, 50*time.Millisecond)
}

func TestJobPayloadShape(t *testing.T) {
	q, mr := newTestQueue(t)
	ctx := context.Background()

	_, err := q.Enqueue(ctx, "rep-shape")
	require.NoError(t, err)

	payloads, err := mr.List("queue:reports:wait")
	require.NoError(t, err)
	require.Len(t, payloads, 1)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(payloads[0]), &decoded))
	assert.Contains(t, decoded, "id")
	assert.Contains(t, decoded, "report_id")
	assert.Contains(t, decoded, "max_attempts")
	assert.Contains(t, decoded, "enqueued_at")
}
