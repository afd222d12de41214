package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/civicpulse/classifier/internal/config"
	"github.com/civicpulse/classifier/internal/logging"
)

// Job is one classification request on the queue.
type Job struct {
	ID          string    `json:"id"`
	ReportID    string    `json:"report_id"`
	Attempts    int       `json:"attempts"`
	MaxAttempts int       `json:"max_attempts"`
	EnqueuedAt  time.Time `json:"enqueued_at"`
}

// Stats is a point-in-time snapshot of the queue.
type Stats struct {
	Waiting   int64 `json:"waiting"`
	Delayed   int64 `json:"delayed"`
	Failed    int64 `json:"failed"`
	Completed int64 `json:"completed"`
}

// Queue manages report jobs in Redis.
type Queue struct {
	rdb         *redis.Client
	name        string
	maxAttempts int
	backoffBase time.Duration
	logger      logging.Logger
}

// New creates a queue over an established Redis client.
func New(rdb *redis.Client, cfg config.QueueConfig, logger logging.Logger) *Queue {
	return &Queue{
		rdb:         rdb,
		name:        cfg.Name,
		maxAttempts: cfg.Attempts,
		backoffBase: cfg.BackoffBase,
		logger:      logger,
	}
}

func (q *Queue) waitKey() string      { return "queue:" + q.name + ":wait" }
func (q *Queue) delayedKey() string   { return "queue:" + q.name + ":delayed" }
func (q *Queue) failedKey() string    { return "queue:" + q.name + ":failed" }
func (q *Queue) completedKey() string { return "queue:" + q.name + ":completed" }

// Enqueue adds a fresh job for the report and returns the job id.
func (q *Queue) Enqueue(ctx context.Context, reportID string) (string, error) {
	job := Job{
		ID:          uuid.NewString(),
		ReportID:    reportID,
		MaxAttempts: q.maxAttempts,
		EnqueuedAt:  time.Now().UTC(),
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("marshal job: %w", err)
	}

	if err := q.rdb.LPush(ctx, q.waitKey(), payload).Err(); err != nil {
		return "", fmt.Errorf("enqueue report %s: %w", reportID, err)
	}

	q.logger.Debug("job enqueued",
		logging.String("job_id", job.ID),
		logging.String("report_id", reportID))

	return job.ID, nil
}

// Retry reschedules a failed job with exponential backoff, or parks it on
// the failed list once its attempts are exhausted.
func (q *Queue) Retry(ctx context.Context, job Job) error {
	job.Attempts++

	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}

	if job.Attempts >= job.MaxAttempts {
		if err := q.rdb.LPush(ctx, q.failedKey(), payload).Err(); err != nil {
			return fmt.Errorf("park failed job %s: %w", job.ID, err)
		}
		q.logger.Warn("job moved to failed list",
			logging.String("job_id", job.ID),
			logging.String("report_id", job.ReportID),
			logging.Int("attempts", job.Attempts))
		return nil
	}

	backoff := q.backoffBase << (job.Attempts - 1)
	readyAt := time.Now().Add(backoff)

	err = q.rdb.ZAdd(ctx, q.delayedKey(), redis.Z{
		Score:  float64(readyAt.UnixMilli()),
		Member: payload,
	}).Err()
	if err != nil {
		return fmt.Errorf("delay job %s: %w", job.ID, err)
	}

	q.logger.Info("job scheduled for retry",
		logging.String("job_id", job.ID),
		logging.String("report_id", job.ReportID),
		logging.Int("attempts", job.Attempts),
		logging.Duration("backoff", backoff))

	return nil
}

// Complete records a successful job. Completed jobs are dropped, only the
// counter survives.
func (q *Queue) Complete(ctx context.Context, job Job) error {
	if err := q.rdb.Incr(ctx, q.completedKey()).Err(); err != nil {
		return fmt.Errorf("count completed job %s: %w", job.ID, err)
	}
	return nil
}

// PromoteDue moves delayed jobs whose backoff has elapsed onto the wait
// list. Returns how many were promoted.
func (q *Queue) PromoteDue(ctx context.Context, now time.Time) (int, error) {
	members, err := q.rdb.ZRangeByScore(ctx, q.delayedKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%d", now.UnixMilli()),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("range delayed jobs: %w", err)
	}

	promoted := 0
	for _, member := range members {
		removed, err := q.rdb.ZRem(ctx, q.delayedKey(), member).Result()
		if err != nil {
			return promoted, fmt.Errorf("remove delayed job: %w", err)
		}
		// Another consumer promoted it first.
		if removed == 0 {
			continue
		}
		if err := q.rdb.LPush(ctx, q.waitKey(), member).Err(); err != nil {
			return promoted, fmt.Errorf("promote delayed job: %w", err)
		}
		promoted++
	}

	return promoted, nil
}

// Dequeue blocks up to timeout for the next ready job. Returns nil when the
// wait list stayed empty.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*Job, error) {
	res, err := q.rdb.BRPop(ctx, timeout, q.waitKey()).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("pop job: %w", err)
	}
	// BRPop returns [key, value].
	if len(res) != 2 {
		return nil, fmt.Errorf("unexpected brpop reply length %d", len(res))
	}

	var job Job
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return nil, fmt.Errorf("decode job payload: %w", err)
	}
	return &job, nil
}

// Stats reports queue depths and the completed counter.
func (q *Queue) Stats(ctx context.Context) (Stats, error) {
	var s Stats

	waiting, err := q.rdb.LLen(ctx, q.waitKey()).Result()
	if err != nil {
		return s, fmt.Errorf("waiting depth: %w", err)
	}
	delayed, err := q.rdb.ZCard(ctx, q.delayedKey()).Result()
	if err != nil {
		return s, fmt.Errorf("delayed depth: %w", err)
	}
	failed, err := q.rdb.LLen(ctx, q.failedKey()).Result()
	if err != nil {
		return s, fmt.Errorf("failed depth: %w", err)
	}
	completed, err := q.rdb.Get(ctx, q.completedKey()).Int64()
	if err != nil && err != redis.Nil {
		return s, fmt.Errorf("completed counter: %w", err)
	}

	s.Waiting = waiting
	s.Delayed = delayed
	s.Failed = failed
	s.Completed = completed
	return s, nil
}
