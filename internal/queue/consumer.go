package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/civicpulse/classifier/internal/logging"
)

const (
	dequeueTimeout  = time.Second
	promoteInterval = time.Second
)

// Handler processes one job. A returned error sends the job through the
// retry and backoff path.
type Handler func(ctx context.Context, job Job) error

// Consumer runs a fixed pool of workers over the queue plus one promoter
// goroutine that moves due delayed jobs back onto the wait list.
type Consumer struct {
	queue       *Queue
	handler     Handler
	concurrency int
	logger      logging.Logger

	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewConsumer creates a consumer with the given worker pool size.
func NewConsumer(q *Queue, handler Handler, concurrency int, logger logging.Logger) *Consumer {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Consumer{
		queue:       q,
		handler:     handler,
		concurrency: concurrency,
		logger:      logger,
		stopChan:    make(chan struct{}),
	}
}

// Start launches the worker pool.
func (c *Consumer) Start(ctx context.Context) error {
	if c.running {
		return errors.New("consumer is already running")
	}
	c.running = true

	c.logger.Info("queue consumer starting",
		logging.Int("concurrency", c.concurrency))

	c.wg.Add(1)
	go c.promoteLoop(ctx)

	for i := 0; i < c.concurrency; i++ {
		c.wg.Add(1)
		go c.workLoop(ctx, i)
	}

	return nil
}

// Stop signals every goroutine and waits for in-flight jobs to finish.
func (c *Consumer) Stop() {
	if !c.running {
		return
	}
	c.logger.Info("queue consumer stopping")
	close(c.stopChan)
	c.wg.Wait()
	c.running = false
}

func (c *Consumer) promoteLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(promoteInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopChan:
			return
		case <-ticker.C:
			promoted, err := c.queue.PromoteDue(ctx, time.Now())
			if err != nil {
				c.logger.Warn("promoting delayed jobs failed", logging.Error(err))
				continue
			}
			if promoted > 0 {
				c.logger.Debug("promoted delayed jobs", logging.Int("count", promoted))
			}
		}
	}
}

func (c *Consumer) workLoop(ctx context.Context, workerID int) {
	defer c.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopChan:
			return
		default:
		}

		job, err := c.queue.Dequeue(ctx, dequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Warn("dequeue failed",
				logging.Int("worker", workerID),
				logging.Error(err))
			continue
		}
		if job == nil {
			continue
		}

		c.process(ctx, workerID, *job)
	}
}

func (c *Consumer) process(ctx context.Context, workerID int, job Job) {
	c.logger.Debug("job started",
		logging.Int("worker", workerID),
		logging.String("job_id", job.ID),
		logging.String("report_id", job.ReportID),
		logging.Int("attempts", job.Attempts))

	if err := c.handler(ctx, job); err != nil {
		c.logger.Warn("job failed",
			logging.String("job_id", job.ID),
			logging.String("report_id", job.ReportID),
			logging.Error(err))
		if retryErr := c.queue.Retry(ctx, job); retryErr != nil {
			c.logger.Error("retry scheduling failed",
				logging.String("job_id", job.ID),
				logging.Error(retryErr))
		}
		return
	}

	if err := c.queue.Complete(ctx, job); err != nil {
		c.logger.Warn("completion bookkeeping failed",
			logging.String("job_id", job.ID),
			logging.Error(err))
	}
}
