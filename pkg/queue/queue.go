// Package queue runs background jobs with retries. Jobs are JSON-encoded,
// pushed to a Driver (Redis list or in-process channel) and executed by a
// fixed number of workers.
//
//	q := queue.New(queue.NewRedisDriver(cache.RDB))
//	q.Register(jobs.WebhookName, func() queue.Job { return &jobs.Webhook{} })
//	_ = q.Dispatch(ctx, &jobs.Webhook{Event: "order.created", Payload: raw})
//	go q.Work(ctx, config.QueueWorkers())
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gebeta-app/gebeta/pkg/logger"
	"github.com/gebeta-app/gebeta/pkg/metrics"
)

// Job is a unit of background work. Name must match the name the job was
// registered under.
type Job interface {
	Name() string
	Handle(ctx context.Context) error
}

// Driver stores encoded jobs. Pop returns (nil, nil) when it timed out
// without finding work.
type Driver interface {
	Push(ctx context.Context, payload []byte) error
	Pop(ctx context.Context) ([]byte, error)
}

// ErrUnknownJob is returned for payloads whose name has no registration.
var ErrUnknownJob = errors.New("queue: unknown job")

type envelope struct {
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload"`
	Pushed  time.Time       `json:"pushed"`
}

// Queue dispatches and runs jobs.
type Queue struct {
	driver      Driver
	failed      FailedStore
	maxAttempts int
	backoff     func(attempt int) time.Duration

	mu       sync.RWMutex
	registry map[string]func() Job
}

// Option tunes a Queue.
type Option func(*Queue)

// WithMaxAttempts sets how many times a job runs before it is recorded as
// failed.
func WithMaxAttempts(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.maxAttempts = n
		}
	}
}

// WithBackoff sets the pause before attempt+1.
func WithBackoff(fn func(attempt int) time.Duration) Option {
	return func(q *Queue) { q.backoff = fn }
}

// WithFailedStore records exhausted jobs somewhere durable.
func WithFailedStore(s FailedStore) Option {
	return func(q *Queue) { q.failed = s }
}

func New(driver Driver, opts ...Option) *Queue {
	q := &Queue{
		driver:      driver,
		failed:      NewMemoryFailedStore(),
		maxAttempts: 3,
		backoff:     func(attempt int) time.Duration { return time.Duration(attempt) * time.Second },
		registry:    map[string]func() Job{},
	}
	for _, o := range opts {
		o(q)
	}
	return q
}

// Register makes jobs called name decodable by workers.
func (q *Queue) Register(name string, factory func() Job) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.registry[name] = factory
}

// Dispatch encodes job and pushes it.
func (q *Queue) Dispatch(ctx context.Context, job Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("queue: marshal %s: %w", job.Name(), err)
	}
	raw, err := json.Marshal(envelope{Name: job.Name(), Payload: payload, Pushed: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("queue: marshal envelope: %w", err)
	}
	return q.driver.Push(ctx, raw)
}

// Work runs n workers until ctx is done and returns once they have all
// stopped.
func (q *Queue) Work(ctx context.Context, n int) error {
	if n < 1 {
		n = 1
	}
	logger.Info("queue: workers started", "count", n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			q.loop(ctx)
		}()
	}
	wg.Wait()
	logger.Info("queue: workers stopped")
	return nil
}

func (q *Queue) loop(ctx context.Context) {
	for ctx.Err() == nil {
		raw, err := q.driver.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("queue: pop failed", "error", err)
			sleep(ctx, time.Second)
			continue
		}
		if raw == nil {
			continue
		}
		if err := q.Process(ctx, raw); err != nil {
			logger.Error("queue: job failed", "error", err)
		}
	}
}

// Process decodes and runs one encoded job with retries. A job that fails
// every attempt is handed to the failed store and its last error returned.
func (q *Queue) Process(ctx context.Context, raw []byte) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("queue: bad envelope: %w", err)
	}
	q.mu.RLock()
	factory, ok := q.registry[env.Name]
	q.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, env.Name)
	}
	job := factory()
	if err := json.Unmarshal(env.Payload, job); err != nil {
		return fmt.Errorf("queue: decode %s: %w", env.Name, err)
	}

	start := time.Now()
	var err error
	for attempt := 1; attempt <= q.maxAttempts; attempt++ {
		if err = q.run(ctx, job); err == nil {
			metrics.RecordQueueJob(env.Name, "ok", start)
			return nil
		}
		logger.Warn("queue: attempt failed", "job", env.Name, "attempt", attempt, "error", err)
		if attempt < q.maxAttempts && !sleep(ctx, q.backoff(attempt)) {
			break
		}
	}

	metrics.RecordQueueJob(env.Name, "failed", start)
	rec := FailedJob{Name: env.Name, Payload: string(env.Payload), Error: err.Error(), Attempts: q.maxAttempts, FailedAt: time.Now()}
	if ferr := q.failed.Record(context.WithoutCancel(ctx), rec); ferr != nil {
		logger.Error("queue: record failed job", "job", env.Name, "error", ferr)
	}
	return fmt.Errorf("queue: %s exhausted %d attempts: %w", env.Name, q.maxAttempts, err)
}

// run calls Handle, turning a panic into an error.
func (q *Queue) run(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("queue: panic: %v", r)
		}
	}()
	return job.Handle(ctx)
}

// Failed lists the recorded failures, newest first.
func (q *Queue) Failed(ctx context.Context) ([]FailedJob, error) {
	return q.failed.List(ctx)
}

// sleep waits d or until ctx is done and reports whether the full wait
// elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
