package queue_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gebeta-app/gebeta/pkg/queue"
)

var handled atomic.Int32

type countJob struct {
	Label string `json:"label"`
}

func (countJob) Name() string { return "count" }

func (j *countJob) Handle(context.Context) error {
	if j.Label == "" {
		return errors.New("missing label")
	}
	handled.Add(1)
	return nil
}

type flakyJob struct {
	FailTimes int32 `json:"failTimes"`
}

var flakyCalls atomic.Int32

func (flakyJob) Name() string { return "flaky" }

func (j *flakyJob) Handle(context.Context) error {
	if flakyCalls.Add(1) <= j.FailTimes {
		return errors.New("not yet")
	}
	return nil
}

type panicJob struct{}

func (panicJob) Name() string                 { return "panic" }
func (*panicJob) Handle(context.Context) error { panic("boom") }

func newQueue(driver queue.Driver, failed queue.FailedStore) *queue.Queue {
	q := queue.New(driver,
		queue.WithMaxAttempts(3),
		queue.WithBackoff(func(int) time.Duration { return time.Millisecond }),
		queue.WithFailedStore(failed),
	)
	q.Register("count", func() queue.Job { return &countJob{} })
	q.Register("flaky", func() queue.Job { return &flakyJob{} })
	q.Register("panic", func() queue.Job { return &panicJob{} })
	return q
}

func TestWorkersProcessDispatchedJobs(t *testing.T) {
	handled.Store(0)
	driver := queue.NewMemoryDriver(16)
	q := newQueue(driver, queue.NewMemoryFailedStore())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = q.Work(ctx, 2)
		close(done)
	}()

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Dispatch(ctx, &countJob{Label: "x"}))
	}
	require.Eventually(t, func() bool { return handled.Load() == 5 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("workers did not stop")
	}
}

func TestProcessRetriesUntilSuccess(t *testing.T) {
	flakyCalls.Store(0)
	failed := queue.NewMemoryFailedStore()
	driver := queue.NewMemoryDriver(4)
	q := newQueue(driver, failed)
	ctx := context.Background()

	require.NoError(t, q.Dispatch(ctx, &flakyJob{FailTimes: 2}))
	raw, err := driver.Pop(ctx)
	require.NoError(t, err)

	require.NoError(t, q.Process(ctx, raw))
	assert.Equal(t, int32(3), flakyCalls.Load())
	rows, _ := failed.List(ctx)
	assert.Empty(t, rows)
}

func TestExhaustedJobsAreRecorded(t *testing.T) {
	failed := queue.NewMemoryFailedStore()
	driver := queue.NewMemoryDriver(4)
	q := newQueue(driver, failed)
	ctx := context.Background()

	require.NoError(t, q.Dispatch(ctx, &countJob{}))
	require.NoError(t, q.Dispatch(ctx, &panicJob{}))
	for i := 0; i < 2; i++ {
		raw, err := driver.Pop(ctx)
		require.NoError(t, err)
		assert.Error(t, q.Process(ctx, raw))
	}

	rows, err := q.Failed(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "panic", rows[0].Name)
	assert.Contains(t, rows[0].Error, "boom")
	assert.Equal(t, "count", rows[1].Name)
	assert.Equal(t, 3, rows[1].Attempts)
	assert.JSONEq(t, `{"label":""}`, rows[1].Payload)
}

func TestUnknownJob(t *testing.T) {
	q := queue.New(queue.NewMemoryDriver(1))
	err := q.Process(context.Background(), []byte(`{"name":"ghost","payload":{}}`))
	assert.ErrorIs(t, err, queue.ErrUnknownJob)
}

func TestMemoryDriverBackpressure(t *testing.T) {
	d := queue.NewMemoryDriver(1)
	ctx := context.Background()
	require.NoError(t, d.Push(ctx, []byte("a")))
	assert.ErrorIs(t, d.Push(ctx, []byte("b")), queue.ErrQueueFull)
	assert.Equal(t, 1, d.Len())
}
