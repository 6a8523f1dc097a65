package event

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gebeta-app/gebeta/pkg/workerpool"
)

func TestFireRunsListenersInOrder(t *testing.T) {
	bus := New(nil)
	var got []string
	bus.Listen("order.created", func(_ context.Context, p any) { got = append(got, "a:"+p.(string)) })
	bus.Listen("order.created", func(_ context.Context, p any) { got = append(got, "b:"+p.(string)) })

	bus.Fire(context.Background(), "order.created", "ORD-1")
	assert.Equal(t, []string{"a:ORD-1", "b:ORD-1"}, got)
}

func TestFireAsyncWithoutPoolIsInline(t *testing.T) {
	bus := New(nil)
	called := false
	bus.Listen("x", func(context.Context, any) { called = true })
	bus.FireAsync(context.Background(), "x", nil)
	assert.True(t, called)
}

func TestFireAsyncOnPoolSurvivesCancelledContext(t *testing.T) {
	pool := workerpool.New("events", 2)
	bus := New(pool)

	var wg sync.WaitGroup
	wg.Add(1)
	var ctxErr error
	bus.Listen("x", func(ctx context.Context, _ any) {
		ctxErr = ctx.Err()
		wg.Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bus.FireAsync(ctx, "x", nil)
	wg.Wait()
	pool.Shutdown()

	assert.NoError(t, ctxErr)
}

func TestFlush(t *testing.T) {
	bus := New(nil)
	called := false
	bus.Listen("x", func(context.Context, any) { called = true })
	bus.Flush()
	bus.Fire(context.Background(), "x", nil)
	assert.False(t, called)
}
