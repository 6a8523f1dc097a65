// Package event is an in-process publish/subscribe bus. Listeners run on a
// bounded worker pool when one is attached, inline otherwise.
package event

import (
	"context"
	"errors"
	"sync"

	"github.com/gebeta-app/gebeta/pkg/logger"
	"github.com/gebeta-app/gebeta/pkg/workerpool"
)

// Handler receives an event payload.
type Handler func(ctx context.Context, payload any)

// Bus routes named events to their listeners.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	pool     *workerpool.Pool
}

// New returns a bus dispatching async events on pool. A nil pool makes
// FireAsync run listeners inline, which keeps tests deterministic.
func New(pool *workerpool.Pool) *Bus {
	return &Bus{handlers: map[string][]Handler{}, pool: pool}
}

// Listen registers handler for event.
func (b *Bus) Listen(event string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[event] = append(b.handlers[event], handler)
}

func (b *Bus) listeners(event string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	hs := make([]Handler, len(b.handlers[event]))
	copy(hs, b.handlers[event])
	return hs
}

// Fire runs every listener of event synchronously.
func (b *Bus) Fire(ctx context.Context, event string, payload any) {
	for _, h := range b.listeners(event) {
		h(ctx, payload)
	}
}

// FireAsync hands each listener to the worker pool and returns. The request
// context is detached from cancellation so listeners outlive the handler.
// When the pool is saturated the listener runs on the caller's goroutine.
func (b *Bus) FireAsync(ctx context.Context, event string, payload any) {
	if b == nil {
		return
	}
	hs := b.listeners(event)
	if b.pool == nil {
		for _, h := range hs {
			h(ctx, payload)
		}
		return
	}

	detached := context.WithoutCancel(ctx)
	for _, h := range hs {
		h := h
		err := b.pool.Submit(func() { h(detached, payload) })
		switch {
		case err == nil:
		case errors.Is(err, workerpool.ErrPoolFull):
			logger.WithCtx(ctx).Warn("event: pool full, running inline", "event", event)
			h(detached, payload)
		default:
			logger.WithCtx(ctx).Warn("event: dropped", "event", event, "error", err)
		}
	}
}

// Flush removes every listener.
func (b *Bus) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = map[string][]Handler{}
}
