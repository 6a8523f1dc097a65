package queue

import (
	"context"
	"errors"
	"time"
)

// ErrQueueFull is returned by MemoryDriver.Push when its buffer is full.
var ErrQueueFull = errors.New("queue: memory driver full")

// MemoryDriver is a buffered channel. Jobs are lost on restart.
type MemoryDriver struct {
	ch   chan []byte
	poll time.Duration
}

func NewMemoryDriver(size int) *MemoryDriver {
	if size < 1 {
		size = 1024
	}
	return &MemoryDriver{ch: make(chan []byte, size), poll: 5 * time.Second}
}

func (d *MemoryDriver) Push(ctx context.Context, payload []byte) error {
	select {
	case d.ch <- payload:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

func (d *MemoryDriver) Pop(ctx context.Context) ([]byte, error) {
	t := time.NewTimer(d.poll)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case payload := <-d.ch:
		return payload, nil
	case <-t.C:
		return nil, nil
	}
}

// Len reports the number of queued jobs.
func (d *MemoryDriver) Len() int { return len(d.ch) }
