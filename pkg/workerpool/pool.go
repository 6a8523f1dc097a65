// Package workerpool runs side-effect tasks (event listeners, notification
// fan-out) on a fixed set of goroutines.
//
//	pool := workerpool.New("events", config.EventWorkers())
//	defer pool.Shutdown()
//
//	if err := pool.Submit(task); errors.Is(err, workerpool.ErrPoolFull) {
//	    task() // caller decides: run inline, drop, retry
//	}
package workerpool

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gebeta-app/gebeta/pkg/logger"
	"github.com/gebeta-app/gebeta/pkg/metrics"
)

var (
	// ErrPoolFull is returned by Submit when every worker is busy and the
	// backlog is at capacity.
	ErrPoolFull = errors.New("workerpool: pool is full")
	// ErrPoolClosed is returned once Shutdown has started.
	ErrPoolClosed = errors.New("workerpool: pool is closed")
)

// Pool is a named, bounded goroutine pool. The backlog holds twice as many
// tasks as there are workers.
type Pool struct {
	name    string
	tasks   chan func()
	mu      sync.RWMutex
	closed  bool
	wg      sync.WaitGroup
	once    sync.Once
	workers int
}

// New starts size workers. A size below one is raised to one.
func New(name string, size int) *Pool {
	if size < 1 {
		size = 1
	}
	p := &Pool{name: name, tasks: make(chan func(), size*2), workers: size}
	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.work()
	}
	return p
}

func (p *Pool) Name() string { return p.name }

func (p *Pool) Size() int { return p.workers }

// Submit queues task without blocking.
func (p *Pool) Submit(task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.count("closed")
		return ErrPoolClosed
	}
	select {
	case p.tasks <- task:
		p.count("accepted")
		return nil
	default:
		p.count("full")
		return ErrPoolFull
	}
}

// SubmitWait queues task, blocking until the backlog has room.
func (p *Pool) SubmitWait(task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.count("closed")
		return ErrPoolClosed
	}
	p.tasks <- task
	p.count("accepted")
	return nil
}

// Shutdown stops intake, lets queued tasks finish and waits for the workers.
// Calling it again is a no-op.
func (p *Pool) Shutdown() {
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.tasks)
		p.mu.Unlock()
		p.wg.Wait()
	})
}

func (p *Pool) work() {
	defer p.wg.Done()
	for task := range p.tasks {
		p.run(task)
	}
}

// run executes one task. A panic is logged and the worker carries on.
func (p *Pool) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			p.count("panicked")
			logger.Error("workerpool: task panicked", "pool", p.name, "panic", fmt.Sprint(r))
		}
	}()
	task()
}

func (p *Pool) count(outcome string) {
	metrics.PoolTasks.WithLabelValues(p.name, outcome).Inc()
}
