// Package schedule runs periodic maintenance tasks.
//
//	s := schedule.New()
//	s.Hourly().Name("notifications:prune").WithoutOverlapping().Run(prune)
//	s.Cron("*/5 * * * *").Name("otp:purge").Run(purge)
//	_ = s.Start(ctx) // blocks until ctx is done
package schedule

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gebeta-app/gebeta/pkg/logger"
)

// Task is one unit of scheduled work.
type Task func(ctx context.Context) error

type entry struct {
	id        string
	interval  time.Duration
	cronExpr  string
	task      Task
	noOverlap bool

	mu      sync.Mutex
	lastRun time.Time
	running bool
}

// Scheduler holds the registered entries.
type Scheduler struct {
	mu      sync.Mutex
	entries []*entry
	tick    time.Duration
	wg      sync.WaitGroup
}

func New() *Scheduler {
	return &Scheduler{tick: time.Second}
}

// Builder configures one entry until Run registers it.
type Builder struct {
	s *Scheduler
	e *entry
}

// Every runs the task every d, starting on the first tick.
func (s *Scheduler) Every(d time.Duration) *Builder {
	return &Builder{s: s, e: &entry{interval: d}}
}

func (s *Scheduler) EveryMinute() *Builder { return s.Every(time.Minute) }

func (s *Scheduler) Hourly() *Builder { return s.Every(time.Hour) }

func (s *Scheduler) Daily() *Builder { return s.Every(24 * time.Hour) }

// Cron runs the task once in every minute matching a five-field expression
// (minute hour day-of-month month day-of-week). Fields accept *, n, a-b,
// */n and comma lists of those.
func (s *Scheduler) Cron(expr string) *Builder {
	return &Builder{s: s, e: &entry{cronExpr: expr}}
}

func (b *Builder) Name(id string) *Builder {
	b.e.id = id
	return b
}

// WithoutOverlapping skips a run while the previous one is still going.
func (b *Builder) WithoutOverlapping() *Builder {
	b.e.noOverlap = true
	return b
}

// Run registers the task. An invalid cron expression is rejected.
func (b *Builder) Run(task Task) error {
	if b.e.cronExpr != "" {
		if _, err := parseCron(b.e.cronExpr); err != nil {
			return err
		}
	} else if b.e.interval <= 0 {
		return fmt.Errorf("schedule: interval must be positive")
	}
	b.e.task = task

	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	if b.e.id == "" {
		b.e.id = fmt.Sprintf("task-%d", len(b.s.entries)+1)
	}
	b.s.entries = append(b.s.entries, b.e)
	return nil
}

// Start dispatches due tasks every second until ctx is done, then waits for
// running tasks to return.
func (s *Scheduler) Start(ctx context.Context) error {
	logger.Info("schedule: started", "tasks", len(s.List()))
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			logger.Info("schedule: stopped")
			return nil
		case now := <-ticker.C:
			s.RunDue(ctx, now)
		}
	}
}

// RunDue starts every task due at now and returns without waiting.
func (s *Scheduler) RunDue(ctx context.Context, now time.Time) {
	s.mu.Lock()
	current := append([]*entry(nil), s.entries...)
	s.mu.Unlock()

	for _, e := range current {
		if e.claim(now) {
			s.wg.Add(1)
			go s.execute(ctx, e)
		}
	}
}

// Wait blocks until every started task has returned.
func (s *Scheduler) Wait() { s.wg.Wait() }

// RunNow runs the named task synchronously.
func (s *Scheduler) RunNow(ctx context.Context, id string) error {
	s.mu.Lock()
	var found *entry
	for _, e := range s.entries {
		if e.id == id {
			found = e
		}
	}
	s.mu.Unlock()
	if found == nil {
		return fmt.Errorf("schedule: unknown task %q", id)
	}
	return found.task(ctx)
}

// claim marks e as started at now if it is due.
func (e *entry) claim(now time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cronExpr != "" {
		minute := now.Truncate(time.Minute)
		if !e.lastRun.IsZero() && !e.lastRun.Before(minute) {
			return false
		}
		expr, _ := parseCron(e.cronExpr)
		if !expr.match(now) {
			return false
		}
	} else if !e.lastRun.IsZero() && now.Sub(e.lastRun) < e.interval {
		return false
	}

	if e.noOverlap && e.running {
		logger.Warn("schedule: skipping overlapping run", "id", e.id)
		return false
	}
	e.running = true
	e.lastRun = now
	return true
}

func (s *Scheduler) execute(ctx context.Context, e *entry) {
	defer s.wg.Done()
	start := time.Now()
	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
		if r := recover(); r != nil {
			logger.Error("schedule: task panicked", "id", e.id, "panic", r)
		}
	}()

	if err := e.task(ctx); err != nil {
		logger.Error("schedule: task failed", "id", e.id, "error", err)
		return
	}
	logger.Debug("schedule: task done", "id", e.id, "duration_ms", time.Since(start).Milliseconds())
}

// List describes the registered entries for the CLI.
func (s *Scheduler) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		freq := e.cronExpr
		if freq == "" {
			freq = "every " + e.interval.String()
		}
		out = append(out, fmt.Sprintf("%s  [%s]", e.id, freq))
	}
	return out
}

// ─── Cron ─────────────────────────────────────────────────────────────────────

type cronExpr [5]map[int]bool

var cronBounds = [5][2]int{{0, 59}, {0, 23}, {1, 31}, {1, 12}, {0, 6}}

func parseCron(expr string) (cronExpr, error) {
	var out cronExpr
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return out, fmt.Errorf("schedule: cron %q needs 5 fields", expr)
	}
	for i, f := range fields {
		set, err := parseField(f, cronBounds[i][0], cronBounds[i][1])
		if err != nil {
			return out, fmt.Errorf("schedule: cron %q: %w", expr, err)
		}
		out[i] = set
	}
	return out, nil
}

// parseField returns nil for "*", meaning any value.
func parseField(field string, lo, hi int) (map[int]bool, error) {
	if field == "*" {
		return nil, nil
	}
	set := map[int]bool{}
	for _, part := range strings.Split(field, ",") {
		switch {
		case strings.HasPrefix(part, "*/"):
			step, err := strconv.Atoi(part[2:])
			if err != nil || step <= 0 {
				return nil, fmt.Errorf("bad step %q", part)
			}
			for v := lo; v <= hi; v += step {
				set[v] = true
			}
		case strings.Contains(part, "-"):
			a, b, _ := strings.Cut(part, "-")
			from, err1 := strconv.Atoi(a)
			to, err2 := strconv.Atoi(b)
			if err1 != nil || err2 != nil || from > to || from < lo || to > hi {
				return nil, fmt.Errorf("bad range %q", part)
			}
			for v := from; v <= to; v++ {
				set[v] = true
			}
		default:
			n, err := strconv.Atoi(part)
			if err != nil || n < lo || n > hi {
				return nil, fmt.Errorf("bad value %q", part)
			}
			set[n] = true
		}
	}
	return set, nil
}

func (c cronExpr) match(t time.Time) bool {
	vals := [5]int{t.Minute(), t.Hour(), t.Day(), int(t.Month()), int(t.Weekday())}
	for i, set := range c {
		if set != nil && !set[vals[i]] {
			return false
		}
	}
	return true
}
