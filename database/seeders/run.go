// Package seeders fills a fresh database with demo accounts, a restaurant
// with its menu and a recipe. Seeders go through the repositories, so they
// work on every store, and skip rows that already exist.
package seeders

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gebeta-app/gebeta/app/repositories"
	"github.com/gebeta-app/gebeta/pkg/logger"
)

// Seeder inserts one kind of data.
type Seeder func(ctx context.Context, store *repositories.Store) error

type entry struct {
	name string
	fn   Seeder
}

var (
	mu      sync.Mutex
	entries []entry
)

// Register adds a seeder. Seeders run in registration order.
func Register(name string, fn Seeder) {
	mu.Lock()
	defer mu.Unlock()
	entries = append(entries, entry{name: name, fn: fn})
}

// Names lists the registered seeders.
func Names() []string {
	mu.Lock()
	defer mu.Unlock()
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.name
	}
	return out
}

// RunAll runs every seeder, stopping at the first failure.
func RunAll(ctx context.Context, store *repositories.Store) error {
	mu.Lock()
	current := append([]entry(nil), entries...)
	mu.Unlock()

	for _, e := range current {
		logger.Info("seed: running", "seeder", e.name)
		if err := e.fn(ctx, store); err != nil {
			return fmt.Errorf("seeder %q: %w", e.name, err)
		}
	}
	return nil
}

// missing reports whether err means the looked-up row does not exist.
func missing(err error) (bool, error) {
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, repositories.ErrNotFound):
		return true, nil
	default:
		return false, err
	}
}

func lookupErr[T any](_ T, err error) error { return err }
