// Package migration applies and rolls back schema changes in batches,
// tracking what ran in the gebeta_migrations table.
//
//	func init() {
//	    migration.Register("20260101000000_create_users_table", migration.Tables(&models.User{}))
//	}
package migration

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/gebeta-app/gebeta/pkg/logger"
)

// Migration changes the schema one step forward or back.
type Migration interface {
	Up(db *gorm.DB) error
	Down(db *gorm.DB) error
}

type record struct {
	ID    uint      `gorm:"primaryKey;autoIncrement"`
	Name  string    `gorm:"uniqueIndex;size:255;not null"`
	Batch int       `gorm:"not null"`
	RunAt time.Time `gorm:"autoCreateTime"`
}

func (record) TableName() string { return "gebeta_migrations" }

type named struct {
	name string
	m    Migration
}

var (
	regMu    sync.Mutex
	registry []named
)

// ErrDuplicate is returned by Register for a name already taken.
var ErrDuplicate = errors.New("migration: duplicate name")

// Register adds a migration. Names are timestamp-prefixed and run in
// lexical order.
func Register(name string, m Migration) {
	regMu.Lock()
	defer regMu.Unlock()
	for _, r := range registry {
		if r.name == name {
			panic(fmt.Errorf("%w: %s", ErrDuplicate, name))
		}
	}
	registry = append(registry, named{name: name, m: m})
}

func registered() []named {
	regMu.Lock()
	defer regMu.Unlock()
	out := append([]named(nil), registry...)
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// tables is the AutoMigrate/DropTable migration for a set of models.
type tables struct {
	models []any
}

// Tables creates the given models on Up and drops them, in reverse order, on
// Down.
func Tables(models ...any) Migration { return tables{models: models} }

func (t tables) Up(db *gorm.DB) error { return db.AutoMigrate(t.models...) }

func (t tables) Down(db *gorm.DB) error {
	for i := len(t.models) - 1; i >= 0; i-- {
		if err := db.Migrator().DropTable(t.models[i]); err != nil {
			return err
		}
	}
	return nil
}

// Status is one row of migrate:status.
type Status struct {
	Name  string
	Ran   bool
	Batch int
}

// Runner applies registered migrations to one database.
type Runner struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Runner {
	return &Runner{db: db}
}

func (r *Runner) ensure(ctx context.Context) (*gorm.DB, error) {
	db := r.db.WithContext(ctx)
	if err := db.AutoMigrate(&record{}); err != nil {
		return nil, fmt.Errorf("migration: ensure table: %w", err)
	}
	return db, nil
}

func (r *Runner) ran(db *gorm.DB) (map[string]record, error) {
	var rows []record
	if err := db.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]record, len(rows))
	for _, rec := range rows {
		out[rec.Name] = rec
	}
	return out, nil
}

// Run applies every pending migration as one batch and returns their names.
func (r *Runner) Run(ctx context.Context) ([]string, error) {
	db, err := r.ensure(ctx)
	if err != nil {
		return nil, err
	}
	done, err := r.ran(db)
	if err != nil {
		return nil, fmt.Errorf("migration: read history: %w", err)
	}

	batch, err := r.lastBatch(db)
	if err != nil {
		return nil, err
	}
	batch++

	var applied []string
	for _, reg := range registered() {
		if _, ok := done[reg.name]; ok {
			continue
		}
		logger.Info("migration: up", "name", reg.name, "batch", batch)
		if err := reg.m.Up(db); err != nil {
			return applied, fmt.Errorf("migration: %s up: %w", reg.name, err)
		}
		if err := db.Create(&record{Name: reg.name, Batch: batch}).Error; err != nil {
			return applied, fmt.Errorf("migration: record %s: %w", reg.name, err)
		}
		applied = append(applied, reg.name)
	}
	return applied, nil
}

// Rollback reverts the most recent batch and returns the reverted names.
func (r *Runner) Rollback(ctx context.Context) ([]string, error) {
	db, err := r.ensure(ctx)
	if err != nil {
		return nil, err
	}
	batch, err := r.lastBatch(db)
	if err != nil || batch == 0 {
		return nil, err
	}

	var rows []record
	if err := db.Where("batch = ?", batch).Order("id desc").Find(&rows).Error; err != nil {
		return nil, err
	}
	byName := map[string]Migration{}
	for _, reg := range registered() {
		byName[reg.name] = reg.m
	}

	var reverted []string
	for _, rec := range rows {
		m, ok := byName[rec.Name]
		if !ok {
			return reverted, fmt.Errorf("migration: cannot roll back %s: not registered", rec.Name)
		}
		logger.Info("migration: down", "name", rec.Name, "batch", batch)
		if err := m.Down(db); err != nil {
			return reverted, fmt.Errorf("migration: %s down: %w", rec.Name, err)
		}
		if err := db.Delete(&rec).Error; err != nil {
			return reverted, err
		}
		reverted = append(reverted, rec.Name)
	}
	return reverted, nil
}

// Status lists every registered migration and whether it ran.
func (r *Runner) Status(ctx context.Context) ([]Status, error) {
	db, err := r.ensure(ctx)
	if err != nil {
		return nil, err
	}
	done, err := r.ran(db)
	if err != nil {
		return nil, err
	}
	var out []Status
	for _, reg := range registered() {
		rec, ok := done[reg.name]
		out = append(out, Status{Name: reg.name, Ran: ok, Batch: rec.Batch})
	}
	return out, nil
}

func (r *Runner) lastBatch(db *gorm.DB) (int, error) {
	var max struct{ Max int }
	if err := db.Model(&record{}).Select("COALESCE(MAX(batch), 0) AS max").Scan(&max).Error; err != nil {
		return 0, fmt.Errorf("migration: last batch: %w", err)
	}
	return max.Max, nil
}
