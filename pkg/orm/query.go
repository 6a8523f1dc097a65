// Package orm is a thin query builder over gorm used by the SQL repositories.
// It adds pagination, query timing and read-through caching.
package orm

import (
	"context"
	"time"

	"github.com/gebeta-app/gebeta/pkg/cache"
	"github.com/gebeta-app/gebeta/pkg/database"
	"github.com/gebeta-app/gebeta/pkg/metrics"
	"gorm.io/gorm"
)

type Query struct {
	db *gorm.DB
}

// DB starts a query on the global connection.
func DB() *Query {
	return &Query{db: database.DB}
}

// Use starts a query on an explicit connection or transaction.
func Use(db *gorm.DB) *Query {
	return &Query{db: db}
}

func (q *Query) WithContext(ctx context.Context) *Query {
	return &Query{db: q.db.WithContext(ctx)}
}

func (q *Query) Model(v any) *Query {
	return &Query{db: q.db.Model(v)}
}

func (q *Query) Where(query any, args ...any) *Query {
	return &Query{db: q.db.Where(query, args...)}
}

func (q *Query) Order(value any) *Query {
	return &Query{db: q.db.Order(value)}
}

func (q *Query) Preload(query string, args ...any) *Query {
	return &Query{db: q.db.Preload(query, args...)}
}

// Raw exposes the underlying *gorm.DB for statements the builder lacks.
func (q *Query) Raw() *gorm.DB { return q.db }

func (q *Query) Get(dest any) error {
	defer metrics.ObserveDBQuery("select", time.Now())
	return q.db.Find(dest).Error
}

func (q *Query) First(dest any) error {
	defer metrics.ObserveDBQuery("select", time.Now())
	return q.db.First(dest).Error
}

func (q *Query) Count() (int64, error) {
	defer metrics.ObserveDBQuery("select", time.Now())
	var n int64
	err := q.db.Session(&gorm.Session{}).Count(&n).Error
	return n, err
}

// Pluck loads a single column into dest (a slice).
func (q *Query) Pluck(column string, dest any) error {
	defer metrics.ObserveDBQuery("select", time.Now())
	return q.db.Pluck(column, dest).Error
}

func (q *Query) Create(v any) error {
	defer metrics.ObserveDBQuery("insert", time.Now())
	return q.db.Create(v).Error
}

func (q *Query) Save(v any) error {
	defer metrics.ObserveDBQuery("update", time.Now())
	return q.db.Save(v).Error
}

// Updates applies column changes and reports how many rows matched.
func (q *Query) Updates(values any) (int64, error) {
	defer metrics.ObserveDBQuery("update", time.Now())
	res := q.db.Updates(values)
	return res.RowsAffected, res.Error
}

func (q *Query) Delete(v any) (int64, error) {
	defer metrics.ObserveDBQuery("delete", time.Now())
	res := q.db.Delete(v)
	return res.RowsAffected, res.Error
}

// Transaction runs fn inside a database transaction on db. fn receives the
// transactional handle; returning an error rolls back.
func Transaction(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	defer metrics.ObserveDBQuery("transaction", time.Now())
	return db.WithContext(ctx).Transaction(fn)
}

// GetWithPagination counts the matching rows, then loads one page into dest.
func (q *Query) GetWithPagination(dest any, page, limit int) (Pagination, error) {
	page, limit = Normalize(page, limit)

	total, err := q.Count()
	if err != nil {
		return Pagination{}, err
	}

	defer metrics.ObserveDBQuery("select", time.Now())
	if err := q.db.Session(&gorm.Session{}).Offset((page - 1) * limit).Limit(limit).Find(dest).Error; err != nil {
		return Pagination{}, err
	}

	return NewPagination(page, limit, total), nil
}

// Cache serves dest from Redis when possible, otherwise runs the query and
// stores the result for ttl.
func (q *Query) Cache(key string, ttl time.Duration, dest any) error {
	if cache.Get(key, dest) {
		return nil
	}

	if err := q.Get(dest); err != nil {
		return err
	}

	_ = cache.Set(key, dest, ttl)
	return nil
}
