package queue

import (
	"context"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"
)

// FailedJob is a job that ran out of attempts.
type FailedJob struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	Name     string    `gorm:"size:100;not null;index" json:"name"`
	Payload  string    `gorm:"type:text;not null" json:"payload"`
	Error    string    `gorm:"type:text" json:"error"`
	Attempts int       `gorm:"not null" json:"attempts"`
	FailedAt time.Time `gorm:"not null;index" json:"failedAt"`
}

func (FailedJob) TableName() string { return "gebeta_failed_jobs" }

// FailedStore keeps failed jobs for inspection.
type FailedStore interface {
	Record(ctx context.Context, j FailedJob) error
	List(ctx context.Context) ([]FailedJob, error)
}

// GormFailedStore writes failures to gebeta_failed_jobs. The table is
// created by the migrations.
type GormFailedStore struct {
	db *gorm.DB
}

func NewGormFailedStore(db *gorm.DB) *GormFailedStore {
	return &GormFailedStore{db: db}
}

func (s *GormFailedStore) Record(ctx context.Context, j FailedJob) error {
	j.ID = 0
	return s.db.WithContext(ctx).Create(&j).Error
}

func (s *GormFailedStore) List(ctx context.Context) ([]FailedJob, error) {
	var rows []FailedJob
	err := s.db.WithContext(ctx).Order("failed_at DESC").Order("id DESC").Limit(500).Find(&rows).Error
	return rows, err
}

// MemoryFailedStore keeps failures in process memory.
type MemoryFailedStore struct {
	mu   sync.Mutex
	rows []FailedJob
}

func NewMemoryFailedStore() *MemoryFailedStore { return &MemoryFailedStore{} }

func (s *MemoryFailedStore) Record(_ context.Context, j FailedJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j.ID = uint(len(s.rows) + 1)
	s.rows = append(s.rows, j)
	return nil
}

func (s *MemoryFailedStore) List(context.Context) ([]FailedJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]FailedJob, len(s.rows))
	copy(out, s.rows)
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}
