package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/timmy/artmatch/internal/domain"
)

// MatchRepository persists matching runs and their accepted records.
type MatchRepository struct {
	db *gorm.DB
}

// NewMatchRepository creates a new MatchRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *MatchRepository: repository instance bound to db.
func NewMatchRepository(db *gorm.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

// Create inserts a run together with its records in one transaction.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - run: run with Records populated.
// Returns:
//   - error: non-nil if the insert fails.
func (r *MatchRepository) Create(ctx context.Context, run *domain.MatchRun) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(run).Error; err != nil {
			return fmt.Errorf("failed to create run: %w", err)
		}
		return nil
	})
}

// GetByID retrieves a run and its records ordered by rank.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: run ID.
// Returns:
//   - *domain.MatchRun: run if found.
//   - error: gorm.ErrRecordNotFound when missing.
func (r *MatchRepository) GetByID(ctx context.Context, id string) (*domain.MatchRun, error) {
	var run domain.MatchRun
	err := r.db.WithContext(ctx).
		Preload("Records", func(db *gorm.DB) *gorm.DB {
			return db.Order("rank ASC")
		}).
		First(&run, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// List returns the most recent runs without their records.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - limit: maximum number of runs.
//   - offset: number of runs to skip.
// Returns:
//   - []domain.MatchRun: runs, newest first.
//   - int64: total number of runs.
//   - error: non-nil if the query fails.
func (r *MatchRepository) List(ctx context.Context, limit, offset int) ([]domain.MatchRun, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&domain.MatchRun{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var runs []domain.MatchRun
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&runs).Error
	if err != nil {
		return nil, 0, err
	}
	return runs, total, nil
}

// SetReportKey records where the run's JSON report was archived.
func (r *MatchRepository) SetReportKey(ctx context.Context, id, key string) error {
	return r.db.WithContext(ctx).
		Model(&domain.MatchRun{}).
		Where("id = ?", id).
		Update("report_key", key).Error
}

// CountByReason returns the number of runs per final reason.
func (r *MatchRepository) CountByReason(ctx context.Context) (map[domain.RunReason]int64, error) {
	var rows []struct {
		Reason domain.RunReason
		Count  int64
	}
	err := r.db.WithContext(ctx).
		Model(&domain.MatchRun{}).
		Select("reason, COUNT(*) AS count").
		Group("reason").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[domain.RunReason]int64, len(rows))
	for _, row := range rows {
		out[row.Reason] = row.Count
	}
	return out, nil
}
