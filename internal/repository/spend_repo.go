package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/timmy/artmatch/internal/domain"
)

// SpendRepository stores the running vision spend per day.
type SpendRepository struct {
	db *gorm.DB
}

// NewSpendRepository creates a new SpendRepository.
func NewSpendRepository(db *gorm.DB) *SpendRepository {
	return &SpendRepository{db: db}
}

// Get returns the spend for a day. A day with no spend yields a zero record.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - day: UTC day formatted as 2006-01-02.
// Returns:
//   - *domain.DailySpend: spend record, never nil on success.
//   - error: non-nil if the lookup fails.
func (r *SpendRepository) Get(ctx context.Context, day string) (*domain.DailySpend, error) {
	var spend domain.DailySpend
	err := r.db.WithContext(ctx).First(&spend, "day = ?", day).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &domain.DailySpend{Day: day}, nil
	}
	if err != nil {
		return nil, err
	}
	return &spend, nil
}

// Add increments a day's spend atomically, creating the row on first use.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - day: UTC day formatted as 2006-01-02.
//   - costUSD: cost to add.
//   - tokens: tokens to add.
// Returns:
//   - error: non-nil if the upsert fails.
func (r *SpendRepository) Add(ctx context.Context, day string, costUSD float64, tokens int) error {
	spend := &domain.DailySpend{
		Day:     day,
		CostUSD: costUSD,
		Calls:   1,
		Tokens:  tokens,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "day"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"cost_usd":   gorm.Expr("daily_spend.cost_usd + ?", costUSD),
			"calls":      gorm.Expr("daily_spend.calls + 1"),
			"tokens":     gorm.Expr("daily_spend.tokens + ?", tokens),
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		}),
	}).Create(spend).Error
}
