package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/timmy/artmatch/internal/domain"
	"github.com/timmy/artmatch/internal/logger"
	"github.com/timmy/artmatch/internal/metrics"
)

// ErrBudgetExceeded is returned when a call would push the day's vision
// spend past the configured limit.
var ErrBudgetExceeded = errors.New("daily vision budget exceeded")

const (
	defaultDailyLimitUSD = 2.0
	softLimitFraction    = 0.8
	dayFormat            = "2006-01-02"
)

// modelPricing is USD per token for input and output.
var modelPricing = map[string]struct{ input, output float64 }{
	"gpt-4o":      {input: 2.50 / 1_000_000, output: 10.00 / 1_000_000},
	"gpt-4o-mini": {input: 0.15 / 1_000_000, output: 0.60 / 1_000_000},
}

// EstimateCost prices tokens for a model, assuming an even input/output split.
// Unknown models are priced as gpt-4o-mini.
func EstimateCost(tokens int, model string) float64 {
	rate, ok := modelPricing[model]
	if !ok {
		rate = modelPricing["gpt-4o-mini"]
	}
	return float64(tokens) * (rate.input + rate.output) / 2
}

// SpendStore persists the running spend per UTC day.
type SpendStore interface {
	Get(ctx context.Context, day string) (*domain.DailySpend, error)
	Add(ctx context.Context, day string, costUSD float64, tokens int) error
}

// CostGuard enforces a per-day budget on vision spend.
type CostGuard struct {
	mu     sync.Mutex
	limit  float64
	store  SpendStore
	now    func() time.Time
	day    string
	spent  float64
	// reserved is held by calls in flight; it counts against the limit
	// until they commit or release.
	reserved float64
	warned   bool
}

// NewCostGuard creates a guard. A non-positive limit uses the $2 default and
// a nil store keeps the total in memory only.
func NewCostGuard(limitUSD float64, store SpendStore) *CostGuard {
	if limitUSD <= 0 {
		limitUSD = defaultDailyLimitUSD
	}
	return &CostGuard{limit: limitUSD, store: store, now: time.Now}
}

// Limit returns the daily limit in USD.
func (g *CostGuard) Limit() float64 {
	return g.limit
}

// Spent returns today's spend.
func (g *CostGuard) Spent(ctx context.Context) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rollLocked(ctx)
	return g.spent
}

// CheckBudget returns ErrBudgetExceeded when spending estimate more today
// would pass the limit. Reservations in flight count as spent. It warns once
// per day past 80% of the limit.
func (g *CostGuard) CheckBudget(ctx context.Context, estimate float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rollLocked(ctx)
	return g.checkLocked(ctx, estimate)
}

// Reserve checks the budget and holds estimate against it until the
// returned reservation is committed or released. Concurrent callers cannot
// all pass the check on the same remaining budget.
func (g *CostGuard) Reserve(ctx context.Context, estimate float64) (*Reservation, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rollLocked(ctx)
	if err := g.checkLocked(ctx, estimate); err != nil {
		return nil, err
	}
	g.reserved += estimate
	return &Reservation{guard: g, day: g.day, amount: estimate}, nil
}

func (g *CostGuard) checkLocked(ctx context.Context, estimate float64) error {
	committed := g.spent + g.reserved
	projected := committed + estimate
	if projected > g.limit {
		return fmt.Errorf("%w: $%.4f + $%.4f > $%.2f", ErrBudgetExceeded, committed, estimate, g.limit)
	}
	if !g.warned && projected > softLimitFraction*g.limit {
		g.warned = true
		logger.With(logger.Fields{
			"projected_usd": projected,
			"limit_usd":     g.limit,
		}).Warn(ctx, "Vision spend approaching daily limit")
	}
	return nil
}

// Reservation is an estimate held against a CostGuard for one call.
type Reservation struct {
	guard  *CostGuard
	day    string
	amount float64
	once   sync.Once
}

// Release returns the held estimate to the budget. It is safe to call more
// than once and after Commit.
func (r *Reservation) Release() {
	if r == nil {
		return
	}
	r.once.Do(func() {
		g := r.guard
		g.mu.Lock()
		defer g.mu.Unlock()
		// A rollover has already dropped the previous day's holds.
		if g.day != r.day {
			return
		}
		g.reserved -= r.amount
		if g.reserved < 0 {
			g.reserved = 0
		}
	})
}

// Commit replaces the held estimate with the actual cost of the call and
// returns that cost.
func (r *Reservation) Commit(ctx context.Context, tokens int, model string) float64 {
	r.Release()
	return r.guard.Track(ctx, tokens, model)
}

// Track records the cost of a completed call and returns it.
func (g *CostGuard) Track(ctx context.Context, tokens int, model string) float64 {
	cost := EstimateCost(tokens, model)

	g.mu.Lock()
	g.rollLocked(ctx)
	g.spent += cost
	total := g.spent
	day := g.day
	g.mu.Unlock()

	metrics.VisionTokens.WithLabelValues(model).Add(float64(tokens))
	metrics.VisionCost.WithLabelValues(model).Add(cost)

	if g.store != nil {
		if err := g.store.Add(ctx, day, cost, tokens); err != nil {
			logger.CtxWarn(ctx, "Failed to persist vision spend: %v", err)
		}
	}

	logger.With(logger.Fields{
		"tokens":          tokens,
		"model":           model,
		"daily_total_usd": total,
	}).WithCost(cost).Debug(ctx, "Vision cost tracked")
	return cost
}

// rollLocked resets the total when the UTC day changes, loading any
// persisted spend for the new day.
func (g *CostGuard) rollLocked(ctx context.Context) {
	today := g.now().UTC().Format(dayFormat)
	if today == g.day {
		return
	}
	g.day = today
	g.spent = 0
	g.reserved = 0
	g.warned = false

	if g.store == nil {
		return
	}
	spend, err := g.store.Get(ctx, today)
	if err != nil {
		logger.CtxWarn(ctx, "Failed to load vision spend: %v", err)
		return
	}
	g.spent = spend.CostUSD
}
