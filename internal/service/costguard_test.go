package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timmy/artmatch/internal/domain"
)

type memSpendStore struct {
	mu   sync.Mutex
	days map[string]*domain.DailySpend
	err  error
}

func newMemSpendStore() *memSpendStore {
	return &memSpendStore{days: make(map[string]*domain.DailySpend)}
}

func (s *memSpendStore) Get(ctx context.Context, day string) (*domain.DailySpend, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if d, ok := s.days[day]; ok {
		cp := *d
		return &cp, nil
	}
	return &domain.DailySpend{Day: day}, nil
}

func (s *memSpendStore) Add(ctx context.Context, day string, costUSD float64, tokens int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	d, ok := s.days[day]
	if !ok {
		d = &domain.DailySpend{Day: day}
		s.days[day] = d
	}
	d.CostUSD += costUSD
	d.Calls++
	d.Tokens += tokens
	return nil
}

func fixedClock(t *time.Time) func() time.Time {
	return func() time.Time { return *t }
}

func TestEstimateCost(t *testing.T) {
	assert.InDelta(t, 6.25, EstimateCost(1_000_000, "gpt-4o"), 1e-9)
	assert.InDelta(t, 0.375, EstimateCost(1_000_000, "gpt-4o-mini"), 1e-9)
	assert.Equal(t, EstimateCost(1000, "gpt-4o-mini"), EstimateCost(1000, "unknown-model"))
}

func TestCostGuardRefusesPastLimit(t *testing.T) {
	ctx := context.Background()
	g := NewCostGuard(1.0, nil)

	require.NoError(t, g.CheckBudget(ctx, 0.5))
	g.Track(ctx, 160_000, "gpt-4o") // $1.00
	assert.InDelta(t, 1.0, g.Spent(ctx), 1e-9)

	err := g.CheckBudget(ctx, 0.01)
	assert.True(t, errors.Is(err, ErrBudgetExceeded), "err = %v", err)
}

func TestCostGuardDefaultLimit(t *testing.T) {
	assert.Equal(t, 2.0, NewCostGuard(0, nil).Limit())
	assert.Equal(t, 5.0, NewCostGuard(5, nil).Limit())
}

func TestCostGuardRollsOverAtUTCMidnight(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 9, 23, 59, 0, 0, time.UTC)
	g := NewCostGuard(1.0, nil)
	g.now = fixedClock(&now)

	g.Track(ctx, 160_000, "gpt-4o")
	require.Error(t, g.CheckBudget(ctx, 0.01))

	now = now.Add(2 * time.Minute)
	assert.NoError(t, g.CheckBudget(ctx, 0.01))
	assert.Zero(t, g.Spent(ctx))
}

func TestCostGuardPersistsSpend(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
	store := newMemSpendStore()

	first := NewCostGuard(1.0, store)
	first.now = fixedClock(&now)
	first.Track(ctx, 80_000, "gpt-4o") // $0.50
	first.Track(ctx, 80_000, "gpt-4o")

	day := store.days["2024-03-09"]
	require.NotNil(t, day)
	assert.Equal(t, 2, day.Calls)
	assert.Equal(t, 160_000, day.Tokens)

	// A restarted process picks up the day's spend from the store.
	second := NewCostGuard(1.0, store)
	second.now = fixedClock(&now)
	assert.InDelta(t, 1.0, second.Spent(ctx), 1e-9)
	assert.ErrorIs(t, second.CheckBudget(ctx, 0.01), ErrBudgetExceeded)
}

func TestCostGuardStoreFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	store := newMemSpendStore()
	store.err = errors.New("disk full")
	g := NewCostGuard(1.0, store)

	assert.NoError(t, g.CheckBudget(ctx, 0.1))
	cost := g.Track(ctx, 80_000, "gpt-4o")
	assert.InDelta(t, 0.5, cost, 1e-9)
	assert.InDelta(t, 0.5, g.Spent(ctx), 1e-9)
}

func TestCostGuardReservationsCountAgainstLimit(t *testing.T) {
	ctx := context.Background()
	g := NewCostGuard(1.0, nil)

	first, err := g.Reserve(ctx, 0.4)
	require.NoError(t, err)
	second, err := g.Reserve(ctx, 0.4)
	require.NoError(t, err)

	_, err = g.Reserve(ctx, 0.4)
	assert.ErrorIs(t, err, ErrBudgetExceeded)
	assert.ErrorIs(t, g.CheckBudget(ctx, 0.4), ErrBudgetExceeded)

	second.Release()
	second.Release()
	third, err := g.Reserve(ctx, 0.4)
	require.NoError(t, err)
	third.Release()

	cost := first.Commit(ctx, 80_000, "gpt-4o") // $0.50
	assert.InDelta(t, 0.5, cost, 1e-9)
	assert.InDelta(t, 0.5, g.Spent(ctx), 1e-9)
	first.Release()
	assert.NoError(t, g.CheckBudget(ctx, 0.5))
}

func TestCostGuardConcurrentReservations(t *testing.T) {
	ctx := context.Background()
	g := NewCostGuard(1.0, nil)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := g.Reserve(ctx, 0.3); err == nil {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 3, granted)
}

func TestCostGuardRolloverDropsReservations(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 9, 23, 59, 0, 0, time.UTC)
	g := NewCostGuard(1.0, nil)
	g.now = fixedClock(&now)

	held, err := g.Reserve(ctx, 0.9)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	fresh, err := g.Reserve(ctx, 0.9)
	require.NoError(t, err)

	held.Release()
	_, err = g.Reserve(ctx, 0.2)
	assert.ErrorIs(t, err, ErrBudgetExceeded, "releasing yesterday's hold must not free today's budget")
	fresh.Release()
}
