package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timmy/artmatch/internal/domain"
)

func TestCachingEnricherMemoizesByImage(t *testing.T) {
	inner := &fakeEnricher{visual: map[string]*domain.VisualAttributes{
		"Q-water": {Setting: "seascape"},
	}}
	e := NewCachingEnricher(inner, 16, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		v, err := e.Enrich(ctx, waterOnly)
		require.NoError(t, err)
		require.NotNil(t, v)
		assert.Equal(t, "seascape", v.Setting)
	}
	assert.Len(t, inner.calls, 1)
	assert.Equal(t, uint64(2), e.Stats().Hits)
}

func TestCachingEnricherDoesNotCacheErrors(t *testing.T) {
	inner := &fakeEnricher{err: errors.New("rate limited")}
	e := NewCachingEnricher(inner, 16, nil)
	ctx := context.Background()

	_, err := e.Enrich(ctx, waterOnly)
	require.Error(t, err)

	inner.err = nil
	inner.visual = map[string]*domain.VisualAttributes{"Q-water": {Setting: "seascape"}}
	v, err := e.Enrich(ctx, waterOnly)
	require.NoError(t, err)
	assert.Equal(t, "seascape", v.Setting)
	assert.Len(t, inner.calls, 2)
}

func TestCachingEnricherRequiresImage(t *testing.T) {
	inner := &fakeEnricher{}
	e := NewCachingEnricher(inner, 16, nil)

	_, err := e.Enrich(context.Background(), waterCalm)
	assert.ErrorIs(t, err, ErrNoImage)
	assert.Empty(t, inner.calls)
}

func TestNoopEnricher(t *testing.T) {
	v, err := NoopEnricher{}.Enrich(context.Background(), waterOnly)
	assert.NoError(t, err)
	assert.Nil(t, v)
}
