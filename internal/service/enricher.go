package service

import (
	"context"
	"errors"

	"github.com/timmy/artmatch/internal/cache"
	"github.com/timmy/artmatch/internal/domain"
	"github.com/timmy/artmatch/internal/logger"
	"github.com/timmy/artmatch/internal/metrics"
)

// ErrNoImage is returned when a candidate has no image to analyze.
var ErrNoImage = errors.New("candidate has no image")

// visionNamespace scopes enrichment results in the shared cache.
const visionNamespace = "vision"

// Enricher extracts visual attributes from a candidate's image.
// A nil result with a nil error means nothing could be extracted.
type Enricher interface {
	Enrich(ctx context.Context, candidate domain.Candidate) (*domain.VisualAttributes, error)
}

// NoopEnricher never produces attributes. It disables pass 2 without
// changing the scheduler's flow.
type NoopEnricher struct{}

// Enrich returns no attributes.
func (NoopEnricher) Enrich(ctx context.Context, candidate domain.Candidate) (*domain.VisualAttributes, error) {
	return nil, nil
}

// CachingEnricher memoizes another enricher by image URL, first in process
// and then, when configured, in Redis.
type CachingEnricher struct {
	next   Enricher
	local  *cache.Bounded[*domain.VisualAttributes]
	shared *cache.RedisStore
}

// NewCachingEnricher wraps next with a bounded cache.
// Parameters:
//   - next: enricher called on a miss.
//   - capacity: in-process cache capacity.
//   - shared: optional Redis tier; nil disables it.
// Returns:
//   - *CachingEnricher: wrapped enricher.
func NewCachingEnricher(next Enricher, capacity int, shared *cache.RedisStore) *CachingEnricher {
	return &CachingEnricher{
		next:   next,
		local:  cache.New[*domain.VisualAttributes](capacity),
		shared: shared,
	}
}

// Enrich returns cached attributes or delegates to the wrapped enricher.
// Errors are not cached.
func (e *CachingEnricher) Enrich(ctx context.Context, candidate domain.Candidate) (*domain.VisualAttributes, error) {
	if !candidate.HasImage() {
		return nil, ErrNoImage
	}
	key := cache.Key(visionNamespace, cache.Params{"image": candidate.ImageURL})

	if v, ok := e.local.Get(key); ok {
		metrics.CacheLookups.WithLabelValues(visionNamespace, metrics.CacheResult(true)).Inc()
		return v, nil
	}
	metrics.CacheLookups.WithLabelValues(visionNamespace, metrics.CacheResult(false)).Inc()

	return e.local.GetOrLoad(ctx, key, func(ctx context.Context) (*domain.VisualAttributes, error) {
		if e.shared != nil {
			var v domain.VisualAttributes
			found, err := e.shared.GetJSON(ctx, visionNamespace, key, &v)
			if err != nil {
				logger.CtxWarn(ctx, "Shared vision cache read failed: %v", err)
			} else if found {
				metrics.CacheLookups.WithLabelValues("vision_shared", metrics.CacheResult(true)).Inc()
				return &v, nil
			}
		}

		v, err := e.next.Enrich(ctx, candidate)
		if err != nil {
			return nil, err
		}

		if e.shared != nil && v != nil {
			if err := e.shared.SetJSON(ctx, visionNamespace, key, v); err != nil {
				logger.CtxWarn(ctx, "Shared vision cache write failed: %v", err)
			}
		}
		return v, nil
	})
}

// Stats exposes the in-process cache counters.
func (e *CachingEnricher) Stats() cache.Stats {
	return e.local.Stats()
}
