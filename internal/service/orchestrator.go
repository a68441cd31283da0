package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/timmy/artmatch/internal/cache"
	"github.com/timmy/artmatch/internal/domain"
	"github.com/timmy/artmatch/internal/logger"
	"github.com/timmy/artmatch/internal/matcher"
	"github.com/timmy/artmatch/internal/metrics"
	"github.com/timmy/artmatch/internal/source"
)

// directMatchBonus is added to every score from a direct subject match.
const directMatchBonus = 0.5

const (
	defaultMatchCount     = 1
	defaultCandidateLimit = 50
	defaultQueryCapacity  = 256
)

// ErrInvalidRequest is returned for requests the orchestrator cannot run.
var ErrInvalidRequest = errors.New("invalid match request")

// Strategy is one row of the fallback table.
type Strategy struct {
	Name              string
	CandidateTypes    []string
	PopularityCeiling int
	MinScore          float64
	// DirectMatch queries with theme codes only and adds a flat bonus.
	DirectMatch bool
	// Random picks one candidate unconditionally. It ends the table.
	Random bool
}

var coreTypes = []string{source.TypePainting, source.TypePhotograph, source.TypeSculpture}

var broadTypes = []string{
	source.TypePainting, source.TypePhotograph, source.TypeSculpture,
	source.TypeDrawing, source.TypePrint, source.TypeMural,
}

var allTypes = []string{
	source.TypePainting, source.TypePhotograph, source.TypeSculpture,
	source.TypeDrawing, source.TypePrint, source.TypeMural,
	source.TypeDigitalArt, source.TypeIllustration,
}

// DefaultStrategies returns the fallback table for a base popularity ceiling
// and acceptance threshold. Each row is broader than the one before.
func DefaultStrategies(ceiling int, minScore float64) []Strategy {
	return []Strategy{
		{
			Name:              "direct subject match",
			CandidateTypes:    coreTypes,
			PopularityCeiling: ceiling,
			MinScore:          minScore,
			DirectMatch:       true,
		},
		{
			Name:              "broader artwork types",
			CandidateTypes:    broadTypes,
			PopularityCeiling: ceiling + 10,
			MinScore:          minScore * 0.8,
		},
		{
			Name:              "all visual art",
			CandidateTypes:    allTypes,
			PopularityCeiling: ceiling + 20,
			MinScore:          0,
		},
		{
			Name:              "random artwork",
			CandidateTypes:    allTypes,
			PopularityCeiling: ceiling + 20,
			Random:            true,
		},
	}
}

// MatchRequest is the input to Match.
type MatchRequest struct {
	Analysis *domain.PoemAnalysis
	// Count caps the number of returned matches. Zero uses the default.
	Count int
	// Strategies overrides the orchestrator's table for this request.
	Strategies []Strategy
	Explain    bool
	Progress   ProgressFunc
}

// MatchResult is the outcome of one run.
type MatchResult struct {
	RunID    string               `json:"run_id"`
	Strategy string               `json:"strategy,omitempty"`
	Reason   domain.RunReason     `json:"reason"`
	Attempts int                  `json:"attempts"`
	Matches  []domain.ScoredMatch `json:"matches"`
	Duration time.Duration        `json:"duration"`
}

// OrchestratorConfig holds configuration for the orchestrator.
type OrchestratorConfig struct {
	Strategies       []Strategy
	Count            int
	CandidateLimit   int
	EnrichmentBudget int
	QueryCapacity    int
	// Rand drives the random strategy. Nil seeds from the clock.
	Rand     *rand.Rand
	Hydrator source.Hydrator
	// Now dates the query cache for randomly ordered queries. Nil uses
	// time.Now.
	Now func() time.Time
}

// Orchestrator walks the strategy table until one produces matches.
type Orchestrator struct {
	source     source.CandidateSource
	scheduler  *Scheduler
	explainer  *matcher.Explainer
	hydrator   source.Hydrator
	strategies []Strategy
	queries    *cache.Bounded[[]domain.Candidate]

	count          int
	candidateLimit int
	budget         int

	rngMu sync.Mutex
	rng   *rand.Rand
	now   func() time.Time
}

// NewOrchestrator creates an orchestrator.
// Parameters:
//   - src: candidate source queried once per strategy.
//   - scheduler: ranks each strategy's candidates.
//   - cfg: strategy table and limits; nil uses DefaultStrategies(20, 0.4).
//
// Returns:
//   - *Orchestrator: ready to run.
func NewOrchestrator(src source.CandidateSource, scheduler *Scheduler, cfg *OrchestratorConfig) *Orchestrator {
	if cfg == nil {
		cfg = &OrchestratorConfig{}
	}
	o := &Orchestrator{
		source:         src,
		scheduler:      scheduler,
		explainer:      matcher.NewExplainer(),
		hydrator:       cfg.Hydrator,
		strategies:     cfg.Strategies,
		count:          cfg.Count,
		candidateLimit: cfg.CandidateLimit,
		budget:         cfg.EnrichmentBudget,
		rng:            cfg.Rand,
		now:            cfg.Now,
	}
	if len(o.strategies) == 0 {
		o.strategies = DefaultStrategies(20, 0.4)
	}
	if o.count <= 0 {
		o.count = defaultMatchCount
	}
	if o.candidateLimit <= 0 {
		o.candidateLimit = defaultCandidateLimit
	}
	capacity := cfg.QueryCapacity
	if capacity <= 0 {
		capacity = defaultQueryCapacity
	}
	o.queries = cache.New[[]domain.Candidate](capacity)
	if o.now == nil {
		o.now = time.Now
	}
	if o.rng == nil {
		seed := uint64(time.Now().UnixNano())
		o.rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	return o
}

// Strategies returns the default strategy table.
func (o *Orchestrator) Strategies() []Strategy {
	return o.strategies
}

// QueryCacheStats exposes the candidate query cache counters.
func (o *Orchestrator) QueryCacheStats() cache.Stats {
	return o.queries.Stats()
}

// Match finds artworks for a poem.
// Parameters:
//   - ctx: context for cancellation; the run ID is attached to its logger.
//   - req: analysis, count and options.
//
// Returns:
//   - *MatchResult: matches with the strategy that produced them. A run that
//     finds nothing has Reason no_candidates and a nil error.
//   - error: ErrInvalidRequest or the context's error.
func (o *Orchestrator) Match(ctx context.Context, req MatchRequest) (*MatchResult, error) {
	if req.Analysis == nil {
		return nil, fmt.Errorf("%w: analysis is required", ErrInvalidRequest)
	}
	if req.Count < 0 {
		return nil, fmt.Errorf("%w: count must not be negative", ErrInvalidRequest)
	}
	strategies := req.Strategies
	if len(strategies) == 0 {
		strategies = o.strategies
	}
	count := req.Count
	if count == 0 {
		count = o.count
	}

	start := time.Now()
	result := &MatchResult{RunID: uuid.New().String(), Reason: domain.RunReasonNoCandidates}
	ctx = logger.SetRunID(ctx, result.RunID)

	themeCodes := matcher.ThemeCodesFor(req.Analysis.Themes)
	allCodes := appendUniqueCodes(themeCodes, matcher.EmotionCodesFor(req.Analysis.Emotions()))
	genreCodes := matcher.GenreCodesFor(req.Analysis.EmotionalTone)

	for _, strategy := range strategies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result.Attempts++
		sctx := logger.SetStrategy(ctx, strategy.Name)
		req.Progress.emit(ProgressEvent{Stage: StageStrategy, Strategy: strategy.Name, Done: result.Attempts, Total: len(strategies)})

		if strategy.Random {
			match, ok, err := o.runRandom(sctx, req.Analysis, strategy)
			if err != nil {
				return nil, err
			}
			if ok {
				result.Strategy = strategy.Name
				result.Reason = domain.RunReasonRandomFallback
				result.Matches = []domain.ScoredMatch{match}
				metrics.StrategyAttempts.WithLabelValues(strategy.Name, "accepted").Inc()
			} else {
				metrics.StrategyAttempts.WithLabelValues(strategy.Name, "empty").Inc()
			}
			break
		}

		subjects := allCodes
		bonus := 0.0
		if strategy.DirectMatch {
			subjects = themeCodes
			bonus = directMatchBonus
		}
		if len(subjects) == 0 {
			metrics.StrategyAttempts.WithLabelValues(strategy.Name, "skipped").Inc()
			logger.CtxDebug(sctx, "No subject codes for strategy, skipping")
			continue
		}
		candidates, err := o.fetch(sctx, source.Query{
			SubjectCodes:      subjects,
			GenreCodes:        genreCodes,
			CandidateTypes:    strategy.CandidateTypes,
			PopularityCeiling: strategy.PopularityCeiling,
			Limit:             o.candidateLimit,
			RandomOrder:       true,
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			metrics.StrategyAttempts.WithLabelValues(strategy.Name, "error").Inc()
			logger.CtxWarn(sctx, "Candidate source failed, trying next strategy: %v", err)
			continue
		}
		req.Progress.emit(ProgressEvent{Stage: StageFetched, Strategy: strategy.Name, Done: len(candidates), Total: len(candidates)})
		if len(candidates) == 0 {
			metrics.StrategyAttempts.WithLabelValues(strategy.Name, "empty").Inc()
			logger.CtxInfo(sctx, "No candidates, trying next strategy")
			continue
		}

		ranked, err := o.scheduler.Rank(sctx, RankRequest{
			Analysis:   req.Analysis,
			Candidates: candidates,
			MinScore:   strategy.MinScore,
			Budget:     o.budget,
			Bonus:      bonus,
			Progress:   req.Progress,
		})
		if err != nil {
			return nil, err
		}
		if len(ranked) == 0 {
			metrics.StrategyAttempts.WithLabelValues(strategy.Name, "below_threshold").Inc()
			logger.With(logger.Fields{
				logger.FieldCount: len(candidates),
			}).Info(sctx, "No candidate passed the threshold, trying next strategy")
			continue
		}

		metrics.StrategyAttempts.WithLabelValues(strategy.Name, "accepted").Inc()
		logger.With(nil).WithCandidate(ranked[0].Candidate.ID).WithScore(ranked[0].Score).
			WithCount(len(ranked)).Debug(sctx, "Strategy accepted")
		result.Strategy = strategy.Name
		result.Reason = domain.RunReasonAccepted
		if len(ranked) > count {
			ranked = ranked[:count]
		}
		result.Matches = ranked
		break
	}

	if len(result.Matches) > 0 {
		o.finish(ctx, req, result.Matches)
	}
	if result.Matches == nil {
		result.Matches = []domain.ScoredMatch{}
	}

	result.Duration = time.Since(start)
	metrics.RunsTotal.WithLabelValues(string(result.Reason)).Inc()
	metrics.RunDuration.Observe(result.Duration.Seconds())
	for _, m := range result.Matches {
		metrics.MatchScore.Observe(m.Score)
	}

	logger.With(logger.Fields{
		logger.FieldStrategy: result.Strategy,
		logger.FieldStatus:   string(result.Reason),
		"attempts":           result.Attempts,
	}).WithCount(len(result.Matches)).WithDuration(result.Duration.Milliseconds()).Info(ctx, "Match run finished")

	req.Progress.emit(ProgressEvent{Stage: StageComplete, Strategy: result.Strategy, Done: len(result.Matches), Total: count})
	return result, nil
}

// runRandom picks one candidate from an unconstrained query and scores it
// without filtering or thresholding.
func (o *Orchestrator) runRandom(ctx context.Context, analysis *domain.PoemAnalysis, strategy Strategy) (domain.ScoredMatch, bool, error) {
	candidates, err := o.source.FetchCandidates(ctx, source.Query{
		CandidateTypes:    strategy.CandidateTypes,
		PopularityCeiling: strategy.PopularityCeiling,
		Limit:             o.candidateLimit,
		RandomOrder:       true,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.ScoredMatch{}, false, ctxErr
		}
		logger.CtxWarn(ctx, "Random candidate query failed: %v", err)
		return domain.ScoredMatch{}, false, nil
	}
	if len(candidates) == 0 {
		return domain.ScoredMatch{}, false, nil
	}

	o.rngMu.Lock()
	pick := candidates[o.rng.IntN(len(candidates))]
	o.rngMu.Unlock()

	score := o.scheduler.Scorer().Score(analysis, &pick, analysis.PoetBirth(), analysis.PoetDeath())
	return domain.ScoredMatch{Candidate: pick, Score: score}, true, nil
}

// fetch queries the source through the query cache. Failures are not cached.
// Randomly ordered results are keyed by UTC day so a fresh sample is drawn
// at least daily.
func (o *Orchestrator) fetch(ctx context.Context, q source.Query) ([]domain.Candidate, error) {
	q = q.Normalized()
	params := cache.Params{
		"source":   o.source.GetSourceID(),
		"subjects": q.SubjectCodes,
		"genres":   q.GenreCodes,
		"types":    q.CandidateTypes,
		"ceiling":  q.PopularityCeiling,
		"limit":    q.Limit,
		"offset":   q.Offset,
		"random":   q.RandomOrder,
	}
	if q.RandomOrder {
		params["day"] = o.now().UTC().Format(time.DateOnly)
	}
	key := cache.Key("candidates", params)
	if cached, ok := o.queries.Get(key); ok {
		metrics.CacheLookups.WithLabelValues("candidates", metrics.CacheResult(true)).Inc()
		return cached, nil
	}
	metrics.CacheLookups.WithLabelValues("candidates", metrics.CacheResult(false)).Inc()

	return o.queries.GetOrLoad(ctx, key, func(ctx context.Context) ([]domain.Candidate, error) {
		return o.source.FetchCandidates(ctx, q)
	})
}

// finish hydrates and explains the accepted matches in place.
func (o *Orchestrator) finish(ctx context.Context, req MatchRequest, matches []domain.ScoredMatch) {
	if o.hydrator != nil {
		candidates := make([]domain.Candidate, len(matches))
		for i := range matches {
			candidates[i] = matches[i].Candidate
		}
		hydrated := o.hydrator.Hydrate(ctx, candidates)
		if len(hydrated) == len(matches) {
			for i := range matches {
				matches[i].Candidate = hydrated[i]
			}
		}
	}
	if req.Explain {
		for i := range matches {
			matches[i].Explanation = o.explainer.Explain(req.Analysis, &matches[i].Candidate, matches[i].Score)
		}
	}
}

func appendUniqueCodes(base, extra []string) []string {
	out := make([]string, 0, len(base)+len(extra))
	seen := make(map[string]struct{}, len(base)+len(extra))
	for _, list := range [][]string{base, extra} {
		for _, code := range list {
			if _, ok := seen[code]; ok {
				continue
			}
			seen[code] = struct{}{}
			out = append(out, code)
		}
	}
	return out
}
