package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/timmy/artmatch/internal/domain"
	"github.com/timmy/artmatch/internal/logger"
	"github.com/timmy/artmatch/internal/matcher"
	"github.com/timmy/artmatch/internal/metrics"
)

const (
	defaultWorkers       = 4
	defaultEnrichTimeout = 30 * time.Second

	// Metadata thresholds past which a candidate is described well enough
	// that image analysis is not worth its cost.
	richSubjectCodes     = 3
	richGenreCodes       = 2
	richDepictedSubjects = 3
	richTextLength       = 10
)

// Scheduler ranks candidates in two passes: a metadata-only pass over all of
// them, then image enrichment for the most promising few.
type Scheduler struct {
	filter        *matcher.Filter
	scorer        *matcher.Scorer
	enricher      Enricher
	workers       int
	enrichTimeout time.Duration
}

// SchedulerConfig holds configuration for the scheduler.
type SchedulerConfig struct {
	Workers       int
	EnrichTimeout time.Duration
}

// NewScheduler creates a scheduler. A nil enricher disables pass 2.
func NewScheduler(filter *matcher.Filter, scorer *matcher.Scorer, enricher Enricher, cfg *SchedulerConfig) *Scheduler {
	if enricher == nil {
		enricher = NoopEnricher{}
	}
	s := &Scheduler{
		filter:        filter,
		scorer:        scorer,
		enricher:      enricher,
		workers:       defaultWorkers,
		enrichTimeout: defaultEnrichTimeout,
	}
	if cfg != nil {
		if cfg.Workers > 0 {
			s.workers = cfg.Workers
		}
		if cfg.EnrichTimeout > 0 {
			s.enrichTimeout = cfg.EnrichTimeout
		}
	}
	return s
}

// Scorer returns the scheduler's scorer.
func (s *Scheduler) Scorer() *matcher.Scorer {
	return s.scorer
}

// RankRequest is the input to Rank.
type RankRequest struct {
	Analysis   *domain.PoemAnalysis
	Candidates []domain.Candidate
	MinScore   float64
	// Budget is how many candidates may be enriched. Zero skips pass 2.
	Budget int
	// Bonus is added to every score before clamping and thresholding.
	Bonus    float64
	Progress ProgressFunc
}

// RankAndEnrich filters, scores, selectively enriches and thresholds
// candidates. The result is sorted by descending score with ties in input
// order.
func (s *Scheduler) RankAndEnrich(ctx context.Context, analysis *domain.PoemAnalysis, candidates []domain.Candidate, minScore float64, budget int) ([]domain.ScoredMatch, error) {
	return s.Rank(ctx, RankRequest{
		Analysis:   analysis,
		Candidates: candidates,
		MinScore:   minScore,
		Budget:     budget,
	})
}

// Rank is RankAndEnrich with a flat bonus and progress reporting.
func (s *Scheduler) Rank(ctx context.Context, req RankRequest) ([]domain.ScoredMatch, error) {
	if req.Analysis == nil {
		return nil, errors.New("analysis is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	birth, death := req.Analysis.PoetBirth(), req.Analysis.PoetDeath()

	// Pass 1: metadata only.
	pass1 := s.runPool(ctx, len(req.Candidates), func(i int) (scoredItem, bool) {
		c := req.Candidates[i]
		c.Visual = nil
		if !s.filter.IsEligible(req.Analysis, &c) {
			return scoredItem{}, false
		}
		score := clampScore(s.scorer.Score(req.Analysis, &c, birth, death) + req.Bonus)
		return scoredItem{match: domain.ScoredMatch{Candidate: c, Score: score}}, true
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	metrics.CandidatesScored.WithLabelValues("metadata").Add(float64(countKept(pass1)))
	metrics.CandidatesRejected.WithLabelValues("metadata").Add(float64(len(req.Candidates) - countKept(pass1)))

	ranked := collect(pass1)
	sortMatches(ranked)
	req.Progress.emit(ProgressEvent{Stage: StageScored, Done: len(ranked), Total: len(req.Candidates)})

	// Pass 2: enrich the top candidates that lack descriptive metadata.
	targets := enrichmentTargets(ranked, req.Budget)
	if len(targets) > 0 {
		req.Progress.emit(ProgressEvent{Stage: StageEnriching, Total: len(targets)})

		pass2 := s.runPool(ctx, len(targets), func(i int) (scoredItem, bool) {
			base := ranked[targets[i]]
			item := scoredItem{match: base, rank: targets[i]}

			visual, ok := s.enrich(ctx, base.Candidate)
			if !ok {
				return item, true
			}
			c := base.Candidate.WithVisual(visual)
			if !s.filter.IsEligible(req.Analysis, &c) {
				item.rejected = true
				return item, true
			}
			item.match = domain.ScoredMatch{
				Candidate: c,
				Score:     clampScore(s.scorer.Score(req.Analysis, &c, birth, death) + req.Bonus),
				Enriched:  true,
			}
			return item, true
		})
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rejected := make(map[int]bool)
		enriched := 0
		for _, item := range pass2 {
			if !item.ok {
				continue
			}
			if item.rejected {
				rejected[item.rank] = true
				continue
			}
			if item.match.Enriched {
				enriched++
			}
			ranked[item.rank] = item.match
		}
		metrics.CandidatesScored.WithLabelValues("visual").Add(float64(enriched))
		metrics.CandidatesRejected.WithLabelValues("visual").Add(float64(len(rejected)))

		if len(rejected) > 0 {
			kept := ranked[:0]
			for i, m := range ranked {
				if !rejected[i] {
					kept = append(kept, m)
				}
			}
			ranked = kept
		}
		sortMatches(ranked)
		req.Progress.emit(ProgressEvent{Stage: StageEnriched, Done: enriched, Total: len(targets)})
	}

	out := ranked[:0]
	for _, m := range ranked {
		if m.Score >= req.MinScore {
			out = append(out, m)
		}
	}

	logger.With(logger.Fields{
		logger.FieldCount: len(out),
		"candidates":      len(req.Candidates),
		"enrich_targets":  len(targets),
	}).WithDuration(time.Since(start).Milliseconds()).Debug(ctx, "Ranked candidates")

	req.Progress.emit(ProgressEvent{Stage: StageRanked, Done: len(out), Total: len(req.Candidates)})
	return out, nil
}

// enrich calls the enricher with a timeout. Any failure is soft.
func (s *Scheduler) enrich(ctx context.Context, c domain.Candidate) (*domain.VisualAttributes, bool) {
	callCtx, cancel := context.WithTimeout(ctx, s.enrichTimeout)
	defer cancel()

	start := time.Now()
	visual, err := s.enricher.Enrich(callCtx, c)
	metrics.EnrichmentDuration.Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		outcome := "error"
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			outcome = "timeout"
		case errors.Is(err, ErrBudgetExceeded):
			outcome = "budget"
		case errors.Is(err, ErrImageRejected), errors.Is(err, ErrNoImage):
			outcome = "rejected_image"
		}
		metrics.Enrichments.WithLabelValues(outcome).Inc()
		logger.With(nil).WithCandidate(c.ID).WithStatus(outcome).
			Warn(ctx, "Enrichment failed, keeping metadata score: %v", err)
		return nil, false
	case visual == nil:
		metrics.Enrichments.WithLabelValues("empty").Inc()
		return nil, false
	default:
		metrics.Enrichments.WithLabelValues("success").Inc()
		return visual, true
	}
}

// NeedsEnrichment reports whether image analysis could add information the
// candidate's metadata lacks.
func NeedsEnrichment(c *domain.Candidate) bool {
	if !c.HasImage() {
		return false
	}
	if len(c.SubjectCodes) >= richSubjectCodes ||
		len(c.GenreCodes) >= richGenreCodes ||
		len(c.DepictedSubjects) >= richDepictedSubjects {
		return false
	}
	if len(c.Style) > richTextLength && len(c.Medium) > richTextLength {
		return false
	}
	return true
}

// enrichmentTargets returns the ranked indices of up to budget candidates
// worth enriching, best first.
func enrichmentTargets(ranked []domain.ScoredMatch, budget int) []int {
	if budget <= 0 {
		return nil
	}
	var out []int
	for i := range ranked {
		if len(out) == budget {
			break
		}
		if NeedsEnrichment(&ranked[i].Candidate) {
			out = append(out, i)
		}
	}
	return out
}

type scoredItem struct {
	match    domain.ScoredMatch
	rank     int
	rejected bool
	ok       bool
}

type poolResult struct {
	index int
	item  scoredItem
}

// runPool applies fn to indices [0,n) on the worker pool. The result slice is
// indexed like the input; entries fn declined have ok == false.
func (s *Scheduler) runPool(ctx context.Context, n int, fn func(i int) (scoredItem, bool)) []scoredItem {
	out := make([]scoredItem, n)
	if n == 0 {
		return out
	}

	workers := s.workers
	if workers > n {
		workers = n
	}

	jobs := make(chan int, workers*2)
	results := make(chan poolResult, workers*2)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					continue
				}
				item, ok := fn(i)
				item.ok = ok
				results <- poolResult{index: i, item: item}
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		for r := range results {
			out[r.index] = r.item
		}
		close(done)
	}()

feed:
	for i := 0; i < n; i++ {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	close(results)
	<-done
	return out
}

func collect(items []scoredItem) []domain.ScoredMatch {
	out := make([]domain.ScoredMatch, 0, len(items))
	for _, item := range items {
		if item.ok {
			out = append(out, item.match)
		}
	}
	return out
}

func countKept(items []scoredItem) int {
	n := 0
	for _, item := range items {
		if item.ok {
			n++
		}
	}
	return n
}

func sortMatches(matches []domain.ScoredMatch) {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
}

func clampScore(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
