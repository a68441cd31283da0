package service

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/timmy/artmatch/internal/domain"
	"github.com/timmy/artmatch/internal/logger"
	"github.com/timmy/artmatch/internal/matcher"
	"github.com/timmy/artmatch/internal/storage"
)

// RunStore persists match runs.
type RunStore interface {
	Create(ctx context.Context, run *domain.MatchRun) error
	SetReportKey(ctx context.Context, id, key string) error
}

// RunReport is the JSON document archived for each run.
type RunReport struct {
	RunID      string               `json:"run_id"`
	CreatedAt  time.Time            `json:"created_at"`
	Analysis   *domain.PoemAnalysis `json:"analysis"`
	Strategy   string               `json:"strategy,omitempty"`
	Reason     domain.RunReason     `json:"reason"`
	Attempts   int                  `json:"attempts"`
	DurationMs int64                `json:"duration_ms"`
	Matches    []domain.ScoredMatch `json:"matches"`
}

// RunRecorder writes finished runs to the database and, when storage is
// configured, archives a JSON report.
type RunRecorder struct {
	store   RunStore
	reports storage.ObjectStorage
	prefix  string
	now     func() time.Time
}

// NewRunRecorder creates a recorder. reports may be nil.
func NewRunRecorder(store RunStore, reports storage.ObjectStorage, prefix string) *RunRecorder {
	return &RunRecorder{
		store:   store,
		reports: reports,
		prefix:  prefix,
		now:     time.Now,
	}
}

// Record persists the run. A failed report upload is logged and does not
// fail the call, since the run row is already stored.
// Returns:
//   - *domain.MatchRun: the stored row, with ReportKey set when archived.
//   - error: non-nil if the run could not be saved.
func (r *RunRecorder) Record(ctx context.Context, analysis *domain.PoemAnalysis, result *MatchResult) (*domain.MatchRun, error) {
	if result == nil || analysis == nil {
		return nil, fmt.Errorf("record run: missing result or analysis")
	}

	run := &domain.MatchRun{
		ID:         result.RunID,
		PoemTitle:  analysis.Title,
		Poet:       analysis.Poet,
		Themes:     domain.StringArray(analysis.Themes),
		Emotions:   domain.StringArray(analysis.Emotions()),
		Strategy:   result.Strategy,
		Reason:     result.Reason,
		Attempts:   result.Attempts,
		MatchCount: len(result.Matches),
		DurationMs: result.Duration.Milliseconds(),
		CreatedAt:  r.now(),
	}
	for i, m := range result.Matches {
		run.Records = append(run.Records, domain.MatchRecord{
			RunID:        result.RunID,
			Rank:         i + 1,
			CandidateID:  m.Candidate.ID,
			Title:        m.Candidate.Title,
			Artist:       m.Candidate.Artist,
			ImageURL:     m.Candidate.ImageURL,
			Score:        m.Score,
			Enriched:     m.Enriched,
			SubjectCodes: domain.StringArray(m.Candidate.SubjectCodes),
			Assessment:   matcher.Assessment(m.Score),
		})
	}

	if err := r.store.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}

	if r.reports == nil {
		return run, nil
	}

	key := path.Join(r.prefix, run.ID+".json")
	report := RunReport{
		RunID:      run.ID,
		CreatedAt:  run.CreatedAt,
		Analysis:   analysis,
		Strategy:   result.Strategy,
		Reason:     result.Reason,
		Attempts:   result.Attempts,
		DurationMs: run.DurationMs,
		Matches:    result.Matches,
	}
	if err := storage.PutJSON(ctx, r.reports, key, report); err != nil {
		logger.CtxWarn(ctx, "Failed to archive report for run %s: %v", run.ID, err)
		return run, nil
	}
	if err := r.store.SetReportKey(ctx, run.ID, key); err != nil {
		logger.CtxWarn(ctx, "Failed to save report key for run %s: %v", run.ID, err)
		return run, nil
	}
	run.ReportKey = key
	return run, nil
}
