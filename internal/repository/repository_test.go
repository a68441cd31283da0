package repository

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/timmy/artmatch/internal/config"
	"github.com/timmy/artmatch/internal/domain"
)

func newTestDB(t *testing.T) *config.DatabaseConfig {
	t.Helper()
	return &config.DatabaseConfig{
		Driver:      "sqlite",
		Path:        filepath.Join(t.TempDir(), "test.db"),
		AutoMigrate: true,
		LogLevel:    "silent",
	}
}

func TestMatchRepositoryRoundTrip(t *testing.T) {
	db, err := InitDB(newTestDB(t))
	if err != nil {
		t.Fatalf("InitDB() error = %v", err)
	}
	repo := NewMatchRepository(db)
	ctx := context.Background()

	run := &domain.MatchRun{
		ID:         "run-1",
		PoemTitle:  "The Harbour",
		Themes:     domain.StringArray{"water", "night"},
		Strategy:   "direct subject match",
		Reason:     domain.RunReasonAccepted,
		Attempts:   1,
		MatchCount: 2,
		Records: []domain.MatchRecord{
			{Rank: 2, CandidateID: "Q2", Score: 0.51},
			{Rank: 1, CandidateID: "Q1", Score: 0.72, SubjectCodes: domain.StringArray{"Q16970"}},
		},
	}
	if err := repo.Create(ctx, run); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.Create(ctx, &domain.MatchRun{ID: "run-2", Reason: domain.RunReasonNoCandidates, Attempts: 4}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.GetByID(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if len(got.Records) != 2 || got.Records[0].CandidateID != "Q1" {
		t.Fatalf("records = %+v", got.Records)
	}
	if len(got.Themes) != 2 || got.Themes[1] != "night" {
		t.Errorf("themes = %v", got.Themes)
	}
	if len(got.Records[0].SubjectCodes) != 1 {
		t.Errorf("subject codes = %v", got.Records[0].SubjectCodes)
	}

	if err := repo.SetReportKey(ctx, "run-1", "reports/run-1.json"); err != nil {
		t.Fatalf("SetReportKey() error = %v", err)
	}
	got, _ = repo.GetByID(ctx, "run-1")
	if got.ReportKey != "reports/run-1.json" {
		t.Errorf("report key = %q", got.ReportKey)
	}

	runs, total, err := repo.List(ctx, 10, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 2 || len(runs) != 2 {
		t.Errorf("List() = %d runs, total %d", len(runs), total)
	}

	counts, err := repo.CountByReason(ctx)
	if err != nil {
		t.Fatalf("CountByReason() error = %v", err)
	}
	if counts[domain.RunReasonAccepted] != 1 || counts[domain.RunReasonNoCandidates] != 1 {
		t.Errorf("counts = %v", counts)
	}

	if _, err := repo.GetByID(ctx, "missing"); err == nil {
		t.Error("expected error for missing run")
	}
}

func TestSpendRepositoryAccumulates(t *testing.T) {
	db, err := InitDB(newTestDB(t))
	if err != nil {
		t.Fatalf("InitDB() error = %v", err)
	}
	repo := NewSpendRepository(db)
	ctx := context.Background()

	empty, err := repo.Get(ctx, "2026-01-02")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if empty.CostUSD != 0 || empty.Day != "2026-01-02" {
		t.Errorf("empty day = %+v", empty)
	}

	if err := repo.Add(ctx, "2026-01-02", 0.25, 1000); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := repo.Add(ctx, "2026-01-02", 0.50, 2000); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := repo.Add(ctx, "2026-01-03", 1.00, 10); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	got, err := repo.Get(ctx, "2026-01-02")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if math.Abs(got.CostUSD-0.75) > 1e-9 || got.Calls != 2 || got.Tokens != 3000 {
		t.Errorf("spend = %+v", got)
	}
}

func TestGormLogLevel(t *testing.T) {
	if gormLogLevel("SILENT") != gormLogLevel("silent") {
		t.Error("level parsing should be case-insensitive")
	}
}

func TestInitDBRejectsUnknownDriver(t *testing.T) {
	if _, err := InitDB(&config.DatabaseConfig{Driver: "mysql"}); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}
