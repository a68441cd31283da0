package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/timmy/artmatch/internal/app"
	"github.com/timmy/artmatch/internal/config"
	"github.com/timmy/artmatch/internal/domain"
	"github.com/timmy/artmatch/internal/logger"
	"github.com/timmy/artmatch/internal/service"
)

func main() {
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "text",
		Output:      os.Stderr,
		ServiceName: "artmatch-cli",
	})
	logger.SetDefaultLogger(appLogger)

	analysisPath := flag.String("analysis", "", "Path to a poem analysis JSON file")
	poemPath := flag.String("poem", "", "Path to a plain-text poem, analyzed by keyword")
	title := flag.String("title", "", "Poem title, used with -poem")
	poet := flag.String("poet", "", "Poet name, used with -poem")
	sourceType := flag.String("source", "", "Candidate source: wikidata or catalog (default from config)")
	count := flag.Int("count", 0, "Number of matches to return (default from config)")
	minScore := flag.Float64("min-score", -1, "Acceptance threshold in [0,1] (default from config)")
	explain := flag.Bool("explain", false, "Attach an explanation to each match")
	archive := flag.Bool("archive", false, "Upload the run report to object storage")
	progress := flag.Bool("progress", false, "Log progress events")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}
	if *minScore >= 0 {
		if *minScore > 1 {
			appLogger.Fatalf("-min-score must be in [0,1], got %v", *minScore)
		}
		cfg.Matcher.MinScore = *minScore
	}

	analysis, err := loadAnalysis(*analysisPath, *poemPath, *title, *poet)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to read poem")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Received shutdown signal, canceling...")
		cancel()
	}()

	a, err := app.New(ctx, cfg, &app.Options{Source: *sourceType, Archive: *archive})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize matching pipeline")
	}
	defer a.Close()

	req := service.MatchRequest{
		Analysis: analysis,
		Count:    *count,
		Explain:  *explain,
	}
	if *progress {
		req.Progress = func(e service.ProgressEvent) {
			appLogger.WithFields(logger.Fields{
				"stage":              e.Stage,
				logger.FieldStrategy: e.Strategy,
				"done":               e.Done,
				"total":              e.Total,
			}).Info("Progress")
		}
	}

	result, err := a.Orchestrator.Match(ctx, req)
	if err != nil {
		appLogger.WithError(err).Fatal("Match failed")
	}

	run, err := a.Recorder.Record(ctx, analysis, result)
	if err != nil {
		appLogger.WithError(err).Error("Failed to record run")
	}

	appLogger.WithFields(logger.Fields{
		logger.FieldRunID:    result.RunID,
		logger.FieldStrategy: result.Strategy,
		"reason":             result.Reason,
		"attempts":           result.Attempts,
		logger.FieldCount:    len(result.Matches),
	}).Info("Match completed")

	out := map[string]interface{}{
		"run_id":   result.RunID,
		"strategy": result.Strategy,
		"reason":   result.Reason,
		"attempts": result.Attempts,
		"matches":  result.Matches,
	}
	if run != nil && run.ReportKey != "" {
		out["report_key"] = run.ReportKey
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		appLogger.WithError(err).Fatal("Failed to write result")
	}

	if result.Reason == domain.RunReasonNoCandidates {
		_ = a.Close()
		os.Exit(2)
	}
}

// loadAnalysis reads a structured analysis, or analyzes raw poem text when
// only -poem is given.
func loadAnalysis(analysisPath, poemPath, title, poet string) (*domain.PoemAnalysis, error) {
	switch {
	case analysisPath != "":
		data, err := os.ReadFile(analysisPath)
		if err != nil {
			return nil, err
		}
		return domain.ParsePoemAnalysis(data)
	case poemPath != "":
		data, err := os.ReadFile(poemPath)
		if err != nil {
			return nil, err
		}
		return service.NewKeywordAnalyzer().Analyze(title, poet, string(data)), nil
	default:
		return nil, fmt.Errorf("one of -analysis or -poem is required")
	}
}
