// Package app wires configuration into a ready matching pipeline shared by
// the CLI and the API server.
package app

import (
	"context"
	"fmt"

	"github.com/timmy/artmatch/internal/cache"
	"github.com/timmy/artmatch/internal/config"
	"github.com/timmy/artmatch/internal/logger"
	"github.com/timmy/artmatch/internal/matcher"
	"github.com/timmy/artmatch/internal/repository"
	"github.com/timmy/artmatch/internal/service"
	"github.com/timmy/artmatch/internal/source"
	"github.com/timmy/artmatch/internal/source/catalog"
	"github.com/timmy/artmatch/internal/source/wikidata"
	"github.com/timmy/artmatch/internal/storage"
)

// App holds the long-lived components of a process.
type App struct {
	Config       *config.Config
	Orchestrator *service.Orchestrator
	Analyzer     *service.KeywordAnalyzer
	Recorder     *service.RunRecorder
	Runs         *repository.MatchRepository
	Source       source.CandidateSource

	redis *cache.RedisStore
}

// Options adjust wiring per binary.
type Options struct {
	// Source overrides matcher.source.
	Source string
	// Archive uploads run reports even if storage.enabled is false.
	Archive bool
}

// New builds the pipeline from configuration.
// Parameters:
//   - ctx: context for startup connections.
//   - cfg: loaded configuration.
//   - opts: per-binary overrides; may be nil.
//
// Returns:
//   - *App: wired components; call Close when done.
//   - error: non-nil if a required dependency cannot be initialized.
func New(ctx context.Context, cfg *config.Config, opts *Options) (*App, error) {
	if opts == nil {
		opts = &Options{}
	}
	log := logger.GetDefault().WithField(logger.FieldComponent, "app")
	a := &App{Config: cfg, Analyzer: service.NewKeywordAnalyzer()}

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		return nil, err
	}
	a.Runs = repository.NewMatchRepository(db)
	spend := repository.NewSpendRepository(db)

	var reports storage.ObjectStorage
	if cfg.Storage.Enabled || opts.Archive {
		reports, err = storage.NewStorage(ctx, &cfg.Storage)
		if err != nil {
			return nil, err
		}
	}
	a.Recorder = service.NewRunRecorder(a.Runs, reports, cfg.Storage.Prefix)

	if cfg.Redis.Enabled {
		a.redis, err = cache.NewRedisStore(ctx, cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
		})
		if err != nil {
			log.WithError(err).Warn("Redis unavailable, using in-process caches only")
			a.redis = nil
		}
	}

	sourceName := cfg.Matcher.Source
	if opts.Source != "" {
		sourceName = opts.Source
	}
	var hydrator source.Hydrator
	switch sourceName {
	case "catalog":
		a.Source = catalog.NewAdapter(cfg.Catalog.Path, cfg.Catalog.Seed)
	case "wikidata":
		client := wikidata.NewClient(wikidata.Config{
			Endpoint:     cfg.Wikidata.Endpoint,
			Language:     cfg.Wikidata.Language,
			UserAgent:    cfg.Wikidata.UserAgent,
			Timeout:      cfg.Wikidata.Timeout,
			RatePerSec:   cfg.Wikidata.RatePerSec,
			RetryCount:   cfg.Wikidata.RetryCount,
			RetryBackoff: cfg.Wikidata.RetryBackoff,
		})
		a.Source = wikidata.NewSource(client)
		hydrator = wikidata.NewMetadataClient(client, cfg.Cache.MetadataCapacity)
	default:
		return nil, fmt.Errorf("unknown candidate source %q", sourceName)
	}

	var enricher service.Enricher = service.NoopEnricher{}
	budget := cfg.Matcher.EnrichmentBudget
	if cfg.Vision.Enabled && cfg.Vision.APIKey != "" {
		var probe *service.ImageProbe
		if cfg.Vision.Preflight {
			probe = service.NewImageProbe(cfg.Vision.Timeout, cfg.Wikidata.UserAgent)
		}
		vision := service.NewVisionService(&service.VisionConfig{
			Model:           cfg.Vision.Model,
			APIKey:          cfg.Vision.APIKey,
			BaseURL:         cfg.Vision.BaseURL,
			Timeout:         cfg.Vision.Timeout,
			BreakerFailures: cfg.Vision.BreakerFailures,
			BreakerCooldown: cfg.Vision.BreakerCooldown,
		}, service.NewCostGuard(cfg.Vision.DailyLimitUSD, spend), probe)
		enricher = service.NewCachingEnricher(vision, cfg.Cache.VisionCapacity, a.redis)
		log.Infof("Vision enrichment enabled with model %s", vision.GetModel())
	} else {
		budget = 0
		log.Info("Vision enrichment disabled")
	}

	scheduler := service.NewScheduler(
		matcher.NewFilter(),
		matcher.NewScorer(cfg.Matcher.Weights),
		enricher,
		&service.SchedulerConfig{
			Workers:       cfg.Matcher.Workers,
			EnrichTimeout: cfg.Vision.Timeout,
		},
	)

	a.Orchestrator = service.NewOrchestrator(a.Source, scheduler, &service.OrchestratorConfig{
		Strategies:       service.DefaultStrategies(cfg.Matcher.PopularityCeiling, cfg.Matcher.MinScore),
		Count:            cfg.Matcher.Count,
		CandidateLimit:   cfg.Matcher.CandidateLimit,
		EnrichmentBudget: budget,
		QueryCapacity:    cfg.Cache.QueryCapacity,
		Hydrator:         hydrator,
	})

	log.WithField(logger.FieldSource, a.Source.GetSourceID()).Info("Matching pipeline ready")
	return a, nil
}

// Close releases connections held by the app.
func (a *App) Close() error {
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}
