package commands

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/wonny/dugout/backend/internal/contracts"
	"github.com/wonny/dugout/backend/internal/dataset"
	"github.com/wonny/dugout/backend/internal/external/espn"
	"github.com/wonny/dugout/backend/internal/external/statsapi"
	"github.com/wonny/dugout/backend/internal/features"
	"github.com/wonny/dugout/backend/internal/ingest"
	"github.com/wonny/dugout/backend/internal/leakage"
	"github.com/wonny/dugout/backend/internal/positions"
	"github.com/wonny/dugout/backend/pkg/config"
	"github.com/wonny/dugout/backend/pkg/database"
	"github.com/wonny/dugout/backend/pkg/logger"
	"github.com/wonny/dugout/backend/pkg/redis"
)

// pipeline wires the full stack once per command invocation
// ⭐ SSOT: 컴포넌트 조립은 여기서만
type pipeline struct {
	cfg       *config.Config
	log       *logger.Logger
	db        *database.DB
	redis     *redis.Client
	repo      *ingest.Repository
	fetcher   *ingest.Fetcher
	collector *ingest.Collector
	resolver  *positions.Resolver
	computer  *features.Computer
	auditor   *leakage.Auditor
	runs      *dataset.RunRepository
}

func newPipeline() (*pipeline, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	redisClient, err := redis.New(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	// One limiter spaces every outbound stats API request, no matter
	// how many workers are fetching.
	limiter := rate.NewLimiter(rate.Every(cfg.Ingest.RateLimitInterval), 1)
	source := statsapi.NewClient(cfg.StatsAPI, limiter, log)
	hints := espn.NewClient(cfg.ESPN, log)

	repo := ingest.NewRepository(db, log)
	cache := redis.NewCache(redisClient, "dugout")
	resolver := positions.NewResolver(repo, hints, positions.Config{
		EligibilityThreshold: cfg.Dataset.EligibilityThreshold,
		DefaultPosition:      cfg.Dataset.DefaultPosition,
	}, log).WithStore(cache)

	fetcher := ingest.NewFetcher(source, repo, cache, resolver, cfg.Ingest, log)
	collector := ingest.NewCollector(fetcher, cfg.Ingest.Workers, log)

	specs := features.NewSpecSet(cfg.Features.LongWindow, cfg.Features.ShortWindow, cfg.Features.MinHistory)
	computer := features.NewComputer(specs, cfg.Features.GoodGameCutoff, features.NewCache(), log.Zerolog())
	auditor := leakage.NewAuditor(specs, log.Zerolog())
	runs := dataset.NewRunRepository(db, log)

	return &pipeline{
		cfg:       cfg,
		log:       log,
		db:        db,
		redis:     redisClient,
		repo:      repo,
		fetcher:   fetcher,
		collector: collector,
		resolver:  resolver,
		computer:  computer,
		auditor:   auditor,
		runs:      runs,
	}, nil
}

func (p *pipeline) Close() {
	if p.redis != nil {
		p.redis.Close()
	}
	if p.db != nil {
		p.db.Close()
	}
}

// datasetBuilder assembles the builder on top of the wired pipeline
func (p *pipeline) datasetBuilder() *dataset.Builder {
	return dataset.NewBuilder(p.repo, p.resolver, p.computer, p.auditor, p.runs, p.cfg.Dataset, p.log)
}

// positionDefaults computes position-wide average vectors from every
// stored player, for cold start serving.
func (p *pipeline) positionDefaults(ctx context.Context) (*features.PositionDefaults, error) {
	playerIDs, err := p.repo.ListPlayers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}

	var all []contracts.FeatureRow
	for _, id := range playerIDs {
		tl, err := p.repo.Timeline(ctx, id)
		if err != nil {
			continue
		}
		assignment, err := p.resolver.Resolve(ctx, id)
		if err != nil {
			continue
		}
		for asOf := 0; asOf < len(tl); asOf++ {
			row, err := p.computer.Compute(tl, assignment.Primary, asOf)
			if err != nil {
				continue
			}
			all = append(all, row)
		}
	}
	return features.DefaultsFromRows(all), nil
}
