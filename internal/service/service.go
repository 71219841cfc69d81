// Package service wires configuration, credentials, limiters, aggregation,
// and classification into complete runs.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/doccatalog/internal/aggregate"
	"git.home.luguber.info/inful/doccatalog/internal/catalog"
	"git.home.luguber.info/inful/doccatalog/internal/config"
	"git.home.luguber.info/inful/doccatalog/internal/content"
	"git.home.luguber.info/inful/doccatalog/internal/credentials"
	"git.home.luguber.info/inful/doccatalog/internal/extension"
	"git.home.luguber.info/inful/doccatalog/internal/gitsource"
	"git.home.luguber.info/inful/doccatalog/internal/limiter"
	"git.home.luguber.info/inful/doccatalog/internal/logfields"
	"git.home.luguber.info/inful/doccatalog/internal/metrics"
)

// Service runs the aggregation pipeline end to end.
type Service struct {
	cfg   *config.Config
	hooks *extension.Hooks
	rec   metrics.Recorder
}

// New creates a service. hooks and rec may be nil.
func New(cfg *config.Config, hooks *extension.Hooks, rec metrics.Recorder) *Service {
	if rec == nil {
		rec = metrics.Noop{}
	}
	return &Service{cfg: cfg, hooks: hooks, rec: rec}
}

// Result is one completed run.
type Result struct {
	RunID   string
	Catalog *catalog.Catalog
	Buckets []*content.Bucket
	Elapsed time.Duration
}

// Run aggregates all configured sources and classifies them into a catalog.
func (s *Service) Run(ctx context.Context) (*Result, error) {
	runID := uuid.NewString()
	start := time.Now()
	slog.Info("Starting aggregation run", logfields.RunID(runID),
		slog.Int("sources", len(s.cfg.Content.Sources)))

	store, err := credentials.Open(s.cfg.Git.Credentials)
	if err != nil {
		return nil, err
	}
	fetchLim := limiter.New("fetch", s.cfg.Git.FetchConcurrency)
	readLim := limiter.New("read", s.cfg.Git.ReadConcurrency)
	resolver := gitsource.NewResolver(s.cfg, fetchLim, store)

	buckets, err := aggregate.New(s.cfg, resolver, readLim, s.hooks, s.rec).Run(ctx)
	if err != nil {
		slog.Error("Aggregation failed", logfields.RunID(runID), logfields.Error(err))
		return nil, err
	}

	classifyStart := time.Now()
	cat, err := catalog.NewClassifier(s.cfg, s.rec).Classify(buckets)
	if err != nil {
		slog.Error("Classification failed", logfields.RunID(runID), logfields.Error(err))
		return nil, err
	}
	s.rec.PhaseDuration("classify", time.Since(classifyStart))

	if err := s.hooks.FireCatalogBuilt(ctx, &extension.CatalogBuiltContext{Buckets: buckets}); err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	slog.Info("Aggregation run complete", logfields.RunID(runID),
		slog.Int("components", len(cat.GetComponents())),
		slog.Int("warnings", len(cat.Warnings)),
		slog.Duration("elapsed", elapsed))
	return &Result{RunID: runID, Catalog: cat, Buckets: buckets, Elapsed: elapsed}, nil
}
