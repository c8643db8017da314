package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/portfolio-scout/internal/crawler"
	"github.com/sells-group/portfolio-scout/internal/extract"
	"github.com/sells-group/portfolio-scout/internal/pipeline"
	"github.com/sells-group/portfolio-scout/internal/planner"
	"github.com/sells-group/portfolio-scout/internal/resilience"
	"github.com/sells-group/portfolio-scout/internal/store"
	"github.com/sells-group/portfolio-scout/pkg/renderer"
)

// pipelineEnv holds the initialized store and pipeline needed by the
// scrape/serve commands.
type pipelineEnv struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	pe.Pipeline.WaitHistory()
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initStore opens and migrates the local SQLite store.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.NewSQLite(cfg.Store.Path,
		store.WithTTL(time.Duration(cfg.Crawl.CacheTTLHours)*time.Hour),
	)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// initPipeline sets up the store, renderer client, and all pipeline stages.
// Callers should defer env.Close().
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	if cfg.Renderer.Key == "" {
		return nil, eris.New("renderer key not set (PORTFOLIO_RENDERER_KEY)")
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	rc := renderer.NewClient(cfg.Renderer.Key,
		renderer.WithBaseURL(cfg.Renderer.BaseURL),
		renderer.WithRateLimit(cfg.Renderer.RatePerSec, cfg.Renderer.RateBurst),
	)

	plan := planner.New(time.Duration(cfg.Renderer.ProbeTimeout) * time.Second)
	orch := crawler.New(rc, st, plan,
		time.Duration(cfg.Crawl.PollIntervalSecs)*time.Second,
		cfg.Crawl.MaxPollAttempts,
	)
	health := resilience.NewTracker(0, 0)
	engine := extract.NewEngine(rc, st, health, cfg.Extract.MinListingRecords)

	return &pipelineEnv{
		Store:    st,
		Pipeline: pipeline.New(cfg, st, orch, engine),
	}, nil
}
