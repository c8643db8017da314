// Package pipeline wires discovery, extraction, and deduplication into the
// single scrape operation exposed to the UI/persistence layer.
package pipeline

import (
	"context"
	"math"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/portfolio-scout/internal/classify"
	"github.com/sells-group/portfolio-scout/internal/config"
	"github.com/sells-group/portfolio-scout/internal/crawler"
	"github.com/sells-group/portfolio-scout/internal/dedupe"
	"github.com/sells-group/portfolio-scout/internal/extract"
	"github.com/sells-group/portfolio-scout/internal/model"
	"github.com/sells-group/portfolio-scout/internal/store"
)

// historyWriteTimeout bounds the fire-and-forget history write.
const historyWriteTimeout = 10 * time.Second

// Pipeline runs one scrape request end to end.
type Pipeline struct {
	cfg          *config.Config
	store        store.Store
	orchestrator *crawler.Orchestrator
	engine       *extract.Engine

	// historyWG lets tests wait for the async history write.
	historyWG sync.WaitGroup
}

// New creates a Pipeline with all collaborators.
func New(cfg *config.Config, st store.Store, orch *crawler.Orchestrator, engine *extract.Engine) *Pipeline {
	return &Pipeline{
		cfg:          cfg,
		store:        st,
		orchestrator: orch,
		engine:       engine,
	}
}

// Run executes a full scrape for one seed URL. Hard failures are limited to
// a bad seed, a rejected crawl submission, and a poll ceiling with zero
// pages; everything else degrades to a partial, annotated success.
func (p *Pipeline) Run(ctx context.Context, seedURL string, depth, maxPages int) (result *model.ScrapeResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("pipeline: recovered from panic", zap.Any("panic", r))
			result = nil
			err = &InternalError{Cause: eris.Errorf("panic: %v", r)}
		}
	}()

	if verr := validateSeed(seedURL); verr != nil {
		return nil, verr
	}

	if maxPages <= 0 {
		maxPages = p.cfg.Crawl.MaxPages
	}
	if depth <= 0 {
		depth = p.cfg.Crawl.MaxDepth
	}

	log := zap.L().With(zap.String("seed", seedURL))
	log.Info("pipeline: starting scrape", zap.Int("depth", depth), zap.Int("max_pages", maxPages))

	run, runErr := p.store.CreateRun(ctx, seedURL)
	if runErr != nil {
		// History is best-effort; the scrape proceeds without it.
		log.Warn("pipeline: create run failed", zap.Error(runErr))
	}

	counters := &model.Counters{}

	outcome, err := p.orchestrator.Run(ctx, seedURL, depth, maxPages, counters)
	if err != nil {
		p.finishRun(run, model.RunStatusFailed, nil)
		return nil, err
	}

	records := p.extractAll(ctx, seedURL, outcome, counters)

	// Global last resort: never return a hard empty result for a reachable
	// site.
	if len(records) == 0 {
		log.Warn("pipeline: no records extracted, trying seed fallback")
		records = p.engine.SeedFallback(ctx, seedURL, counters)
	}

	// The no-empty-name invariant is enforced before dedup.
	records = dropNameless(records)

	// Dedup runs strictly after all extraction results are collected;
	// incremental merging is not sound.
	records = dedupe.Dedupe(records)
	for i := range records {
		records[i].Confidence = extract.Score(&records[i]).Confidence
	}

	stats := counters.Snapshot()
	stats.Completed = outcome.Completed
	stats.Total = outcome.Total

	result = &model.ScrapeResult{
		Success:     true,
		Partial:     outcome.Partial,
		SeedURL:     seedURL,
		Investments: records,
		CrawlStats:  stats,
		Quality:     quality(records),
	}

	log.Info("pipeline: scrape complete",
		zap.Int("investments", len(records)),
		zap.Bool("partial", result.Partial),
		zap.Float64("avg_confidence", result.Quality.AverageConfidence),
	)

	p.finishRun(run, model.RunStatusComplete, result)
	return result, nil
}

// WaitHistory blocks until pending history writes finish. Test hook.
func (p *Pipeline) WaitHistory() {
	p.historyWG.Wait()
}

// extractAll processes every classified page with a bounded worker pool.
// Page order in the output is deterministic (listing pages first, each
// partition sorted) so downstream tie-breaks don't depend on scheduling.
func (p *Pipeline) extractAll(ctx context.Context, seedURL string, outcome *crawler.Outcome, counters *model.Counters) []model.InvestmentRecord {
	byURL := make(map[string]model.CrawledPage, len(outcome.Pages))
	for _, pg := range outcome.Pages {
		byURL[pg.URL] = pg
	}

	type task struct {
		page model.CrawledPage
		kind classify.Kind
	}
	var tasks []task
	for _, u := range sorted(outcome.Classified.Listing) {
		tasks = append(tasks, task{page: pageFor(byURL, u), kind: classify.KindListing})
	}
	for _, u := range sorted(outcome.Classified.Detail) {
		tasks = append(tasks, task{page: pageFor(byURL, u), kind: classify.KindDetail})
	}

	concurrency := p.cfg.Extract.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	results := make([][]model.InvestmentRecord, len(tasks))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, t := range tasks {
		g.Go(func() error {
			records := p.engine.ExtractPage(gCtx, t.page, t.kind, counters)
			if len(records) > 0 {
				counters.SuccessfulPages.Add(1)
			} else {
				counters.FailedPages.Add(1)
			}
			results[i] = records
			return nil
		})
	}
	_ = g.Wait()

	var all []model.InvestmentRecord
	for _, rs := range results {
		all = append(all, rs...)
	}
	return all
}

// finishRun emits the history event without blocking the caller. The core
// must not fail because of, or wait on, that write.
func (p *Pipeline) finishRun(run *model.Run, status model.RunStatus, result *model.ScrapeResult) {
	if run == nil {
		return
	}
	p.historyWG.Add(1)
	go func() {
		defer p.historyWG.Done()
		ctx, cancel := context.WithTimeout(context.Background(), historyWriteTimeout)
		defer cancel()
		if err := p.store.CompleteRun(ctx, run.ID, status, result); err != nil {
			zap.L().Warn("pipeline: history write failed",
				zap.String("run_id", run.ID), zap.Error(err))
		}
	}()
}

func validateSeed(seedURL string) error {
	u, err := url.Parse(strings.TrimSpace(seedURL))
	if err != nil {
		return &ValidationError{SeedURL: seedURL, Reason: "unparseable"}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ValidationError{SeedURL: seedURL, Reason: "scheme must be http or https"}
	}
	if u.Host == "" {
		return &ValidationError{SeedURL: seedURL, Reason: "missing host"}
	}
	return nil
}

func dropNameless(records []model.InvestmentRecord) []model.InvestmentRecord {
	out := records[:0]
	for _, r := range records {
		if r.HasName() {
			out = append(out, r)
		}
	}
	return out
}

func quality(records []model.InvestmentRecord) model.ExtractionQuality {
	q := model.ExtractionQuality{MethodBreakdown: make(map[string]int)}
	if len(records) == 0 {
		return q
	}
	sum := 0
	for _, r := range records {
		sum += r.Confidence
		q.MethodBreakdown[string(r.Method)]++
	}
	q.AverageConfidence = math.Round(float64(sum)/float64(len(records))*100) / 100
	return q
}

func pageFor(byURL map[string]model.CrawledPage, u string) model.CrawledPage {
	if pg, ok := byURL[u]; ok {
		return pg
	}
	return model.CrawledPage{URL: u}
}

func sorted(urls []string) []string {
	out := append([]string(nil), urls...)
	sort.Strings(out)
	return out
}
