// Package crawler drives the external renderer to discover candidate pages
// within a seed site, polling the asynchronous crawl job to completion or
// timeout.
package crawler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/portfolio-scout/internal/classify"
	"github.com/sells-group/portfolio-scout/internal/model"
	"github.com/sells-group/portfolio-scout/internal/store"
	"github.com/sells-group/portfolio-scout/pkg/renderer"
)

// State is the orchestrator's position in its lifecycle.
type State int

const (
	StatePlanning State = iota
	StateJobSubmitted
	StatePolling
	StateCompleted
	StateTimedOut
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePlanning:
		return "planning"
	case StateJobSubmitted:
		return "job_submitted"
	case StatePolling:
		return "polling"
	case StateCompleted:
		return "completed"
	case StateTimedOut:
		return "timed_out"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// TimeoutError is returned when the poll ceiling is reached with zero pages
// discovered. A ceiling breach with pages discovered degrades to a partial
// result instead.
type TimeoutError struct {
	Attempts int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("crawler: poll ceiling reached after %d attempts with no pages", e.Attempts)
}

// DepthPlanner is the adaptive depth policy consulted before submission.
type DepthPlanner interface {
	Plan(ctx context.Context, seedURL string, requestedDepth int) (int, string)
}

// Outcome is the discovery result handed to the extraction stage.
type Outcome struct {
	State      State
	Pages      []model.CrawledPage
	Classified classify.Pages
	Partial    bool
	FromCache  bool
	Completed  int
	Total      int
	FinalDepth int
	PlanReason string
}

// Orchestrator runs the discovery state machine.
type Orchestrator struct {
	renderer renderer.Client
	cache    store.Cache
	planner  DepthPlanner

	pollInterval time.Duration
	maxAttempts  int
}

// New creates an Orchestrator with the given collaborators. pollInterval and
// maxAttempts fall back to the 2s/30-attempt defaults when zero.
func New(rc renderer.Client, cache store.Cache, planner DepthPlanner, pollInterval time.Duration, maxAttempts int) *Orchestrator {
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	if maxAttempts <= 0 {
		maxAttempts = 30
	}
	return &Orchestrator{
		renderer:     rc,
		cache:        cache,
		planner:      planner,
		pollInterval: pollInterval,
		maxAttempts:  maxAttempts,
	}
}

// cacheKey namespaces crawl results by the full request shape, not just the
// seed: the same site crawled at different depths yields different sets.
func cacheKey(seedURL string, depth, maxPages int) string {
	return fmt.Sprintf("%s|depth=%d|pages=%d", seedURL, depth, maxPages)
}

// Run discovers pages for the seed site. It returns a non-nil Outcome for
// every partial success; the error is non-nil only for hard failures
// (submission rejected, or poll ceiling with zero pages).
func (o *Orchestrator) Run(ctx context.Context, seedURL string, requestedDepth, maxPages int, counters *model.Counters) (*Outcome, error) {
	log := zap.L().With(zap.String("seed", seedURL))

	// Planning.
	depth, reason := o.planner.Plan(ctx, seedURL, requestedDepth)
	log.Info("crawler: depth planned",
		zap.Int("requested", requestedDepth),
		zap.Int("final", depth),
		zap.String("reason", reason),
	)

	key := cacheKey(seedURL, depth, maxPages)
	if cached := o.lookupCached(ctx, key); cached != nil {
		counters.CacheHits.Add(1)
		log.Info("crawler: using cached crawl result", zap.Int("pages", len(cached)))
		return &Outcome{
			State:      StateCompleted,
			Pages:      cached,
			Classified: classifyPages(cached, seedURL),
			FromCache:  true,
			Completed:  len(cached),
			Total:      len(cached),
			FinalDepth: depth,
			PlanReason: reason,
		}, nil
	}
	counters.CacheMisses.Add(1)

	// JobSubmitted.
	job, err := o.renderer.SubmitCrawl(ctx, renderer.CrawlRequest{
		URL:      seedURL,
		MaxDepth: depth,
		Limit:    maxPages,
	})
	if err != nil {
		return &Outcome{State: StateFailed, FinalDepth: depth, PlanReason: reason},
			eris.Wrap(err, "crawler: submit")
	}
	log.Info("crawler: job submitted", zap.String("job_id", job.ID))

	// Polling. The discovered set is monotonically non-shrinking; it is
	// reclassified from scratch every time it grows.
	discovered := make(map[string]model.CrawledPage)
	var completed, total int

	for attempt := 0; attempt < o.maxAttempts; attempt++ {
		status, err := o.renderer.CrawlStatus(ctx, job.ID)
		if err != nil {
			log.Warn("crawler: poll failed", zap.Int("attempt", attempt), zap.Error(err))
		} else {
			mergePages(discovered, status.Pages)
			completed, total = status.Completed, status.Total

			switch status.Status {
			case renderer.StatusCompleted:
				pages := collectPages(discovered)
				o.storeCached(ctx, key, pages)
				log.Info("crawler: completed", zap.Int("pages", len(pages)))
				return &Outcome{
					State:      StateCompleted,
					Pages:      pages,
					Classified: classifyPages(pages, seedURL),
					Completed:  completed,
					Total:      total,
					FinalDepth: depth,
					PlanReason: reason,
				}, nil
			case renderer.StatusFailed:
				pages := collectPages(discovered)
				if len(pages) == 0 {
					return &Outcome{State: StateFailed, FinalDepth: depth, PlanReason: reason},
						eris.Errorf("crawler: job %s failed with no pages discovered", job.ID)
				}
				log.Warn("crawler: job failed, proceeding with partial set",
					zap.Int("pages", len(pages)))
				return &Outcome{
					State:      StateFailed,
					Pages:      pages,
					Classified: classifyPages(pages, seedURL),
					Partial:    true,
					Completed:  completed,
					Total:      total,
					FinalDepth: depth,
					PlanReason: reason,
				}, nil
			}
		}

		select {
		case <-ctx.Done():
			return o.timedOut(discovered, seedURL, depth, reason, completed, total, o.maxAttempts)
		case <-time.After(o.pollInterval):
		}
	}

	// TimedOut: proceed with whatever was discovered incrementally.
	return o.timedOut(discovered, seedURL, depth, reason, completed, total, o.maxAttempts)
}

func (o *Orchestrator) timedOut(discovered map[string]model.CrawledPage, seedURL string, depth int, reason string, completed, total, attempts int) (*Outcome, error) {
	pages := collectPages(discovered)
	if len(pages) == 0 {
		return &Outcome{State: StateTimedOut, FinalDepth: depth, PlanReason: reason},
			&TimeoutError{Attempts: attempts}
	}
	zap.L().Warn("crawler: poll ceiling reached, returning partial set",
		zap.String("seed", seedURL),
		zap.Int("pages", len(pages)),
	)
	return &Outcome{
		State:      StateTimedOut,
		Pages:      pages,
		Classified: classifyPages(pages, seedURL),
		Partial:    true,
		Completed:  completed,
		Total:      total,
		FinalDepth: depth,
		PlanReason: reason,
	}, nil
}

// lookupCached returns the cached page set for key, nil on miss. Cache errors
// are a miss: caching is an optimization, never a failure source.
func (o *Orchestrator) lookupCached(ctx context.Context, key string) []model.CrawledPage {
	entry, err := o.cache.Get(ctx, key, store.ContentCrawl)
	if err != nil {
		zap.L().Warn("crawler: cache lookup failed", zap.Error(err))
		return nil
	}
	if entry == nil {
		return nil
	}
	var pages []model.CrawledPage
	if err := json.Unmarshal(entry.Body, &pages); err != nil {
		zap.L().Warn("crawler: cached crawl unreadable", zap.Error(err))
		return nil
	}
	return pages
}

func (o *Orchestrator) storeCached(ctx context.Context, key string, pages []model.CrawledPage) {
	body, err := json.Marshal(pages)
	if err != nil {
		zap.L().Warn("crawler: marshal crawl for cache", zap.Error(err))
		return
	}
	if err := o.cache.Put(ctx, key, store.ContentCrawl, body); err != nil {
		zap.L().Warn("crawler: cache write failed", zap.Error(err))
	}
}

func mergePages(into map[string]model.CrawledPage, pages []renderer.PageData) {
	for _, p := range pages {
		if p.URL == "" {
			continue
		}
		into[p.URL] = model.CrawledPage{
			URL:         p.URL,
			Title:       p.Title,
			Description: p.Description,
			Markdown:    p.Markdown,
			HTML:        p.HTML,
			StatusCode:  p.StatusCode,
		}
	}
}

func collectPages(discovered map[string]model.CrawledPage) []model.CrawledPage {
	pages := make([]model.CrawledPage, 0, len(discovered))
	for _, p := range discovered {
		pages = append(pages, p)
	}
	return pages
}

func classifyPages(pages []model.CrawledPage, seedURL string) classify.Pages {
	urls := make([]string, 0, len(pages))
	for _, p := range pages {
		urls = append(urls, p.URL)
	}
	return classify.Partition(urls, seedURL)
}
