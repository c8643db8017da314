package model

import (
	"sync/atomic"
	"time"
)

// CrawlStats summarizes the discovery phase of a scrape.
type CrawlStats struct {
	Completed       int `json:"completed"`
	Total           int `json:"total"`
	CacheHits       int `json:"cache_hits"`
	CacheMisses     int `json:"cache_misses"`
	SuccessfulPages int `json:"successful_pages"`
	FailedPages     int `json:"failed_pages"`
}

// ExtractionQuality aggregates per-record confidence diagnostics.
type ExtractionQuality struct {
	AverageConfidence float64        `json:"average_confidence"`
	MethodBreakdown   map[string]int `json:"method_breakdown"`
}

// ScrapeResult is the pipeline output handed to the UI/persistence layer.
type ScrapeResult struct {
	Success     bool               `json:"success"`
	Partial     bool               `json:"partial"`
	SeedURL     string             `json:"seed_url"`
	Investments []InvestmentRecord `json:"investments"`
	CrawlStats  CrawlStats         `json:"crawl_stats"`
	Quality     ExtractionQuality  `json:"extraction_quality"`
}

// Counters holds the running request-scoped tallies threaded through the
// pipeline. Safe for concurrent use by extraction workers.
type Counters struct {
	CacheHits       atomic.Int64
	CacheMisses     atomic.Int64
	SuccessfulPages atomic.Int64
	FailedPages     atomic.Int64
}

// Snapshot folds the counters into a CrawlStats, leaving Completed/Total
// to the caller.
func (c *Counters) Snapshot() CrawlStats {
	return CrawlStats{
		CacheHits:       int(c.CacheHits.Load()),
		CacheMisses:     int(c.CacheMisses.Load()),
		SuccessfulPages: int(c.SuccessfulPages.Load()),
		FailedPages:     int(c.FailedPages.Load()),
	}
}

// RunStatus tracks a scrape run's lifecycle in the history store.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is a persisted scrape-history entry.
type Run struct {
	ID        string        `json:"id"`
	SeedURL   string        `json:"seed_url"`
	Status    RunStatus     `json:"status"`
	Result    *ScrapeResult `json:"result,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
