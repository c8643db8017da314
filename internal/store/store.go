// Package store persists renderer response caching and scrape history.
package store

import (
	"context"
	"time"

	"github.com/sells-group/portfolio-scout/internal/model"
)

// ContentType namespaces cache entries for the same URL. A crawl job result
// and a single-page scrape of the seed must never collide.
type ContentType string

const (
	ContentCrawl         ContentType = "crawl"
	ContentScrapeDetail  ContentType = "scrape_detail"
	ContentScrapeListing ContentType = "scrape_listing"
	ContentRaw           ContentType = "raw"
)

// CacheTTL is how long a cached renderer response stays valid.
const CacheTTL = 48 * time.Hour

// CachedResponse is one cache row.
type CachedResponse struct {
	ID          string
	URL         string
	ContentType ContentType
	Body        []byte
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// Cache is the response cache consumed by the crawl and extraction stages.
// Get returns nil on a miss; implementations filter expired entries and
// return the most recently created match. Put always inserts a fresh entry.
type Cache interface {
	Get(ctx context.Context, url string, ct ContentType) (*CachedResponse, error)
	Put(ctx context.Context, url string, ct ContentType, body []byte) error
}

// CacheStats summarizes cache contents for diagnostics.
type CacheStats struct {
	Entries int `json:"entries"`
	Expired int `json:"expired"`
}

// RunFilter narrows ListRuns.
type RunFilter struct {
	SeedURL string
	Limit   int
}

// Store is the full persistence surface: response cache plus scrape history.
type Store interface {
	Cache

	Migrate(ctx context.Context) error
	Close() error

	PurgeExpired(ctx context.Context) (int, error)
	Stats(ctx context.Context) (*CacheStats, error)

	CreateRun(ctx context.Context, seedURL string) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, status model.RunStatus, result *model.ScrapeResult) error
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)
}
