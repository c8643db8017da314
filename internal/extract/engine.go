// Package extract turns discovered pages into investment records, degrading
// through structured, HTML-pattern, text-pattern, and image-grid strategies.
package extract

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/sells-group/portfolio-scout/internal/classify"
	"github.com/sells-group/portfolio-scout/internal/model"
	"github.com/sells-group/portfolio-scout/internal/resilience"
	"github.com/sells-group/portfolio-scout/internal/store"
	"github.com/sells-group/portfolio-scout/pkg/renderer"
)

// defaultMinListingRecords is the under-yield threshold that triggers link
// harvesting on a listing page.
const defaultMinListingRecords = 3

// Engine runs the tiered extraction cascade for one page at a time.
type Engine struct {
	renderer          renderer.Client
	cache             store.Cache
	health            *resilience.Tracker
	minListingRecords int
}

// NewEngine creates an Engine. health may be nil to disable host gating.
func NewEngine(rc renderer.Client, cache store.Cache, health *resilience.Tracker, minListingRecords int) *Engine {
	if minListingRecords <= 0 {
		minListingRecords = defaultMinListingRecords
	}
	return &Engine{
		renderer:          rc,
		cache:             cache,
		health:            health,
		minListingRecords: minListingRecords,
	}
}

// ExtractPage tries strategies in order until one yields at least one record
// with a non-empty name. Failures are local: a bad page yields zero records,
// never an aborted batch.
func (e *Engine) ExtractPage(ctx context.Context, page model.CrawledPage, kind classify.Kind, counters *model.Counters) []model.InvestmentRecord {
	log := zap.L().With(zap.String("url", page.URL), zap.String("kind", kind.String()))

	html := page.HTML
	text := page.Markdown

	// Tier 1: structured extraction via the renderer.
	var records []model.InvestmentRecord
	data, err := e.scrapeStructured(ctx, page.URL, kind, counters)
	if err != nil {
		log.Debug("extract: structured scrape failed", zap.Error(err))
	} else if data != nil {
		records = recordsFromPayload(data.Extracted, page.URL)
		if data.HTML != "" {
			html = data.HTML
		}
		if data.Markdown != "" {
			text = data.Markdown
		}
	}

	// Tier 2: HTML patterns.
	if len(records) == 0 && html != "" {
		if kind == classify.KindDetail {
			records = extractDetailHTML(html, page.URL)
		} else {
			records = extractListingHTML(html, page.URL)
		}
		if len(records) > 0 {
			log.Debug("extract: html tier matched", zap.Int("records", len(records)))
		}
	}

	// Tier 3: text patterns.
	textTried := false
	if len(records) == 0 && text != "" {
		textTried = true
		if kind == classify.KindDetail {
			records = extractDetailText(text, page.URL)
		} else {
			records = extractListingText(text, page.URL)
		}
		if len(records) > 0 {
			log.Debug("extract: text tier matched", zap.Int("records", len(records)))
		}
	}

	// Tier 4: image-grid fallback for listing pages with no textual structure.
	gridTried := false
	if len(records) == 0 && kind == classify.KindListing && html != "" {
		gridTried = true
		records = extractImageGrid(html, page.URL)
		if len(records) > 0 {
			log.Debug("extract: image grid matched", zap.Int("records", len(records)))
		}
	}

	// Under-yielding listing: a higher tier may match only a sliver of the
	// page while a lower tier sees the whole grid. Run the skipped tiers and
	// append; dedup collapses overlaps downstream.
	if kind == classify.KindListing && len(records) < e.minListingRecords {
		if !textTried && text != "" {
			if extra := extractListingText(text, page.URL); len(extra) > 0 {
				log.Debug("extract: text tier appended on under-yield", zap.Int("records", len(extra)))
				records = append(records, extra...)
			}
		}
		if !gridTried && html != "" {
			if extra := extractImageGrid(html, page.URL); len(extra) > 0 {
				log.Debug("extract: image grid appended on under-yield", zap.Int("records", len(extra)))
				records = append(records, extra...)
			}
		}
	}

	// Under-yielding listing: the companies may exist only as links.
	if kind == classify.KindListing && len(records) < e.minListingRecords && html != "" {
		harvested := e.harvestFromHTML(ctx, html, page.URL, counters)
		if len(harvested) > 0 {
			log.Debug("extract: link harvest added records", zap.Int("records", len(harvested)))
			records = append(records, harvested...)
		}
	}

	// Fallback field-filling plus confidence annotation for every record.
	pageText := text
	if pageText == "" {
		pageText = page.Title + "\n" + page.Description
	}
	out := records[:0]
	for i := range records {
		if !records[i].HasName() {
			continue
		}
		FillMissing(&records[i], pageText)
		records[i].Confidence = Score(&records[i]).Confidence
		out = append(out, records[i])
	}
	return out
}

// SeedFallback is the global last resort: one more raw fetch of the seed, one
// more harvest pass, and failing that a single record synthesized from the
// page title so a reachable site never produces a hard empty result.
func (e *Engine) SeedFallback(ctx context.Context, seedURL string, counters *model.Counters) []model.InvestmentRecord {
	data, err := e.scrapeRaw(ctx, seedURL, counters)
	if err != nil || data == nil {
		zap.L().Warn("extract: seed fallback fetch failed", zap.String("seed", seedURL), zap.Error(err))
		return nil
	}

	if data.HTML != "" {
		if records := e.harvestFromHTML(ctx, data.HTML, seedURL, counters); len(records) > 0 {
			return records
		}
	}

	name := trimTitleSuffix(cleanValue(data.Title))
	if name == "" {
		return nil
	}
	rec := model.InvestmentRecord{
		Name:        name,
		Description: cleanValue(data.Description),
		SourceURL:   seedURL,
		Method:      model.MethodTitleFallback,
	}
	rec.Confidence = Score(&rec).Confidence
	return []model.InvestmentRecord{rec}
}

// harvestFromHTML resolves link candidates: internal detail pages get the
// full structured detail extraction, external company sites get a
// lightweight title/meta scrape only — no schema can be assumed on a
// foreign site.
func (e *Engine) harvestFromHTML(ctx context.Context, html, pageURL string, counters *model.Counters) []model.InvestmentRecord {
	var records []model.InvestmentRecord
	for _, cand := range HarvestLinks(html, pageURL) {
		if cand.External {
			if rec := e.scrapeExternalCandidate(ctx, cand, pageURL, counters); rec != nil {
				records = append(records, *rec)
			}
			continue
		}

		data, err := e.scrapeStructured(ctx, cand.URL, classify.KindDetail, counters)
		if err != nil {
			zap.L().Debug("extract: harvested detail scrape failed",
				zap.String("url", cand.URL), zap.Error(err))
			continue
		}
		for _, rec := range recordsFromPayload(data.Extracted, pageURL) {
			rec.PortfolioURL = cand.URL
			rec.Method = model.MethodLinkHarvest
			records = append(records, rec)
		}
	}
	return records
}

// scrapeExternalCandidate fetches an off-site company page for its title and
// meta description. The harvested anchor text is the name of record; the
// foreign page only enriches it.
func (e *Engine) scrapeExternalCandidate(ctx context.Context, cand LinkCandidate, pageURL string, counters *model.Counters) *model.InvestmentRecord {
	host := hostOf(cand.URL)
	if e.health != nil && host != "" && !e.health.Allow(host) {
		zap.L().Debug("extract: skipping unhealthy host", zap.String("host", host))
		return nil
	}

	rec := model.InvestmentRecord{
		Name:      cand.Name,
		Website:   cand.URL,
		SourceURL: pageURL,
		Method:    model.MethodLinkHarvest,
	}

	data, err := e.scrapeRaw(ctx, cand.URL, counters)
	if err != nil || data == nil {
		if e.health != nil && host != "" {
			e.health.RecordFailure(host, resilience.FailureHTTP)
		}
		// The anchor text alone is still a usable name-only record.
		return &rec
	}
	if e.health != nil && host != "" {
		e.health.RecordSuccess(host)
	}

	if rec.Description == "" {
		rec.Description = cleanValue(data.Description)
	}
	if rec.Description == "" && data.HTML != "" {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(data.HTML)); err == nil {
			if meta, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
				rec.Description = cleanValue(meta)
			} else if h1 := cleanValue(doc.Find("h1").First().Text()); h1 != "" {
				rec.Description = h1
			}
		}
	}
	return &rec
}

// scrapeStructured fetches a page with schema-guided extraction, consulting
// the cache first. Detail and listing scrapes are independent namespaces.
func (e *Engine) scrapeStructured(ctx context.Context, pageURL string, kind classify.Kind, counters *model.Counters) (*renderer.PageData, error) {
	ct := store.ContentScrapeListing
	schema := listingSchema
	if kind == classify.KindDetail {
		ct = store.ContentScrapeDetail
		schema = singleCompanySchema
	}

	if data := e.cachedPage(ctx, pageURL, ct); data != nil {
		counters.CacheHits.Add(1)
		return data, nil
	}
	counters.CacheMisses.Add(1)

	resp, err := e.renderer.Scrape(ctx, renderer.ScrapeRequest{
		URL:     pageURL,
		Formats: []string{"html", "markdown"},
		Extract: &renderer.ExtractSpec{Schema: schema},
	})
	if err != nil {
		return nil, err
	}

	e.cachePage(ctx, pageURL, ct, &resp.Data)
	return &resp.Data, nil
}

// scrapeRaw fetches a page without structured extraction.
func (e *Engine) scrapeRaw(ctx context.Context, pageURL string, counters *model.Counters) (*renderer.PageData, error) {
	if data := e.cachedPage(ctx, pageURL, store.ContentRaw); data != nil {
		counters.CacheHits.Add(1)
		return data, nil
	}
	counters.CacheMisses.Add(1)

	resp, err := e.renderer.Scrape(ctx, renderer.ScrapeRequest{
		URL:     pageURL,
		Formats: []string{"html", "markdown"},
	})
	if err != nil {
		return nil, err
	}

	e.cachePage(ctx, pageURL, store.ContentRaw, &resp.Data)
	return &resp.Data, nil
}

// cachedPage returns a cached renderer response, nil on miss. Cache errors
// are a miss.
func (e *Engine) cachedPage(ctx context.Context, pageURL string, ct store.ContentType) *renderer.PageData {
	entry, err := e.cache.Get(ctx, pageURL, ct)
	if err != nil {
		zap.L().Warn("extract: cache lookup failed", zap.String("url", pageURL), zap.Error(err))
		return nil
	}
	if entry == nil {
		return nil
	}
	var data renderer.PageData
	if err := json.Unmarshal(entry.Body, &data); err != nil {
		zap.L().Warn("extract: cached page unreadable", zap.String("url", pageURL), zap.Error(err))
		return nil
	}
	return &data
}

func (e *Engine) cachePage(ctx context.Context, pageURL string, ct store.ContentType, data *renderer.PageData) {
	body, err := json.Marshal(data)
	if err != nil {
		zap.L().Warn("extract: marshal page for cache", zap.Error(err))
		return
	}
	if err := e.cache.Put(ctx, pageURL, ct, body); err != nil {
		zap.L().Warn("extract: cache write failed", zap.String("url", pageURL), zap.Error(err))
	}
}

// recordsFromPayload normalizes a structured-extraction payload into flat
// records.
func recordsFromPayload(raw json.RawMessage, sourceURL string) []model.InvestmentRecord {
	single, listing := decodePayload(raw)
	switch {
	case single != nil:
		rec := single.toRecord(sourceURL)
		if !rec.HasName() {
			return nil
		}
		return []model.InvestmentRecord{rec}
	case listing != nil:
		var records []model.InvestmentRecord
		for i := range listing.Companies {
			rec := listing.Companies[i].toRecord(sourceURL)
			if rec.HasName() {
				records = append(records, rec)
			}
		}
		return records
	default:
		return nil
	}
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}
