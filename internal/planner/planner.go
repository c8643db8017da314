// Package planner decides how deep the paid crawl should go by probing the
// seed page once. The renderer bills per page: a fixed depth wastes budget on
// dense sites and under-explores sparse ones.
package planner

import (
	"context"
	"io"
	"mime"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/htmlindex"
)

const (
	// minDepth and maxDepth clamp every planning outcome.
	minDepth = 1
	maxDepth = 5

	// denseLinkCount and sparseLinkCount are the policy boundaries.
	denseLinkCount  = 10
	sparseLinkCount = 3

	maxProbeBody = 512 * 1024
)

// portfolioKeywords are matched case-insensitively against anchor hrefs.
var portfolioKeywords = []string{"portfolio", "investment", "company"}

// Planner performs the single lightweight probe of the seed page.
type Planner struct {
	http *http.Client
}

// New creates a Planner with the given probe timeout.
func New(probeTimeout time.Duration) *Planner {
	if probeTimeout <= 0 {
		probeTimeout = 15 * time.Second
	}
	return &Planner{
		http: &http.Client{
			Timeout: probeTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
	}
}

// Plan probes the seed page and returns the crawl depth to use plus a
// human-readable reason. A failed probe falls back to the requested depth.
func (p *Planner) Plan(ctx context.Context, seedURL string, requestedDepth int) (int, string) {
	links, err := p.countPortfolioLinks(ctx, seedURL)
	if err != nil {
		zap.L().Warn("planner: probe failed, keeping requested depth",
			zap.String("seed", seedURL),
			zap.Error(err),
		)
		return clampDepth(requestedDepth), "probe failed, using requested depth"
	}

	switch {
	case links >= denseLinkCount:
		return clampDepth(min(requestedDepth, 2)), "dense site, go shallow to bound cost"
	case links < sparseLinkCount:
		return clampDepth(min(requestedDepth+2, maxDepth)), "sparse visible links, go deeper to find content"
	default:
		return clampDepth(requestedDepth), "link density normal, keeping requested depth"
	}
}

// countPortfolioLinks fetches the seed HTML once and counts anchors whose
// href contains a portfolio/investment/company keyword.
func (p *Planner) countPortfolioLinks(ctx context.Context, seedURL string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, seedURL, nil)
	if err != nil {
		return 0, eris.Wrap(err, "planner: create probe request")
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; PortfolioScout/1.0)")

	resp, err := p.http.Do(req)
	if err != nil {
		return 0, eris.Wrap(err, "planner: probe request")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusServiceUnavailable {
		return 0, eris.Errorf("planner: probe blocked (HTTP %d)", resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return 0, eris.Errorf("planner: probe HTTP %d", resp.StatusCode)
	}

	body := decodeCharset(io.LimitReader(resp.Body, maxProbeBody), resp.Header.Get("Content-Type"))
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return 0, eris.Wrap(err, "planner: parse probe body")
	}

	count := 0
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.ToLower(href)
		for _, kw := range portfolioKeywords {
			if strings.Contains(href, kw) {
				count++
				return
			}
		}
	})
	return count, nil
}

// decodeCharset wraps the body in a decoder when the Content-Type header
// names a non-UTF-8 charset. An unknown label reads the body as-is.
func decodeCharset(r io.Reader, contentType string) io.Reader {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return r
	}
	label := params["charset"]
	if label == "" || strings.EqualFold(label, "utf-8") {
		return r
	}
	enc, err := htmlindex.Get(label)
	if err != nil || enc == nil {
		return r
	}
	return enc.NewDecoder().Reader(r)
}

func clampDepth(d int) int {
	if d < minDepth {
		return minDepth
	}
	if d > maxDepth {
		return maxDepth
	}
	return d
}
