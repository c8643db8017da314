package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/sells-group/portfolio-scout/internal/model"
)

// rowSelectors are candidate class-name shapes for repeated company rows on
// listing pages, tried in order until one matches.
var rowSelectors = []string{
	".portfolio-item", ".portfolio-company", ".portfolio-card",
	".company-item", ".company-card", ".company",
	".investment-item", ".investment-card", ".investment",
	"article.portfolio", "li.portfolio", ".grid-item", ".card",
}

// extractDetailHTML scans a detail page's full document for one record.
// Name preference order: URL slug, first h1, page title.
func extractDetailHTML(html, pageURL string) []model.InvestmentRecord {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		zap.L().Debug("extract: html parse failed", zap.String("url", pageURL), zap.Error(err))
		return nil
	}

	rec := model.InvestmentRecord{
		SourceURL:    pageURL,
		PortfolioURL: pageURL,
		Method:       model.MethodHTMLPattern,
	}

	if name := nameFromSlug(pageURL); name != "" {
		rec.Name = name
	} else if h1 := cleanValue(doc.Find("h1").First().Text()); isPlausibleName(h1) {
		rec.Name = h1
	} else if title := cleanValue(doc.Find("title").First().Text()); title != "" {
		rec.Name = trimTitleSuffix(title)
	}

	if rec.Description == "" {
		if meta, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
			rec.Description = cleanValue(meta)
		}
	}

	// Outbound company-site link, skipping same-host navigation.
	if rec.Website == "" {
		if base, err := url.Parse(pageURL); err == nil {
			doc.Find("a[href^='http']").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
				href, _ := sel.Attr("href")
				if u, err := url.Parse(href); err == nil && u.Host != "" && u.Host != base.Host && !isSocialHost(u.Host) {
					rec.Website = href
					return false
				}
				return true
			})
		}
	}

	applyPatterns(&rec, doc.Text())

	if !rec.HasName() {
		return nil
	}
	return []model.InvestmentRecord{rec}
}

// extractListingHTML scans a listing page for repeated row-like structures,
// falling back to anchor harvesting when no structural rows match.
func extractListingHTML(html, pageURL string) []model.InvestmentRecord {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		zap.L().Debug("extract: html parse failed", zap.String("url", pageURL), zap.Error(err))
		return nil
	}

	for _, selector := range rowSelectors {
		rows := doc.Find(selector)
		if rows.Length() < 2 {
			continue
		}
		var records []model.InvestmentRecord
		rows.Each(func(_ int, sel *goquery.Selection) {
			rec := recordFromRow(sel, pageURL)
			if rec != nil {
				records = append(records, *rec)
			}
		})
		if len(records) > 0 {
			return records
		}
	}

	// No structural rows: harvest anchor text pointing at detail pages.
	return recordsFromAnchors(doc, pageURL)
}

// recordFromRow builds one record from a repeated listing row.
func recordFromRow(sel *goquery.Selection, pageURL string) *model.InvestmentRecord {
	name := cleanValue(sel.Find("h1,h2,h3,h4,.name,.title,strong").First().Text())
	if name == "" {
		name = firstLine(cleanValue(sel.Text()))
	}
	if !isPlausibleName(name) {
		return nil
	}

	rec := model.InvestmentRecord{
		Name:      name,
		SourceURL: pageURL,
		Method:    model.MethodHTMLPattern,
	}
	if href, ok := sel.Find("a[href]").First().Attr("href"); ok {
		rec.PortfolioURL = resolveHref(pageURL, href)
	}
	applyPatterns(&rec, sel.Text())
	return &rec
}

// recordsFromAnchors is the structural-rows fallback: anchors whose resolved
// target looks like a detail page become name-only records.
func recordsFromAnchors(doc *goquery.Document, pageURL string) []model.InvestmentRecord {
	var records []model.InvestmentRecord
	seen := make(map[string]bool)

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		target := resolveHref(pageURL, href)
		if target == "" || !isDetailPath(target) {
			return
		}
		name := cleanValue(sel.Text())
		if name == "" {
			name = nameFromSlug(target)
		}
		if !isPlausibleName(name) || seen[strings.ToLower(name)] {
			return
		}
		seen[strings.ToLower(name)] = true
		records = append(records, model.InvestmentRecord{
			Name:         name,
			SourceURL:    pageURL,
			PortfolioURL: target,
			Method:       model.MethodHTMLPattern,
		})
	})
	return records
}

func resolveHref(pageURL, href string) string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	resolved.Fragment = ""
	return resolved.String()
}

// nameFromSlug derives a company name from the last path segment of a detail
// URL: "acme-industries" becomes "Acme Industries".
func nameFromSlug(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segs) < 2 {
		return ""
	}
	slug := segs[len(segs)-1]
	if slug == "" || strings.ContainsAny(slug, ".%") {
		return ""
	}
	words := strings.FieldsFunc(slug, func(r rune) bool { return r == '-' || r == '_' })
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	name := strings.Join(words, " ")
	if !isPlausibleName(name) {
		return ""
	}
	return name
}

// trimTitleSuffix drops " | Firm Name" / " - Firm Name" page-title suffixes.
func trimTitleSuffix(title string) string {
	for _, sep := range []string{" | ", " - ", " – ", " :: "} {
		if idx := strings.Index(title, sep); idx > 0 {
			return strings.TrimSpace(title[:idx])
		}
	}
	return strings.TrimSpace(title)
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return s
}

func isSocialHost(host string) bool {
	host = strings.ToLower(host)
	for _, s := range []string{"linkedin.com", "twitter.com", "x.com", "facebook.com", "instagram.com", "youtube.com"} {
		if host == s || strings.HasSuffix(host, "."+s) {
			return true
		}
	}
	return false
}
