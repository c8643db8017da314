package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Harvest caps: a listing page can reference hundreds of links; the harvester
// is a recovery path, not a second crawl.
const (
	maxInternalCandidates = 10
	maxExternalCandidates = 10
)

// LinkCandidate is a plausible company link found in a listing page's markup.
type LinkCandidate struct {
	URL string
	// Name is the anchor text for external candidates, empty for internal
	// ones (internal pages get full structured extraction instead).
	Name string
	// External marks a link pointing off the seed site, at what is probably
	// the company's own website.
	External bool
}

// navWords are anchor texts that look like Title-Case names but are site
// navigation.
var navWords = map[string]bool{
	"about us": true, "contact us": true, "our team": true, "read more": true,
	"learn more": true, "view all": true, "see all": true, "privacy policy": true,
	"terms of service": true, "case study": true, "press release": true,
	"next page": true, "view company": true, "visit website": true,
	"all investments": true, "our portfolio": true, "back to portfolio": true,
}

// HarvestLinks scans raw HTML anchors for plausible company links. Invoked
// when a listing page under-yields: some sites render each company as
// nothing but a link.
func HarvestLinks(html, pageURL string) []LinkCandidate {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	var internal, external []LinkCandidate
	seen := make(map[string]bool)

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		target := resolveHref(pageURL, href)
		if target == "" || seen[target] {
			return
		}

		u, err := url.Parse(target)
		if err != nil {
			return
		}

		if u.Host == base.Host {
			// Internal: must look like a detail page, not the collection root.
			if len(internal) >= maxInternalCandidates || !isDetailPath(target) {
				return
			}
			seen[target] = true
			internal = append(internal, LinkCandidate{URL: target})
			return
		}

		// External: the anchor text itself must read like a company name.
		if len(external) >= maxExternalCandidates || isSocialHost(u.Host) {
			return
		}
		text := cleanValue(sel.Text())
		if !isExternalCompanyAnchor(text) {
			return
		}
		seen[target] = true
		external = append(external, LinkCandidate{URL: target, Name: text, External: true})
	})

	return append(internal, external...)
}

// isExternalCompanyAnchor accepts 2-4 word Title-Case anchor texts that are
// not common navigation phrases.
func isExternalCompanyAnchor(text string) bool {
	if text == "" || navWords[strings.ToLower(text)] {
		return false
	}
	words := strings.Fields(text)
	if len(words) < 2 || len(words) > 4 {
		return false
	}
	for _, w := range words {
		r := rune(w[0])
		if !(r >= 'A' && r <= 'Z') && !(r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}
