// Package classify decides whether a discovered URL is a portfolio listing
// page or a single-company detail page from URL shape alone. Classification
// never fetches content: the crawl surfaces hundreds of unrelated pages
// (news, about, contact) that must not reach the extraction stage.
package classify

import (
	"net/url"
	"regexp"
	"strings"
)

// Kind is the classification outcome for one URL.
type Kind int

const (
	// KindNone excludes a URL from extraction entirely.
	KindNone Kind = iota
	// KindListing marks a page expected to reference many companies.
	KindListing
	// KindDetail marks a page describing exactly one company.
	KindDetail
)

func (k Kind) String() string {
	switch k {
	case KindListing:
		return "listing"
	case KindDetail:
		return "detail"
	default:
		return "none"
	}
}

// detailPathRe matches paths naming exactly one company under a collection
// root, e.g. /portfolio/acme or /investments/acme-industries/.
var detailPathRe = regexp.MustCompile(`^/(?:portfolio|investments?|company|companies)/[^/]+/?$`)

// listingPaths are the bare collection roots treated as listing pages.
var listingPaths = map[string]bool{
	"/portfolio":   true,
	"/investments": true,
	"/companies":   true,
}

// Classify is a pure function of the URL path and the seed URL.
func Classify(rawURL, seedURL string) Kind {
	if strings.TrimRight(rawURL, "/") == strings.TrimRight(seedURL, "/") {
		return KindListing
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return KindNone
	}
	p := u.Path
	if p == "" {
		p = "/"
	}

	if listingPaths[strings.TrimRight(p, "/")] {
		return KindListing
	}
	if detailPathRe.MatchString(p) {
		return KindDetail
	}
	return KindNone
}

// Pages partitions a discovered URL set into listing and detail pages.
type Pages struct {
	Listing []string
	Detail  []string
}

// Partition deduplicates urls, classifies each against the seed, and returns
// the listing/detail partition. URLs matching neither shape are dropped.
// Recompute from scratch whenever the discovered set grows so classification
// stays consistent with the full set.
func Partition(urls []string, seedURL string) Pages {
	seen := make(map[string]bool, len(urls))
	var pages Pages
	for _, u := range urls {
		key := strings.TrimRight(u, "/")
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true

		switch Classify(u, seedURL) {
		case KindListing:
			pages.Listing = append(pages.Listing, u)
		case KindDetail:
			pages.Detail = append(pages.Detail, u)
		}
	}
	return pages
}
