package extract

import (
	"regexp"
	"strings"

	"github.com/sells-group/portfolio-scout/internal/classify"
	"github.com/sells-group/portfolio-scout/internal/model"
)

// headingRe matches markdown headings used as company-name candidates on
// listing pages.
var headingRe = regexp.MustCompile(`(?m)^#{1,4}[ \t]+(.+)$`)

// boilerplatePhrases disqualify a heading from being a company name.
var boilerplatePhrases = map[string]bool{
	"portfolio": true, "our portfolio": true, "investments": true,
	"our investments": true, "companies": true, "our companies": true,
	"company": true, "investment": true, "about": true, "about us": true,
	"team": true, "our team": true, "contact": true, "contact us": true,
	"news": true, "insights": true, "careers": true, "home": true,
	"read more": true, "learn more": true, "view all": true,
	"privacy policy": true, "terms of use": true, "overview": true,
	"current investments": true, "past investments": true, "exits": true,
	"featured": true, "all": true, "filter": true, "menu": true,
}

const (
	maxNameWords = 6
	maxNameLen   = 60
)

// isPlausibleName applies the company-name candidate filter: rejects
// boilerplate phrases, over-length phrases, and poorly capitalized phrases.
func isPlausibleName(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > maxNameLen {
		return false
	}
	if boilerplatePhrases[strings.ToLower(s)] {
		return false
	}
	words := strings.Fields(s)
	if len(words) == 0 || len(words) > maxNameWords {
		return false
	}
	// At least half the words should start with an uppercase letter or digit.
	capitalized := 0
	for _, w := range words {
		r := rune(w[0])
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			capitalized++
		}
	}
	return capitalized*2 >= len(words)
}

// extractDetailText extracts one record from plain/markdown text of a detail
// page, mirroring the HTML tier's dual detail/listing logic.
func extractDetailText(text, pageURL string) []model.InvestmentRecord {
	rec := model.InvestmentRecord{
		SourceURL:    pageURL,
		PortfolioURL: pageURL,
		Method:       model.MethodTextPattern,
	}

	if name := nameFromSlug(pageURL); name != "" {
		rec.Name = name
	} else if m := headingRe.FindStringSubmatch(text); m != nil {
		if h := cleanValue(m[1]); isPlausibleName(h) {
			rec.Name = h
		}
	}

	applyPatterns(&rec, text)

	if !rec.HasName() {
		return nil
	}
	return []model.InvestmentRecord{rec}
}

// extractListingText treats markdown headings as company-name candidates and
// fills each record from the text block that follows its heading.
func extractListingText(text, pageURL string) []model.InvestmentRecord {
	matches := headingRe.FindAllStringSubmatchIndex(text, -1)
	if matches == nil {
		return nil
	}

	var records []model.InvestmentRecord
	seen := make(map[string]bool)
	for i, m := range matches {
		name := cleanValue(text[m[2]:m[3]])
		if !isPlausibleName(name) || seen[strings.ToLower(name)] {
			continue
		}
		seen[strings.ToLower(name)] = true

		rec := model.InvestmentRecord{
			Name:      name,
			SourceURL: pageURL,
			Method:    model.MethodTextPattern,
		}

		// The block up to the next heading belongs to this company.
		blockEnd := len(text)
		if i+1 < len(matches) {
			blockEnd = matches[i+1][0]
		}
		applyPatterns(&rec, text[m[1]:blockEnd])

		records = append(records, rec)
	}
	return records
}

// isDetailPath reports whether a URL's path shape names a single company.
func isDetailPath(rawURL string) bool {
	return classify.Classify(rawURL, "") == classify.KindDetail
}
