// Package dedupe merges investment records referring to the same company
// across pages, preferring the most complete record.
package dedupe

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/portfolio-scout/internal/model"
)

// corporateSuffixes are stripped from the end of normalized names.
var corporateSuffixes = []string{
	"incorporated", "corporation", "company", "corp", "inc", "llc", "ltd", "co",
}

var punctRe = regexp.MustCompile(`[^\pL\pN ]+`)
var spaceRe = regexp.MustCompile(`\s{2,}`)

// genericNames are placeholder values that signal an upstream extraction
// failure rather than a real company.
var genericNames = map[string]bool{
	"investments": true, "portfolio": true, "companies": true,
	"company": true, "investment": true,
}

// NormalizeKey derives the dedup key for a company name: lowercase, corporate
// suffixes stripped, punctuation removed, whitespace collapsed.
func NormalizeKey(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	key = punctRe.ReplaceAllString(key, " ")
	key = spaceRe.ReplaceAllString(key, " ")
	key = strings.TrimSpace(key)

	for changed := true; changed; {
		changed = false
		for _, suffix := range corporateSuffixes {
			if strings.HasSuffix(key, " "+suffix) {
				key = strings.TrimSpace(strings.TrimSuffix(key, " "+suffix))
				changed = true
			}
		}
	}
	return key
}

// SameEntity reports whether two normalized keys refer to the same company:
// equal keys, or one key containing the other ("acme" matches "acme
// industries"). The containment rule is a deliberate heuristic and can
// over-merge short names that share a common word.
func SameEntity(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// Dedupe merges duplicate records. Records with empty names are dropped.
// First-seen order is preserved; when two records match, the side with
// strictly more populated fields wins as the base (its name included) and
// its gaps are filled from the other. Ties keep the first-seen record.
// Merging can change a record's key (the base name wins), so passes repeat
// until a fixpoint — this is what makes the operation idempotent.
func Dedupe(records []model.InvestmentRecord) []model.InvestmentRecord {
	kept := records
	for {
		merged, changed := mergePass(kept)
		kept = merged
		if !changed {
			return kept
		}
	}
}

func mergePass(records []model.InvestmentRecord) ([]model.InvestmentRecord, bool) {
	var kept []model.InvestmentRecord
	var keys []string
	changed := false

	for _, rec := range records {
		if !rec.HasName() {
			changed = true
			continue
		}
		if genericNames[strings.ToLower(strings.TrimSpace(rec.Name))] {
			zap.L().Warn("dedupe: record name is a generic placeholder, extraction likely failed upstream",
				zap.String("name", rec.Name),
				zap.String("source", rec.SourceURL),
			)
		}

		key := NormalizeKey(rec.Name)
		if key == "" {
			changed = true
			continue
		}

		matched := false
		for i := range kept {
			if !SameEntity(keys[i], key) {
				continue
			}
			kept[i] = merge(kept[i], rec)
			keys[i] = NormalizeKey(kept[i].Name)
			matched = true
			changed = true
			break
		}
		if !matched {
			kept = append(kept, rec)
			keys = append(keys, key)
		}
	}
	return kept, changed
}

// merge keeps the more complete record as the base and fills its empty
// fields from the other. Quantity of data beats recency or order.
func merge(first, second model.InvestmentRecord) model.InvestmentRecord {
	base, other := first, second
	if second.FilledCount() > first.FilledCount() {
		base, other = second, first
	}

	if base.Industry == "" {
		base.Industry = other.Industry
	}
	if base.Date == "" {
		base.Date = other.Date
	}
	if base.Year == "" {
		base.Year = other.Year
	}
	if base.Description == "" {
		base.Description = other.Description
	}
	if base.CEO == "" {
		base.CEO = other.CEO
	}
	if base.InvestmentRole == "" {
		base.InvestmentRole = other.InvestmentRole
	}
	if base.Ownership == "" {
		base.Ownership = other.Ownership
	}
	if base.Location == "" {
		base.Location = other.Location
	}
	if base.Website == "" {
		base.Website = other.Website
	}
	if base.Status == "" {
		base.Status = other.Status
	}
	if len(base.Partners) == 0 {
		base.Partners = other.Partners
	}
	if base.PortfolioURL == "" {
		base.PortfolioURL = other.PortfolioURL
	}
	if base.SourceURL == "" {
		base.SourceURL = other.SourceURL
	}
	if other.Confidence > base.Confidence {
		base.Confidence = other.Confidence
	}
	return base
}
