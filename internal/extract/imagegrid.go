package extract

import (
	"regexp"
	"strings"

	"github.com/sells-group/portfolio-scout/internal/model"
)

// minGridOccurrences is how many image-plus-caption repeats a page needs
// before the grid heuristic trusts it as a portfolio grid.
const minGridOccurrences = 5

// imageCaptionRe matches an <img> tag followed (through closing/opening tags)
// by a short capitalized caption. Last resort for listing pages whose only
// structure is a logo grid.
var imageCaptionRe = regexp.MustCompile(
	`(?si)<img[^>]*>\s*(?:</?[a-z][^>]*>\s*){0,4}([A-Z][A-Za-z0-9&'.,\- ]{1,50})<`)

// extractImageGrid emits one name-only record per repeated image caption.
// Yields nothing unless the repetition threshold is met: a handful of
// captioned images is navigation, not a portfolio.
func extractImageGrid(html, pageURL string) []model.InvestmentRecord {
	matches := imageCaptionRe.FindAllStringSubmatch(html, -1)
	if len(matches) < minGridOccurrences {
		return nil
	}

	var records []model.InvestmentRecord
	seen := make(map[string]bool)
	for _, m := range matches {
		name := cleanValue(m[1])
		if !isPlausibleName(name) || seen[strings.ToLower(name)] {
			continue
		}
		seen[strings.ToLower(name)] = true
		records = append(records, model.InvestmentRecord{
			Name:      name,
			SourceURL: pageURL,
			Method:    model.MethodImageGrid,
		})
	}

	if len(records) < minGridOccurrences {
		return nil
	}
	return records
}
