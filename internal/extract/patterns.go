package extract

import (
	"regexp"
	"strings"

	"github.com/sells-group/portfolio-scout/internal/model"
)

// fieldPattern pairs a record field with its ordered extraction patterns.
// Each pattern's first capture group is the candidate value; patterns are
// tried in order with early exit. Keeping the cascade data-driven lets new
// fields and label spellings land without touching control flow.
type fieldPattern struct {
	field string
	res   []*regexp.Regexp
}

// labeled builds the standard pattern family for a field label alternation:
// bold-markdown labels, heading labels, and plain "Label: value" lines.
func labeled(aliases string) []*regexp.Regexp {
	return []*regexp.Regexp{
		regexp.MustCompile(`(?mi)\*\*\s*(?:` + aliases + `)\s*:?\s*\*\*\s*:?\s*(.+)`),
		regexp.MustCompile(`(?mi)^#{2,4}\s*(?:` + aliases + `)\s*\n+[ \t]*([^\n#].*)`),
		regexp.MustCompile(`(?mi)^[ \t]*(?:` + aliases + `)\s*[:\x{2013}-]\s*(.+)$`),
	}
}

// fieldPatterns is the field family table shared by the text tier, the HTML
// tier (on extracted text), and fallback field-filling.
var fieldPatterns = []fieldPattern{
	{"industry", labeled(`industry|sector|vertical`)},
	{"ceo", labeled(`ceo|chief executive(?: officer)?|founder(?:\s*&\s*ceo)?`)},
	{"investment_role", labeled(`investment role|role|deal type|investment type`)},
	{"ownership", labeled(`ownership|stake|equity`)},
	{"date", append(
		labeled(`date of investment|investment date|invested|initial investment|acquired`),
		regexp.MustCompile(`(?mi)(?:invested|acquired|partnered)(?:\s+\w+){0,3}\s+in\s+((?:January|February|March|April|May|June|July|August|September|October|November|December)?\s*\d{4})`),
	)},
	{"location", labeled(`location|headquarters|headquartered|hq|based in`)},
	{"website", []*regexp.Regexp{
		regexp.MustCompile(`(?mi)\*\*\s*(?:website|web|url)\s*:?\s*\*\*\s*:?\s*\[?(https?://[^\s\)\]]+)`),
		regexp.MustCompile(`(?mi)^[ \t]*(?:website|web|url)\s*[:\x{2013}-]\s*\[?(https?://[^\s\)\]]+)`),
	}},
	{"status", labeled(`status|investment status|current status`)},
	{"description", labeled(`description|about|overview|summary`)},
}

// yearRe pulls a four-digit year out of a date value.
var yearRe = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// cleanValue trims markdown/html debris from a captured value.
func cleanValue(v string) string {
	v = strings.TrimSpace(v)
	v = strings.Trim(v, "*_`|")
	v = strings.TrimSpace(v)
	if len(v) > 300 {
		v = strings.TrimSpace(v[:300])
	}
	return v
}

// applyPatterns fills every still-empty field of rec from text using the
// shared field family table. Populated fields are never overwritten.
func applyPatterns(rec *model.InvestmentRecord, text string) {
	if text == "" {
		return
	}
	for _, fp := range fieldPatterns {
		if getField(rec, fp.field) != "" {
			continue
		}
		for _, re := range fp.res {
			m := re.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			v := cleanValue(m[1])
			if v == "" {
				continue
			}
			setField(rec, fp.field, v)
			break
		}
	}

	if rec.Year == "" {
		if y := yearRe.FindString(rec.Date); y != "" {
			rec.Year = y
		}
	}
}

func getField(rec *model.InvestmentRecord, field string) string {
	switch field {
	case "industry":
		return rec.Industry
	case "ceo":
		return rec.CEO
	case "investment_role":
		return rec.InvestmentRole
	case "ownership":
		return rec.Ownership
	case "date":
		return rec.Date
	case "location":
		return rec.Location
	case "website":
		return rec.Website
	case "status":
		return rec.Status
	case "description":
		return rec.Description
	default:
		return ""
	}
}

func setField(rec *model.InvestmentRecord, field, value string) {
	switch field {
	case "industry":
		rec.Industry = value
	case "ceo":
		rec.CEO = value
	case "investment_role":
		rec.InvestmentRole = value
	case "ownership":
		rec.Ownership = value
	case "date":
		rec.Date = value
	case "location":
		rec.Location = value
	case "website":
		rec.Website = value
	case "status":
		rec.Status = value
	case "description":
		rec.Description = value
	}
}
