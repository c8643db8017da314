package extract

import (
	"strconv"
	"strings"

	"github.com/sells-group/portfolio-scout/internal/model"
)

// currentStatusYear: investments made in or after this year default to
// "Current" status when the page says nothing either way.
const currentStatusYear = 2020

// FillMissing attempts to populate every still-empty optional field of rec
// from the page's raw text, using the same pattern families as the text
// tier. Populated fields are never overwritten.
func FillMissing(rec *model.InvestmentRecord, text string) {
	applyPatterns(rec, text)
	inferOwnership(rec)
	inferStatus(rec)
}

// inferOwnership derives a qualitative ownership label from the investment
// role when both are otherwise unknown. Heuristic, not extracted data.
func inferOwnership(rec *model.InvestmentRecord) {
	if rec.Ownership != "" || rec.InvestmentRole == "" {
		return
	}
	role := strings.ToLower(rec.InvestmentRole)
	switch {
	case strings.Contains(role, "lead") ||
		strings.Contains(role, "majority") ||
		strings.Contains(role, "control"):
		rec.Ownership = "Majority stake"
	case strings.Contains(role, "minority") ||
		strings.Contains(role, "co-investor"):
		rec.Ownership = "Minority stake"
	}
}

// inferStatus defaults status to "Current" for recent investments. This is a
// guess about a page that never stated the status; it must read as exactly
// that, not as extracted data.
func inferStatus(rec *model.InvestmentRecord) {
	if rec.Status != "" || rec.Year == "" {
		return
	}
	year, err := strconv.Atoi(rec.Year)
	if err != nil {
		return
	}
	if year >= currentStatusYear {
		rec.Status = "Current"
	}
}
