package extract

import (
	"math"

	"github.com/sells-group/portfolio-scout/internal/model"
)

// Score annotates a record with its extraction quality: the percentage of
// the fixed optional field set that is populated, plus which fields are
// absent. Diagnostics only — low confidence never drops a record.
func Score(rec *model.InvestmentRecord) model.Validation {
	filled := len(rec.ScoredFilled())
	total := model.ScoredFieldCount()
	return model.Validation{
		Confidence: int(math.Round(100 * float64(filled) / float64(total))),
		Missing:    rec.MissingFields(),
		Method:     rec.Method,
	}
}
