package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoredFilled(t *testing.T) {
	rec := InvestmentRecord{
		Name:     "Acme Industries",
		Industry: "Manufacturing",
		Year:     "2021",
		Website:  "https://acme.example.com",
		// Name, Status, Partners, and the URL fields are not scored.
		Status:    "Current",
		SourceURL: "https://capital.example.com/portfolio",
	}

	assert.ElementsMatch(t, []string{"industry", "year", "website"}, rec.ScoredFilled())
	assert.ElementsMatch(t, []string{"description", "ceo", "investment_role", "ownership", "location"}, rec.MissingFields())
	assert.Equal(t, 8, ScoredFieldCount())
}

func TestHasName(t *testing.T) {
	assert.True(t, (&InvestmentRecord{Name: "Acme"}).HasName())
	assert.False(t, (&InvestmentRecord{Name: "   "}).HasName())
	assert.False(t, (&InvestmentRecord{}).HasName())
}

func TestFilledCount(t *testing.T) {
	empty := InvestmentRecord{Name: "Acme"}
	partial := InvestmentRecord{Name: "Acme", Industry: "Manufacturing", CEO: "Jane Roe"}

	assert.Greater(t, partial.FilledCount(), empty.FilledCount())
}

func TestCountersSnapshot(t *testing.T) {
	var c Counters
	c.CacheHits.Add(2)
	c.CacheMisses.Add(3)
	c.SuccessfulPages.Add(1)

	stats := c.Snapshot()

	assert.Equal(t, 2, stats.CacheHits)
	assert.Equal(t, 3, stats.CacheMisses)
	assert.Equal(t, 1, stats.SuccessfulPages)
	assert.Equal(t, 0, stats.FailedPages)
}
