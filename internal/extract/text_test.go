package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/portfolio-scout/internal/model"
)

func TestIsPlausibleName(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"Acme Industries", true},
		{"3M Ventures", true},
		{"Borealis Software Group", true},
		{"Our Portfolio", false},
		{"Read More", false},
		{"a very long phrase that could never be a company name at all", false},
		{"lowercase only words here", false},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, isPlausibleName(tt.in), tt.in)
	}
}

func TestExtractDetailText(t *testing.T) {
	text := strings.Join([]string{
		"# Acme Industries",
		"",
		"**Industry:** Manufacturing",
		"**CEO:** Jane Roe",
		"Acme makes industrial fasteners.",
	}, "\n")

	records := extractDetailText(text, "https://capital.example.com/portfolio/acme-industries")

	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, "Acme Industries", rec.Name, "slug should supply the name")
	assert.Equal(t, "Manufacturing", rec.Industry)
	assert.Equal(t, "Jane Roe", rec.CEO)
	assert.Equal(t, model.MethodTextPattern, rec.Method)
	assert.Equal(t, "https://capital.example.com/portfolio/acme-industries", rec.PortfolioURL)
}

func TestExtractDetailText_HeadingFallbackName(t *testing.T) {
	text := "# Zenith Health\n\n**Sector:** Healthcare"

	records := extractDetailText(text, "https://capital.example.com/")

	require.Len(t, records, 1)
	assert.Equal(t, "Zenith Health", records[0].Name)
}

func TestExtractDetailText_NoName(t *testing.T) {
	records := extractDetailText("Just prose with no headings.", "https://capital.example.com/")
	assert.Empty(t, records)
}

func TestExtractListingText(t *testing.T) {
	text := strings.Join([]string{
		"# Our Portfolio",
		"",
		"## Acme Industries",
		"Industry: Manufacturing",
		"Invested in 2021.",
		"",
		"## Zenith Health",
		"Industry: Healthcare",
		"",
		"## Read More",
	}, "\n")

	records := extractListingText(text, "https://capital.example.com/portfolio")

	require.Len(t, records, 2)
	assert.Equal(t, "Acme Industries", records[0].Name)
	assert.Equal(t, "Manufacturing", records[0].Industry)
	assert.Equal(t, "Zenith Health", records[1].Name)
	assert.Equal(t, "Healthcare", records[1].Industry)
}

func TestExtractListingText_DeduplicatesHeadings(t *testing.T) {
	text := "## Acme Industries\ntext\n## Acme Industries\nmore"

	records := extractListingText(text, "https://capital.example.com/portfolio")

	assert.Len(t, records, 1)
}

func TestExtractImageGrid(t *testing.T) {
	var b strings.Builder
	b.WriteString("<div class=\"grid\">")
	for _, name := range []string{"Acme Industries", "Zenith Health", "Borealis Software", "Cascade Foods", "Delta Logistics", "Ember Energy"} {
		b.WriteString(`<div class="cell"><img src="/logos/x.png"><span>` + name + `</span></div>`)
	}
	b.WriteString("</div>")

	records := extractImageGrid(b.String(), "https://capital.example.com/portfolio")

	require.Len(t, records, 6)
	assert.Equal(t, "Acme Industries", records[0].Name)
	assert.Equal(t, model.MethodImageGrid, records[0].Method)
}

func TestExtractImageGrid_BelowThreshold(t *testing.T) {
	html := `<img src="/a.png"><span>Acme Industries</span>` +
		`<img src="/b.png"><span>Zenith Health</span>`

	records := extractImageGrid(html, "https://capital.example.com/portfolio")

	assert.Empty(t, records)
}

func TestExtractImageGrid_NavigationFilteredBelowThreshold(t *testing.T) {
	// Six images but only boilerplate captions survive filtering: no yield.
	var b strings.Builder
	for i := 0; i < 6; i++ {
		b.WriteString(`<img src="/x.png"><span>Read More</span>`)
	}

	records := extractImageGrid(b.String(), "https://capital.example.com/portfolio")

	assert.Empty(t, records)
}

func TestIsDetailPath(t *testing.T) {
	assert.True(t, isDetailPath("https://x.example.com/portfolio/acme"))
	assert.False(t, isDetailPath("https://x.example.com/portfolio"))
	assert.False(t, isDetailPath("https://x.example.com/about"))
}
