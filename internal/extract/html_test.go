package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/portfolio-scout/internal/model"
)

func TestExtractDetailHTML(t *testing.T) {
	html := `<html><head>
		<title>Acme Industries | Capital Partners</title>
		<meta name="description" content="Industrial fasteners for aerospace.">
	</head><body>
		<h1>Acme Industries</h1>
		<p>Industry: Manufacturing</p>
		<p>CEO: Jane Roe</p>
		<a href="https://capital.example.com/team">Team</a>
		<a href="https://www.linkedin.com/company/acme">LinkedIn</a>
		<a href="https://acme-industries.example.com">Visit site</a>
	</body></html>`

	records := extractDetailHTML(html, "https://capital.example.com/portfolio/acme-industries")

	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, "Acme Industries", rec.Name)
	assert.Equal(t, "Industrial fasteners for aerospace.", rec.Description)
	assert.Equal(t, "https://acme-industries.example.com", rec.Website, "same-host and social links are skipped")
	assert.Equal(t, model.MethodHTMLPattern, rec.Method)
}

func TestExtractDetailHTML_TitleFallbackName(t *testing.T) {
	html := `<html><head><title>Zenith Health - Capital Partners</title></head><body><p>text</p></body></html>`

	records := extractDetailHTML(html, "https://capital.example.com/")

	require.Len(t, records, 1)
	assert.Equal(t, "Zenith Health", records[0].Name)
}

func TestExtractListingHTML_StructuralRows(t *testing.T) {
	html := `<html><body>
		<div class="portfolio-item">
			<h3>Acme Industries</h3>
			<p>Industry: Manufacturing</p>
			<a href="/portfolio/acme-industries">Details</a>
		</div>
		<div class="portfolio-item">
			<h3>Zenith Health</h3>
			<p>Industry: Healthcare</p>
			<a href="/portfolio/zenith-health">Details</a>
		</div>
	</body></html>`

	records := extractListingHTML(html, "https://capital.example.com/portfolio")

	require.Len(t, records, 2)
	assert.Equal(t, "Acme Industries", records[0].Name)
	assert.Equal(t, "Manufacturing", records[0].Industry)
	assert.Equal(t, "https://capital.example.com/portfolio/acme-industries", records[0].PortfolioURL)
	assert.Equal(t, "Zenith Health", records[1].Name)
}

func TestExtractListingHTML_SingleRowNotEnough(t *testing.T) {
	html := `<html><body>
		<div class="portfolio-item"><h3>Acme Industries</h3></div>
	</body></html>`

	records := extractListingHTML(html, "https://capital.example.com/portfolio")

	assert.Empty(t, records)
}

func TestExtractListingHTML_AnchorFallback(t *testing.T) {
	html := `<html><body>
		<a href="/portfolio/acme-industries">Acme Industries</a>
		<a href="/portfolio/zenith-health">Zenith Health</a>
		<a href="/about">About us</a>
		<a href="/portfolio/acme-industries">Acme Industries</a>
	</body></html>`

	records := extractListingHTML(html, "https://capital.example.com/portfolio")

	require.Len(t, records, 2)
	assert.Equal(t, "Acme Industries", records[0].Name)
	assert.Equal(t, "https://capital.example.com/portfolio/acme-industries", records[0].PortfolioURL)
	assert.Equal(t, "Zenith Health", records[1].Name)
}

func TestNameFromSlug(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://x.example.com/portfolio/acme-industries", "Acme Industries"},
		{"https://x.example.com/portfolio/zenith_health", "Zenith Health"},
		{"https://x.example.com/portfolio/", ""},
		{"https://x.example.com/", ""},
		{"https://x.example.com/portfolio/logo.png", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, nameFromSlug(tt.url), tt.url)
	}
}

func TestTrimTitleSuffix(t *testing.T) {
	assert.Equal(t, "Acme", trimTitleSuffix("Acme | Capital Partners"))
	assert.Equal(t, "Acme", trimTitleSuffix("Acme - Capital Partners"))
	assert.Equal(t, "Acme Industries", trimTitleSuffix("Acme Industries"))
}

func TestResolveHref(t *testing.T) {
	assert.Equal(t, "https://x.example.com/portfolio/acme",
		resolveHref("https://x.example.com/portfolio", "/portfolio/acme"))
	assert.Equal(t, "https://other.example.com/",
		resolveHref("https://x.example.com/portfolio", "https://other.example.com/"))
	assert.Empty(t, resolveHref("https://x.example.com", "mailto:a@example.com"))
}

func TestIsSocialHost(t *testing.T) {
	assert.True(t, isSocialHost("www.linkedin.com"))
	assert.True(t, isSocialHost("x.com"))
	assert.False(t, isSocialHost("acme.example.com"))
}

func TestRecordFromRowSkipsBoilerplate(t *testing.T) {
	html := `<html><body>
		<div class="card"><h3>View All</h3></div>
		<div class="card"><h3>Acme Industries</h3></div>
		<div class="card"><h3>Zenith Health</h3></div>
	</body></html>`

	records := extractListingHTML(html, "https://capital.example.com/portfolio")

	require.Len(t, records, 2)
	for _, rec := range records {
		assert.NotEqual(t, "View All", rec.Name)
	}
}
