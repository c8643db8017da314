package renderer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("test-api-key", WithBaseURL(srv.URL))
}

func TestSubmitCrawl(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/crawl", r.URL.Path)
		assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req CrawlRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "https://capital.example.com", req.URL)
		assert.Equal(t, 2, req.MaxDepth)
		assert.Equal(t, 50, req.Limit)

		json.NewEncoder(w).Encode(CrawlJob{Success: true, ID: "crawl-123"})
	})

	job, err := c.SubmitCrawl(context.Background(), CrawlRequest{
		URL: "https://capital.example.com", MaxDepth: 2, Limit: 50,
	})

	require.NoError(t, err)
	assert.True(t, job.Success)
	assert.Equal(t, "crawl-123", job.ID)
}

func TestCrawlStatus(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/crawl/crawl-123", r.URL.Path)

		json.NewEncoder(w).Encode(CrawlStatusResponse{
			Status:    StatusCompleted,
			Completed: 2,
			Total:     2,
			Pages: []PageData{
				{URL: "https://capital.example.com/portfolio", Title: "Portfolio"},
				{URL: "https://capital.example.com/portfolio/acme", Title: "Acme"},
			},
		})
	})

	status, err := c.CrawlStatus(context.Background(), "crawl-123")

	require.NoError(t, err)
	assert.True(t, status.Done())
	assert.Len(t, status.Pages, 2)
}

func TestCrawlStatusResponse_Done(t *testing.T) {
	assert.False(t, (&CrawlStatusResponse{Status: StatusRunning}).Done())
	assert.True(t, (&CrawlStatusResponse{Status: StatusCompleted}).Done())
	assert.True(t, (&CrawlStatusResponse{Status: StatusFailed}).Done())
}

func TestScrape_WithExtraction(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/scrape", r.URL.Path)

		var req ScrapeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotNil(t, req.Extract)
		assert.NotEmpty(t, req.Extract.Schema)

		json.NewEncoder(w).Encode(ScrapeResponse{
			Success: true,
			Data: PageData{
				URL:       req.URL,
				Extracted: json.RawMessage(`{"name": "Acme Industries"}`),
			},
		})
	})

	resp, err := c.Scrape(context.Background(), ScrapeRequest{
		URL:     "https://capital.example.com/portfolio/acme",
		Formats: []string{"html", "markdown"},
		Extract: &ExtractSpec{Schema: json.RawMessage(`{"type": "object"}`)},
	})

	require.NoError(t, err)
	assert.JSONEq(t, `{"name": "Acme Industries"}`, string(resp.Data.Extracted))
}

func TestErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(t *testing.T, err error)
	}{
		{"unauthorized", http.StatusUnauthorized, func(t *testing.T, err error) {
			assert.True(t, IsAuth(err))
			var e *AuthError
			require.ErrorAs(t, err, &e)
			assert.Equal(t, http.StatusUnauthorized, e.StatusCode)
		}},
		{"forbidden", http.StatusForbidden, func(t *testing.T, err error) {
			assert.True(t, IsAuth(err))
		}},
		{"payment required", http.StatusPaymentRequired, func(t *testing.T, err error) {
			assert.True(t, IsQuota(err))
			assert.False(t, IsAuth(err))
		}},
		{"too many requests", http.StatusTooManyRequests, func(t *testing.T, err error) {
			assert.True(t, IsRateLimit(err))
		}},
		{"server error", http.StatusInternalServerError, func(t *testing.T, err error) {
			var e *ProtocolError
			require.ErrorAs(t, err, &e)
			assert.Equal(t, http.StatusInternalServerError, e.StatusCode)
			assert.False(t, IsAuth(err))
			assert.False(t, IsQuota(err))
			assert.False(t, IsRateLimit(err))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"error":"nope"}`))
			})

			_, err := c.Scrape(context.Background(), ScrapeRequest{URL: "https://capital.example.com"})
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestScrape_MalformedResponseBody(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	})

	_, err := c.Scrape(context.Background(), ScrapeRequest{URL: "https://capital.example.com"})
	require.Error(t, err)
}
