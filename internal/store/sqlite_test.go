package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/portfolio-scout/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLite(filepath.Join(t.TempDir(), "scout.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })

	// Deterministic: no random sweeps during tests.
	st.sweepFunc = func() bool { return false }
	return st
}

func TestCache_PutGet(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.Put(ctx, "https://a.example.com/portfolio", ContentCrawl, []byte(`{"pages":[]}`)))

	got, err := st.Get(ctx, "https://a.example.com/portfolio", ContentCrawl)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []byte(`{"pages":[]}`), got.Body)
	assert.Equal(t, ContentCrawl, got.ContentType)
}

func TestCache_MissReturnsNil(t *testing.T) {
	st := newTestStore(t)

	got, err := st.Get(context.Background(), "https://nowhere.example.com", ContentCrawl)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCache_ContentTypesAreSeparateNamespaces(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	url := "https://a.example.com/portfolio/acme"

	require.NoError(t, st.Put(ctx, url, ContentScrapeDetail, []byte("detail")))

	got, err := st.Get(ctx, url, ContentScrapeListing)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = st.Get(ctx, url, ContentScrapeDetail)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []byte("detail"), got.Body)
}

func TestCache_TTLBoundary(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	st.nowFunc = func() time.Time { return t0 }
	require.NoError(t, st.Put(ctx, "https://a.example.com", ContentCrawl, []byte("body")))

	st.nowFunc = func() time.Time { return t0.Add(47*time.Hour + 59*time.Minute) }
	got, err := st.Get(ctx, "https://a.example.com", ContentCrawl)
	require.NoError(t, err)
	assert.NotNil(t, got, "entry should still be served just before the TTL")

	st.nowFunc = func() time.Time { return t0.Add(48*time.Hour + time.Minute) }
	got, err = st.Get(ctx, "https://a.example.com", ContentCrawl)
	require.NoError(t, err)
	assert.Nil(t, got, "entry should be a miss once the TTL has passed")
}

func TestCache_NewestEntryWins(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	st.nowFunc = func() time.Time { return t0 }
	require.NoError(t, st.Put(ctx, "https://a.example.com", ContentCrawl, []byte("old")))

	st.nowFunc = func() time.Time { return t0.Add(time.Hour) }
	require.NoError(t, st.Put(ctx, "https://a.example.com", ContentCrawl, []byte("new")))

	got, err := st.Get(ctx, "https://a.example.com", ContentCrawl)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []byte("new"), got.Body)
}

func TestCache_NewestEntryWinsAtSameTimestamp(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// Frozen clock: both entries share created_at, insertion order decides.
	st.nowFunc = func() time.Time { return t0 }
	require.NoError(t, st.Put(ctx, "https://a.example.com", ContentCrawl, []byte("first")))
	require.NoError(t, st.Put(ctx, "https://a.example.com", ContentCrawl, []byte("second")))

	got, err := st.Get(ctx, "https://a.example.com", ContentCrawl)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []byte("second"), got.Body)
}

func TestCache_PurgeExpired(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	st.nowFunc = func() time.Time { return t0 }
	require.NoError(t, st.Put(ctx, "https://old.example.com", ContentCrawl, []byte("old")))

	st.nowFunc = func() time.Time { return t0.Add(49 * time.Hour) }
	require.NoError(t, st.Put(ctx, "https://fresh.example.com", ContentCrawl, []byte("fresh")))

	n, err := st.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	stats, err := st.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, 0, stats.Expired)
}

func TestCache_SweepRunsOnPut(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	st.nowFunc = func() time.Time { return t0 }
	require.NoError(t, st.Put(ctx, "https://old.example.com", ContentCrawl, []byte("old")))

	st.nowFunc = func() time.Time { return t0.Add(49 * time.Hour) }
	st.sweepFunc = func() bool { return true }
	require.NoError(t, st.Put(ctx, "https://fresh.example.com", ContentCrawl, []byte("fresh")))

	stats, err := st.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Entries)
}

func TestCache_CustomTTL(t *testing.T) {
	st, err := NewSQLite(filepath.Join(t.TempDir(), "scout.db"), WithTTL(time.Hour))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })
	st.sweepFunc = func() bool { return false }

	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	st.nowFunc = func() time.Time { return t0 }
	require.NoError(t, st.Put(ctx, "https://a.example.com", ContentCrawl, []byte("body")))

	st.nowFunc = func() time.Time { return t0.Add(2 * time.Hour) }
	got, err := st.Get(ctx, "https://a.example.com", ContentCrawl)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRuns_CreateCompleteList(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "https://capital.example.com")
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusRunning, run.Status)

	result := &model.ScrapeResult{
		Success: true,
		SeedURL: "https://capital.example.com",
		Investments: []model.InvestmentRecord{
			{Name: "Acme Industries", Confidence: 50},
		},
	}
	require.NoError(t, st.CompleteRun(ctx, run.ID, model.RunStatusComplete, result))

	runs, err := st.ListRuns(ctx, RunFilter{SeedURL: "https://capital.example.com"})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunStatusComplete, runs[0].Status)
	require.NotNil(t, runs[0].Result)
	require.Len(t, runs[0].Result.Investments, 1)
	assert.Equal(t, "Acme Industries", runs[0].Result.Investments[0].Name)
}

func TestRuns_CompleteUnknownRun(t *testing.T) {
	st := newTestStore(t)

	err := st.CompleteRun(context.Background(), "no-such-run", model.RunStatusFailed, nil)
	assert.Error(t, err)
}

func TestRuns_ListFiltersBySeed(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.CreateRun(ctx, "https://one.example.com")
	require.NoError(t, err)
	_, err = st.CreateRun(ctx, "https://two.example.com")
	require.NoError(t, err)

	runs, err := st.ListRuns(ctx, RunFilter{SeedURL: "https://one.example.com"})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "https://one.example.com", runs[0].SeedURL)
}
