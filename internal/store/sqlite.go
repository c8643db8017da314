package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/portfolio-scout/internal/model"
)

// sweepChancePercent is the probability (in percent) that a Put also purges
// expired rows, keeping the store bounded without a background job.
const sweepChancePercent = 1

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db  *sql.DB
	ttl time.Duration

	// nowFunc allows test injection of time.
	nowFunc func() time.Time
	// sweepFunc decides whether a Put triggers an expiry sweep.
	sweepFunc func() bool
}

// Option customizes a SQLiteStore.
type Option func(*SQLiteStore)

// WithTTL overrides the default cache entry lifetime.
func WithTTL(d time.Duration) Option {
	return func(s *SQLiteStore) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string, opts ...Option) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	s := &SQLiteStore{
		db:        db,
		ttl:       CacheTTL,
		nowFunc:   time.Now,
		sweepFunc: func() bool { return rand.IntN(100) < sweepChancePercent },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS response_cache (
	id           TEXT PRIMARY KEY,
	url          TEXT NOT NULL,
	content_type TEXT NOT NULL,
	body         BLOB NOT NULL,
	created_at   DATETIME NOT NULL,
	expires_at   DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	seed_url   TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'running',
	result     TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_response_cache_key ON response_cache(url, content_type);
CREATE INDEX IF NOT EXISTS idx_response_cache_expires_at ON response_cache(expires_at);
CREATE INDEX IF NOT EXISTS idx_runs_seed_url ON runs(seed_url);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Get returns the newest non-expired entry for (url, contentType), nil on miss.
func (s *SQLiteStore) Get(ctx context.Context, url string, ct ContentType) (*CachedResponse, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, url, content_type, body, created_at, expires_at FROM response_cache
		 WHERE url = ? AND content_type = ? AND expires_at > ?
		 ORDER BY created_at DESC, rowid DESC LIMIT 1`,
		url, string(ct), s.nowFunc().UTC(),
	)

	var cr CachedResponse
	var ctStr string
	err := row.Scan(&cr.ID, &cr.URL, &ctStr, &cr.Body, &cr.CreatedAt, &cr.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get cached response")
	}
	cr.ContentType = ContentType(ctStr)
	return &cr, nil
}

// Put inserts a fresh cache entry with the standard TTL. Older entries for the
// same key are left to expire; an occasional sweep removes expired rows.
func (s *SQLiteStore) Put(ctx context.Context, url string, ct ContentType, body []byte) error {
	now := s.nowFunc().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO response_cache (id, url, content_type, body, created_at, expires_at) VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), url, string(ct), body, now, now.Add(s.ttl),
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: put cached response")
	}

	if s.sweepFunc() {
		if _, sweepErr := s.PurgeExpired(ctx); sweepErr != nil {
			return eris.Wrap(sweepErr, "sqlite: expiry sweep")
		}
	}
	return nil
}

func (s *SQLiteStore) PurgeExpired(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM response_cache WHERE expires_at <= ?`, s.nowFunc().UTC(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: purge expired")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

func (s *SQLiteStore) Stats(ctx context.Context) (*CacheStats, error) {
	var st CacheStats
	now := s.nowFunc().UTC()
	if err := s.db.QueryRowContext(ctx,
		`SELECT count(*), count(CASE WHEN expires_at <= ? THEN 1 END) FROM response_cache`, now,
	).Scan(&st.Entries, &st.Expired); err != nil {
		return nil, eris.Wrap(err, "sqlite: cache stats")
	}
	return &st, nil
}

func (s *SQLiteStore) CreateRun(ctx context.Context, seedURL string) (*model.Run, error) {
	id := uuid.New().String()
	now := s.nowFunc().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, seed_url, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, seedURL, string(model.RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:        id,
		SeedURL:   seedURL,
		Status:    model.RunStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, status model.RunStatus, result *model.ScrapeResult) error {
	var resultJSON sql.NullString
	if result != nil {
		data, err := json.Marshal(result)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal run result")
		}
		resultJSON = sql.NullString{String: string(data), Valid: true}
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, result = ?, updated_at = ? WHERE id = ?`,
		string(status), resultJSON, s.nowFunc().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, seed_url, status, result, created_at, updated_at FROM runs WHERE 1=1`
	var args []any

	if filter.SeedURL != "" {
		query += ` AND seed_url = ?`
		args = append(args, filter.SeedURL)
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var r model.Run
		var resultJSON sql.NullString
		if err := rows.Scan(&r.ID, &r.SeedURL, &r.Status, &resultJSON, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		if resultJSON.Valid {
			r.Result = &model.ScrapeResult{}
			if err := json.Unmarshal([]byte(resultJSON.String), r.Result); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal run result")
			}
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}
