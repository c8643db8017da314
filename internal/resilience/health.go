// Package resilience tracks per-hostname health so bulk operations can
// short-circuit domains that are currently failing.
package resilience

import (
	"sync"
	"time"
)

// FailureKind labels what went wrong on the last failed call to a host.
type FailureKind string

const (
	FailureTimeout FailureKind = "timeout"
	FailureHTTP    FailureKind = "http"
	FailureBlocked FailureKind = "blocked"
	FailureOther   FailureKind = "other"
)

// HostHealth is the per-hostname record.
type HostHealth struct {
	SuccessCount        int
	FailureCount        int
	ConsecutiveFailures int
	LastFailureKind     FailureKind
	LastCheckedAt       time.Time
}

// Tracker keeps health records for every host touched during a scrape.
// Safe for concurrent use by extraction workers.
type Tracker struct {
	mu        sync.Mutex
	hosts     map[string]*HostHealth
	threshold int
	window    time.Duration

	// nowFunc allows test injection of time.
	nowFunc func() time.Time
}

// NewTracker creates a Tracker. A host with threshold consecutive failures is
// denied for window; after the window elapses one probe is allowed through.
func NewTracker(threshold int, window time.Duration) *Tracker {
	if threshold <= 0 {
		threshold = 3
	}
	if window <= 0 {
		window = 5 * time.Minute
	}
	return &Tracker{
		hosts:     make(map[string]*HostHealth),
		threshold: threshold,
		window:    window,
		nowFunc:   time.Now,
	}
}

// Allow reports whether host should be attempted. Unknown hosts are allowed.
func (t *Tracker) Allow(host string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	h, ok := t.hosts[host]
	if !ok {
		return true
	}
	if h.ConsecutiveFailures < t.threshold {
		return true
	}
	// Outside the validity window the record is stale; allow a probe.
	return t.nowFunc().Sub(h.LastCheckedAt) >= t.window
}

// RecordSuccess resets the host's consecutive failure streak.
func (t *Tracker) RecordSuccess(host string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	h := t.ensure(host)
	h.SuccessCount++
	h.ConsecutiveFailures = 0
	h.LastCheckedAt = t.nowFunc()
}

// RecordFailure counts a failed call against the host.
func (t *Tracker) RecordFailure(host string, kind FailureKind) {
	t.mu.Lock()
	defer t.mu.Unlock()

	h := t.ensure(host)
	h.FailureCount++
	h.ConsecutiveFailures++
	h.LastFailureKind = kind
	h.LastCheckedAt = t.nowFunc()
}

// Snapshot returns a copy of all host records for diagnostics.
func (t *Tracker) Snapshot() map[string]HostHealth {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]HostHealth, len(t.hosts))
	for host, h := range t.hosts {
		out[host] = *h
	}
	return out
}

func (t *Tracker) ensure(host string) *HostHealth {
	h, ok := t.hosts[host]
	if !ok {
		h = &HostHealth{}
		t.hosts[host] = h
	}
	return h
}
