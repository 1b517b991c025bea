// Package analytics folds page views into a single snapshot document kept in
// the blob store, fronted by a short-lived in-process cache.
//
// The snapshot is read, mutated and written back whole. Writers in other
// processes race with last-writer-wins semantics; within one process the
// aggregator serialises updates.
package analytics

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/blogdesk/blogdesk/internal/apperr"
	"github.com/blogdesk/blogdesk/pkg/logger"
	"github.com/blogdesk/blogdesk/pkg/metrics"
)

// SnapshotKey is the blob key holding the snapshot.
const SnapshotKey = "analytics-data"

// Store is the subset of the blob gateway the aggregator needs.
type Store interface {
	GetJSON(ctx context.Context, key string, v any) (bool, error)
	SetJSON(ctx context.Context, key string, v any) error
}

// PageView is one tracked visit.
type PageView struct {
	Path      string
	Referrer  string
	SessionID string
	UserAgent string
	Country   string
	City      string
	Timestamp time.Time
}

type Aggregator struct {
	store Store
	cache *Cache
	now   func() time.Time
	mu    sync.Mutex
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithClock replaces time.Now for both the aggregator and its cache.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		a.now = now
		a.cache.now = now
	}
}

// WithCache supplies the cache instance.
func WithCache(c *Cache) Option {
	return func(a *Aggregator) { a.cache = c }
}

func NewAggregator(store Store, ttl time.Duration, opts ...Option) *Aggregator {
	a := &Aggregator{store: store, cache: NewCache(ttl), now: time.Now}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Cache exposes the aggregator's cache.
func (a *Aggregator) Cache() *Cache { return a.cache }

// load returns the current snapshot, from cache when fresh. Caller holds a.mu.
func (a *Aggregator) load(ctx context.Context) (*Snapshot, error) {
	if s, ok := a.cache.Get(); ok {
		return s, nil
	}
	s := &Snapshot{}
	found, err := a.store.GetJSON(ctx, SnapshotKey, s)
	if err != nil {
		return nil, fmt.Errorf("load analytics: %w", err)
	}
	if !found {
		s = NewSnapshot()
	}
	s.normalize()
	a.cache.Put(s)
	return s, nil
}

// Snapshot returns a copy of the current analytics state.
func (a *Aggregator) Snapshot(ctx context.Context) (*Snapshot, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, err := a.load(ctx)
	if err != nil {
		return nil, err
	}
	return s.Clone(), nil
}

// RecordPageView folds v into the snapshot and persists it. Bot traffic is
// dropped and reported as not recorded.
func (a *Aggregator) RecordPageView(ctx context.Context, v PageView) (bool, error) {
	if strings.TrimSpace(v.Path) == "" {
		return false, apperr.Invalid("path")
	}
	if IsBot(v.UserAgent) {
		logger.Debugf("analytics: ignoring bot %q", v.UserAgent)
		return false, nil
	}
	ts := v.Timestamp
	if ts.IsZero() {
		ts = a.now()
	}
	ts = ts.UTC()

	a.mu.Lock()
	defer a.mu.Unlock()

	cur, err := a.load(ctx)
	if err != nil {
		return false, err
	}
	next := cur.Clone()
	next.PageViews[v.Path]++
	if v.SessionID != "" {
		next.UniqueVisitors.Add(v.SessionID)
	}
	next.Referrers[CleanReferrer(v.Referrer)]++
	browser, device := ParseUserAgent(v.UserAgent)
	next.Browsers[browser]++
	next.Devices[device]++
	if v.Country != "" {
		next.Countries[v.Country]++
	}
	if v.City != "" {
		next.Cities[v.City]++
	}
	next.ViewsByDay[ts.Format("2006-01-02")]++
	next.ViewsByHour[ts.Format("15")]++
	next.TotalViews++
	next.LastUpdated = a.now().UTC()

	if err := a.store.SetJSON(ctx, SnapshotKey, next); err != nil {
		return false, fmt.Errorf("save analytics: %w", err)
	}
	a.cache.Put(next)
	metrics.PageViews.Inc()
	return true, nil
}

// Purge resets the persisted snapshot and clears the cache.
func (a *Aggregator) Purge(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cache.Invalidate()
	if err := a.store.SetJSON(ctx, SnapshotKey, NewSnapshot()); err != nil {
		return fmt.Errorf("purge analytics: %w", err)
	}
	logger.Infof("analytics purged")
	return nil
}
