// Package cache holds the client's disposable copies of server data. Each
// view loads all of its collections concurrently and replaces its snapshot
// only when every member succeeded, so a failed or cancelled load never
// leaves a half-updated view behind.
package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrDiscarded is returned when a load finished after its scope closed or
// after a newer load of the same view started. Its result was not stored.
var ErrDiscarded = errors.New("cache: load result discarded")

// Fetcher fetches one collection and stores it in a location owned by the
// caller. It must honor ctx cancellation.
type Fetcher func(ctx context.Context) error

// Load runs every fetcher concurrently and waits for all of them. The
// first failure cancels the others and is returned.
func Load(ctx context.Context, fetchers ...Fetcher) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, f := range fetchers {
		g.Go(func() error { return f(gctx) })
	}
	return g.Wait()
}

// Snapshot is the last successfully loaded value of a view together with
// a generation counter. Only the newest started load may commit.
type Snapshot[T any] struct {
	mu       sync.RWMutex
	value    T
	loaded   bool
	loadedAt time.Time
	issued   uint64
}

// Get returns the current value and whether anything has been loaded.
func (s *Snapshot[T]) Get() (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value, s.loaded
}

// LoadedAt returns when the value was last replaced.
func (s *Snapshot[T]) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

// Begin starts a new generation and returns its number.
func (s *Snapshot[T]) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

// Commit stores v if gen is still the newest generation.
func (s *Snapshot[T]) Commit(gen uint64, v T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.issued {
		return false
	}
	s.value = v
	s.loaded = true
	s.loadedAt = time.Now()
	return true
}

// refresh runs the fetchers built for a fresh value and commits it. On any
// failure the previous value is returned unchanged alongside the error.
func refresh[T any](ctx context.Context, snap *Snapshot[T], build func(next *T) []Fetcher) (T, error) {
	gen := snap.Begin()

	var next T
	err := Load(ctx, build(&next)...)

	if ctx.Err() != nil {
		cur, _ := snap.Get()
		return cur, ErrDiscarded
	}
	if err != nil {
		cur, _ := snap.Get()
		return cur, err
	}
	if !snap.Commit(gen, next) {
		cur, _ := snap.Get()
		return cur, ErrDiscarded
	}
	return next, nil
}

// Scope ties loads to the lifetime of a view. Closing it cancels any load
// still in flight and makes its result be discarded.
type Scope struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// NewScope derives a scope from parent.
func NewScope(parent context.Context) *Scope {
	ctx, cancel := context.WithCancel(parent)
	return &Scope{ctx: ctx, cancel: cancel}
}

// Context returns the context loads in this scope run under.
func (s *Scope) Context() context.Context { return s.ctx }

// Close cancels the scope. It is safe to call more than once.
func (s *Scope) Close() { s.cancel() }

// Closed reports whether Close has been called or the parent ended.
func (s *Scope) Closed() bool { return s.ctx.Err() != nil }
