package movable

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/model/mtree"
)

// ScopeLocks serializes writers per sibling scope. Locks for several scopes
// are always taken in ascending key order, so two moves that touch the same
// pair of parents from opposite sides cannot deadlock.
type ScopeLocks struct {
	mu    sync.Mutex
	locks map[string]*scopeLock
}

type scopeLock struct {
	sem  *semaphore.Weighted
	refs int
}

func NewScopeLocks() *ScopeLocks {
	return &ScopeLocks{locks: make(map[string]*scopeLock)}
}

// Acquire blocks until every scope is held or ctx is done. The returned
// release func is safe to call more than once.
func (l *ScopeLocks) Acquire(ctx context.Context, scopes ...mtree.Scope) (func(), error) {
	keys := scopeKeys(scopes)
	held := make([]string, 0, len(keys))

	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			l.unlock(held[i])
		}
		held = held[:0]
	}

	for _, key := range keys {
		lock := l.ref(key)
		if err := lock.sem.Acquire(ctx, 1); err != nil {
			l.unref(key)
			release()
			return nil, fmt.Errorf("lock scope %s: %w", key, err)
		}
		held = append(held, key)
	}

	var once sync.Once
	return func() { once.Do(release) }, nil
}

// AcquireTimeout is Acquire bounded by timeout; zero means no bound.
func (l *ScopeLocks) AcquireTimeout(ctx context.Context, timeout time.Duration, scopes ...mtree.Scope) (func(), error) {
	if timeout <= 0 {
		return l.Acquire(ctx, scopes...)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return l.Acquire(ctx, scopes...)
}

func (l *ScopeLocks) ref(key string) *scopeLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.locks[key]
	if !ok {
		lock = &scopeLock{sem: semaphore.NewWeighted(1)}
		l.locks[key] = lock
	}
	lock.refs++
	return lock
}

func (l *ScopeLocks) unref(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock := l.locks[key]
	lock.refs--
	if lock.refs == 0 {
		delete(l.locks, key)
	}
}

func (l *ScopeLocks) unlock(key string) {
	l.mu.Lock()
	lock := l.locks[key]
	l.mu.Unlock()
	lock.sem.Release(1)
	l.unref(key)
}

// scopeKeys returns the distinct keys of scopes in lock order.
func scopeKeys(scopes []mtree.Scope) []string {
	seen := make(map[string]struct{}, len(scopes))
	keys := make([]string, 0, len(scopes))
	for _, s := range scopes {
		k := s.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// covers reports whether every scope in need is among held.
func covers(held, need []mtree.Scope) bool {
	set := make(map[string]struct{}, len(held))
	for _, s := range held {
		set[s.Key()] = struct{}{}
	}
	for _, s := range need {
		if _, ok := set[s.Key()]; !ok {
			return false
		}
	}
	return true
}
