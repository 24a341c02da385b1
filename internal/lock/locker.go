// Package lock serializes writers per project. Writers of different projects
// run concurrently; writers of the same project queue. With a lock directory
// configured, the serialization also holds across processes sharing a
// database file.
package lock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const defaultRetryInterval = 25 * time.Millisecond

// Locker hands out per-project exclusive locks.
type Locker struct {
	mu      sync.Mutex
	entries map[string]*entry

	dir           string
	files         FileLockFactory
	retryInterval time.Duration
}

type entry struct {
	sem  chan struct{}
	refs int
}

type Option func(*Locker)

// WithDir adds a cross-process file lock per project under dir.
func WithDir(dir string) Option {
	return func(l *Locker) { l.dir = dir }
}

// WithFileLockFactory replaces the flock-based factory.
func WithFileLockFactory(f FileLockFactory) Option {
	return func(l *Locker) { l.files = f }
}

func WithRetryInterval(d time.Duration) Option {
	return func(l *Locker) { l.retryInterval = d }
}

func New(opts ...Option) *Locker {
	l := &Locker{
		entries:       make(map[string]*entry),
		files:         FlockFactory{},
		retryInterval: defaultRetryInterval,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Lock blocks until projectID is free or ctx is done. The returned func
// releases the lock and must be called exactly once.
func (l *Locker) Lock(ctx context.Context, projectID string) (func(), error) {
	if projectID == "" {
		return nil, fmt.Errorf("locking project: empty project id")
	}
	e := l.acquireEntry(projectID)

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		l.releaseEntry(projectID)
		return nil, fmt.Errorf("waiting for project %s: %w", projectID, ctx.Err())
	}

	var fl FileLock
	if l.dir != "" {
		var err error
		fl, err = l.lockFile(ctx, projectID)
		if err != nil {
			<-e.sem
			l.releaseEntry(projectID)
			return nil, err
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			if fl != nil {
				_ = fl.Unlock()
			}
			<-e.sem
			l.releaseEntry(projectID)
		})
	}, nil
}

func (l *Locker) lockFile(ctx context.Context, projectID string) (FileLock, error) {
	if err := os.MkdirAll(l.dir, 0755); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}
	fl := l.files.New(filepath.Join(l.dir, projectID+".lock"))
	ok, err := fl.TryLockContext(ctx, l.retryInterval)
	if err != nil {
		return nil, fmt.Errorf("acquiring file lock for project %s: %w", projectID, err)
	}
	if !ok {
		return nil, fmt.Errorf("acquiring file lock for project %s: lock held elsewhere", projectID)
	}
	return fl, nil
}

func (l *Locker) acquireEntry(projectID string) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[projectID]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		l.entries[projectID] = e
	}
	e.refs++
	return e
}

func (l *Locker) releaseEntry(projectID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[projectID]
	if !ok {
		return
	}
	e.refs--
	if e.refs == 0 {
		delete(l.entries, projectID)
	}
}

// Held returns the number of projects with a holder or waiter.
func (l *Locker) Held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
