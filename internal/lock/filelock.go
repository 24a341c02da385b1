package lock

import (
	"context"
	"time"

	"github.com/gofrs/flock"
)

// FileLock defines the interface for file locking operations.
type FileLock interface {
	// TryLockContext attempts to acquire an exclusive lock with retries.
	TryLockContext(ctx context.Context, retryInterval time.Duration) (bool, error)

	// Unlock releases the lock.
	Unlock() error
}

// FileLockFactory creates FileLock instances.
type FileLockFactory interface {
	New(path string) FileLock
}

// FlockFactory is the default factory implementation using flock.
type FlockFactory struct{}

func (FlockFactory) New(path string) FileLock {
	return flock.New(path)
}
