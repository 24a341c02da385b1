package lock

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLock_SameProjectIsExclusive(t *testing.T) {
	l := New()
	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "p1")
			require.NoError(t, err)
			n := inside.Add(1)
			for {
				m := maxInside.Load()
				if n <= m || maxInside.CompareAndSwap(m, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			inside.Add(-1)
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside.Load())
	assert.Equal(t, 0, l.Held())
}

func TestLock_DifferentProjectsRunConcurrently(t *testing.T) {
	l := New()
	unlockA, err := l.Lock(context.Background(), "a")
	require.NoError(t, err)
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB, err := l.Lock(context.Background(), "b")
		if err == nil {
			unlockB()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on project b blocked behind project a")
	}
}

func TestLock_ContextCancelledWhileWaiting(t *testing.T) {
	l := New()
	unlock, err := l.Lock(context.Background(), "p1")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = l.Lock(ctx, "p1")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, l.Held())
}

func TestLock_UnlockIsIdempotent(t *testing.T) {
	l := New()
	unlock, err := l.Lock(context.Background(), "p1")
	require.NoError(t, err)
	unlock()
	unlock()

	again, err := l.Lock(context.Background(), "p1")
	require.NoError(t, err)
	again()
}

func TestLock_EmptyProjectID(t *testing.T) {
	_, err := New().Lock(context.Background(), "")
	assert.Error(t, err)
}

func TestLock_FileLockCreatedInDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "locks")
	l := New(WithDir(dir), WithRetryInterval(time.Millisecond))

	unlock, err := l.Lock(context.Background(), "p1")
	require.NoError(t, err)
	_, statErr := os.Stat(filepath.Join(dir, "p1.lock"))
	assert.NoError(t, statErr)
	unlock()
}

type fakeFileLock struct {
	ok       bool
	err      error
	unlocked atomic.Bool
}

func (f *fakeFileLock) TryLockContext(context.Context, time.Duration) (bool, error) {
	return f.ok, f.err
}

func (f *fakeFileLock) Unlock() error {
	f.unlocked.Store(true)
	return nil
}

type fakeFactory struct{ lock *fakeFileLock }

func (f fakeFactory) New(string) FileLock { return f.lock }

func TestLock_FileLockFailureReleasesProject(t *testing.T) {
	fl := &fakeFileLock{err: errors.New("disk gone")}
	l := New(WithDir(t.TempDir()), WithFileLockFactory(fakeFactory{fl}))

	_, err := l.Lock(context.Background(), "p1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk gone")
	assert.Equal(t, 0, l.Held())
}

func TestLock_FileLockHeldElsewhere(t *testing.T) {
	fl := &fakeFileLock{ok: false}
	l := New(WithDir(t.TempDir()), WithFileLockFactory(fakeFactory{fl}))

	_, err := l.Lock(context.Background(), "p1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "held elsewhere")
}

func TestLock_FileLockReleasedOnUnlock(t *testing.T) {
	fl := &fakeFileLock{ok: true}
	l := New(WithDir(t.TempDir()), WithFileLockFactory(fakeFactory{fl}))

	unlock, err := l.Lock(context.Background(), "p1")
	require.NoError(t, err)
	assert.False(t, fl.unlocked.Load())
	unlock()
	assert.True(t, fl.unlocked.Load())
}
