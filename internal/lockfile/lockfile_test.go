package lockfile

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// shortenTimeout makes lock contention fail fast for the duration of a test.
func shortenTimeout(t *testing.T) {
	t.Helper()
	oldWait, oldPoll := lockWaitTimeout, lockPollEvery
	lockWaitTimeout = 200 * time.Millisecond
	lockPollEvery = 20 * time.Millisecond
	t.Cleanup(func() {
		lockWaitTimeout, lockPollEvery = oldWait, oldPoll
	})
}

func TestAcquireRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".ls-updater.lock")

	lock, err := Acquire(path)
	require.NoError(t, err)
	require.NoError(t, lock.Release())

	// Reacquire after release.
	lock, err = Acquire(path)
	require.NoError(t, err)
	require.NoError(t, lock.Release())
}

func TestAcquireContended(t *testing.T) {
	shortenTimeout(t)
	path := filepath.Join(t.TempDir(), ".ls-updater.lock")

	holder, err := Acquire(path)
	require.NoError(t, err)
	defer func() { _ = holder.Release() }()

	// A second open file description cannot take the flock while it is held.
	_, err = Acquire(path)
	require.Error(t, err)
}

func TestAcquireWaitsForHolder(t *testing.T) {
	shortenTimeout(t)
	path := filepath.Join(t.TempDir(), ".ls-updater.lock")

	holder, err := Acquire(path)
	require.NoError(t, err)
	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = holder.Release()
	}()

	lock, err := Acquire(path)
	require.NoError(t, err)
	require.NoError(t, lock.Release())
}

func TestAcquireUnwritableDir(t *testing.T) {
	_, err := Acquire(filepath.Join(t.TempDir(), "no-such-dir", "x.lock"))
	require.Error(t, err)
}

func TestWithLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".ls-updater.lock")
	ran := false
	err := WithLock(path, func() error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	require.True(t, ran)

	wantErr := errors.New("inner failure")
	err = WithLock(path, func() error { return wantErr })
	require.ErrorIs(t, err, wantErr)
}

func TestReleaseNil(t *testing.T) {
	var lock *Lock
	require.NoError(t, lock.Release())
}
