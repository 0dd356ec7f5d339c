// Package lockfile guards against two upgrade runs mutating the same
// install concurrently. The lock is an advisory flock on a well-known
// file; a second invocation waits briefly for the holder and then fails
// before touching anything.
package lockfile

import (
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"github.com/xenago/ls-updater/internal/messages"
)

var (
	lockWaitTimeout = 10 * time.Second
	lockPollEvery   = 100 * time.Millisecond
)

// Lock holds an acquired run lock until Release.
type Lock struct {
	file *os.File
}

// WithLock acquires the lock at path, runs fn, and releases the lock.
func WithLock(path string, fn func() error) error {
	lock, err := Acquire(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = lock.Release()
	}()
	return fn()
}

// Acquire opens or creates path and takes an exclusive advisory lock,
// polling until the wait timeout elapses.
func Acquire(path string) (*Lock, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf(messages.LockOpenFmt, path, err)
	}
	deadline := time.Now().Add(lockWaitTimeout)
	for {
		err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			return &Lock{file: file}, nil
		}
		if !errors.Is(err, unix.EWOULDBLOCK) && !errors.Is(err, unix.EAGAIN) {
			_ = file.Close()
			return nil, fmt.Errorf(messages.LockFmt, path, err)
		}
		if time.Now().After(deadline) {
			_ = file.Close()
			return nil, fmt.Errorf(messages.LockHeldFmt, path, lockWaitTimeout)
		}
		time.Sleep(lockPollEvery)
	}
}

// Release unlocks and closes the lock file.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	if err := unix.Flock(int(l.file.Fd()), unix.LOCK_UN); err != nil {
		_ = l.file.Close()
		return err
	}
	return l.file.Close()
}
