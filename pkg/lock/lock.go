// Copyright © 2018 One Concern

// Package lock implements the advisory lock protecting a local catalog.
//
// The lock is a zero-byte marker file next to the catalog: it is held as
// long as the marker exists. There is no owner and no expiry, so a marker
// left behind by a crashed process must be removed by hand.
package lock

import (
	"fmt"
	"os"

	"github.com/oneconcern/catsync/pkg/lock/status"

	"github.com/spf13/afero"
)

// Ext is appended to the path of the protected file to name the lock marker
const Ext = ".lock"

// Lock is an advisory lock on a file. It is not reentrant.
type Lock struct {
	fs   afero.Fs
	path string
}

// New builds the lock protecting target. Nothing is created until TryLock.
func New(fs afero.Fs, target string) *Lock {
	return &Lock{fs: fs, path: target + Ext}
}

// Path of the marker file
func (l *Lock) Path() string {
	return l.path
}

// TryLock creates the marker, failing with status.ErrLocked when it is
// already present.
func (l *Lock) TryLock() error {
	f, err := l.fs.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		if os.IsExist(err) {
			return status.ErrLocked.Wrapf("%s", l.path)
		}
		return fmt.Errorf("creating lock marker %s: %w", l.path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("creating lock marker %s: %w", l.path, err)
	}
	return nil
}

// Locked tells if the marker is present
func (l *Lock) Locked() (bool, error) {
	return afero.Exists(l.fs, l.path)
}

// Unlock removes the marker. It reports whether a marker was removed:
// unlocking a lock which is not held is not an error.
func (l *Lock) Unlock() (bool, error) {
	err := l.fs.Remove(l.path)
	switch {
	case err == nil:
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, fmt.Errorf("removing lock marker %s: %w", l.path, err)
	}
}
