package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	verrors "github.com/Aman-CERP/personalvault/internal/errors"
)

// LockFileName is created inside the data directory while a server holds it.
const LockFileName = ".server.lock"

// DirLock is a cross-process lock on the vault data directory.
// It keeps two long-running servers from writing the same database.
type DirLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// NewDirLock creates a lock for dir. Nothing is acquired until TryLock.
func NewDirLock(dir string) *DirLock {
	lockPath := filepath.Join(dir, LockFileName)
	return &DirLock{
		path:  lockPath,
		flock: flock.New(lockPath),
	}
}

// TryLock attempts to acquire the lock without blocking.
// Returns false if another process holds it.
func (l *DirLock) TryLock() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o700); err != nil {
		return false, fmt.Errorf("failed to create lock directory: %w", err)
	}

	acquired, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if acquired {
		l.locked = true
	}
	return acquired, nil
}

// Unlock releases the lock. Safe to call when not held.
func (l *DirLock) Unlock() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

// Path returns the lock file path.
func (l *DirLock) Path() string {
	return l.path
}

// IsLocked reports whether this instance holds the lock.
func (l *DirLock) IsLocked() bool {
	return l.locked
}

// AcquireDirLock takes the data directory lock or fails if it is held.
func AcquireDirLock(dir string) (*DirLock, error) {
	lock := NewDirLock(dir)
	acquired, err := lock.TryLock()
	if err != nil {
		return nil, verrors.StorageError("failed to lock data directory", err)
	}
	if !acquired {
		return nil, verrors.New(verrors.ErrCodeStoreUnavailable, "data directory is in use by another server", nil).
			WithDetail("lock", lock.Path()).
			WithSuggestion("Stop the other personalvault server or use a different storage path")
	}
	return lock, nil
}
