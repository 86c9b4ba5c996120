package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

const (
	lockFileSuffix = ".lock"
)

// FileLock is an advisory lock held next to a file while it is written, so
// that concurrent mrgen processes do not interleave writes to the same path.
type FileLock struct {
	lock *flock.Flock
	path string
}

// NewFileLock creates a lock for the given file path.
func NewFileLock(path string) (*FileLock, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("could not get absolute path: %w", err)
	}
	lockPath := absPath + lockFileSuffix
	return &FileLock{
		lock: flock.New(lockPath),
		path: lockPath,
	}, nil
}

// Lock acquires the lock, waiting if necessary.
func (l *FileLock) Lock() error {
	locked, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", l.path, err)
	}

	if !locked {
		Log.Infof("Another mrgen process is writing %s, waiting for it to finish...", l.path)
		if err := l.lock.Lock(); err != nil {
			return fmt.Errorf("failed to acquire lock on %s after waiting: %w", l.path, err)
		}
	}
	return nil
}

// Unlock releases the lock and removes the lock file.
func (l *FileLock) Unlock() error {
	if err := l.lock.Unlock(); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to release lock on %s: %w", l.path, err)
	}
	os.Remove(l.path)
	return nil
}

// GetAbsDBPath resolves the run-history database path, defaulting to
// ~/.config/mrgen/mrgen.sqlite.
func GetAbsDBPath(dbPath string) (string, error) {
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "mrgen", "mrgen.sqlite"), nil
	}
	return filepath.Abs(dbPath)
}
