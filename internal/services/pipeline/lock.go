package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// lockFileName is created inside the install prefix for the duration of
// a run. Only one pipeline run may target a given prefix at a time;
// concurrent runs would corrupt each other's partial installs.
const lockFileName = ".quarry.lock"

// prefixLock is an exclusive filesystem lock on an install prefix
type prefixLock struct {
	path string
}

// acquirePrefixLock creates the prefix directory if needed and takes the
// exclusive lock. A held lock from another process is a hard error that
// names the lock file so the operator can inspect it.
func acquirePrefixLock(prefix string) (*prefixLock, error) {
	if err := os.MkdirAll(prefix, 0755); err != nil {
		return nil, fmt.Errorf("failed to create install prefix %s: %w", prefix, err)
	}

	path := filepath.Join(prefix, lockFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("install prefix %s is locked by another run (remove %s if that run is dead)", prefix, path)
		}
		return nil, fmt.Errorf("failed to lock install prefix: %w", err)
	}

	if _, err := f.WriteString(strconv.Itoa(os.Getpid()) + "\n"); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("failed to write lock file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to close lock file: %w", err)
	}

	return &prefixLock{path: path}, nil
}

// Release removes the lock file
func (l *prefixLock) Release() error {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to release prefix lock: %w", err)
	}
	return nil
}
