package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPrefixLockExclusion(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "toolchain")

	lock, err := acquirePrefixLock(prefix)
	if err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}

	if _, err := acquirePrefixLock(prefix); err == nil {
		t.Fatal("second acquire succeeded while lock held")
	} else if !strings.Contains(err.Error(), "locked by another run") {
		t.Errorf("unexpected error text: %v", err)
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("release failed: %v", err)
	}

	// Released lock can be re-acquired
	again, err := acquirePrefixLock(prefix)
	if err != nil {
		t.Fatalf("re-acquire after release failed: %v", err)
	}
	if err := again.Release(); err != nil {
		t.Fatalf("second release failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(prefix, lockFileName)); !os.IsNotExist(err) {
		t.Error("lock file left behind after release")
	}
}

func TestPrefixLockReleaseIdempotent(t *testing.T) {
	lock, err := acquirePrefixLock(filepath.Join(t.TempDir(), "toolchain"))
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Errorf("second release must be a no-op, got: %v", err)
	}
}
