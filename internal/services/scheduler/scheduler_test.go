package scheduler

import (
	"sync/atomic"
	"testing"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/quarry/internal/common"
)

func TestNewServiceRejectsBadSchedule(t *testing.T) {
	if _, err := NewService(arbor.NewLogger(), "not a cron", func() {}); err == nil {
		t.Error("Expected error for invalid cron expression")
	}
	if _, err := NewService(arbor.NewLogger(), "0 3 * * *", func() {}); err != nil {
		t.Errorf("Valid schedule rejected: %v", err)
	}
}

func TestTriggerSkipsOverlap(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var runs atomic.Int32

	s, err := NewService(arbor.NewLogger(), "@hourly", nil)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	s.runFn = func() {
		runs.Add(1)
		close(started)
		<-release
	}

	s.trigger()
	<-started

	// Second trigger while the first is still running must be skipped
	s.trigger()
	close(release)
	s.wg.Wait()

	if runs.Load() != 1 {
		t.Errorf("runs = %d, want 1 (overlapping trigger must be skipped)", runs.Load())
	}

	// After the first finishes, triggering works again
	done := make(chan struct{})
	s.runFn = func() {
		runs.Add(1)
		close(done)
	}
	s.trigger()
	<-done
	s.wg.Wait()

	if runs.Load() != 2 {
		t.Errorf("runs = %d, want 2 after non-overlapping trigger", runs.Load())
	}
}

func TestTriggerSurvivesPanickingRun(t *testing.T) {
	savedDir := common.CrashLogDir
	common.CrashLogDir = t.TempDir()
	t.Cleanup(func() { common.CrashLogDir = savedDir })

	s, err := NewService(arbor.NewLogger(), "@hourly", func() {
		panic("rebuild blew up")
	})
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	s.trigger()
	s.wg.Wait()

	// The panic must not leave the running flag stuck: the next trigger
	// still fires
	done := make(chan struct{})
	s.runFn = func() { close(done) }
	s.trigger()
	<-done
	s.wg.Wait()
}
