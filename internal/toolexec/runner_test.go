package toolexec

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/quarry/internal/interfaces"
)

func TestRunCapturesCombinedOutput(t *testing.T) {
	runner := NewRunner(arbor.NewLogger(), 0)

	output, err := runner.Run(context.Background(), interfaces.Command{
		Name: "sh",
		Args: []string{"-c", "echo to-stdout; echo to-stderr >&2"},
	})
	require.NoError(t, err)
	assert.Contains(t, output, "to-stdout")
	assert.Contains(t, output, "to-stderr")
}

func TestRunReturnsOutputWithFailure(t *testing.T) {
	runner := NewRunner(arbor.NewLogger(), 0)

	output, err := runner.Run(context.Background(), interfaces.Command{
		Name: "sh",
		Args: []string{"-c", "echo diagnostic line; exit 2"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed")
	assert.Contains(t, output, "diagnostic line", "diagnostics must survive a non-zero exit")
}

func TestRunCancellationWrapsContextError(t *testing.T) {
	runner := NewRunner(arbor.NewLogger(), 0)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	_, err := runner.Run(ctx, interfaces.Command{
		Name: "sleep",
		Args: []string{"30"},
	})
	require.Error(t, err)

	// The killed process must surface as cancellation, not as a tool
	// failure, or the stage outcome becomes Failed instead of Cancelled
	assert.True(t, errors.Is(err, context.Canceled), "err = %v", err)
	assert.False(t, strings.Contains(err.Error(), "signal: killed"))
}

func TestRunStepTimeout(t *testing.T) {
	runner := NewRunner(arbor.NewLogger(), 100*time.Millisecond)

	_, err := runner.Run(context.Background(), interfaces.Command{
		Name: "sleep",
		Args: []string{"30"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "err = %v", err)
	assert.Contains(t, err.Error(), "timed out")
}

func TestLookPath(t *testing.T) {
	runner := NewRunner(arbor.NewLogger(), 0)

	if _, err := runner.LookPath("sh"); err != nil {
		t.Errorf("sh should resolve: %v", err)
	}
	if _, err := runner.LookPath("definitely-not-a-real-tool"); err == nil {
		t.Error("expected error for unresolvable command")
	}
}
