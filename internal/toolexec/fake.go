package toolexec

import (
	"context"
	"sync"

	"github.com/ternarybob/quarry/internal/interfaces"
)

// FakeRunner is a recording CommandRunner for tests. Handler decides each
// invocation's output and error; when nil every command succeeds with
// empty output. Calls records every invocation in order.
type FakeRunner struct {
	mu    sync.Mutex
	Calls []interfaces.Command

	// Handler handles Run invocations. Optional.
	Handler func(cmd interfaces.Command) (string, error)

	// MissingCommands lists names LookPath reports as unresolvable
	MissingCommands map[string]bool
}

// NewFakeRunner creates a fake runner where every command succeeds
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{}
}

// Run records the invocation and delegates to Handler
func (f *FakeRunner) Run(ctx context.Context, cmd interfaces.Command) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f.mu.Lock()
	f.Calls = append(f.Calls, cmd)
	f.mu.Unlock()

	if f.Handler != nil {
		return f.Handler(cmd)
	}
	return "", nil
}

// LookPath resolves every name except those listed in MissingCommands
func (f *FakeRunner) LookPath(name string) (string, error) {
	if f.MissingCommands[name] {
		return "", &missingError{name: name}
	}
	return "/usr/bin/" + name, nil
}

// CallCount returns the number of recorded Run invocations
func (f *FakeRunner) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}

// CommandLines returns each recorded invocation as name + args
func (f *FakeRunner) CommandLines() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	lines := make([][]string, 0, len(f.Calls))
	for _, call := range f.Calls {
		lines = append(lines, append([]string{call.Name}, call.Args...))
	}
	return lines
}

type missingError struct{ name string }

func (e *missingError) Error() string {
	return "executable file not found in $PATH: " + e.name
}
