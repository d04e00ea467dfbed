package interfaces

import "context"

// Command describes one external tool invocation
type Command struct {
	Dir  string   // working directory ("" means process cwd)
	Env  []string // full environment for the invocation (nil means inherit)
	Name string   // program name or path
	Args []string // arguments, not including the program name
}

// CommandRunner abstracts external process execution so the pipeline,
// prerequisite checker and verifier are testable without a host
// toolchain. The production implementation wraps os/exec; tests use a
// recording fake.
type CommandRunner interface {
	// Run executes the command and returns its combined stdout/stderr.
	// A non-zero exit returns the output together with a non-nil error.
	Run(ctx context.Context, cmd Command) (string, error)

	// LookPath reports the resolved path of a program on the host PATH,
	// or an error if it cannot be resolved
	LookPath(name string) (string, error)
}
