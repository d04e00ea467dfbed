package interfaces

import "context"

// MissingKind distinguishes a missing command from a missing host package
type MissingKind string

// MissingKind constants
const (
	MissingKindCommand MissingKind = "command"
	MissingKindPackage MissingKind = "package"
)

// MissingItem is one unsatisfied prerequisite
type MissingItem struct {
	Kind MissingKind `json:"kind"`
	Name string      `json:"name"`
}

// PrereqResult is the outcome of a full prerequisite sweep. Missing
// always holds the complete set, never just the first hit, so an
// operator can fix everything in one pass.
type PrereqResult struct {
	Missing []MissingItem `json:"missing"`
}

// Satisfied reports whether every prerequisite was found
func (r *PrereqResult) Satisfied() bool {
	return len(r.Missing) == 0
}

// PrerequisiteChecker verifies required host tools and packages exist
// before the pipeline performs any network or filesystem mutation
type PrerequisiteChecker interface {
	// Check probes every required command and package and returns the
	// full missing set. It never short-circuits on the first failure.
	Check(ctx context.Context, commands []string, packages []string) (*PrereqResult, error)
}
