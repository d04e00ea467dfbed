// -----------------------------------------------------------------------
// Failure taxonomy - every way a pipeline run can fail, as typed kinds
// -----------------------------------------------------------------------

package models

import (
	"fmt"
	"strings"
)

// FailureKind classifies a pipeline failure. Every kind except
// EnvironmentArtifactWrite is fatal to the run.
type FailureKind string

// FailureKind constants
const (
	FailureKindMissingPrerequisite      FailureKind = "MissingPrerequisite"
	FailureKindSourceFetch              FailureKind = "SourceFetchFailure"
	FailureKindConfiguration            FailureKind = "ConfigurationFailure"
	FailureKindCompile                  FailureKind = "CompileFailure"
	FailureKindInstall                  FailureKind = "InstallFailure"
	FailureKindStageVerification        FailureKind = "StageVerificationFailure"
	FailureKindFinalCapabilityMissing   FailureKind = "FinalCapabilityMissing"
	FailureKindEnvironmentArtifactWrite FailureKind = "EnvironmentArtifactWriteFailure"
)

// IsFatal reports whether this failure kind halts the run
func (k FailureKind) IsFatal() bool {
	return k != FailureKindEnvironmentArtifactWrite && k != ""
}

// String returns the string representation of the FailureKind
func (k FailureKind) String() string {
	return string(k)
}

// BuildError carries the failure kind, the dependency or capability that
// failed, and the underlying tool's diagnostic output. Diagnostics are
// never swallowed; the last lines are included in the error text so a
// bare log line is still actionable.
type BuildError struct {
	Kind        FailureKind
	Dependency  string // dependency name, if stage-scoped
	Capability  string // capability name, if verification-scoped
	Err         error
	Diagnostics []string // tail of the failing tool's combined output
}

// Error implements the error interface
func (e *BuildError) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.Kind))
	if e.Dependency != "" {
		sb.WriteString(fmt.Sprintf(" [%s]", e.Dependency))
	}
	if e.Capability != "" {
		sb.WriteString(fmt.Sprintf(" [capability: %s]", e.Capability))
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	if len(e.Diagnostics) > 0 {
		sb.WriteString("\n")
		sb.WriteString(strings.Join(e.Diagnostics, "\n"))
	}
	return sb.String()
}

// Unwrap returns the underlying error
func (e *BuildError) Unwrap() error {
	return e.Err
}

// NewStageError creates a BuildError for a stage-level failure
func NewStageError(kind FailureKind, dependency string, err error, diagnostics []string) *BuildError {
	return &BuildError{
		Kind:        kind,
		Dependency:  dependency,
		Err:         err,
		Diagnostics: diagnostics,
	}
}

// NewCapabilityError creates a BuildError for a missing final capability
func NewCapabilityError(capability string) *BuildError {
	return &BuildError{
		Kind:       FailureKindFinalCapabilityMissing,
		Capability: capability,
		Err:        fmt.Errorf("installed toolchain does not report capability %q", capability),
	}
}
