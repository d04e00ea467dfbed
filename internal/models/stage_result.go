package models

import "time"

// StageOutcome represents the terminal state of one stage execution
type StageOutcome string

// StageOutcome constants. Cancelled is distinct from Failed: it means the
// run's context was cancelled at a step boundary, not that a tool failed.
const (
	StageOutcomeSuccess   StageOutcome = "success"
	StageOutcomeFailed    StageOutcome = "failed"
	StageOutcomeCancelled StageOutcome = "cancelled"
)

// IsValid checks if the StageOutcome is a known, valid value
func (o StageOutcome) IsValid() bool {
	switch o {
	case StageOutcomeSuccess, StageOutcomeFailed, StageOutcomeCancelled:
		return true
	}
	return false
}

// String returns the string representation of the StageOutcome
func (o StageOutcome) String() string {
	return string(o)
}

// StageStep identifies one commit point inside a stage
type StageStep string

// StageStep constants, in execution order
const (
	StageStepAcquire   StageStep = "acquire"
	StageStepConfigure StageStep = "configure"
	StageStepCompile   StageStep = "compile"
	StageStepInstall   StageStep = "install"
	StageStepVerify    StageStep = "verify"
)

// FailureKindForStep maps a failing step to its failure classification
func FailureKindForStep(step StageStep) FailureKind {
	switch step {
	case StageStepAcquire:
		return FailureKindSourceFetch
	case StageStepConfigure:
		return FailureKindConfiguration
	case StageStepCompile:
		return FailureKindCompile
	case StageStepInstall:
		return FailureKindInstall
	case StageStepVerify:
		return FailureKindStageVerification
	}
	return FailureKindCompile
}

// StageResult is the record of one StageRunner invocation. The pipeline
// consumes Outcome for its fail-fast decision; callers consume the rest
// for reporting and history.
type StageResult struct {
	Dependency  string        `json:"dependency"`
	Outcome     StageOutcome  `json:"outcome"`
	FailedStep  StageStep     `json:"failed_step,omitempty"`
	FailureKind FailureKind   `json:"failure_kind,omitempty"`
	Log         []string      `json:"log,omitempty"` // diagnostic lines from the underlying tools
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration"`
}

// Succeeded reports whether the stage completed successfully
func (r *StageResult) Succeeded() bool {
	return r.Outcome == StageOutcomeSuccess
}
