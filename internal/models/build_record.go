package models

import "time"

// RunOutcome represents the terminal state of a whole pipeline run
type RunOutcome string

// RunOutcome constants
const (
	RunOutcomeSuccess   RunOutcome = "success"
	RunOutcomeFailed    RunOutcome = "failed"
	RunOutcomeCancelled RunOutcome = "cancelled"
)

// String returns the string representation of the RunOutcome
func (o RunOutcome) String() string {
	return string(o)
}

// StageSummary is the per-stage slice of a BuildRecord. Full diagnostic
// logs live in the stage log store keyed by run ID, not here.
type StageSummary struct {
	Dependency  string        `json:"dependency"`
	Outcome     StageOutcome  `json:"outcome"`
	FailedStep  StageStep     `json:"failed_step,omitempty"`
	FailureKind FailureKind   `json:"failure_kind,omitempty"`
	Duration    time.Duration `json:"duration"`
}

// BuildRecord is the persisted history entry for one pipeline run
type BuildRecord struct {
	ID           string            `json:"id" badgerhold:"key"`
	StartedAt    time.Time         `json:"started_at" badgerhold:"index"`
	FinishedAt   time.Time         `json:"finished_at"`
	Outcome      RunOutcome        `json:"outcome"`
	Prefix       string            `json:"prefix"`
	JobCount     int               `json:"job_count"`
	Revisions    map[string]string `json:"revisions"`
	Stages       []StageSummary    `json:"stages"`
	Capabilities map[string]bool   `json:"capabilities,omitempty"`
	FailureKind  FailureKind       `json:"failure_kind,omitempty"`
	Error        string            `json:"error,omitempty"`
}

// Summarize converts a StageResult into its history form
func Summarize(result *StageResult) StageSummary {
	return StageSummary{
		Dependency:  result.Dependency,
		Outcome:     result.Outcome,
		FailedStep:  result.FailedStep,
		FailureKind: result.FailureKind,
		Duration:    result.Duration,
	}
}

// StageLogEntry is one diagnostic line captured during a stage, persisted
// for later inspection of failed runs
type StageLogEntry struct {
	AssociatedRunID string    `json:"run_id" badgerhold:"index"`
	Dependency      string    `json:"dependency"`
	Line            string    `json:"line"`
	Sequence        uint64    `json:"sequence"` // global insert order, stable within a run
	Timestamp       time.Time `json:"timestamp"`
}
