// -----------------------------------------------------------------------
// Pipeline - sequences stage execution over the static dependency graph,
// gates on prerequisites, fails fast, verifies, emits
// -----------------------------------------------------------------------

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/quarry/internal/common"
	"github.com/ternarybob/quarry/internal/interfaces"
	"github.com/ternarybob/quarry/internal/models"
)

// ErrDeclined is returned when the operator declines the confirmation
// prompt. No mutation has happened at that point.
var ErrDeclined = errors.New("run declined by operator")

// Options bundles the pipeline's collaborators
type Options struct {
	Toolchain      *models.Toolchain
	BuildContext   *models.BuildContext
	Checker        interfaces.PrerequisiteChecker
	Stages         interfaces.StageRunner
	Verifier       interfaces.InstallationVerifier
	Emitter        interfaces.EnvironmentEmitter
	Confirmer      interfaces.Confirmer
	Storage        interfaces.StorageManager // optional; nil disables history
	Logger         arbor.ILogger
	PrereqCommands []string
	PrereqPackages []string
}

// Pipeline drives one toolchain build end to end. Stages run strictly
// sequentially: later configure steps consult the install prefix
// populated by earlier installs, so ordering is a hard dependency, not
// an optimization. There is no rollback of partially-installed
// artifacts; a failed run leaves the prefix as-is for inspection.
type Pipeline struct {
	opts Options
}

// New creates a pipeline from its collaborators
func New(opts Options) *Pipeline {
	return &Pipeline{opts: opts}
}

// Run executes prerequisite gate, confirmation, all stages in order,
// final verification and activation-script emission. It always returns
// the build record (persisted when storage is configured) together with
// the first fatal error, if any.
func (p *Pipeline) Run(ctx context.Context) (*models.BuildRecord, error) {
	record := &models.BuildRecord{
		ID:        common.NewRunID(),
		StartedAt: time.Now(),
		Prefix:    p.opts.BuildContext.InstallPrefix,
		JobCount:  p.opts.BuildContext.JobCount,
		Revisions: p.opts.Toolchain.Revisions(),
	}

	logger := p.opts.Logger.WithCorrelationId(record.ID)
	logger.Info().
		Str("run_id", record.ID).
		Str("prefix", record.Prefix).
		Int("jobs", record.JobCount).
		Int("dependencies", len(p.opts.Toolchain.Dependencies)).
		Msg("Starting pipeline run")

	// Hard gate: nothing may mutate the filesystem or touch the network
	// until every prerequisite is satisfied.
	prereq, err := p.opts.Checker.Check(ctx, p.opts.PrereqCommands, p.opts.PrereqPackages)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return p.finish(ctx, logger, record, models.RunOutcomeCancelled, err)
		}
		return p.finish(ctx, logger, record, models.RunOutcomeFailed, err)
	}
	if !prereq.Satisfied() {
		var names []string
		for _, item := range prereq.Missing {
			names = append(names, fmt.Sprintf("%s %q", item.Kind, item.Name))
		}
		buildErr := &models.BuildError{
			Kind: models.FailureKindMissingPrerequisite,
			Err:  fmt.Errorf("missing prerequisites: %s", strings.Join(names, ", ")),
		}
		record.FailureKind = buildErr.Kind
		return p.finish(ctx, logger, record, models.RunOutcomeFailed, buildErr)
	}

	if p.opts.Confirmer != nil {
		prompt := fmt.Sprintf("Build %s into %s with %d jobs?",
			strings.Join(p.dependencyNames(), " -> "), record.Prefix, record.JobCount)
		accepted, err := p.opts.Confirmer.Confirm(prompt)
		if err != nil {
			return p.finish(ctx, logger, record, models.RunOutcomeFailed, err)
		}
		if !accepted {
			logger.Info().Msg("Run declined by operator, nothing was modified")
			return p.finish(ctx, logger, record, models.RunOutcomeCancelled, ErrDeclined)
		}
	}

	// First mutation: lock and create the prefix.
	lock, err := acquirePrefixLock(record.Prefix)
	if err != nil {
		return p.finish(ctx, logger, record, models.RunOutcomeFailed, err)
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn().Err(err).Msg("Failed to release prefix lock")
		}
	}()

	for i := range p.opts.Toolchain.Dependencies {
		spec := &p.opts.Toolchain.Dependencies[i]

		if err := ctx.Err(); err != nil {
			logger.Warn().Str("dependency", spec.Name).Msg("Run cancelled before stage")
			return p.finish(ctx, logger, record, models.RunOutcomeCancelled, err)
		}

		result := p.opts.Stages.RunStage(ctx, spec, p.opts.BuildContext)
		record.Stages = append(record.Stages, models.Summarize(result))
		p.persistStageLog(ctx, logger, record.ID, result)

		switch result.Outcome {
		case models.StageOutcomeSuccess:
			logger.Info().
				Str("dependency", spec.Name).
				Str("duration", result.Duration.Round(time.Millisecond).String()).
				Msg("Stage succeeded")

		case models.StageOutcomeCancelled:
			return p.finish(ctx, logger, record, models.RunOutcomeCancelled, context.Canceled)

		default:
			// Fail fast: no subsequent stage executes once one fails.
			buildErr := models.NewStageError(result.FailureKind, spec.Name,
				fmt.Errorf("stage %s failed at step %s", spec.Name, result.FailedStep),
				tail(result.Log, 20))
			record.FailureKind = result.FailureKind
			return p.finish(ctx, logger, record, models.RunOutcomeFailed, buildErr)
		}
	}

	// Verification trusts only the installed artifacts' self-report,
	// independent of the stages' own success claims.
	report, err := p.opts.Verifier.Verify(ctx, p.opts.BuildContext)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return p.finish(ctx, logger, record, models.RunOutcomeCancelled, err)
		}
		return p.finish(ctx, logger, record, models.RunOutcomeFailed, err)
	}
	record.Capabilities = report.Results
	if missing := report.Missing(p.opts.Verifier.Capabilities()); len(missing) > 0 {
		buildErr := models.NewCapabilityError(missing[0])
		record.FailureKind = buildErr.Kind
		logger.Error().
			Strs("missing", missing).
			Msg("Installed toolchain is missing required capabilities")
		return p.finish(ctx, logger, record, models.RunOutcomeFailed, buildErr)
	}

	// Convenience artifact only: a write failure is reported but does
	// not invalidate the verified build.
	if p.opts.Emitter != nil {
		if path, err := p.opts.Emitter.Emit(p.opts.BuildContext); err != nil {
			logger.Warn().Err(err).
				Str("failure_kind", models.FailureKindEnvironmentArtifactWrite.String()).
				Msg("Failed to write activation script, build remains valid")
		} else {
			logger.Info().Str("path", path).Msg("Activation script written")
		}
	}

	return p.finish(ctx, logger, record, models.RunOutcomeSuccess, nil)
}

func (p *Pipeline) dependencyNames() []string {
	names := make([]string, 0, len(p.opts.Toolchain.Dependencies))
	for _, dep := range p.opts.Toolchain.Dependencies {
		names = append(names, dep.Name)
	}
	return names
}

// finish stamps the record, persists it when storage is configured, and
// propagates the run's error
func (p *Pipeline) finish(ctx context.Context, logger arbor.ILogger, record *models.BuildRecord, outcome models.RunOutcome, runErr error) (*models.BuildRecord, error) {
	record.Outcome = outcome
	record.FinishedAt = time.Now()
	if runErr != nil {
		record.Error = runErr.Error()
	}

	if p.opts.Storage != nil {
		// History writes never mask the run's own result.
		if err := p.opts.Storage.BuildStorage().SaveRecord(context.WithoutCancel(ctx), record); err != nil {
			logger.Warn().Err(err).Msg("Failed to persist build record")
		}
	}

	logger.Info().
		Str("run_id", record.ID).
		Str("outcome", outcome.String()).
		Str("duration", record.FinishedAt.Sub(record.StartedAt).Round(time.Millisecond).String()).
		Msg("Pipeline run finished")

	return record, runErr
}

func (p *Pipeline) persistStageLog(ctx context.Context, logger arbor.ILogger, runID string, result *models.StageResult) {
	if p.opts.Storage == nil || len(result.Log) == 0 {
		return
	}
	if err := p.opts.Storage.StageLogStorage().AppendLines(context.WithoutCancel(ctx), runID, result.Dependency, result.Log); err != nil {
		logger.Warn().Err(err).
			Str("dependency", result.Dependency).
			Msg("Failed to persist stage log")
	}
}

// tail returns the last n lines of the log
func tail(lines []string, n int) []string {
	if len(lines) <= n {
		return lines
	}
	return lines[len(lines)-n:]
}
