// -----------------------------------------------------------------------
// Stage Runner - fetch, configure, compile, install, verify for one
// dependency against the shared install prefix
// -----------------------------------------------------------------------

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/quarry/internal/interfaces"
	"github.com/ternarybob/quarry/internal/models"
)

// StageRunner executes the build of exactly one dependency. Configurers
// are registered per build kind, mirroring how step executors route on
// action type.
type StageRunner struct {
	runner      interfaces.CommandRunner
	configurers map[models.BuildKind]Configurer
	logger      arbor.ILogger
}

// NewStageRunner creates a stage runner with the default configurers
// registered
func NewStageRunner(runner interfaces.CommandRunner, logger arbor.ILogger) *StageRunner {
	s := &StageRunner{
		runner:      runner,
		configurers: make(map[models.BuildKind]Configurer),
		logger:      logger,
	}
	s.RegisterConfigurer(&AutotoolsConfigurer{})
	s.RegisterConfigurer(&OpenSSLConfigurer{})
	s.RegisterConfigurer(&CMakeConfigurer{})
	return s
}

// RegisterConfigurer registers a configurer for a build kind
func (s *StageRunner) RegisterConfigurer(c Configurer) {
	s.configurers[c.BuildKind()] = c
	s.logger.Debug().
		Str("build_kind", c.BuildKind().String()).
		Msg("Configurer registered")
}

// RunStage executes all steps for one dependency. Every step is a commit
// point: a failure halts the stage with the failing step recorded, and a
// cancelled context at a step boundary produces a Cancelled outcome
// rather than Failed.
func (s *StageRunner) RunStage(ctx context.Context, spec *models.DependencySpec, buildCtx *models.BuildContext) *models.StageResult {
	result := &models.StageResult{
		Dependency: spec.Name,
		StartedAt:  time.Now(),
	}

	stageLogger := s.logger.WithCorrelationId(spec.Name)
	stageLogger.Info().
		Str("dependency", spec.Name).
		Str("revision", spec.Revision).
		Str("build_kind", spec.BuildKind.String()).
		Msg("Starting stage")

	steps := []struct {
		name models.StageStep
		run  func(context.Context, *models.DependencySpec, *models.BuildContext, *models.StageResult) error
	}{
		{models.StageStepAcquire, s.acquire},
		{models.StageStepConfigure, s.configure},
		{models.StageStepCompile, s.compile},
		{models.StageStepInstall, s.install},
		{models.StageStepVerify, s.verify},
	}

	for _, step := range steps {
		// Cancellation is honored at step boundaries only: a partially
		// written object tree is not a meaningful checkpoint.
		if err := ctx.Err(); err != nil {
			result.Outcome = models.StageOutcomeCancelled
			result.FailedStep = step.name
			result.Duration = time.Since(result.StartedAt)
			stageLogger.Warn().
				Str("dependency", spec.Name).
				Str("step", string(step.name)).
				Msg("Stage cancelled before step")
			return result
		}

		stageLogger.Info().
			Str("dependency", spec.Name).
			Str("step", string(step.name)).
			Msg("Executing step")

		if err := step.run(ctx, spec, buildCtx, result); err != nil {
			result.Duration = time.Since(result.StartedAt)
			result.FailedStep = step.name
			if errors.Is(err, context.Canceled) {
				result.Outcome = models.StageOutcomeCancelled
				stageLogger.Warn().
					Str("dependency", spec.Name).
					Str("step", string(step.name)).
					Msg("Stage cancelled during step")
				return result
			}
			result.Outcome = models.StageOutcomeFailed
			result.FailureKind = models.FailureKindForStep(step.name)
			result.Log = append(result.Log, fmt.Sprintf("step %s failed: %v", step.name, err))
			stageLogger.Error().Err(err).
				Str("dependency", spec.Name).
				Str("step", string(step.name)).
				Str("failure_kind", result.FailureKind.String()).
				Msg("Step failed")
			return result
		}
	}

	result.Outcome = models.StageOutcomeSuccess
	result.Duration = time.Since(result.StartedAt)
	stageLogger.Info().
		Str("dependency", spec.Name).
		Str("duration", result.Duration.Round(time.Millisecond).String()).
		Msg("Stage complete")
	return result
}

// acquire checks out the exact revision into a clean work directory.
// Any directory left by a prior attempt is destroyed first, so a re-run
// is identical to a run against a pristine tree.
func (s *StageRunner) acquire(ctx context.Context, spec *models.DependencySpec, buildCtx *models.BuildContext, result *models.StageResult) error {
	workDir := buildCtx.WorkDir(spec.Name)

	if err := os.RemoveAll(workDir); err != nil {
		return fmt.Errorf("failed to reset work directory %s: %w", workDir, err)
	}
	if err := os.MkdirAll(buildCtx.BuildDir, 0755); err != nil {
		return fmt.Errorf("failed to create build directory: %w", err)
	}

	if err := s.runStep(ctx, result, interfaces.Command{
		Dir:  buildCtx.BuildDir,
		Name: "git",
		Args: []string{"clone", "--depth", "1", "--branch", spec.Revision, spec.SourceURL, workDir},
	}); err != nil {
		return err
	}

	if spec.Submodules {
		if err := s.runStep(ctx, result, interfaces.Command{
			Dir:  workDir,
			Name: "git",
			Args: []string{"submodule", "update", "--init", "--recursive"},
		}); err != nil {
			return err
		}
	}

	return nil
}

// configure routes to the build kind's configurer and runs its command
// sequence with the shared prefix's search paths injected
func (s *StageRunner) configure(ctx context.Context, spec *models.DependencySpec, buildCtx *models.BuildContext, result *models.StageResult) error {
	configurer, exists := s.configurers[spec.BuildKind]
	if !exists {
		return fmt.Errorf("no configurer registered for build kind: %s", spec.BuildKind)
	}

	workDir := buildCtx.WorkDir(spec.Name)
	for _, line := range configurer.ConfigureCommands(spec, buildCtx) {
		if err := s.runStep(ctx, result, interfaces.Command{
			Dir:  workDir,
			Env:  buildCtx.Environ(),
			Name: line[0],
			Args: line[1:],
		}); err != nil {
			return err
		}
	}
	return nil
}

// compile runs the parallel build
func (s *StageRunner) compile(ctx context.Context, spec *models.DependencySpec, buildCtx *models.BuildContext, result *models.StageResult) error {
	return s.runStep(ctx, result, interfaces.Command{
		Dir:  buildCtx.WorkDir(spec.Name),
		Env:  buildCtx.Environ(),
		Name: "make",
		Args: []string{"-j", strconv.Itoa(buildCtx.JobCount)},
	})
}

// install places build products into the shared prefix so subsequent
// stages' search paths see them immediately
func (s *StageRunner) install(ctx context.Context, spec *models.DependencySpec, buildCtx *models.BuildContext, result *models.StageResult) error {
	configurer := s.configurers[spec.BuildKind]
	return s.runStep(ctx, result, interfaces.Command{
		Dir:  buildCtx.WorkDir(spec.Name),
		Env:  buildCtx.Environ(),
		Name: "make",
		Args: configurer.InstallArgs(),
	})
}

// verify runs the spec's cheap sanity probe against the installed
// artifact before declaring success, catching configuration drift early
// instead of deferring everything to final verification
func (s *StageRunner) verify(ctx context.Context, spec *models.DependencySpec, buildCtx *models.BuildContext, result *models.StageResult) error {
	probe := spec.ExpandProbe(buildCtx.InstallPrefix)
	if len(probe.Command) == 0 {
		return nil
	}

	output, err := s.runner.Run(ctx, interfaces.Command{
		Env:  buildCtx.Environ(),
		Name: probe.Command[0],
		Args: probe.Command[1:],
	})
	appendLines(result, output)
	if err != nil {
		return fmt.Errorf("probe command failed: %w", err)
	}

	if probe.Pattern != "" {
		matcher, err := regexp.Compile(probe.Pattern)
		if err != nil {
			return fmt.Errorf("invalid probe pattern %q: %w", probe.Pattern, err)
		}
		if !matcher.MatchString(output) {
			return fmt.Errorf("probe output did not match %q", probe.Pattern)
		}
	}

	return nil
}

// runStep executes one tool invocation and captures its output into the
// stage log whether it succeeds or fails
func (s *StageRunner) runStep(ctx context.Context, result *models.StageResult, cmd interfaces.Command) error {
	output, err := s.runner.Run(ctx, cmd)
	appendLines(result, output)
	return err
}

func appendLines(result *models.StageResult, output string) {
	for _, line := range strings.Split(strings.TrimRight(output, "\n"), "\n") {
		if line != "" {
			result.Log = append(result.Log, line)
		}
	}
}
