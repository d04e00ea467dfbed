// -----------------------------------------------------------------------
// Application wiring - builds the toolchain, services and pipeline from
// configuration
// -----------------------------------------------------------------------

package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/quarry/internal/common"
	"github.com/ternarybob/quarry/internal/interfaces"
	"github.com/ternarybob/quarry/internal/models"
	"github.com/ternarybob/quarry/internal/services/envscript"
	"github.com/ternarybob/quarry/internal/services/manifest"
	"github.com/ternarybob/quarry/internal/services/pipeline"
	"github.com/ternarybob/quarry/internal/services/prereq"
	"github.com/ternarybob/quarry/internal/services/scheduler"
	"github.com/ternarybob/quarry/internal/services/verify"
	"github.com/ternarybob/quarry/internal/storage"
	"github.com/ternarybob/quarry/internal/toolexec"
)

// Options are the CLI-level choices that shape the application wiring
type Options struct {
	AutoConfirm       bool              // -yes: never prompt
	Watch             bool              // scheduled rebuild mode; implies AutoConfirm
	RevisionOverrides map[string]string // dependency name -> revision
	Output            io.Writer         // summary output (defaults to os.Stdout)
}

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager
	Runner         interfaces.CommandRunner
	Toolchain      *models.Toolchain

	confirmer interfaces.Confirmer
	out       io.Writer
}

// New wires the application from configuration
func New(config *common.Config, logger arbor.ILogger, opts Options) (*App, error) {
	storageManager, err := storage.NewStorageManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	var stepTimeout time.Duration
	if config.Build.StepTimeout != "" {
		stepTimeout, err = time.ParseDuration(config.Build.StepTimeout)
		if err != nil {
			storageManager.Close()
			return nil, fmt.Errorf("invalid step_timeout '%s': %w", config.Build.StepTimeout, err)
		}
	}
	runner := toolexec.NewRunner(logger, stepTimeout)

	// Pinned toolchain unless a manifest overrides it
	toolchain := models.DefaultToolchain()
	if config.Build.Manifest != "" {
		toolchain, err = manifest.NewLoader(logger).Load(config.Build.Manifest)
		if err != nil {
			storageManager.Close()
			return nil, err
		}
	}
	if err := manifest.ApplyRevisionOverrides(toolchain, opts.RevisionOverrides); err != nil {
		storageManager.Close()
		return nil, err
	}

	// Scheduled runs have no operator, so watch mode always auto-confirms
	var confirmer interfaces.Confirmer
	if opts.AutoConfirm || opts.Watch || !config.Build.Confirm {
		confirmer = &pipeline.AutoConfirmer{}
	} else {
		confirmer = pipeline.NewTerminalConfirmer(os.Stdin, os.Stdout)
	}

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	return &App{
		Config:         config,
		Logger:         logger,
		StorageManager: storageManager,
		Runner:         runner,
		Toolchain:      toolchain,
		confirmer:      confirmer,
		out:            out,
	}, nil
}

// RunOnce executes a single pipeline run and prints the summary.
// The returned error is nil only when prerequisites, every stage and
// every capability check passed.
func (a *App) RunOnce(ctx context.Context) error {
	buildCtx, err := models.NewBuildContext(a.Config.Build.Prefix, a.Config.Build.BuildDir, a.Config.Build.Jobs)
	if err != nil {
		return err
	}

	p := pipeline.New(pipeline.Options{
		Toolchain:      a.Toolchain,
		BuildContext:   buildCtx,
		Checker:        prereq.NewChecker(a.Runner, a.Logger),
		Stages:         pipeline.NewStageRunner(a.Runner, a.Logger),
		Verifier:       verify.NewVerifier(a.Runner, verify.DefaultRules(), a.Logger),
		Emitter:        envscript.NewEmitter(a.Logger),
		Confirmer:      a.confirmer,
		Storage:        a.StorageManager,
		Logger:         a.Logger,
		PrereqCommands: a.Config.Prereq.Commands,
		PrereqPackages: a.Config.Prereq.Packages,
	})

	record, runErr := p.Run(ctx)
	if record != nil {
		a.printSummary(record)
	}
	return runErr
}

// Watch runs the pipeline on the configured cron schedule until the
// context is cancelled
func (a *App) Watch(ctx context.Context) error {
	svc, err := scheduler.NewService(a.Logger, a.Config.Schedule.Cron, func() {
		if err := a.RunOnce(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("Scheduled rebuild failed")
		}
	})
	if err != nil {
		return err
	}

	a.Logger.Info().
		Str("cron", a.Config.Schedule.Cron).
		Msg("Watch mode active, rebuilding on schedule")

	svc.Start()
	<-ctx.Done()
	svc.Stop()
	return nil
}

// History prints the most recent build runs
func (a *App) History(ctx context.Context, limit int) error {
	records, err := a.StorageManager.BuildStorage().ListRecords(ctx, limit)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Fprintln(a.out, "No build history recorded yet")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tSTARTED\tOUTCOME\tPREFIX\tDETAIL")
	for _, record := range records {
		detail := ""
		if record.FailureKind != "" {
			detail = record.FailureKind.String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			record.ID,
			record.StartedAt.Format(time.RFC3339),
			record.Outcome,
			record.Prefix,
			detail)
	}
	return w.Flush()
}

// Close releases application resources
func (a *App) Close() {
	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage")
		}
	}
}

// printSummary writes the operator-facing result block
func (a *App) printSummary(record *models.BuildRecord) {
	fmt.Fprintf(a.out, "\nRun %s: %s\n", record.ID, record.Outcome)

	for _, stage := range record.Stages {
		line := fmt.Sprintf("  %-10s %s", stage.Dependency, stage.Outcome)
		if stage.FailureKind != "" {
			line += fmt.Sprintf(" (%s at %s)", stage.FailureKind, stage.FailedStep)
		}
		fmt.Fprintln(a.out, line)
	}

	if record.Outcome == models.RunOutcomeSuccess {
		fmt.Fprintf(a.out, "Toolchain installed at %s\n", record.Prefix)
		fmt.Fprintf(a.out, "  HTTP/3: %s\n", enabled(record.Capabilities[models.CapabilityHTTP3]))
		fmt.Fprintf(a.out, "  WebSocket: %s\n", enabled(record.Capabilities[models.CapabilityWebSocket]))
		fmt.Fprintf(a.out, "Activate with: . %s/%s\n", record.Prefix, envscript.ScriptName)
	} else if record.Error != "" {
		fmt.Fprintf(a.out, "Failure: %s\n", record.Error)
	}
}

func enabled(present bool) string {
	if present {
		return "ENABLED"
	}
	return "DISABLED"
}
