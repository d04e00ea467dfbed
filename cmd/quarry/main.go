package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/quarry/internal/app"
	"github.com/ternarybob/quarry/internal/common"
	"github.com/ternarybob/quarry/internal/services/pipeline"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	// Command-line flags
	configFiles  configPaths // Multiple -config flags supported
	prefixFlag   = flag.String("prefix", "", "Install prefix (overrides config)")
	buildDirFlag = flag.String("build-dir", "", "Source checkout directory (overrides config)")
	jobsFlag     = flag.Int("jobs", 0, "Parallel compile jobs (overrides config, default: host core count)")
	jobsFlagJ    = flag.Int("j", 0, "Parallel compile jobs (shorthand)")
	manifestFlag = flag.String("manifest", "", "Toolchain manifest file (.toml or .yaml, overrides pinned revisions)")
	opensslRev   = flag.String("openssl-rev", "", "OpenSSL revision override")
	nghttp3Rev   = flag.String("nghttp3-rev", "", "nghttp3 revision override")
	curlRev      = flag.String("curl-rev", "", "curl revision override")
	yesFlag      = flag.Bool("yes", false, "Skip the confirmation prompt")
	yesFlagY     = flag.Bool("y", false, "Skip the confirmation prompt (shorthand)")
	watchFlag    = flag.Bool("watch", false, "Stay running and rebuild on the configured cron schedule")
	historyFlag  = flag.Int("history", 0, "Print the N most recent build runs and exit")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")

	// Global state
	config *common.Config
	logger arbor.ILogger
)

func init() {
	// Register custom flag for multiple config files
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	defer common.RecoverAndExit()

	flag.Parse()

	// Handle version flag
	if *showVersion || *showVersionV {
		fmt.Printf("Quarry version %s\n", common.GetVersion())
		os.Exit(0)
	}

	// Startup sequence (REQUIRED ORDER):
	// 1. Load config (defaults -> file1 -> file2 -> ... -> env)
	// 2. Apply CLI overrides (highest priority)
	// 3. Initialize logger
	// 4. Print banner
	var err error

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, statErr := os.Stat("quarry.toml"); statErr == nil {
			configFiles = append(configFiles, "quarry.toml")
		}
	}

	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	applyCLIOverrides(config)

	if err := config.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger = common.InitLogger(config)
	common.InstallCrashHandler("")
	common.PrintBanner(common.LoadVersionFromFile())

	// Cancel at the next stage-step boundary on SIGINT/SIGTERM;
	// a mid-compile kill leaves no meaningful checkpoint anyway.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(config, logger, app.Options{
		AutoConfirm: *yesFlag || *yesFlagY,
		Watch:       *watchFlag,
		RevisionOverrides: map[string]string{
			"openssl": *opensslRev,
			"nghttp3": *nghttp3Rev,
			"curl":    *curlRev,
		},
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize application")
		os.Exit(1)
	}
	defer application.Close()

	if err := run(ctx, application); err != nil {
		if errors.Is(err, pipeline.ErrDeclined) || errors.Is(err, context.Canceled) {
			logger.Warn().Err(err).Msg("Run did not complete")
		} else {
			logger.Error().Err(err).Msg("Run failed")
		}
		application.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, application *app.App) error {
	if *historyFlag > 0 {
		return application.History(ctx, *historyFlag)
	}
	if *watchFlag {
		return application.Watch(ctx)
	}
	return application.RunOnce(ctx)
}

// applyCLIOverrides applies command-line flags on top of the loaded
// configuration (highest priority)
func applyCLIOverrides(config *common.Config) {
	if *prefixFlag != "" {
		config.Build.Prefix = *prefixFlag
	}
	if *buildDirFlag != "" {
		config.Build.BuildDir = *buildDirFlag
	}
	jobs := *jobsFlag
	if *jobsFlagJ != 0 {
		jobs = *jobsFlagJ
	}
	if jobs != 0 {
		config.Build.Jobs = jobs
	}
	if *manifestFlag != "" {
		config.Build.Manifest = *manifestFlag
	}
	if *watchFlag {
		config.Schedule.Enabled = true
	}
}
