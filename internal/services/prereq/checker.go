// -----------------------------------------------------------------------
// Prerequisite Checker - all-or-nothing gate before any mutation begins
// -----------------------------------------------------------------------

package prereq

import (
	"context"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/quarry/internal/interfaces"
)

// Checker probes the host for required commands and packages. It always
// sweeps the full list so the operator sees everything missing at once,
// never just the first hit.
type Checker struct {
	runner interfaces.CommandRunner
	logger arbor.ILogger
}

// NewChecker creates a new prerequisite checker
func NewChecker(runner interfaces.CommandRunner, logger arbor.ILogger) *Checker {
	return &Checker{
		runner: runner,
		logger: logger,
	}
}

// Check probes every required command via PATH resolution and every
// required package via the host pkg-config database
func (c *Checker) Check(ctx context.Context, commands []string, packages []string) (*interfaces.PrereqResult, error) {
	result := &interfaces.PrereqResult{}

	for _, command := range commands {
		if _, err := c.runner.LookPath(command); err != nil {
			c.logger.Warn().Str("command", command).Msg("Required command not found on PATH")
			result.Missing = append(result.Missing, interfaces.MissingItem{
				Kind: interfaces.MissingKindCommand,
				Name: command,
			})
		}
	}

	// Package probes need pkg-config itself; when it is missing, every
	// probe would fail and drown the real report. Probed directly rather
	// than inferred from the commands list, which may not include it.
	if len(packages) > 0 {
		if _, err := c.runner.LookPath("pkg-config"); err != nil {
			c.logger.Warn().Msg("Skipping package probes: pkg-config is not available")
			return result, nil
		}
	}

	for _, pkg := range packages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := c.runner.Run(ctx, interfaces.Command{
			Name: "pkg-config",
			Args: []string{"--exists", pkg},
		}); err != nil {
			c.logger.Warn().Str("package", pkg).Msg("Required package not found in host package database")
			result.Missing = append(result.Missing, interfaces.MissingItem{
				Kind: interfaces.MissingKindPackage,
				Name: pkg,
			})
		}
	}

	c.logger.Debug().
		Int("commands", len(commands)).
		Int("packages", len(packages)).
		Int("missing", len(result.Missing)).
		Msg("Prerequisite sweep complete")

	return result, nil
}
