// -----------------------------------------------------------------------
// Installation Verifier - black-box capability checks over the installed
// artifacts' own version/feature output
// -----------------------------------------------------------------------

package verify

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/quarry/internal/interfaces"
	"github.com/ternarybob/quarry/internal/models"
)

// Verifier checks the finished toolchain against a capability rule
// table. Each rule is independent: every rule runs and the report holds
// one entry per capability, so a failed first check never hides the rest.
type Verifier struct {
	runner interfaces.CommandRunner
	rules  []models.CapabilityRule
	logger arbor.ILogger
}

// NewVerifier creates a verifier with the given rule table
func NewVerifier(runner interfaces.CommandRunner, rules []models.CapabilityRule, logger arbor.ILogger) *Verifier {
	return &Verifier{
		runner: runner,
		rules:  rules,
		logger: logger,
	}
}

// DefaultRules returns the capability rule table for the
// openssl/nghttp3/curl toolchain. The websocket capability accepts two
// textual forms because curl moved WebSocket from a "Features:
// WebSockets" entry to ws/wss in the "Protocols:" line across versions;
// supporting a new output format means adding a pattern here, not
// changing verifier code.
func DefaultRules() []models.CapabilityRule {
	return []models.CapabilityRule{
		{
			Capability: models.CapabilityOpenSSLVersion,
			Command:    []string{"{prefix}/bin/openssl", "version"},
			Patterns:   []string{`OpenSSL 3\.`},
		},
		{
			Capability: models.CapabilityCurlVersion,
			Command:    []string{"{prefix}/bin/curl", "--version"},
			Patterns:   []string{`(?m)^curl \d+\.`},
		},
		{
			Capability: models.CapabilityHTTP3,
			Command:    []string{"{prefix}/bin/curl", "--version"},
			Patterns:   []string{`\bHTTP3\b`},
		},
		{
			Capability: models.CapabilityWebSocket,
			Command:    []string{"{prefix}/bin/curl", "--version"},
			Patterns: []string{
				`(?m)^Protocols:.*\bwss?\b`,
				`(?m)^Features:.*\bWebSockets\b`,
			},
		},
	}
}

// Verify runs every rule and returns the full report
func (v *Verifier) Verify(ctx context.Context, buildCtx *models.BuildContext) (*models.VerificationReport, error) {
	report := &models.VerificationReport{
		Results:   make(map[string]bool, len(v.rules)),
		CheckedAt: time.Now(),
	}

	for _, rule := range v.rules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		present, err := v.check(ctx, rule, buildCtx)
		if err != nil {
			return nil, fmt.Errorf("capability %s: %w", rule.Capability, err)
		}
		report.Results[rule.Capability] = present

		v.logger.Info().
			Str("capability", rule.Capability).
			Bool("present", present).
			Msg("Capability checked")
	}

	return report, nil
}

// Capabilities returns the capability names in rule order
func (v *Verifier) Capabilities() []string {
	names := make([]string, 0, len(v.rules))
	for _, rule := range v.rules {
		names = append(names, rule.Capability)
	}
	return names
}

// check probes one rule. A probe command that fails to run means the
// capability is absent, not that verification errored: the artifact
// failing to self-report is exactly what this step exists to catch.
func (v *Verifier) check(ctx context.Context, rule models.CapabilityRule, buildCtx *models.BuildContext) (bool, error) {
	if len(rule.Command) == 0 {
		return false, fmt.Errorf("rule has no probe command")
	}

	command := make([]string, len(rule.Command))
	for i, part := range rule.Command {
		command[i] = strings.ReplaceAll(part, "{prefix}", buildCtx.InstallPrefix)
	}

	output, err := v.runner.Run(ctx, interfaces.Command{
		Env:  buildCtx.Environ(),
		Name: command[0],
		Args: command[1:],
	})
	if err != nil {
		v.logger.Warn().Err(err).
			Str("capability", rule.Capability).
			Msg("Probe command failed")
		return false, nil
	}

	for _, pattern := range rule.Patterns {
		matcher, err := regexp.Compile(pattern)
		if err != nil {
			return false, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		if matcher.MatchString(output) {
			return true, nil
		}
	}
	return false, nil
}
