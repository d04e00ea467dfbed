package interfaces

import (
	"context"

	"github.com/ternarybob/quarry/internal/models"
)

// StageRunner executes the build of exactly one dependency against a
// shared build context: acquire, configure, compile, install, verify.
// Implementations are keyed by build kind and registered with the
// pipeline.
type StageRunner interface {
	// RunStage executes all steps for one dependency. It always returns
	// a result; a nil error with a Failed outcome means a tool failed
	// and the diagnostics are in the result log.
	RunStage(ctx context.Context, spec *models.DependencySpec, buildCtx *models.BuildContext) *models.StageResult
}

// Confirmer gates mutating actions behind an operator decision. The
// interactive implementation prompts on the terminal; the automatic one
// (for -yes and scheduled runs) always accepts.
type Confirmer interface {
	// Confirm presents the prompt and reports whether the run may proceed
	Confirm(prompt string) (bool, error)
}

// InstallationVerifier black-box checks that the finished artifact set
// actually has the intended capabilities, independent of what each stage
// believed
type InstallationVerifier interface {
	// Verify runs every capability rule against the installed artifacts.
	// The report contains one entry per rule even when earlier rules fail.
	Verify(ctx context.Context, buildCtx *models.BuildContext) (*models.VerificationReport, error)

	// Capabilities returns the capability names in rule order, used to
	// report missing ones deterministically
	Capabilities() []string
}

// EnvironmentEmitter writes the shell activation artifact for an
// installed prefix. Emission failures are reported but never invalidate
// an otherwise-successful build.
type EnvironmentEmitter interface {
	// Emit writes the activation script and returns its path
	Emit(buildCtx *models.BuildContext) (string, error)
}
