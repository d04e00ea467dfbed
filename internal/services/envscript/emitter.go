// -----------------------------------------------------------------------
// Environment Emitter - writes the setup-env.sh activation artifact
// -----------------------------------------------------------------------

package envscript

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/quarry/internal/models"
)

// ScriptName is the activation script written into the install prefix
const ScriptName = "setup-env.sh"

// Emitter writes a shell script that exports the same search paths the
// pipeline used internally and prints a capability summary by
// re-invoking the installed tools. Convenience only; the pipeline
// treats a write failure as a warning, not a build failure.
type Emitter struct {
	logger arbor.ILogger
}

// NewEmitter creates a new environment emitter
func NewEmitter(logger arbor.ILogger) *Emitter {
	return &Emitter{logger: logger}
}

// Emit writes the activation script into the prefix and returns its path
func (e *Emitter) Emit(buildCtx *models.BuildContext) (string, error) {
	path := filepath.Join(buildCtx.InstallPrefix, ScriptName)

	if err := os.WriteFile(path, []byte(e.render(buildCtx)), 0755); err != nil {
		return "", fmt.Errorf("failed to write activation script: %w", err)
	}

	e.logger.Debug().Str("path", path).Msg("Activation script emitted")
	return path, nil
}

func (e *Emitter) render(buildCtx *models.BuildContext) string {
	prefix := buildCtx.InstallPrefix
	libPath := strings.Join(buildCtx.LibDirs(), ":")
	pkgPath := strings.Join(buildCtx.PkgConfigDirs(), ":")

	var sb strings.Builder
	sb.WriteString("#!/bin/sh\n")
	sb.WriteString(fmt.Sprintf("# Generated by quarry on %s\n", time.Now().Format(time.RFC3339)))
	sb.WriteString("# Source this file to use the toolchain: . " + filepath.Join(prefix, ScriptName) + "\n")
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("export PATH=\"%s/bin${PATH:+:$PATH}\"\n", prefix))
	sb.WriteString(fmt.Sprintf("export LD_LIBRARY_PATH=\"%s${LD_LIBRARY_PATH:+:$LD_LIBRARY_PATH}\"\n", libPath))
	sb.WriteString(fmt.Sprintf("export PKG_CONFIG_PATH=\"%s${PKG_CONFIG_PATH:+:$PKG_CONFIG_PATH}\"\n", pkgPath))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("echo \"quarry toolchain: %s\"\n", prefix))
	sb.WriteString(fmt.Sprintf("echo \"  openssl: $(\"%s/bin/openssl\" version 2>/dev/null || echo missing)\"\n", prefix))
	sb.WriteString(fmt.Sprintf("echo \"  curl:    $(\"%s/bin/curl\" --version 2>/dev/null | head -n1 || echo missing)\"\n", prefix))
	sb.WriteString(fmt.Sprintf("if \"%s/bin/curl\" --version 2>/dev/null | grep -q 'HTTP3'; then echo \"  HTTP/3: ENABLED\"; else echo \"  HTTP/3: DISABLED\"; fi\n", prefix))
	sb.WriteString(fmt.Sprintf("if \"%s/bin/curl\" --version 2>/dev/null | grep -Eq '(^Protocols:.* wss?( |$)|WebSockets)'; then echo \"  WebSocket: ENABLED\"; else echo \"  WebSocket: DISABLED\"; fi\n", prefix))
	return sb.String()
}
