// -----------------------------------------------------------------------
// Package manifest loads toolchain manifests that override the pinned
// dependency table. TOML is the native format; YAML is accepted because
// CI systems commonly keep their manifests in YAML.
// -----------------------------------------------------------------------

package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/quarry/internal/models"
	"gopkg.in/yaml.v3"
)

// Loader reads and validates toolchain manifest files
type Loader struct {
	logger arbor.ILogger
}

// NewLoader creates a new manifest loader
func NewLoader(logger arbor.ILogger) *Loader {
	return &Loader{logger: logger}
}

// Load parses the manifest at path by extension and validates it
func (l *Loader) Load(path string) (*models.Toolchain, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}

	var toolchain models.Toolchain
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, &toolchain); err != nil {
			return nil, fmt.Errorf("failed to parse TOML manifest %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &toolchain); err != nil {
			return nil, fmt.Errorf("failed to parse YAML manifest %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported manifest format %q (must be .toml, .yaml or .yml)", filepath.Ext(path))
	}

	if err := toolchain.Validate(); err != nil {
		return nil, fmt.Errorf("manifest %s is invalid: %w", path, err)
	}

	l.logger.Info().
		Str("path", path).
		Int("dependencies", len(toolchain.Dependencies)).
		Msg("Toolchain manifest loaded")

	return &toolchain, nil
}

// ApplyRevisionOverrides replaces dependency revisions in place.
// Unknown dependency names are an error: a typoed override silently
// building the pinned revision would defeat the point of pinning.
func ApplyRevisionOverrides(toolchain *models.Toolchain, overrides map[string]string) error {
	for name, revision := range overrides {
		if revision == "" {
			continue
		}
		spec := toolchain.Get(name)
		if spec == nil {
			return fmt.Errorf("revision override for unknown dependency %q", name)
		}
		spec.Revision = revision
	}
	return nil
}
