package models

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// BuildContext carries the paths and environment every stage builds
// against. Created once at pipeline start and treated as read-only by
// stages; execution is strictly sequential so no synchronization is
// needed.
type BuildContext struct {
	InstallPrefix string // absolute install prefix all stages share
	BuildDir      string // absolute scratch directory for source checkouts
	JobCount      int    // parallel workers for each dependency's compile step
}

// NewBuildContext resolves prefix and build dir to absolute paths and
// validates the job count.
func NewBuildContext(installPrefix, buildDir string, jobCount int) (*BuildContext, error) {
	if installPrefix == "" {
		return nil, fmt.Errorf("install prefix is required")
	}
	if buildDir == "" {
		return nil, fmt.Errorf("build directory is required")
	}
	if jobCount < 1 {
		return nil, fmt.Errorf("job count must be positive, got %d", jobCount)
	}

	absPrefix, err := filepath.Abs(installPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve install prefix: %w", err)
	}
	absBuild, err := filepath.Abs(buildDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve build directory: %w", err)
	}

	return &BuildContext{
		InstallPrefix: absPrefix,
		BuildDir:      absBuild,
		JobCount:      jobCount,
	}, nil
}

// BinDir returns the prefix bin directory
func (c *BuildContext) BinDir() string {
	return filepath.Join(c.InstallPrefix, "bin")
}

// LibDirs returns the library directories later stages must search.
// OpenSSL installs into lib on some hosts and lib64 on others, so both
// are always listed.
func (c *BuildContext) LibDirs() []string {
	return []string{
		filepath.Join(c.InstallPrefix, "lib"),
		filepath.Join(c.InstallPrefix, "lib64"),
	}
}

// PkgConfigDirs returns the pkg-config search directories under the prefix
func (c *BuildContext) PkgConfigDirs() []string {
	dirs := make([]string, 0, 2)
	for _, lib := range c.LibDirs() {
		dirs = append(dirs, filepath.Join(lib, "pkgconfig"))
	}
	return dirs
}

// WorkDir returns the per-dependency source checkout directory
func (c *BuildContext) WorkDir(dependency string) string {
	return filepath.Join(c.BuildDir, dependency)
}

// Environ returns the process environment with PATH, LD_LIBRARY_PATH and
// PKG_CONFIG_PATH extended to see the shared prefix. Existing values are
// prepended to, never destroyed.
func (c *BuildContext) Environ() []string {
	return c.mergeEnviron(os.Environ())
}

// EnvironFrom merges the prefix search paths into the given base
// environment. Split out from Environ so stages are testable with a
// fabricated environment.
func (c *BuildContext) EnvironFrom(base []string) []string {
	return c.mergeEnviron(base)
}

func (c *BuildContext) mergeEnviron(base []string) []string {
	augmented := map[string]string{
		"PATH":            c.BinDir(),
		"LD_LIBRARY_PATH": strings.Join(c.LibDirs(), string(os.PathListSeparator)),
		"PKG_CONFIG_PATH": strings.Join(c.PkgConfigDirs(), string(os.PathListSeparator)),
	}

	merged := make([]string, 0, len(base)+len(augmented))
	for _, entry := range base {
		name, value, ok := strings.Cut(entry, "=")
		if !ok {
			merged = append(merged, entry)
			continue
		}
		if prepend, exists := augmented[name]; exists {
			merged = append(merged, fmt.Sprintf("%s=%s%c%s", name, prepend, os.PathListSeparator, value))
			delete(augmented, name)
			continue
		}
		merged = append(merged, entry)
	}

	// Variables that were not present in the base environment
	for _, name := range []string{"PATH", "LD_LIBRARY_PATH", "PKG_CONFIG_PATH"} {
		if value, exists := augmented[name]; exists {
			merged = append(merged, fmt.Sprintf("%s=%s", name, value))
		}
	}

	return merged
}
