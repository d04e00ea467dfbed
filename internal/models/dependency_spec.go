package models

import (
	"errors"
	"fmt"
	"strings"
)

// BuildKind identifies the configure strategy a dependency's build uses.
type BuildKind string

// BuildKind constants
const (
	BuildKindAutotools     BuildKind = "autotools"      // autoreconf + ./configure
	BuildKindOpenSSLConfig BuildKind = "openssl-config" // OpenSSL's ./Configure
	BuildKindCMake         BuildKind = "cmake"          // in-source cmake + make
)

// IsValid checks if the BuildKind is a known, valid kind
func (k BuildKind) IsValid() bool {
	switch k {
	case BuildKindAutotools, BuildKindOpenSSLConfig, BuildKindCMake:
		return true
	}
	return false
}

// String returns the string representation of the BuildKind
func (k BuildKind) String() string {
	return string(k)
}

// StageProbe is the cheap post-install sanity check run before a stage
// declares success. Command entries may contain the {prefix} placeholder.
type StageProbe struct {
	Command []string `toml:"command" yaml:"command"` // e.g. ["{prefix}/bin/openssl", "version"]
	Pattern string   `toml:"pattern" yaml:"pattern"` // regex the combined output must match
}

// DependencySpec is the immutable record of one dependency build: exact
// source revision, configure strategy and flags. One instance per
// dependency; never mutated after construction.
type DependencySpec struct {
	Name           string     `toml:"name" yaml:"name" validate:"required"`
	SourceURL      string     `toml:"source_url" yaml:"source_url" validate:"required,url"`
	Revision       string     `toml:"revision" yaml:"revision" validate:"required"`
	BuildKind      BuildKind  `toml:"build_kind" yaml:"build_kind" validate:"required"`
	ConfigureFlags []string   `toml:"configure_flags" yaml:"configure_flags"`
	Submodules     bool       `toml:"submodules" yaml:"submodules"`   // run git submodule update --init after checkout
	DependsOn      []string   `toml:"depends_on" yaml:"depends_on"`   // names of specs that must install first
	Probe          StageProbe `toml:"probe" yaml:"probe"`
}

// Validate validates a single dependency spec
func (d *DependencySpec) Validate() error {
	if d.Name == "" {
		return errors.New("dependency name is required")
	}
	if d.SourceURL == "" {
		return fmt.Errorf("dependency %s: source_url is required", d.Name)
	}
	if d.Revision == "" {
		return fmt.Errorf("dependency %s: revision is required", d.Name)
	}
	if !d.BuildKind.IsValid() {
		return fmt.Errorf("dependency %s: invalid build_kind: %s (must be one of: autotools, openssl-config, cmake)", d.Name, d.BuildKind)
	}
	return nil
}

// ExpandFlags returns the configure flags with the {prefix} placeholder
// substituted with the install prefix. The receiver is never modified.
func (d *DependencySpec) ExpandFlags(prefix string) []string {
	flags := make([]string, len(d.ConfigureFlags))
	for i, f := range d.ConfigureFlags {
		flags[i] = strings.ReplaceAll(f, "{prefix}", prefix)
	}
	return flags
}

// ExpandProbe returns the probe with {prefix} substituted in the command
func (d *DependencySpec) ExpandProbe(prefix string) StageProbe {
	cmd := make([]string, len(d.Probe.Command))
	for i, c := range d.Probe.Command {
		cmd[i] = strings.ReplaceAll(c, "{prefix}", prefix)
	}
	return StageProbe{Command: cmd, Pattern: d.Probe.Pattern}
}

// Toolchain is the ordered set of dependency specs for one pipeline run.
// Order is topological: every entry in DependsOn must name an earlier spec.
type Toolchain struct {
	Dependencies []DependencySpec `toml:"dependencies" yaml:"dependencies"`
}

// Validate validates every spec and the declared ordering
func (t *Toolchain) Validate() error {
	if len(t.Dependencies) == 0 {
		return errors.New("toolchain must declare at least one dependency")
	}

	seen := make(map[string]bool, len(t.Dependencies))
	for i, dep := range t.Dependencies {
		if err := dep.Validate(); err != nil {
			return fmt.Errorf("dependency %d validation failed: %w", i, err)
		}
		if seen[dep.Name] {
			return fmt.Errorf("duplicate dependency name: %s", dep.Name)
		}
		for _, pre := range dep.DependsOn {
			if !seen[pre] {
				return fmt.Errorf("dependency %s depends on %s which is not declared before it", dep.Name, pre)
			}
		}
		seen[dep.Name] = true
	}
	return nil
}

// Get returns the spec with the given name, or nil
func (t *Toolchain) Get(name string) *DependencySpec {
	for i := range t.Dependencies {
		if t.Dependencies[i].Name == name {
			return &t.Dependencies[i]
		}
	}
	return nil
}

// Revisions returns a name -> revision map for run records
func (t *Toolchain) Revisions() map[string]string {
	revs := make(map[string]string, len(t.Dependencies))
	for _, dep := range t.Dependencies {
		revs[dep.Name] = dep.Revision
	}
	return revs
}

// DefaultToolchain returns the pinned openssl -> nghttp3 -> curl chain.
// curl links both predecessors, so it must configure against an install
// prefix that already contains them.
func DefaultToolchain() *Toolchain {
	return &Toolchain{
		Dependencies: []DependencySpec{
			{
				Name:      "openssl",
				SourceURL: "https://github.com/openssl/openssl.git",
				Revision:  "openssl-3.3.1",
				BuildKind: BuildKindOpenSSLConfig,
				ConfigureFlags: []string{
					"enable-tls1_3",
					"--prefix={prefix}",
					"--libdir=lib",
					"--openssldir={prefix}/ssl",
				},
				Probe: StageProbe{
					Command: []string{"{prefix}/bin/openssl", "version"},
					Pattern: `OpenSSL 3\.`,
				},
			},
			{
				Name:      "nghttp3",
				SourceURL: "https://github.com/ngtcp2/nghttp3.git",
				Revision:  "v1.4.0",
				BuildKind: BuildKindAutotools,
				ConfigureFlags: []string{
					"--prefix={prefix}",
					"--enable-lib-only",
				},
				Submodules: true,
				DependsOn:  []string{"openssl"},
				Probe: StageProbe{
					Command: []string{"pkg-config", "--modversion", "libnghttp3"},
					Pattern: `\d+\.\d+\.\d+`,
				},
			},
			{
				Name:      "curl",
				SourceURL: "https://github.com/curl/curl.git",
				Revision:  "curl-8_9_1",
				BuildKind: BuildKindAutotools,
				ConfigureFlags: []string{
					"--prefix={prefix}",
					"--with-openssl={prefix}",
					"--with-openssl-quic",
					"--with-nghttp3={prefix}",
					"--enable-websockets",
					"--disable-ldap",
					"--disable-ldaps",
				},
				DependsOn: []string{"openssl", "nghttp3"},
				Probe: StageProbe{
					Command: []string{"{prefix}/bin/curl", "--version"},
					Pattern: `^curl \d`,
				},
			},
		},
	}
}
