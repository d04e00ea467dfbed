package pipeline

import (
	"github.com/ternarybob/quarry/internal/models"
)

// Configurer supplies the build-kind-specific command sequences for the
// configure and install steps. One implementation per BuildKind,
// registered with the stage runner.
type Configurer interface {
	// BuildKind returns the kind this configurer handles
	BuildKind() models.BuildKind

	// ConfigureCommands returns the command lines to run, in order, in
	// the dependency's work directory during the configure step
	ConfigureCommands(spec *models.DependencySpec, buildCtx *models.BuildContext) [][]string

	// InstallArgs returns the make targets for the install step
	InstallArgs() []string
}

// AutotoolsConfigurer handles the autoreconf + ./configure convention
// used by nghttp3 and curl
type AutotoolsConfigurer struct{}

// BuildKind returns the kind this configurer handles
func (c *AutotoolsConfigurer) BuildKind() models.BuildKind {
	return models.BuildKindAutotools
}

// ConfigureCommands regenerates the build system then configures with
// the spec's flags, prefix placeholders expanded
func (c *AutotoolsConfigurer) ConfigureCommands(spec *models.DependencySpec, buildCtx *models.BuildContext) [][]string {
	return [][]string{
		{"autoreconf", "-fi"},
		append([]string{"./configure"}, spec.ExpandFlags(buildCtx.InstallPrefix)...),
	}
}

// InstallArgs returns the standard install target
func (c *AutotoolsConfigurer) InstallArgs() []string {
	return []string{"install"}
}

// OpenSSLConfigurer handles OpenSSL's own ./Configure script, which is
// not a GNU configure and has its own flag conventions
type OpenSSLConfigurer struct{}

// BuildKind returns the kind this configurer handles
func (c *OpenSSLConfigurer) BuildKind() models.BuildKind {
	return models.BuildKindOpenSSLConfig
}

// ConfigureCommands invokes ./Configure with the spec's flags
func (c *OpenSSLConfigurer) ConfigureCommands(spec *models.DependencySpec, buildCtx *models.BuildContext) [][]string {
	return [][]string{
		append([]string{"./Configure"}, spec.ExpandFlags(buildCtx.InstallPrefix)...),
	}
}

// InstallArgs installs the software and the certificate directory but
// skips the man pages, which take longer than the library itself
func (c *OpenSSLConfigurer) InstallArgs() []string {
	return []string{"install_sw", "install_ssldirs"}
}

// CMakeConfigurer handles cmake-based dependencies. Generation is
// in-source with the Unix Makefiles generator so the compile and install
// steps stay plain make, same as the other kinds. None of the pinned
// dependencies use it; manifest toolchains do.
type CMakeConfigurer struct{}

// BuildKind returns the kind this configurer handles
func (c *CMakeConfigurer) BuildKind() models.BuildKind {
	return models.BuildKindCMake
}

// ConfigureCommands generates Makefiles with the install prefix and the
// spec's -D flags
func (c *CMakeConfigurer) ConfigureCommands(spec *models.DependencySpec, buildCtx *models.BuildContext) [][]string {
	cmd := []string{"cmake", "-DCMAKE_INSTALL_PREFIX=" + buildCtx.InstallPrefix}
	cmd = append(cmd, spec.ExpandFlags(buildCtx.InstallPrefix)...)
	cmd = append(cmd, ".")
	return [][]string{cmd}
}

// InstallArgs returns the standard install target
func (c *CMakeConfigurer) InstallArgs() []string {
	return []string{"install"}
}
