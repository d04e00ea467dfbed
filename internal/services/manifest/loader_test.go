package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/quarry/internal/models"
)

func writeManifest(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
	return path
}

func TestLoadTOMLManifest(t *testing.T) {
	path := writeManifest(t, "toolchain.toml", `
[[dependencies]]
name = "openssl"
source_url = "https://github.com/openssl/openssl.git"
revision = "openssl-3.3.2"
build_kind = "openssl-config"
configure_flags = ["--prefix={prefix}", "enable-tls1_3"]

[dependencies.probe]
command = ["{prefix}/bin/openssl", "version"]
pattern = 'OpenSSL 3\.'

[[dependencies]]
name = "curl"
source_url = "https://github.com/curl/curl.git"
revision = "curl-8_10_0"
build_kind = "autotools"
depends_on = ["openssl"]
`)

	loader := NewLoader(arbor.NewLogger())
	toolchain, err := loader.Load(path)
	require.NoError(t, err)

	require.Len(t, toolchain.Dependencies, 2)
	openssl := toolchain.Get("openssl")
	require.NotNil(t, openssl)
	assert.Equal(t, "openssl-3.3.2", openssl.Revision)
	assert.Equal(t, models.BuildKindOpenSSLConfig, openssl.BuildKind)
	assert.Equal(t, []string{"{prefix}/bin/openssl", "version"}, openssl.Probe.Command)
	assert.Equal(t, []string{"openssl"}, toolchain.Get("curl").DependsOn)
}

func TestLoadYAMLManifest(t *testing.T) {
	path := writeManifest(t, "toolchain.yaml", `
dependencies:
  - name: nghttp3
    source_url: https://github.com/ngtcp2/nghttp3.git
    revision: v1.5.0
    build_kind: autotools
    submodules: true
    configure_flags:
      - --prefix={prefix}
      - --enable-lib-only
`)

	loader := NewLoader(arbor.NewLogger())
	toolchain, err := loader.Load(path)
	require.NoError(t, err)

	require.Len(t, toolchain.Dependencies, 1)
	dep := toolchain.Dependencies[0]
	assert.Equal(t, "nghttp3", dep.Name)
	assert.Equal(t, "v1.5.0", dep.Revision)
	assert.True(t, dep.Submodules)
}

func TestLoadRejectsInvalidManifest(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{
			name:    "unknown extension",
			file:    "toolchain.json",
			content: `{}`,
			wantErr: "unsupported manifest format",
		},
		{
			name: "forward dependency",
			file: "toolchain.yaml",
			content: `
dependencies:
  - name: curl
    source_url: https://github.com/curl/curl.git
    revision: curl-8_9_1
    build_kind: autotools
    depends_on: [openssl]
`,
			wantErr: "not declared before it",
		},
		{
			name:    "malformed toml",
			file:    "toolchain.toml",
			content: `[[dependencies`,
			wantErr: "failed to parse TOML",
		},
	}

	loader := NewLoader(arbor.NewLogger())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeManifest(t, tt.file, tt.content)
			_, err := loader.Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestApplyRevisionOverrides(t *testing.T) {
	toolchain := models.DefaultToolchain()

	err := ApplyRevisionOverrides(toolchain, map[string]string{
		"curl":    "curl-8_10_0",
		"openssl": "", // empty means keep the pin
	})
	require.NoError(t, err)
	assert.Equal(t, "curl-8_10_0", toolchain.Get("curl").Revision)
	assert.Equal(t, "openssl-3.3.1", toolchain.Get("openssl").Revision)

	err = ApplyRevisionOverrides(toolchain, map[string]string{"ngtcp2": "v1.0.0"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown dependency "ngtcp2"`)
}
