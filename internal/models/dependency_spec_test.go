package models

import (
	"strings"
	"testing"
)

func TestDependencySpecValidate(t *testing.T) {
	valid := DependencySpec{
		Name:      "openssl",
		SourceURL: "https://github.com/openssl/openssl.git",
		Revision:  "openssl-3.3.1",
		BuildKind: BuildKindOpenSSLConfig,
	}

	tests := []struct {
		name    string
		mutate  func(d *DependencySpec)
		wantErr string
	}{
		{"valid", func(d *DependencySpec) {}, ""},
		{"missing name", func(d *DependencySpec) { d.Name = "" }, "name is required"},
		{"missing url", func(d *DependencySpec) { d.SourceURL = "" }, "source_url is required"},
		{"missing revision", func(d *DependencySpec) { d.Revision = "" }, "revision is required"},
		{"bad build kind", func(d *DependencySpec) { d.BuildKind = "meson" }, "invalid build_kind"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := valid
			tt.mutate(&spec)
			err := spec.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestExpandFlags(t *testing.T) {
	spec := DependencySpec{
		ConfigureFlags: []string{"--prefix={prefix}", "--with-openssl={prefix}", "--enable-websockets"},
	}

	flags := spec.ExpandFlags("/opt/tc")

	want := []string{"--prefix=/opt/tc", "--with-openssl=/opt/tc", "--enable-websockets"}
	for i, flag := range flags {
		if flag != want[i] {
			t.Errorf("flag[%d] = %q, want %q", i, flag, want[i])
		}
	}

	// The spec itself must stay untouched
	if spec.ConfigureFlags[0] != "--prefix={prefix}" {
		t.Error("ExpandFlags mutated the spec")
	}
}

func TestToolchainValidateOrdering(t *testing.T) {
	toolchain := &Toolchain{
		Dependencies: []DependencySpec{
			{
				Name: "curl", SourceURL: "https://example.com/curl.git", Revision: "v1",
				BuildKind: BuildKindAutotools, DependsOn: []string{"openssl"},
			},
			{
				Name: "openssl", SourceURL: "https://example.com/openssl.git", Revision: "v1",
				BuildKind: BuildKindOpenSSLConfig,
			},
		},
	}

	err := toolchain.Validate()
	if err == nil || !strings.Contains(err.Error(), "not declared before it") {
		t.Errorf("Validate() = %v, want forward-dependency error", err)
	}
}

func TestToolchainValidateDuplicate(t *testing.T) {
	toolchain := &Toolchain{
		Dependencies: []DependencySpec{
			{Name: "openssl", SourceURL: "https://example.com/a.git", Revision: "v1", BuildKind: BuildKindOpenSSLConfig},
			{Name: "openssl", SourceURL: "https://example.com/b.git", Revision: "v2", BuildKind: BuildKindAutotools},
		},
	}

	err := toolchain.Validate()
	if err == nil || !strings.Contains(err.Error(), "duplicate dependency name") {
		t.Errorf("Validate() = %v, want duplicate-name error", err)
	}
}

func TestDefaultToolchain(t *testing.T) {
	toolchain := DefaultToolchain()

	if err := toolchain.Validate(); err != nil {
		t.Fatalf("default toolchain must validate, got: %v", err)
	}

	// curl links both predecessors, so the static graph must keep the
	// openssl -> nghttp3 -> curl order
	names := make([]string, 0, len(toolchain.Dependencies))
	for _, dep := range toolchain.Dependencies {
		names = append(names, dep.Name)
	}
	want := []string{"openssl", "nghttp3", "curl"}
	for i, name := range want {
		if names[i] != name {
			t.Fatalf("dependency order = %v, want %v", names, want)
		}
	}

	curl := toolchain.Get("curl")
	if curl == nil {
		t.Fatal("curl spec missing")
	}
	joined := strings.Join(curl.ConfigureFlags, " ")
	for _, required := range []string{"--with-openssl=", "--with-nghttp3=", "--enable-websockets", "--disable-ldap"} {
		if !strings.Contains(joined, required) {
			t.Errorf("curl configure flags %q missing %q", joined, required)
		}
	}
}
