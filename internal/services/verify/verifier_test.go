package verify

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/quarry/internal/interfaces"
	"github.com/ternarybob/quarry/internal/models"
	"github.com/ternarybob/quarry/internal/toolexec"
)

const opensslVersionOutput = "OpenSSL 3.3.1 4 Jun 2024 (Library: OpenSSL 3.3.1 4 Jun 2024)"

// curl moved its WebSocket self-report between versions; both forms must
// satisfy the websocket rule.
const curlProtocolsForm = `curl 8.9.1 (x86_64-pc-linux-gnu) libcurl/8.9.1 OpenSSL/3.3.1
Protocols: dict file ftp http https ws wss
Features: alt-svc AsynchDNS HTTP2 HTTP3 SSL
`

const curlFeaturesForm = `curl 8.4.0 (x86_64-pc-linux-gnu) libcurl/8.4.0 OpenSSL/3.3.1
Protocols: dict file ftp http https
Features: alt-svc AsynchDNS HTTP2 HTTP3 SSL WebSockets
`

func newVerifier(t *testing.T, curlOutput string) (*Verifier, *models.BuildContext) {
	t.Helper()
	runner := toolexec.NewFakeRunner()
	runner.Handler = func(cmd interfaces.Command) (string, error) {
		if strings.HasSuffix(cmd.Name, "/bin/openssl") {
			return opensslVersionOutput, nil
		}
		return curlOutput, nil
	}

	buildCtx, err := models.NewBuildContext(t.TempDir(), t.TempDir(), 1)
	require.NoError(t, err)
	return NewVerifier(runner, DefaultRules(), arbor.NewLogger()), buildCtx
}

func TestVerifyAcceptsProtocolsForm(t *testing.T) {
	verifier, buildCtx := newVerifier(t, curlProtocolsForm)

	report, err := verifier.Verify(context.Background(), buildCtx)
	require.NoError(t, err)
	assert.True(t, report.Passed())
	assert.True(t, report.Results[models.CapabilityWebSocket])
}

func TestVerifyAcceptsFeaturesForm(t *testing.T) {
	verifier, buildCtx := newVerifier(t, curlFeaturesForm)

	report, err := verifier.Verify(context.Background(), buildCtx)
	require.NoError(t, err)
	assert.True(t, report.Passed())
	assert.True(t, report.Results[models.CapabilityWebSocket])
}

func TestVerifyNeitherWebSocketForm(t *testing.T) {
	noWS := `curl 8.9.1 (x86_64-pc-linux-gnu) libcurl/8.9.1 OpenSSL/3.3.1
Protocols: dict file ftp http https
Features: alt-svc AsynchDNS HTTP2 HTTP3 SSL
`
	verifier, buildCtx := newVerifier(t, noWS)

	report, err := verifier.Verify(context.Background(), buildCtx)
	require.NoError(t, err)
	assert.False(t, report.Passed())
	assert.False(t, report.Results[models.CapabilityWebSocket])

	missing := report.Missing(verifier.Capabilities())
	assert.Equal(t, []string{models.CapabilityWebSocket}, missing)
}

func TestVerifyEveryRuleRunsDespiteEarlyAbsence(t *testing.T) {
	runner := toolexec.NewFakeRunner()
	runner.Handler = func(cmd interfaces.Command) (string, error) {
		if strings.HasSuffix(cmd.Name, "/bin/openssl") {
			// Wrong major version: openssl-version capability absent
			return "OpenSSL 1.1.1w 11 Sep 2023", nil
		}
		return curlProtocolsForm, nil
	}
	buildCtx, err := models.NewBuildContext(t.TempDir(), t.TempDir(), 1)
	require.NoError(t, err)
	verifier := NewVerifier(runner, DefaultRules(), arbor.NewLogger())

	report, err := verifier.Verify(context.Background(), buildCtx)
	require.NoError(t, err)

	// All four capabilities got checked, not just the first failing one
	require.Len(t, report.Results, 4)
	assert.False(t, report.Results[models.CapabilityOpenSSLVersion])
	assert.True(t, report.Results[models.CapabilityCurlVersion])
	assert.True(t, report.Results[models.CapabilityHTTP3])
	assert.True(t, report.Results[models.CapabilityWebSocket])
}

func TestVerifyProbeFailureMeansAbsent(t *testing.T) {
	runner := toolexec.NewFakeRunner()
	runner.Handler = func(cmd interfaces.Command) (string, error) {
		return "", &exitError{}
	}
	buildCtx, err := models.NewBuildContext(t.TempDir(), t.TempDir(), 1)
	require.NoError(t, err)
	verifier := NewVerifier(runner, DefaultRules(), arbor.NewLogger())

	report, err := verifier.Verify(context.Background(), buildCtx)
	require.NoError(t, err, "a failing probe is an absent capability, not a verifier error")
	assert.False(t, report.Passed())
	for name, present := range report.Results {
		assert.False(t, present, "capability %s", name)
	}
}

type exitError struct{}

func (e *exitError) Error() string { return "fork/exec: no such file or directory" }
