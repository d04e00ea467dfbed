// -----------------------------------------------------------------------
// Capability verification model - rule table and black-box report
// -----------------------------------------------------------------------

package models

import "time"

// Capability name constants. These are the names failures are reported
// under, so they stay stable even if probe commands change.
const (
	CapabilityOpenSSLVersion = "openssl-version"
	CapabilityCurlVersion    = "curl-version"
	CapabilityHTTP3          = "http3"
	CapabilityWebSocket      = "websocket"
)

// CapabilityRule maps one capability to the probe command whose output
// proves it and the textual patterns accepted as evidence. A rule passes
// if ANY of its patterns matches the probe output: curl's own
// self-description of WebSocket support changed across versions (a
// "Protocols:" line listing ws/wss versus a "Features:" line naming
// WebSockets), so a single hardcoded string would be brittle. New output
// formats are new patterns, not new verifier code.
type CapabilityRule struct {
	Capability string   `toml:"capability" yaml:"capability"`
	Command    []string `toml:"command" yaml:"command"` // entries may contain {prefix}
	Patterns   []string `toml:"patterns" yaml:"patterns"`
}

// VerificationReport holds one present/absent entry per capability,
// produced once after all stages complete. Verification trusts only the
// installed artifacts' self-reported output, independent of what each
// stage believed.
type VerificationReport struct {
	Results   map[string]bool `json:"results"`
	CheckedAt time.Time       `json:"checked_at"`
}

// Passed reports whether every capability is present
func (r *VerificationReport) Passed() bool {
	if len(r.Results) == 0 {
		return false
	}
	for _, present := range r.Results {
		if !present {
			return false
		}
	}
	return true
}

// Missing returns the capabilities that were not found, in rule order
// preserved by the verifier
func (r *VerificationReport) Missing(order []string) []string {
	var missing []string
	for _, name := range order {
		if present, ok := r.Results[name]; ok && !present {
			missing = append(missing, name)
		}
	}
	return missing
}
