package pipeline

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminalConfirmer(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		accept bool
	}{
		{"yes", "yes\n", true},
		{"y", "y\n", true},
		{"uppercase Y", "Y\n", true},
		{"no", "no\n", false},
		{"empty line declines", "\n", false},
		{"anything else declines", "sure\n", false},
		{"eof without answer declines", "n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			confirmer := NewTerminalConfirmer(strings.NewReader(tt.input), &out)

			accepted, err := confirmer.Confirm("Proceed?")
			require.NoError(t, err)
			assert.Equal(t, tt.accept, accepted)
			assert.Contains(t, out.String(), "Proceed? [y/N]:")
		})
	}
}
