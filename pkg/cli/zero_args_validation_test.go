package cli

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestZeroArgCommandsRejectUnexpectedPositionalArgs(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name string
		args []string
	}{
		{name: "version", args: []string{"version", "extra"}},
		{name: "stream", args: []string{"stream", "-d", "bucket", "extra"}},
		{name: "check", args: []string{"check", "extra"}},
		{name: "config show", args: []string{"config", "show", "extra"}},
		{name: "config set-profile", args: []string{"config", "set-profile", "--name", "p", "extra"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness()
			err := h.run(tc.args...)
			require.Error(t, err)
			require.Contains(t, err.Error(), "unknown command \"extra\"")
			require.Zero(t, h.opened)
		})
	}
}
