package logging

import (
	"bytes"
	"errors"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]pterm.LogLevel{
		"debug":   pterm.LogLevelDebug,
		"TRACE":   pterm.LogLevelTrace,
		"warning": pterm.LogLevelWarn,
		"error":   pterm.LogLevelError,
		"off":     pterm.LogLevelDisabled,
		"":        pterm.LogLevelInfo,
		"bogus":   pterm.LogLevelInfo,
	}
	for in, want := range tests {
		require.Equal(t, want, ParseLevel(in), in)
	}
}

func TestLeveledMasksValues(t *testing.T) {
	var buf bytes.Buffer
	l := Leveled{L: NewWithWriter("debug", &buf)}

	l.Debug("performing request", "header", "Bearer secret-token", "err", errors.New("token=abc"))

	out := buf.String()
	require.Contains(t, out, "performing request")
	require.NotContains(t, out, "secret-token")
	require.NotContains(t, out, "token=abc")
}

func TestLeveledRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := Leveled{L: NewWithWriter("error", &buf)}

	l.Debug("hidden")
	l.Info("hidden")
	require.Empty(t, buf.String())

	l.Error("shown")
	require.Contains(t, buf.String(), "shown")
}

func TestPresentError(t *testing.T) {
	require.Empty(t, PresentError("login", nil))
	require.Equal(t, "login: bad password=***", PresentError("login", errors.New("bad password=hunter2")))
}
