package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/require"

	"jifa/cli/internal/model"
)

func TestTerminalNotify(t *testing.T) {
	pterm.DisableStyling()
	defer pterm.EnableStyling()

	var buf bytes.Buffer
	n := NewTerminal(&buf)
	n.Notify(model.ErrorCodeWorkerNotReady, "worker is starting")

	out := buf.String()
	require.Contains(t, out, "WORKER NOT READY")
	require.Contains(t, out, "worker is starting")
	require.Contains(t, out, "Try again")
}

func TestTerminalNotifyMasksAndDefaults(t *testing.T) {
	pterm.DisableStyling()
	defer pterm.EnableStyling()

	var buf bytes.Buffer
	n := NewTerminal(&buf)
	n.Notify("CUSTOM_CODE", "")
	n.Notify(model.ErrorCodeInternal, "bad token=abc")

	out := buf.String()
	require.Contains(t, out, "CUSTOM_CODE")
	require.Contains(t, out, "SERVER ERROR")
	require.NotContains(t, out, "abc")
}

func TestClassification(t *testing.T) {
	refused := &net.OpError{Op: "dial", Err: fmt.Errorf("connect: %w", syscall.ECONNREFUSED)}
	require.True(t, isConnectionRefusedError(refused))
	require.False(t, isConnectionRefusedError(errors.New("eof")))

	require.True(t, isDNSError(fmt.Errorf("get: %w", &net.DNSError{Name: "jifa.invalid"})))
	require.True(t, isTimeoutError(context.DeadlineExceeded))
	require.True(t, isSSLError(errors.New("x509: certificate signed by unknown authority")))
}

func TestFormatNetworkErrorWraps(t *testing.T) {
	cause := errors.New("boom")
	err := FormatNetworkError(cause, "fetching handshake", "http://jifa:8102")
	require.ErrorIs(t, err, cause)
	require.Nil(t, FormatNetworkError(nil, "x", "y"))
}

func TestExtractHostFromURL(t *testing.T) {
	require.Equal(t, "jifa:8102", ExtractHostFromURL("http://jifa:8102/jifa-api"))
	require.Equal(t, "server", ExtractHostFromURL("::"))
}
