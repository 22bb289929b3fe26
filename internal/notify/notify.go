// Copyright (c) 2025 Jifa CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package notify shows server failures and network problems to the user.
package notify

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/pterm/pterm"

	"jifa/cli/internal/logging"
	"jifa/cli/internal/model"
)

// Terminal prints notifications with pterm's error printer.
type Terminal struct {
	mu  sync.Mutex
	out io.Writer
}

// NewTerminal returns a notifier writing to w, or stderr when w is nil.
func NewTerminal(w io.Writer) *Terminal {
	if w == nil {
		w = os.Stderr
	}
	return &Terminal{out: w}
}

// Notify implements transport.Notifier.
func (t *Terminal) Notify(code, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	title := titleFor(code)
	msg := strings.TrimSpace(logging.Mask(message))
	if msg == "" {
		msg = code
	}
	printer := pterm.Error.WithWriter(t.out).WithPrefix(pterm.Prefix{
		Text:  strings.ToUpper(title),
		Style: pterm.Error.Prefix.Style,
	})
	printer.Println(msg)
	if hint := hintFor(code); hint != "" {
		pterm.Fprintln(t.out, pterm.FgGray.Sprint("  "+hint))
	}
}

func titleFor(code string) string {
	switch code {
	case model.ErrorCodeWorkerNotReady:
		return "Worker not ready"
	case model.ErrorCodeAccessDenied:
		return "Access denied"
	case model.ErrorCodeFileTooLarge:
		return "File too large"
	case model.ErrorCodeInternal, "":
		return "Server error"
	default:
		return code
	}
}

func hintFor(code string) string {
	switch code {
	case model.ErrorCodeWorkerNotReady:
		return "The analysis worker did not start in time. Try again in a minute."
	case model.ErrorCodeAccessDenied:
		return "Run 'jifa login' and try again."
	default:
		return ""
	}
}
