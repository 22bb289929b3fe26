// Copyright (c) 2025 Jifa CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pterm/pterm"
)

// New returns a structured pterm logger writing to stderr at the named level.
// Unknown names fall back to info.
func New(level string) *pterm.Logger {
	return NewWithWriter(level, os.Stderr)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(level string, w io.Writer) *pterm.Logger {
	return pterm.DefaultLogger.WithLevel(ParseLevel(level)).WithWriter(w)
}

// ParseLevel maps a config level name to a pterm level.
func ParseLevel(level string) pterm.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return pterm.LogLevelTrace
	case "debug":
		return pterm.LogLevelDebug
	case "warn", "warning":
		return pterm.LogLevelWarn
	case "error":
		return pterm.LogLevelError
	case "off", "disabled", "none":
		return pterm.LogLevelDisabled
	default:
		return pterm.LogLevelInfo
	}
}

// Leveled adapts a pterm logger to the key/value logger interface used by
// the HTTP retry client. String values are masked.
type Leveled struct {
	L *pterm.Logger
}

func (l Leveled) Error(msg string, keysAndValues ...interface{}) {
	l.L.Error(msg, l.args(keysAndValues))
}

func (l Leveled) Info(msg string, keysAndValues ...interface{}) {
	l.L.Info(msg, l.args(keysAndValues))
}

func (l Leveled) Debug(msg string, keysAndValues ...interface{}) {
	l.L.Debug(msg, l.args(keysAndValues))
}

func (l Leveled) Warn(msg string, keysAndValues ...interface{}) {
	l.L.Warn(msg, l.args(keysAndValues))
}

func (l Leveled) args(kv []interface{}) []pterm.LoggerArgument {
	masked := make([]any, len(kv))
	for i, v := range kv {
		switch s := v.(type) {
		case string:
			masked[i] = Mask(s)
		case fmt.Stringer:
			masked[i] = Mask(s.String())
		case error:
			masked[i] = Mask(s.Error())
		default:
			masked[i] = v
		}
	}
	return l.L.Args(masked...)
}
