// Copyright (c) 2025 Jifa CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package logging provides the CLI's diagnostic logger and helpers for secure
// logging. Bearer tokens, JWTs and passwords are masked before they reach a
// log line or an error shown to the user.
package logging

import (
	"regexp"
)

var (
	rePassword = regexp.MustCompile(`(?i)("?password"?\s*[=:]\s*"?)([^\s;",}]+)`)
	reToken    = regexp.MustCompile(`(?i)(token=|bearer\s+)([A-Za-z0-9._~+/=-]+)`)
	reJWT      = regexp.MustCompile(`eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]*`)
	reCookie   = regexp.MustCompile(`(?i)(jifa-token=)([^\s;]+)`)
)

// Mask replaces sensitive values in the input string with "***".
func Mask(s string) string {
	out := s
	out = rePassword.ReplaceAllString(out, "$1***")
	out = reToken.ReplaceAllString(out, "$1***")
	out = reCookie.ReplaceAllString(out, "$1***")
	out = reJWT.ReplaceAllString(out, "***")
	return out
}
