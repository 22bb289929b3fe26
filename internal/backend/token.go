// Copyright (c) 2025 Jifa CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"net/http"
	"strings"
)

// BearerPrefix is the scheme prefix of the Authorization header.
const BearerPrefix = "Bearer "

// ParseBearerToken extracts the token from a value like "Bearer <token>"
// case-insensitively. A value without the scheme is returned trimmed, since
// the Jifa server sends the bare token in its Authorization response header.
func ParseBearerToken(value string) string {
	v := strings.TrimSpace(value)
	if len(v) >= 6 && strings.EqualFold(v[:6], "bearer") {
		rest := v[6:]
		if rest == "" {
			return ""
		}
		if rest[0] == ' ' || rest[0] == '\t' {
			return strings.TrimSpace(rest)
		}
	}
	return v
}

// TokenFromResponse returns the token carried in the response's
// Authorization header, or "".
func TokenFromResponse(resp *http.Response) string {
	if resp == nil {
		return ""
	}
	return ParseBearerToken(resp.Header.Get("Authorization"))
}

// AuthorizationValue formats tok as an Authorization header value.
func AuthorizationValue(tok string) string {
	return BearerPrefix + tok
}
