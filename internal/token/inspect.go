// Copyright (c) 2025 Jifa CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Info is what the CLI can tell about a token without the server's key.
type Info struct {
	Subject   string
	Name      string
	Admin     bool
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token carries an expiry that has passed.
func (i Info) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && now.After(i.ExpiresAt)
}

type claims struct {
	jwt.RegisteredClaims
	Name  string `json:"name,omitempty"`
	Admin bool   `json:"admin,omitempty"`
}

// Inspect decodes tok as a JWT without verifying its signature. The result
// is for display only.
func Inspect(tok string) (Info, error) {
	var c claims
	if _, _, err := jwt.NewParser().ParseUnverified(tok, &c); err != nil {
		return Info{}, fmt.Errorf("decode token: %w", err)
	}
	info := Info{
		Subject: c.Subject,
		Name:    c.Name,
		Admin:   c.Admin,
	}
	if c.IssuedAt != nil {
		info.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		info.ExpiresAt = c.ExpiresAt.Time
	}
	return info, nil
}
