// Copyright (c) 2025 Jifa CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package token keeps the Jifa bearer token in its two locations: durable
// storage (the OS keychain) and the server cookie. Reads prefer durable
// storage; clearing removes both.
package token

import (
	"errors"
	"fmt"
	"strings"

	apperrors "jifa/cli/internal/errors"
)

// Key names the token in both locations.
const Key = "jifa-token"

// ErrNoToken is returned by Require when neither location holds a token.
var ErrNoToken = errors.New("no token stored")

// Durable is the long-lived token location.
type Durable interface {
	LoadToken() (string, error)
	SaveToken(token string) error
	ClearToken() error
}

// CookieSource is the cookie location.
type CookieSource interface {
	Value(name string) string
	Remove(name string) error
}

// Store reads through durable storage and falls back to the cookie.
type Store struct {
	durable Durable
	cookies CookieSource
}

// NewStore combines the two locations. cookies may be nil.
func NewStore(durable Durable, cookies CookieSource) *Store {
	return &Store{durable: durable, cookies: cookies}
}

// Get returns the stored token or "" when there is none. A durable storage
// read error falls through to the cookie and is returned only if the cookie
// is empty too.
func (s *Store) Get() (string, error) {
	tok, err := s.durable.LoadToken()
	if tok = strings.TrimSpace(tok); tok != "" {
		return tok, nil
	}
	if s.cookies != nil {
		if c := strings.TrimSpace(s.cookies.Value(Key)); c != "" {
			return c, nil
		}
	}
	if err != nil {
		return "", apperrors.Wrap(apperrors.StorageFailed, "read token", err)
	}
	return "", nil
}

// Require is Get that treats absence as ErrNoToken.
func (s *Store) Require() (string, error) {
	tok, err := s.Get()
	if err != nil {
		return "", err
	}
	if tok == "" {
		return "", ErrNoToken
	}
	return tok, nil
}

// Set writes the token to durable storage.
func (s *Store) Set(tok string) error {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return fmt.Errorf("set token: %w", ErrNoToken)
	}
	if err := s.durable.SaveToken(tok); err != nil {
		return apperrors.Wrap(apperrors.StorageFailed, "save token", err)
	}
	return nil
}

// Clear removes the token from both locations. Both removals are attempted
// even if the first fails.
func (s *Store) Clear() error {
	var errs []error
	if s.cookies != nil {
		if err := s.cookies.Remove(Key); err != nil {
			errs = append(errs, fmt.Errorf("cookie: %w", err))
		}
	}
	if err := s.durable.ClearToken(); err != nil {
		errs = append(errs, fmt.Errorf("keychain: %w", err))
	}
	if err := errors.Join(errs...); err != nil {
		return apperrors.Wrap(apperrors.StorageFailed, "clear token", err)
	}
	return nil
}
