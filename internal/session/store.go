// Copyright (c) 2025 Jifa CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package session holds the process-wide view of who is logged in and what
// the server allows. It is filled from the server handshake, re-hydrates the
// Authorization header from the stored token, and reacts to login, signup and
// logout.
package session

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"sync"

	"jifa/cli/internal/backend"
	"jifa/cli/internal/model"
)

// ErrNoAuthorization is returned when a login or signup response carries no
// token.
var ErrNoAuthorization = errors.New("response carries no Authorization header")

// TokenStore is where the bearer token lives.
type TokenStore interface {
	Get() (string, error)
	Set(token string) error
	Clear() error
}

// HeaderSetter receives the default headers of the shared HTTP client.
type HeaderSetter interface {
	SetDefaultHeader(key, value string)
}

// Navigator takes the user back to the start of the application.
type Navigator interface {
	GoHome(ctx context.Context) error
}

// State is a snapshot of the store.
type State struct {
	AllowLogin                  bool
	AllowAnonymousAccess        bool
	AllowRegistration           bool
	OAuth2LoginLinks            map[string]string
	LoginFormVisible            bool
	User                        *model.User
	PublicKey                   *model.PublicKey
	ServerRole                  model.Role
	UploadHeader                http.Header
	DisabledFileTransferMethods []model.FileTransferMethod
}

// LoggedIn reports whether a user is present.
func (s State) LoggedIn() bool { return s.User != nil }

// LoginRequired reports whether the server refuses anonymous users and
// nobody is logged in.
func (s State) LoginRequired() bool { return s.User == nil && !s.AllowAnonymousAccess }

// SupportedOAuth2Login reports whether the server offered any OAuth2 provider.
func (s State) SupportedOAuth2Login() bool { return len(s.OAuth2LoginLinks) > 0 }

// TransferMethodDisabled reports whether m is in the disabled list.
func (s State) TransferMethodDisabled(m model.FileTransferMethod) bool {
	return slices.Contains(s.DisabledFileTransferMethods, m)
}

// Store is safe for concurrent use.
type Store struct {
	tokens  TokenStore
	headers HeaderSetter
	nav     Navigator

	mu    sync.RWMutex
	state State
}

// NewStore creates an empty store. nav may be set later with SetNavigator
// when the navigator itself depends on the store.
func NewStore(tokens TokenStore, headers HeaderSetter, nav Navigator) *Store {
	return &Store{
		tokens:  tokens,
		headers: headers,
		nav:     nav,
		state:   State{UploadHeader: http.Header{}},
	}
}

// SetNavigator replaces the navigator.
func (s *Store) SetNavigator(nav Navigator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nav = nav
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := s.state
	st.OAuth2LoginLinks = maps.Clone(s.state.OAuth2LoginLinks)
	st.UploadHeader = s.state.UploadHeader.Clone()
	st.DisabledFileTransferMethods = slices.Clone(s.state.DisabledFileTransferMethods)
	if s.state.User != nil {
		u := *s.state.User
		st.User = &u
	}
	if s.state.PublicKey != nil {
		k := *s.state.PublicKey
		st.PublicKey = &k
	}
	return st
}

// LoggedIn reports whether a user is present.
func (s *Store) LoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.LoggedIn()
}

// LoginRequired reports whether a login is needed before using the server.
func (s *Store) LoginRequired() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.LoginRequired()
}

// SupportedOAuth2Login reports whether OAuth2 login links are available.
func (s *Store) SupportedOAuth2Login() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.SupportedOAuth2Login()
}

// Token reads the stored token through the token store.
func (s *Store) Token() (string, error) {
	return s.tokens.Get()
}

// Init re-hydrates the default Authorization header and the upload header
// from the stored token. Without a token nothing changes.
func (s *Store) Init() error {
	tok, err := s.tokens.Get()
	if err != nil {
		return err
	}
	if tok == "" {
		return nil
	}
	value := backend.AuthorizationValue(tok)
	s.headers.SetDefaultHeader("Authorization", value)

	s.mu.Lock()
	s.state.UploadHeader = http.Header{"Authorization": []string{value}}
	s.mu.Unlock()
	return nil
}

// HandleHandshakeData adopts what the server declared. A user in the
// response is adopted; without one, a server that refuses anonymous access
// makes the login form visible.
func (s *Store) HandleHandshakeData(data *model.HandshakeResponse) {
	if data == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.AllowLogin = data.AllowLogin
	s.state.AllowAnonymousAccess = data.AllowAnonymousAccess
	s.state.AllowRegistration = data.AllowRegistration
	s.state.OAuth2LoginLinks = maps.Clone(data.OAuth2LoginLinks)
	s.state.PublicKey = data.PublicKey
	s.state.ServerRole = data.ServerRole
	if data.User != nil {
		u := *data.User
		s.state.User = &u
	} else if !s.state.AllowAnonymousAccess {
		s.state.LoginFormVisible = true
	}
	s.state.DisabledFileTransferMethods = slices.Clone(data.DisabledFileTransferMethods)
}

// ShowLoginForm sets whether the login form should be displayed.
func (s *Store) ShowLoginForm(visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.LoginFormVisible = visible
}

// ClearUser forgets the logged-in user and the upload header. The token is
// not touched.
func (s *Store) ClearUser() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.User = nil
	s.state.UploadHeader = http.Header{}
}

// Logout clears the token from both locations and navigates home.
func (s *Store) Logout(ctx context.Context) error {
	if err := s.tokens.Clear(); err != nil {
		return err
	}
	return s.goHome(ctx)
}

// HandleLoginOrSignupResponse persists the token from resp's Authorization
// header and navigates home.
func (s *Store) HandleLoginOrSignupResponse(ctx context.Context, resp *http.Response) error {
	tok := backend.TokenFromResponse(resp)
	if tok == "" {
		return ErrNoAuthorization
	}
	if err := s.tokens.Set(tok); err != nil {
		return err
	}
	return s.goHome(ctx)
}

// ResetToken clears the stored token without navigating.
func (s *Store) ResetToken() error {
	return s.tokens.Clear()
}

func (s *Store) goHome(ctx context.Context) error {
	s.mu.RLock()
	nav := s.nav
	s.mu.RUnlock()
	if nav == nil {
		return nil
	}
	if err := nav.GoHome(ctx); err != nil {
		return fmt.Errorf("navigate home: %w", err)
	}
	return nil
}
