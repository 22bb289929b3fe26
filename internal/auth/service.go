// Copyright (c) 2025 Jifa CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package auth wires the session together: the keychain and cookie jar that
// hold the token, the retrying HTTP client, the backend API and the session
// store. Service is the session's navigator; going home reloads the session
// the way a browser reloads the start page.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/pterm/pterm"

	"jifa/cli/internal/backend"
	"jifa/cli/internal/config"
	"jifa/cli/internal/cookies"
	apperrors "jifa/cli/internal/errors"
	"jifa/cli/internal/keychain"
	"jifa/cli/internal/model"
	"jifa/cli/internal/session"
	"jifa/cli/internal/token"
	"jifa/cli/internal/transport"
	"jifa/cli/internal/xdg"
)

// Deps are the collaborators of a Service. Zero values are replaced by the
// real implementations in Open.
type Deps struct {
	Durable  token.Durable
	Jar      *cookies.Jar
	Notifier transport.Notifier
	Logger   *pterm.Logger
	// OnRetry is called before each worker-not-ready retry.
	OnRetry func(retry int)
}

// Service centralizes authentication-related operations against the backend
// and local secure storage.
type Service struct {
	cfg     config.Config
	be      backend.API
	tokens  *token.Store
	session *session.Store
	log     *pterm.Logger
}

var _ session.Navigator = (*Service)(nil)

// Open builds a Service with the OS keychain and the persisted cookie jar.
func Open(cfg config.Config, deps Deps) (*Service, error) {
	if deps.Logger == nil {
		deps.Logger = pterm.DefaultLogger.WithLevel(pterm.LogLevelDisabled)
	}
	if deps.Durable == nil {
		dir, err := xdg.ConfigDir()
		if err != nil {
			return nil, err
		}
		km, err := keychain.Open(keychain.Options{
			FileDir:      dir,
			FilePassword: cfg.KeyringPassword,
			Logger:       deps.Logger,
		})
		if err != nil {
			return nil, apperrors.Wrap(apperrors.StorageFailed, "open keychain", err)
		}
		deps.Durable = km
	}
	if deps.Jar == nil {
		dir, err := xdg.StateDir()
		if err != nil {
			return nil, err
		}
		jar, err := cookies.Open(dir, cfg.ServerURL)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.StorageFailed, "open cookie jar", err)
		}
		deps.Jar = jar
	}
	return NewService(cfg, deps), nil
}

// NewService builds a Service from explicit collaborators. deps.Durable must
// be set; a nil Jar disables the cookie location.
func NewService(cfg config.Config, deps Deps) *Service {
	log := deps.Logger
	if log == nil {
		log = pterm.DefaultLogger.WithLevel(pterm.LogLevelDisabled)
	}

	policy := transport.DefaultRetryPolicy()
	policy.Max = cfg.Retry.Max
	policy.Delay = cfg.Retry.Delay()
	policy.OnRetry = deps.OnRetry

	opts := transport.Options{
		Policy:   policy,
		Logger:   log,
		Notifier: deps.Notifier,
	}
	var cookieSrc token.CookieSource
	if deps.Jar != nil {
		opts.Jar = deps.Jar
		cookieSrc = deps.Jar
	}

	be := backend.New(cfg, transport.NewClient(opts))
	tokens := token.NewStore(deps.Durable, cookieSrc)
	s := &Service{
		cfg:    cfg,
		be:     be,
		tokens: tokens,
		log:    log,
	}
	s.session = session.NewStore(tokens, be, s)
	return s
}

// Session exposes the session store.
func (s *Service) Session() *session.Store { return s.session }

// Config returns the configuration the service was built with.
func (s *Service) Config() config.Config { return s.cfg }

// Bootstrap re-hydrates the Authorization header and performs the handshake.
// A stored token the server rejects is reset and the handshake repeated
// anonymously.
func (s *Service) Bootstrap(ctx context.Context) error {
	if err := s.session.Init(); err != nil {
		return err
	}
	hs, err := s.be.Handshake(ctx)
	var apiErr *transport.APIError
	if err != nil && errors.As(err, &apiErr) && apiErr.Unauthorized() {
		s.log.Warn("stored token rejected, continuing anonymously")
		if rerr := s.session.ResetToken(); rerr != nil {
			return rerr
		}
		s.be.SetDefaultHeader("Authorization", "")
		s.session.ClearUser()
		hs, err = s.be.Handshake(ctx)
	}
	if err != nil {
		return err
	}
	s.session.HandleHandshakeData(hs)
	s.log.Debug("handshake complete", s.log.Args(
		"role", hs.ServerRole,
		"loggedIn", hs.User != nil,
		"anonymous", hs.AllowAnonymousAccess,
	))
	return nil
}

// GoHome implements session.Navigator by reloading the session.
func (s *Service) GoHome(ctx context.Context) error {
	s.be.SetDefaultHeader("Authorization", "")
	s.session.ClearUser()
	s.session.ShowLoginForm(false)
	return s.Bootstrap(ctx)
}

// Login authenticates with username and password and reloads the session.
func (s *Service) Login(ctx context.Context, username, password string) error {
	resp, err := s.be.Login(ctx, username, password)
	if err != nil {
		return err
	}
	return s.session.HandleLoginOrSignupResponse(ctx, resp)
}

// Signup registers a new user, who is logged in afterwards.
func (s *Service) Signup(ctx context.Context, req model.SignupRequest) error {
	resp, err := s.be.Signup(ctx, req)
	if err != nil {
		return err
	}
	return s.session.HandleLoginOrSignupResponse(ctx, resp)
}

// Logout clears the local token and reloads the session.
func (s *Service) Logout(ctx context.Context) error {
	return s.session.Logout(ctx)
}

// ResetLocalAuth clears the stored token (no remote calls, no reload).
func (s *Service) ResetLocalAuth() error {
	return s.session.ResetToken()
}

// WhoAmI returns the user the server recognises after a handshake.
func (s *Service) WhoAmI(ctx context.Context) (*model.User, error) {
	if err := s.Bootstrap(ctx); err != nil {
		return nil, err
	}
	st := s.session.Snapshot()
	if st.User == nil {
		return nil, apperrors.New(apperrors.NotLoggedIn, "no user for the stored token")
	}
	return st.User, nil
}

// TokenInfo decodes the stored token for display.
func (s *Service) TokenInfo() (token.Info, error) {
	tok, err := s.tokens.Require()
	if err != nil {
		return token.Info{}, err
	}
	return token.Inspect(tok)
}

// Request sends an authenticated request through the retrying client. It
// assumes Bootstrap has run.
func (s *Service) Request(ctx context.Context, method, path string, body any) (*http.Response, error) {
	resp, err := s.be.Do(ctx, method, path, body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}
