// Copyright (c) 2025 Jifa CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package backend provides the typed client for the Jifa REST API.
// It defines the API contract used by the session and the commands, and an
// HTTP implementation on top of the shared transport client.
package backend

import (
	"context"
	"net/http"

	"jifa/cli/internal/model"
)

// API defines backend operations the CLI depends on.
// Implementations may call real HTTP endpoints or provide mocks for tests.
type API interface {
	// Handshake fetches the server's capabilities and the current user.
	Handshake(ctx context.Context) (*model.HandshakeResponse, error)
	// Login posts credentials. The returned response carries the token in
	// its Authorization header; its body has been consumed.
	Login(ctx context.Context, username, password string) (*http.Response, error)
	// Signup registers a user; the response is shaped like Login's.
	Signup(ctx context.Context, req model.SignupRequest) (*http.Response, error)
	// Do sends an arbitrary request with the default headers applied.
	Do(ctx context.Context, method, path string, body any) (*http.Response, error)
	// SetDefaultHeader sets a header sent with every request; an empty value
	// removes it.
	SetDefaultHeader(key, value string)
	// DefaultHeaders returns a copy of the default headers.
	DefaultHeaders() http.Header
}
