// Copyright (c) 2025 Jifa CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"context"
	"net/http"

	apperrors "jifa/cli/internal/errors"
	"jifa/cli/internal/model"
)

// Handshake calls GET {prefix}/handshake. No authentication is required; when
// the default Authorization header is set the server also returns the user.
func (h *HTTP) Handshake(ctx context.Context) (*model.HandshakeResponse, error) {
	var out model.HandshakeResponse
	if err := h.doJSON(ctx, http.MethodGet, h.apiBase+h.endpoints.Handshake, nil, &out); err != nil {
		return nil, apperrors.Wrap(apperrors.HandshakeFailed, "fetch handshake", err)
	}
	return &out, nil
}

// Login calls POST {prefix}/auth/login with username and password.
func (h *HTTP) Login(ctx context.Context, username, password string) (*http.Response, error) {
	body := model.LoginRequest{Username: username, Password: password}
	return h.postCredentials(ctx, h.endpoints.Login, body, "login")
}

// Signup calls POST {prefix}/auth/signup.
func (h *HTTP) Signup(ctx context.Context, req model.SignupRequest) (*http.Response, error) {
	return h.postCredentials(ctx, h.endpoints.Signup, req, "signup")
}

func (h *HTTP) postCredentials(ctx context.Context, endpoint string, body any, what string) (*http.Response, error) {
	req, err := h.newRequest(ctx, http.MethodPost, h.apiBase+endpoint, body)
	if err != nil {
		return nil, err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.LoginFailed, what, err)
	}
	return consume(resp), nil
}
