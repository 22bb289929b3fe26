// Copyright (c) 2025 Jifa CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/hashicorp/go-retryablehttp"

	"jifa/cli/internal/config"
	"jifa/cli/internal/transport"
)

// UserAgent identifies the CLI to the server.
const UserAgent = "jifa-cli/1.0"

// HTTP implements API over REST endpoints.
type HTTP struct {
	// serverURL is the server root (e.g., "http://localhost:8102")
	serverURL string
	// apiBase is serverURL plus the API prefix (e.g., ".../jifa-api")
	apiBase string
	// endpoints contains the URL paths relative to apiBase
	endpoints config.Endpoints
	client    *transport.Client

	mu      sync.RWMutex
	headers http.Header
}

var _ API = (*HTTP)(nil)

// New creates the HTTP API client for the configured server.
func New(cfg config.Config, client *transport.Client) *HTTP {
	return &HTTP{
		serverURL: strings.TrimRight(cfg.ServerURL, "/"),
		apiBase:   cfg.APIBaseURL(),
		endpoints: cfg.Endpoints,
		client:    client,
		headers:   http.Header{},
	}
}

// SetDefaultHeader implements API.
func (h *HTTP) SetDefaultHeader(key, value string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if value == "" {
		h.headers.Del(key)
		return
	}
	h.headers.Set(key, value)
}

// DefaultHeaders implements API.
func (h *HTTP) DefaultHeaders() http.Header {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.headers.Clone()
}

// resolve maps a path to a URL. Absolute URLs are used as they are, paths
// starting with "/" are relative to the server root and anything else is
// relative to the API prefix.
func (h *HTTP) resolve(path string) string {
	switch {
	case strings.HasPrefix(path, "http://"), strings.HasPrefix(path, "https://"):
		return path
	case strings.HasPrefix(path, "/"):
		return h.serverURL + path
	default:
		return h.apiBase + "/" + path
	}
}

// newRequest builds a request with the default headers. A non-nil body is
// sent as JSON unless it is already a []byte or io.Reader.
func (h *HTTP) newRequest(ctx context.Context, method, url string, body any) (*retryablehttp.Request, error) {
	var raw any
	contentType := ""
	switch b := body.(type) {
	case nil:
	case []byte:
		raw = b
	case io.Reader:
		raw = b
	default:
		encoded, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		raw = encoded
		contentType = "application/json"
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, url, raw)
	if err != nil {
		return nil, err
	}
	for k, vs := range h.DefaultHeaders() {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json, */*")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

// Do implements API.
func (h *HTTP) Do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	req, err := h.newRequest(ctx, method, h.resolve(path), body)
	if err != nil {
		return nil, err
	}
	return h.client.Do(req)
}

// doJSON sends a request and decodes a JSON response into out.
func (h *HTTP) doJSON(ctx context.Context, method, url string, body, out any) error {
	req, err := h.newRequest(ctx, method, url, body)
	if err != nil {
		return err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", url, err)
	}
	return nil
}

// consume drains and closes the body so the connection can be reused while
// the caller keeps the headers.
func consume(resp *http.Response) *http.Response {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	resp.Body = http.NoBody
	return resp
}
