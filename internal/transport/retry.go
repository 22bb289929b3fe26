// Copyright (c) 2025 Jifa CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package transport is the shared HTTP client of the CLI: a retrying client
// that waits out elastic workers which are still starting, followed by an
// interceptor that turns error responses into typed errors and notifies the
// user about server failures.
package transport

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pterm/pterm"
	"github.com/tidwall/gjson"

	"jifa/cli/internal/logging"
	"jifa/cli/internal/model"
)

// maxErrorBody bounds how much of an error response is buffered.
const maxErrorBody = 64 << 10

// RetryPolicy retries a request while the server answers 500 with ErrorCode.
// The delay between attempts is constant.
type RetryPolicy struct {
	// Max is the number of retries after the first attempt.
	Max       int
	Delay     time.Duration
	ErrorCode string
	// OnRetry, if set, is called before every retry with the 1-based retry number.
	OnRetry func(retry int)
}

// DefaultRetryPolicy waits up to two minutes for an elastic worker.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Max:       60,
		Delay:     2 * time.Second,
		ErrorCode: model.ErrorCodeWorkerNotReady,
	}
}

// ShouldRetry reports whether resp is a 500 carrying the policy's error code.
// The response body stays readable afterwards.
func (p RetryPolicy) ShouldRetry(resp *http.Response) bool {
	if resp == nil || resp.StatusCode != http.StatusInternalServerError {
		return false
	}
	code, _ := errorFields(bufferBody(resp))
	return code != "" && code == p.ErrorCode
}

// CheckRetry implements retryablehttp.CheckRetry. Transport errors are not
// retried.
func (p RetryPolicy) CheckRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return false, nil
	}
	return p.ShouldRetry(resp), nil
}

// Backoff implements retryablehttp.Backoff with a constant delay.
func (p RetryPolicy) Backoff(_, _ time.Duration, _ int, _ *http.Response) time.Duration {
	return p.Delay
}

// Options configure NewClient.
type Options struct {
	Policy RetryPolicy
	// Jar receives cookies set by the server; may be nil.
	Jar http.CookieJar
	// Timeout bounds a single attempt. Zero means 30 seconds.
	Timeout  time.Duration
	Logger   *pterm.Logger
	Notifier Notifier
}

// Client sends requests through the retry policy and the interceptor.
type Client struct {
	rc          *retryablehttp.Client
	interceptor Interceptor
}

// NewClient builds the shared client.
func NewClient(opts Options) *Client {
	p := opts.Policy
	rc := retryablehttp.NewClient()
	rc.RetryMax = p.Max
	rc.RetryWaitMin = p.Delay
	rc.RetryWaitMax = p.Delay
	rc.CheckRetry = p.CheckRetry
	rc.Backoff = p.Backoff
	// Hand the last response to the interceptor instead of a generic
	// "giving up" error once retries run out.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.RequestLogHook = func(_ retryablehttp.Logger, _ *http.Request, attempt int) {
		if attempt > 0 && p.OnRetry != nil {
			p.OnRetry(attempt)
		}
	}
	if opts.Logger != nil {
		rc.Logger = logging.Leveled{L: opts.Logger}
	} else {
		rc.Logger = nil
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	rc.HTTPClient.Timeout = timeout
	rc.HTTPClient.Jar = opts.Jar

	return &Client{rc: rc, interceptor: Interceptor{Notifier: opts.Notifier}}
}

// Do sends req. Responses with status >= 400 come back as *APIError and a
// nil response.
func (c *Client) Do(req *retryablehttp.Request) (*http.Response, error) {
	resp, err := c.rc.Do(req)
	return c.interceptor.Intercept(resp, err)
}

// bufferBody reads up to maxErrorBody bytes and replaces resp.Body with an
// in-memory copy.
func bufferBody(resp *http.Response) []byte {
	if resp.Body == nil {
		return nil
	}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	_ = resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(b))
	return b
}

// errorFields extracts errorCode and message from a Jifa error body.
func errorFields(body []byte) (code, message string) {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return "", ""
	}
	res := gjson.GetManyBytes(body, "errorCode", "message")
	if res[0].Type == gjson.String {
		code = res[0].Str
	}
	if res[1].Exists() {
		message = res[1].String()
	}
	return code, message
}
