// Copyright (c) 2025 Jifa CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package transport

import (
	"fmt"
	"net/http"

	"jifa/cli/internal/model"
)

// Notifier surfaces a server failure to the user.
type Notifier interface {
	Notify(code, message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(code, message string)

func (f NotifierFunc) Notify(code, message string) { f(code, message) }

// APIError is a non-2xx/3xx response from the server.
type APIError struct {
	Status  int
	Code    string
	Message string
	Method  string
	URL     string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Code != "" {
		return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.URL, e.Status, e.Code, msg)
	}
	return fmt.Sprintf("%s %s: %d: %s", e.Method, e.URL, e.Status, msg)
}

// WorkerNotReady reports whether the server gave up waiting for a worker.
func (e *APIError) WorkerNotReady() bool {
	return e.Status == http.StatusInternalServerError && e.Code == model.ErrorCodeWorkerNotReady
}

// Unauthorized reports whether the request lacked valid credentials.
func (e *APIError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized || e.Code == model.ErrorCodeAccessDenied
}

// Interceptor post-processes every response of the shared client.
type Interceptor struct {
	Notifier Notifier
}

// Intercept passes successful responses and transport errors through
// unchanged. A response with status >= 400 is consumed and returned as an
// *APIError; a 500 additionally produces exactly one notification.
func (i Interceptor) Intercept(resp *http.Response, err error) (*http.Response, error) {
	if err != nil || resp == nil {
		return resp, err
	}
	if resp.StatusCode < http.StatusBadRequest {
		return resp, nil
	}

	body := bufferBody(resp)
	_ = resp.Body.Close()
	code, message := errorFields(body)

	apiErr := &APIError{
		Status:  resp.StatusCode,
		Code:    code,
		Message: message,
	}
	if resp.Request != nil {
		apiErr.Method = resp.Request.Method
		apiErr.URL = resp.Request.URL.Redacted()
	}

	if resp.StatusCode == http.StatusInternalServerError && i.Notifier != nil {
		if code != "" {
			i.Notifier.Notify(code, message)
		} else {
			i.Notifier.Notify(model.ErrorCodeInternal, apiErr.Error())
		}
	}
	return nil, apiErr
}
