package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/stretchr/testify/require"

	"jifa/cli/internal/model"
)

type recordingNotifier struct {
	mu    sync.Mutex
	calls [][2]string
}

func (r *recordingNotifier) Notify(code, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, [2]string{code, message})
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

const notReadyBody = `{"errorCode":"ELASTIC_WORKER_NOT_READY","message":"worker is starting"}`

func fastPolicy(max int) RetryPolicy {
	p := DefaultRetryPolicy()
	p.Max = max
	p.Delay = time.Millisecond
	return p
}

func get(t *testing.T, c *Client, url string) (*http.Response, error) {
	t.Helper()
	req, err := retryablehttp.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	require.NoError(t, err)
	return c.Do(req)
}

func TestDefaultRetryPolicy(t *testing.T) {
	p := DefaultRetryPolicy()
	require.Equal(t, 60, p.Max)
	require.Equal(t, 2*time.Second, p.Delay)
	require.Equal(t, model.ErrorCodeWorkerNotReady, p.ErrorCode)
	require.Equal(t, 2*time.Second, p.Backoff(0, time.Hour, 17, nil))
}

func TestRetriesUntilWorkerReady(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) <= 3 {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, notReadyBody)
			return
		}
		_, _ = io.WriteString(w, `{"ok":true}`)
	}))
	defer srv.Close()

	var retries []int
	p := fastPolicy(60)
	p.OnRetry = func(n int) { retries = append(retries, n) }
	n := &recordingNotifier{}
	c := NewClient(Options{Policy: p, Notifier: n})

	resp, err := get(t, c, srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	require.JSONEq(t, `{"ok":true}`, string(body))
	require.EqualValues(t, 4, hits.Load())
	require.Equal(t, []int{1, 2, 3}, retries)
	require.Zero(t, n.count())
}

func TestRetriesStopAtMax(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, notReadyBody)
	}))
	defer srv.Close()

	n := &recordingNotifier{}
	c := NewClient(Options{Policy: fastPolicy(5), Notifier: n})

	resp, err := get(t, c, srv.URL)
	require.Nil(t, resp)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.True(t, apiErr.WorkerNotReady())
	require.EqualValues(t, 6, hits.Load())
	require.Equal(t, [][2]string{{model.ErrorCodeWorkerNotReady, "worker is starting"}}, n.calls)
}

func TestOtherServerErrorNotRetried(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantCode    string
		wantMessage string
	}{
		{
			name:        "different code",
			body:        `{"errorCode":"FILE_TOO_LARGE","message":"too big"}`,
			wantCode:    model.ErrorCodeFileTooLarge,
			wantMessage: "too big",
		},
		{
			name:     "no code",
			body:     `{"message":"boom"}`,
			wantCode: model.ErrorCodeInternal,
		},
		{
			name:     "not json",
			body:     `<html>oops</html>`,
			wantCode: model.ErrorCodeInternal,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			n := &recordingNotifier{}
			c := NewClient(Options{Policy: fastPolicy(60), Notifier: n})

			_, err := get(t, c, srv.URL)
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			require.Equal(t, http.StatusInternalServerError, apiErr.Status)
			require.EqualValues(t, 1, hits.Load())
			require.Equal(t, 1, n.count())
			require.Equal(t, tt.wantCode, n.calls[0][0])
			if tt.wantMessage != "" {
				require.Equal(t, tt.wantMessage, n.calls[0][1])
			}
		})
	}
}

func TestClientErrorNotNotified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"errorCode":"ACCESS_DENIED","message":"login first"}`)
	}))
	defer srv.Close()

	n := &recordingNotifier{}
	c := NewClient(Options{Policy: fastPolicy(60), Notifier: n})

	_, err := get(t, c, srv.URL+"/jifa-api/files")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.True(t, apiErr.Unauthorized())
	require.Equal(t, http.MethodGet, apiErr.Method)
	require.Contains(t, apiErr.Error(), "login first")
	require.Zero(t, n.count())
}

func TestTransportErrorPassesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	n := &recordingNotifier{}
	c := NewClient(Options{Policy: fastPolicy(60), Notifier: n})

	_, err := get(t, c, url)
	require.Error(t, err)
	var apiErr *APIError
	require.False(t, errors.As(err, &apiErr))
	require.Zero(t, n.count())
}

func TestContextCancelStopsRetrying(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, notReadyBody)
	}))
	defer srv.Close()

	p := DefaultRetryPolicy()
	p.Delay = 20 * time.Millisecond
	c := NewClient(Options{Policy: p})

	ctx, cancel := context.WithTimeout(context.Background(), 70*time.Millisecond)
	defer cancel()
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	_, err = c.Do(req)
	require.Error(t, err)
	require.Less(t, hits.Load(), int32(61))
}

func TestShouldRetryKeepsBody(t *testing.T) {
	resp := &http.Response{
		StatusCode: http.StatusInternalServerError,
		Body:       io.NopCloser(strings.NewReader(notReadyBody)),
	}
	require.True(t, DefaultRetryPolicy().ShouldRetry(resp))
	b, _ := io.ReadAll(resp.Body)
	require.Equal(t, notReadyBody, string(b))

	ok := &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader(notReadyBody))}
	require.False(t, DefaultRetryPolicy().ShouldRetry(ok))
	require.False(t, DefaultRetryPolicy().ShouldRetry(nil))
}

func TestErrorFields(t *testing.T) {
	code, msg := errorFields([]byte(`{"errorCode":"X","message":"y"}`))
	require.Equal(t, "X", code)
	require.Equal(t, "y", msg)

	code, _ = errorFields([]byte(`{"errorCode":42}`))
	require.Empty(t, code)

	code, msg = errorFields(nil)
	require.Empty(t, code)
	require.Empty(t, msg)
}
