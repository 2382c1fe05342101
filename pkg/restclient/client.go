// Package restclient wraps unreliable external REST calls with bounded
// retries, exponential backoff, and fresh-connection-per-attempt semantics.
// Every call returns a tagged Outcome instead of an error: callers pattern
// match on the result and nothing is raised past the client boundary.
package restclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"agentloop/pkg/logx"
)

// DefaultTimeout bounds a single attempt when the request does not set one.
const DefaultTimeout = 15 * time.Second

// maxBodyBytes caps response reads so a misbehaving service cannot exhaust
// memory. 1MB is far beyond any payload the wired APIs return.
const maxBodyBytes = 1 << 20

// Request names one logical call: a target endpoint, query parameters, and a
// per-attempt timeout. Method defaults to GET; when Body is set the request
// is sent as JSON.
//
//nolint:govet // fieldalignment: logical grouping preferred over memory alignment
type Request struct {
	URL     string
	Query   url.Values
	Method  string
	Body    []byte
	Timeout time.Duration
}

// DecodeFunc turns a 2xx response body into the caller's expected value.
// A returned error is classified as FailureDataFormat and never retried.
type DecodeFunc[T any] func(body []byte) (T, error)

// Client issues logical calls under one retry policy.
type Client struct {
	policy Policy
	logger *logx.Logger

	// sleep waits for the backoff delay, honoring cancellation. Overridable
	// in tests to avoid real delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a client with the given policy. Zero-valued policy
// fields fall back to DefaultPolicy.
func NewClient(policy Policy) *Client {
	return &Client{
		policy: policy.Normalize(),
		logger: logx.NewLogger("restclient"),
		sleep:  ctxSleep,
	}
}

// Policy returns the normalized policy the client runs under.
func (c *Client) Policy() Policy {
	return c.policy
}

// ctxSleep blocks the calling goroutine for d, aborting early if ctx is
// cancelled. It must never block unrelated work.
func ctxSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Call performs one logical service call with retries. Contract:
//   - Each attempt opens a fresh connection; a poisoned pooled connection
//     from a failed attempt is never reused.
//   - 2xx with a decodable body returns Success.
//   - Permanent failures (non-retryable status, schema mismatch) return
//     immediately without retry.
//   - Transient failures back off BackoffBase^(i+1) seconds and retry up to
//     MaxAttempts total attempts; exhaustion returns FailureExhausted with
//     the last error summary.
//   - Cancellation aborts the in-flight attempt and surfaces as a Network
//     failure carrying the context error.
func Call[T any](ctx context.Context, c *Client, req Request, decode DecodeFunc[T]) Outcome[T] {
	if req.Timeout <= 0 {
		req.Timeout = DefaultTimeout
	}
	if req.Method == "" {
		req.Method = http.MethodGet
	}

	endpoint := endpointLabel(req.URL)
	start := time.Now()

	var lastMessage string
	var lastStatus int

	for attempt := 0; attempt < c.policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := c.policy.Delay(attempt - 1)
			c.logger.Debug("attempt %d/%d for %s in %s", attempt+1, c.policy.MaxAttempts, endpoint, delay)
			if err := c.sleep(ctx, delay); err != nil {
				return finish(c, endpoint, start, Failure[T](FailureNetwork, 0, fmt.Sprintf("cancelled: %v", err)))
			}
		}

		outcome, retryable := attemptOnce(ctx, c, req, decode)
		observeAttempt(endpoint, outcome.Kind)

		if outcome.OK || !retryable {
			return finish(c, endpoint, start, outcome)
		}

		lastMessage = outcome.Message
		lastStatus = outcome.StatusCode
		c.logger.Debug("transient failure on %s (attempt %d/%d): %s", endpoint, attempt+1, c.policy.MaxAttempts, outcome.Message)

		if ctx.Err() != nil {
			return finish(c, endpoint, start, Failure[T](FailureNetwork, lastStatus, fmt.Sprintf("cancelled: %v", ctx.Err())))
		}
	}

	message := fmt.Sprintf("failed after %d attempts (last error: %s)", c.policy.MaxAttempts, lastMessage)
	return finish(c, endpoint, start, Failure[T](FailureExhausted, lastStatus, message))
}

// finish records call-level metrics and logs the terminal outcome.
func finish[T any](c *Client, endpoint string, start time.Time, outcome Outcome[T]) Outcome[T] {
	observeCall(endpoint, outcome.OK, time.Since(start))
	if outcome.OK {
		c.logger.Debug("call to %s succeeded in %s", endpoint, time.Since(start).Round(time.Millisecond))
	} else {
		c.logger.Warn("call to %s failed (%s): %s", endpoint, outcome.Kind, outcome.Message)
	}
	return outcome
}

// attemptOnce executes a single attempt on a fresh connection. The second
// return value reports whether the failure is worth retrying.
func attemptOnce[T any](ctx context.Context, c *Client, req Request, decode DecodeFunc[T]) (Outcome[T], bool) {
	target := req.URL
	if len(req.Query) > 0 {
		target = req.URL + "?" + req.Query.Encode()
	}

	var body io.Reader = http.NoBody
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		// A malformed URL cannot succeed on retry.
		return Failure[T](FailureNetwork, 0, fmt.Sprintf("invalid request: %v", err)), false
	}
	if len(req.Body) > 0 {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	// Fresh transport per attempt: keep-alives disabled so no connection
	// state survives into the next attempt.
	httpClient := &http.Client{
		Timeout: req.Timeout,
		Transport: &http.Transport{
			DisableKeepAlives: true,
		},
	}
	defer httpClient.CloseIdleConnections()

	resp, err := httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return Failure[T](FailureNetwork, 0, fmt.Sprintf("cancelled: %v", ctx.Err())), false
		}
		return Failure[T](FailureNetwork, 0, err.Error()), true
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := fmt.Sprintf("HTTP %d", resp.StatusCode)
		return Failure[T](FailureHTTPStatus, resp.StatusCode, message), c.policy.RetryableStatusCode(resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Failure[T](FailureNetwork, resp.StatusCode, fmt.Sprintf("reading body: %v", err)), true
	}

	value, err := decode(raw)
	if err != nil {
		// Schema mismatch is permanent: retrying returns the same body.
		return Failure[T](FailureDataFormat, resp.StatusCode, fmt.Sprintf("invalid data from service: %v", err)), false
	}

	return Success(value), false
}

// endpointLabel reduces a URL to host form for low-cardinality metric labels.
func endpointLabel(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "invalid"
	}
	return u.Host
}
