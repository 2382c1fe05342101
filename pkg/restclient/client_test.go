package restclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// newTestClient returns a client whose backoff sleeps are recorded instead
// of waited out.
func newTestClient(policy Policy) (*Client, *[]time.Duration) {
	c := NewClient(policy)
	delays := &[]time.Duration{}
	c.sleep = func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
	return c, delays
}

func decodeJSONMap(body []byte) (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func TestCallSuccessFirstAttempt(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if got := r.URL.Query().Get("latitude"); got != "35.6" {
			t.Errorf("latitude query = %q, want 35.6", got)
		}
		fmt.Fprint(w, `{"temperature": 22.5}`)
	}))
	defer srv.Close()

	c, delays := newTestClient(DefaultPolicy)
	req := Request{URL: srv.URL, Query: map[string][]string{"latitude": {"35.6"}}}

	out := Call(context.Background(), c, req, decodeJSONMap)

	if !out.OK {
		t.Fatalf("Expected success, got %s: %s", out.Kind, out.Message)
	}
	if out.Value["temperature"] != 22.5 {
		t.Errorf("temperature = %v, want 22.5", out.Value["temperature"])
	}
	if hits.Load() != 1 {
		t.Errorf("Expected 1 attempt, got %d", hits.Load())
	}
	if len(*delays) != 0 {
		t.Errorf("Expected no backoff on first-attempt success, got %v", *delays)
	}
}

func TestCallRetriesTransientThenSucceeds(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"ok": true}`)
	}))
	defer srv.Close()

	c, delays := newTestClient(DefaultPolicy)
	out := Call(context.Background(), c, Request{URL: srv.URL}, decodeJSONMap)

	if !out.OK {
		t.Fatalf("Expected success after retries, got %s: %s", out.Kind, out.Message)
	}
	if hits.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", hits.Load())
	}
	want := []time.Duration{1500 * time.Millisecond, 2250 * time.Millisecond}
	if len(*delays) != len(want) {
		t.Fatalf("Expected %d backoff sleeps, got %v", len(want), *delays)
	}
	for i, d := range want {
		if (*delays)[i] != d {
			t.Errorf("delay[%d] = %v, want %v", i, (*delays)[i], d)
		}
	}
}

func TestCallPermanentStatusFailsFast(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c, delays := newTestClient(DefaultPolicy)
	out := Call(context.Background(), c, Request{URL: srv.URL}, decodeJSONMap)

	if out.OK {
		t.Fatal("Expected failure for 404")
	}
	if out.Kind != FailureHTTPStatus {
		t.Errorf("Kind = %s, want HTTPStatus", out.Kind)
	}
	if out.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", out.StatusCode)
	}
	if hits.Load() != 1 {
		t.Errorf("Expected exactly 1 attempt for permanent failure, got %d", hits.Load())
	}
	if len(*delays) != 0 {
		t.Errorf("Expected no backoff for permanent failure, got %v", *delays)
	}
}

func TestCallDataFormatNeverRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, `{not valid json`)
	}))
	defer srv.Close()

	c, _ := newTestClient(DefaultPolicy)
	out := Call(context.Background(), c, Request{URL: srv.URL}, decodeJSONMap)

	if out.Kind != FailureDataFormat {
		t.Errorf("Kind = %s, want DataFormat", out.Kind)
	}
	if hits.Load() != 1 {
		t.Errorf("Expected 1 attempt for schema mismatch, got %d", hits.Load())
	}
	if !strings.Contains(out.Message, "invalid data from service") {
		t.Errorf("Message = %q, want invalid-data summary", out.Message)
	}
}

func TestCallMissingExpectedKeyIsDataFormat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"unexpected": 1}`)
	}))
	defer srv.Close()

	type weather struct {
		Temperature float64
	}
	decode := func(body []byte) (weather, error) {
		var m map[string]any
		if err := json.Unmarshal(body, &m); err != nil {
			return weather{}, err
		}
		temp, ok := m["temperature"].(float64)
		if !ok {
			return weather{}, fmt.Errorf("missing key temperature")
		}
		return weather{Temperature: temp}, nil
	}

	c, _ := newTestClient(DefaultPolicy)
	out := Call(context.Background(), c, Request{URL: srv.URL}, decode)

	if out.Kind != FailureDataFormat {
		t.Errorf("Kind = %s, want DataFormat for missing key", out.Kind)
	}
}

func TestCallExhaustsRetryableFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, _ := newTestClient(DefaultPolicy)
	out := Call(context.Background(), c, Request{URL: srv.URL}, decodeJSONMap)

	if out.Kind != FailureExhausted {
		t.Fatalf("Kind = %s, want Exhausted", out.Kind)
	}
	if hits.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", hits.Load())
	}
	if !strings.Contains(out.Message, "failed after 3 attempts") {
		t.Errorf("Message = %q, want attempt summary", out.Message)
	}
	if !strings.Contains(out.Message, "HTTP 429") {
		t.Errorf("Message = %q, want last error summary", out.Message)
	}
}

func TestCallNetworkErrorRetriedThenExhausted(t *testing.T) {
	// Server that is immediately closed: every attempt is a connection error.
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	target := srv.URL
	srv.Close()

	policy := Policy{MaxAttempts: 2, BackoffBase: 1.5}
	c, delays := newTestClient(policy)
	out := Call(context.Background(), c, Request{URL: target}, decodeJSONMap)

	if out.Kind != FailureExhausted {
		t.Fatalf("Kind = %s, want Exhausted for repeated network errors", out.Kind)
	}
	if len(*delays) != 1 {
		t.Errorf("Expected 1 backoff sleep for 2 attempts, got %v", *delays)
	}
}

func TestCallCancelledDuringBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	c := NewClient(DefaultPolicy)
	c.sleep = func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}

	out := Call(ctx, c, Request{URL: srv.URL}, decodeJSONMap)

	if out.OK {
		t.Fatal("Expected failure after cancellation")
	}
	if !strings.Contains(out.Message, "cancelled") {
		t.Errorf("Message = %q, want cancellation summary", out.Message)
	}
}

func TestCallNeverPanicsOnDecodePanicSafeInputs(t *testing.T) {
	// Empty body with a decoder that requires JSON: classified, not raised.
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	defer srv.Close()

	c, _ := newTestClient(DefaultPolicy)
	out := Call(context.Background(), c, Request{URL: srv.URL}, decodeJSONMap)

	if out.Kind != FailureDataFormat {
		t.Errorf("Kind = %s, want DataFormat for empty body", out.Kind)
	}
}

func TestCallPostSendsJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q, want application/json", ct)
		}
		fmt.Fprint(w, `{"response": "ready"}`)
	}))
	defer srv.Close()

	c, _ := newTestClient(DefaultPolicy)
	req := Request{URL: srv.URL, Method: http.MethodPost, Body: []byte(`{"model":"llama3.2"}`)}
	out := Call(context.Background(), c, req, decodeJSONMap)

	if !out.OK {
		t.Fatalf("Expected success, got %s: %s", out.Kind, out.Message)
	}
}

func TestOutcomeSummary(t *testing.T) {
	ok := Success(map[string]any{"temperature": 21.0})
	if !strings.Contains(ok.Summary(), "temperature") {
		t.Errorf("Summary() = %q, want value rendering", ok.Summary())
	}

	bad := Failure[map[string]any](FailureExhausted, 503, "failed after 3 attempts (last error: HTTP 503)")
	if got := bad.Summary(); got != "Exhausted: failed after 3 attempts (last error: HTTP 503)" {
		t.Errorf("Summary() = %q", got)
	}
}
