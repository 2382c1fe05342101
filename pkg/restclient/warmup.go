package restclient

import (
	"context"
	"sort"
	"sync"
	"time"
)

// DefaultWarmupConcurrency is the worker pool width used when the caller
// does not set one. Warm-up traffic exists to load the downstream service,
// not to stress it, so the default stays small.
const DefaultWarmupConcurrency = 2

// WarmupCall is one fire-and-record request in a warm-up batch.
type WarmupCall struct {
	Name    string
	Request Request
}

// WarmupResult records how one warm-up call went. Results carry either a
// duration or a failure classification, never both meaningfully.
//
//nolint:govet // fieldalignment: logical grouping preferred over memory alignment
type WarmupResult struct {
	Name     string
	Duration time.Duration
	Kind     FailureKind
	Message  string
	OK       bool
}

// Warmup executes the calls with a fixed-width worker pool and waits for all
// of them before returning. Each call runs under the client's full retry
// policy; one call's failure never cancels or corrupts the others. Results
// are returned in submission order.
//
// This mode exists to pre-load a downstream service (e.g. trigger model
// weight loading) before real traffic arrives. It is deliberately separate
// from the sequential per-conversation loop: batch parallelism must not leak
// into per-request orchestration.
func Warmup(ctx context.Context, c *Client, calls []WarmupCall, concurrency int) []WarmupResult {
	if concurrency <= 0 {
		concurrency = DefaultWarmupConcurrency
	}
	if concurrency > len(calls) {
		concurrency = len(calls)
	}

	results := make([]WarmupResult, len(calls))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				// Each worker writes only its own slot; no locking needed.
				results[i] = runWarmupCall(ctx, c, calls[i])
			}
		}()
	}

	for i := range calls {
		jobs <- i
	}
	close(jobs)
	wg.Wait() // Join-all barrier: summaries must see every result

	return results
}

func runWarmupCall(ctx context.Context, c *Client, call WarmupCall) WarmupResult {
	start := time.Now()
	outcome := Call(ctx, c, call.Request, discardBody)
	result := WarmupResult{
		Name:     call.Name,
		Duration: time.Since(start),
		OK:       outcome.OK,
		Kind:     outcome.Kind,
		Message:  outcome.Message,
	}
	return result
}

// discardBody accepts any 2xx body. Warm-up only cares that the service
// answered, not what it said.
func discardBody(_ []byte) (struct{}, error) {
	return struct{}{}, nil
}

// MedianDuration summarizes the successful calls in a warm-up batch.
// Returns 0 when nothing succeeded.
func MedianDuration(results []WarmupResult) time.Duration {
	durations := make([]time.Duration, 0, len(results))
	for _, r := range results {
		if r.OK {
			durations = append(durations, r.Duration)
		}
	}
	if len(durations) == 0 {
		return 0
	}
	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
	return durations[len(durations)/2]
}
