package restclient

import (
	"math"
	"time"
)

// Policy defines retry behavior for a service client. Policies are immutable
// configuration: construct once per service type and share freely.
//
//nolint:govet // fieldalignment: logical grouping preferred over memory alignment
type Policy struct {
	// MaxAttempts is the total number of attempts (initial call + retries).
	MaxAttempts int `yaml:"max_attempts"`

	// BackoffBase is the exponential backoff base in seconds. The delay
	// before retry i (0-indexed) is BackoffBase^(i+1) seconds, so with the
	// default base the first retry waits 1.5s and the second 2.25s. No
	// jitter is applied so timing stays deterministic for tests.
	BackoffBase float64 `yaml:"backoff_base"`

	// RetryableStatus is the set of HTTP status codes worth retrying.
	// Any other non-2xx status fails fast.
	RetryableStatus map[int]bool `yaml:"-"`
}

// DefaultPolicy mirrors the upstream service defaults: three total attempts
// with 1.5s and 2.25s delays, retrying on rate limiting and server overload.
//
//nolint:gochecknoglobals // Sensible default config pattern
var DefaultPolicy = Policy{
	MaxAttempts:     3,
	BackoffBase:     1.5,
	RetryableStatus: map[int]bool{429: true, 500: true, 502: true, 503: true, 504: true},
}

// Delay computes the backoff delay before retry i (0-indexed).
func (p Policy) Delay(retry int) time.Duration {
	if retry < 0 {
		return 0
	}
	seconds := math.Pow(p.BackoffBase, float64(retry+1))
	return time.Duration(seconds * float64(time.Second))
}

// RetryableStatusCode reports whether the status code is worth retrying.
func (p Policy) RetryableStatusCode(code int) bool {
	return p.RetryableStatus[code]
}

// Normalize fills zero-valued fields from DefaultPolicy so partially
// configured policies behave sensibly.
func (p Policy) Normalize() Policy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = DefaultPolicy.MaxAttempts
	}
	if p.BackoffBase <= 1.0 {
		p.BackoffBase = DefaultPolicy.BackoffBase
	}
	if p.RetryableStatus == nil {
		p.RetryableStatus = DefaultPolicy.RetryableStatus
	}
	return p
}
