package restclient

import "fmt"

// FailureKind categorizes why a service call failed.
// These are client-level classifications that drive retry decisions.
type FailureKind int

const (
	// FailureNone means the call succeeded. Only valid when Outcome.OK is true.
	FailureNone FailureKind = iota

	// FailureNetwork covers connection refused, timeouts, and DNS failures.
	// Network failures are worth retrying with a fresh connection.
	FailureNetwork

	// FailureHTTPStatus is a non-2xx response. Whether it is retried depends
	// on the policy's retryable status set (429 and most 5xx by default).
	FailureHTTPStatus

	// FailureDataFormat means the response body did not match the expected
	// schema (invalid JSON or missing keys). Never retried: a malformed
	// schema will not fix itself on a second request.
	FailureDataFormat

	// FailureExhausted means every attempt failed with a retryable error.
	// Message carries a summary of the last error seen.
	FailureExhausted
)

// String returns human-readable name for FailureKind.
func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "None"
	case FailureNetwork:
		return "Network"
	case FailureHTTPStatus:
		return "HTTPStatus"
	case FailureDataFormat:
		return "DataFormat"
	case FailureExhausted:
		return "Exhausted"
	default:
		return fmt.Sprintf("FailureKind(%d)", k)
	}
}

// Outcome is the result of one logical service call. Every failure mode is
// represented as a value; no error crosses the client boundary. Generic over
// the decoded body type T.
type Outcome[T any] struct {
	// Value is the decoded response body. Only valid when OK is true.
	Value T

	// Message is a human-readable failure summary (empty on success).
	Message string

	// Kind categorizes the failure. FailureNone when OK.
	Kind FailureKind

	// StatusCode is the last HTTP status observed, 0 if the request never
	// produced a response.
	StatusCode int

	// OK indicates the call succeeded and Value is populated.
	OK bool
}

// Success wraps a decoded value in a successful outcome.
func Success[T any](value T) Outcome[T] {
	return Outcome[T]{OK: true, Value: value}
}

// Failure builds a failed outcome with the given classification.
func Failure[T any](kind FailureKind, statusCode int, message string) Outcome[T] {
	return Outcome[T]{Kind: kind, StatusCode: statusCode, Message: message}
}

// Summary renders the outcome for logs and loop observations.
func (o Outcome[T]) Summary() string {
	if o.OK {
		return fmt.Sprintf("%v", o.Value)
	}
	return fmt.Sprintf("%s: %s", o.Kind, o.Message)
}
