// Package clients provides HTTP client adapters for downstream services.
package clients

import "errors"

// Client errors are infrastructure failures. ACL adapters translate them to
// domain errors before they reach the application layer.
var (
	// ErrRequestFailed wraps transport failures: DNS, refused connections,
	// timeouts and cancellation. No response was received.
	ErrRequestFailed = errors.New("request failed")

	// ErrBaseURLRequired is returned by New when no base URL is configured.
	ErrBaseURLRequired = errors.New("base URL is required")
)
