package basecamp

import (
	"net/http"
	"time"
)

// Doer is the pluggable HTTP backend that performs the actual exchange.
// *http.Client satisfies it.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// DoerFunc adapts a function to the Doer interface.
type DoerFunc func(*http.Request) (*http.Response, error)

// Do calls f(req).
func (f DoerFunc) Do(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Middleware represents a middleware function
type Middleware func(req *http.Request, next RoundTripper) (*http.Response, error)

// RoundTripper represents the HTTP transport interface
type RoundTripper interface {
	RoundTrip(*http.Request) (*http.Response, error)
}

// RoundTripperFunc is a helper type for middleware
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Option represents a configuration option
type Option func(*Client)

// Params holds the body fields of a request. The BinaryParam key carries a
// raw payload ([]byte or string) that is sent unmodified instead of JSON.
type Params map[string]any

// BinaryParam is the reserved Params key for raw uploads.
const BinaryParam = "binary"

// RequestOption tunes a single call.
type RequestOption func(*requestConfig)

type requestConfig struct {
	timeout time.Duration
}

// Timeout overrides the client timeout for one call. The deadline covers
// the whole exchange including reading the body.
func Timeout(d time.Duration) RequestOption {
	return func(rc *requestConfig) {
		rc.timeout = d
	}
}

// FingerprintFunc derives the validator store key of a request.
type FingerprintFunc func(method, resource string, params Params) string
