package basecamp

import (
	"errors"
	"fmt"
	"time"
)

// Error types carried by ClientError.Type.
const (
	ErrorTypeTransport  = "Transport"
	ErrorTypeDecode     = "Decode"
	ErrorTypeEncode     = "Encode"
	ErrorTypeAuth       = "Auth"
	ErrorTypeValidation = "Validation"
)

// Sentinel errors matched by errors.Is against a *ClientError of the
// corresponding type.
var (
	// ErrTransport matches failures before any status code was obtained:
	// refused connections, TLS errors, deadlines.
	ErrTransport = errors.New("basecamp: transport failure")

	// ErrDecode matches a response body that is not valid JSON.
	ErrDecode = errors.New("basecamp: malformed response body")

	// ErrInvalidConfig matches client configuration errors.
	ErrInvalidConfig = errors.New("basecamp: invalid configuration")
)

// ClientError is returned for every failure that escapes the pipeline.
// HTTP error statuses are not ClientErrors; they come back as a Result.
type ClientError struct {
	Type       string
	Message    string
	Cause      error
	RequestID  string
	Method     string
	URL        string
	Endpoint   string
	StatusCode int
	Timestamp  time.Time
	Duration   time.Duration
}

// IsTransport reports whether err is a transport level failure.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// Error implements error interface.
func (e *ClientError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.Cause != nil {
		msg = fmt.Sprintf("%s (%v)", msg, e.Cause)
	}
	if e.RequestID != "" {
		msg = fmt.Sprintf("[%s] %s", e.RequestID, msg)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *ClientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is compares error types for errors.Is.
func (e *ClientError) Is(target error) bool {
	if e == nil {
		return false
	}
	switch target {
	case ErrTransport:
		return e.Type == ErrorTypeTransport
	case ErrDecode:
		return e.Type == ErrorTypeDecode
	case ErrInvalidConfig:
		return e.Type == ErrorTypeValidation
	}
	if targetErr, ok := target.(*ClientError); ok {
		return e.Type == targetErr.Type
	}
	return false
}

// DebugInfo renders a multi-line string with diagnostic context.
func (e *ClientError) DebugInfo() string {
	if e == nil {
		return "Error: <nil>"
	}
	info := fmt.Sprintf("Error Type: %s\n", e.Type)
	info += fmt.Sprintf("Message: %s\n", e.Message)
	if e.RequestID != "" {
		info += fmt.Sprintf("Request ID: %s\n", e.RequestID)
	}
	if e.Method != "" {
		info += fmt.Sprintf("Method: %s\n", e.Method)
	}
	if e.URL != "" {
		info += fmt.Sprintf("URL: %s\n", e.URL)
	}
	if e.Endpoint != "" {
		info += fmt.Sprintf("Endpoint: %s\n", e.Endpoint)
	}
	if e.StatusCode > 0 {
		info += fmt.Sprintf("Status Code: %d\n", e.StatusCode)
	}
	if !e.Timestamp.IsZero() {
		info += fmt.Sprintf("Timestamp: %s\n", e.Timestamp.Format(time.RFC3339))
	}
	if e.Duration > 0 {
		info += fmt.Sprintf("Duration: %v\n", e.Duration)
	}
	if e.Cause != nil {
		info += fmt.Sprintf("Cause: %v\n", e.Cause)
	}
	return info
}
