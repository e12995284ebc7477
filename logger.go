package basecamp

import (
	"os"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
)

// Logger is the structured logger used for debug output. Arguments after the
// message are alternating key/value pairs. hclog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// DebugConfig selects which parts of the pipeline emit debug logs.
type DebugConfig struct {
	Enabled       bool
	LogRequests   bool
	LogValidators bool
	LogAuth       bool
	RequestIDGen  func() string
}

// DefaultDebugConfig returns a disabled config with every category on, so
// enabling it is a single switch.
func DefaultDebugConfig() *DebugConfig {
	return &DebugConfig{
		Enabled:       false,
		LogRequests:   true,
		LogValidators: true,
		LogAuth:       true,
		RequestIDGen:  uuid.NewString,
	}
}

// NewSimpleLogger returns an hclog logger writing to stderr at debug level.
func NewSimpleLogger() Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:   "basecamp",
		Level:  hclog.Debug,
		Output: os.Stderr,
	})
}

func (c *Client) debugOn(category bool) bool {
	return c.debug != nil && c.debug.Enabled && category && c.logger != nil
}

func (c *Client) newRequestID() string {
	if c.debug != nil && c.debug.Enabled && c.debug.RequestIDGen != nil {
		return c.debug.RequestIDGen()
	}
	return ""
}
