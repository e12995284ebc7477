package basecamp

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/oauth2"

	"github.com/freeform/basecamp-api/internal/singleflight"
)

// WithBaseURL replaces the account API root, e.g. for a test server.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithTimeout sets the default per-call timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithHTTPClient sets a custom HTTP client as the backend
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client == nil {
			c.doer = nil
			return
		}
		c.doer = client
	}
}

// WithDoer sets a custom backend
func WithDoer(doer Doer) Option {
	return func(c *Client) {
		c.doer = doer
	}
}

// WithMiddleware adds middleware to the client
func WithMiddleware(middleware ...Middleware) Option {
	return func(c *Client) {
		c.middleware = append(c.middleware, middleware...)
	}
}

// WithValidatorStore sets the store holding ETags between calls
func WithValidatorStore(store ValidatorStore) Option {
	return func(c *Client) {
		c.store = store
	}
}

// WithFingerprintFunc replaces CreateHash
func WithFingerprintFunc(fn FingerprintFunc) Option {
	return func(c *Client) {
		c.fingerprint = fn
	}
}

// WithTokenSource supplies bearer tokens when the account has no static
// token. Wrap it with oauth2.ReuseTokenSource to avoid a refresh per call.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(c *Client) {
		c.tokenSource = ts
	}
}

// WithMetrics enables Prometheus metrics collection
func WithMetrics() Option {
	return func(c *Client) {
		c.metrics = NewMetricsCollector()
	}
}

// WithMetricsCollector sets a custom metrics collector
func WithMetricsCollector(collector *MetricsCollector) Option {
	return func(c *Client) {
		c.metrics = collector
	}
}

// WithDebug enables debug logging with default configuration
func WithDebug() Option {
	return func(c *Client) {
		c.debug.Enabled = true
	}
}

// WithDebugConfig sets custom debug configuration. The client keeps its own
// copy; later options never write through to config.
func WithDebugConfig(config *DebugConfig) Option {
	return func(c *Client) {
		if config == nil {
			c.debug = DefaultDebugConfig()
			return
		}
		cfg := *config
		c.debug = &cfg
	}
}

// WithLogger sets a custom logger for debug output
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithSimpleLogger enables debug logging to stderr
func WithSimpleLogger() Option {
	return func(c *Client) {
		c.debug.Enabled = true
		c.logger = NewSimpleLogger()
	}
}

// WithRequestIDGenerator sets a custom function for generating request IDs
func WithRequestIDGenerator(gen func() string) Option {
	return func(c *Client) {
		c.debug.RequestIDGen = gen
	}
}

// WithDeduplication merges concurrent identical GET requests
func WithDeduplication() Option {
	return func(c *Client) {
		c.dedup = singleflight.New()
	}
}

// ValidateConfiguration validates the client configuration and returns an error if invalid
func (c *Client) ValidateConfiguration() error {
	var result *multierror.Error

	if err := c.account.Validate(); err != nil {
		result = multierror.Append(result, fmt.Errorf("account: %w", err))
	}
	result = multierror.Append(result, c.validateTransportConfig()...)
	result = multierror.Append(result, c.validateStoreConfig()...)
	result = multierror.Append(result, c.validateDebugConfig()...)
	result = multierror.Append(result, c.validateMiddlewareConfig()...)

	if err := result.ErrorOrNil(); err != nil {
		return &ClientError{
			Type:    ErrorTypeValidation,
			Message: "configuration validation failed",
			Cause:   err,
		}
	}

	return nil
}

func (c *Client) validateTransportConfig() []error {
	var errs []error

	if c.doer == nil {
		errs = append(errs, fmt.Errorf("HTTP backend cannot be nil"))
	}

	if c.timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive"))
	}
	if c.timeout > 10*time.Minute {
		errs = append(errs, fmt.Errorf("timeout > 10m may cause requests to hang for too long"))
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		errs = append(errs, fmt.Errorf("base URL: %w", err))
	} else if !u.IsAbs() {
		errs = append(errs, fmt.Errorf("base URL %q must be absolute", c.baseURL))
	}

	return errs
}

func (c *Client) validateStoreConfig() []error {
	var errs []error

	if c.store == nil {
		errs = append(errs, fmt.Errorf("validator store cannot be nil"))
	}
	if c.fingerprint == nil {
		errs = append(errs, fmt.Errorf("fingerprint function cannot be nil"))
	}

	return errs
}

func (c *Client) validateDebugConfig() []error {
	var errs []error

	if c.debug.Enabled {
		if c.debug.RequestIDGen == nil {
			errs = append(errs, fmt.Errorf("debug RequestIDGen must be set when debug is enabled"))
		}
		if c.logger == nil {
			errs = append(errs, fmt.Errorf("logger must be set when debug is enabled"))
		}
	}

	return errs
}

func (c *Client) validateMiddlewareConfig() []error {
	var errs []error

	for i, middleware := range c.middleware {
		if middleware == nil {
			errs = append(errs, fmt.Errorf("middleware[%d] cannot be nil", i))
		}
	}

	return errs
}
