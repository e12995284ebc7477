package basecamp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/freeform/basecamp-api/internal/singleflight"
)

const (
	// BaseURL is the root of the Basecamp Classic (bcx) API.
	BaseURL = "https://basecamp.com/"
	// APIVersion is appended to the account id.
	APIVersion = "/api/v1"
	// DefaultTimeout bounds a call unless overridden.
	DefaultTimeout = 10 * time.Second
)

// Client dispatches every API call through one pipeline: build, send,
// normalize, record the validator. It is safe for concurrent use.
type Client struct {
	account         Account
	tokenMu         sync.RWMutex
	tokenSource     oauth2.TokenSource
	baseURL         string
	doer            Doer
	timeout         time.Duration
	middleware      []Middleware
	store           ValidatorStore
	fingerprint     FingerprintFunc
	metrics         *MetricsCollector
	debug           *DebugConfig
	logger          Logger
	dedup           *singleflight.Group
	validationError error
}

// New constructs a Client for account using the provided functional options.
// A best effort validation is performed; call IsValid / ValidationError for
// errors. An invalid client fails every call with the validation error.
func New(account Account, options ...Option) *Client {
	client := &Client{
		account:     account,
		doer:        &http.Client{},
		timeout:     DefaultTimeout,
		middleware:  []Middleware{},
		store:       NewMemoryStore(),
		fingerprint: CreateHash,
		debug:       DefaultDebugConfig(),
	}

	for _, option := range options {
		option(client)
	}

	if client.baseURL == "" {
		client.baseURL = BaseURL + account.AccountID + APIVersion
	}

	if err := client.ValidateConfiguration(); err != nil {
		client.validationError = err
	}

	return client
}

// Account returns a copy of the account configuration.
func (c *Client) Account() Account {
	c.tokenMu.RLock()
	defer c.tokenMu.RUnlock()
	return c.account
}

// SetToken rotates the bearer token used by subsequent calls.
func (c *Client) SetToken(token string) *Client {
	c.tokenMu.Lock()
	c.account.Token = token
	c.tokenMu.Unlock()
	return c
}

// Get performs a GET on a resource path such as "projects.json".
func (c *Client) Get(ctx context.Context, resource string, opts ...RequestOption) (*Result, error) {
	return c.Request(ctx, http.MethodGet, resource, nil, opts...)
}

// Post performs a POST with params as the body.
func (c *Client) Post(ctx context.Context, resource string, params Params, opts ...RequestOption) (*Result, error) {
	return c.Request(ctx, http.MethodPost, resource, params, opts...)
}

// Put performs a PUT with params as the body.
func (c *Client) Put(ctx context.Context, resource string, params Params, opts ...RequestOption) (*Result, error) {
	return c.Request(ctx, http.MethodPut, resource, params, opts...)
}

// Delete performs a DELETE.
func (c *Client) Delete(ctx context.Context, resource string, opts ...RequestOption) (*Result, error) {
	return c.Request(ctx, http.MethodDelete, resource, nil, opts...)
}

// Request sends method to resource with params and returns the normalized
// result. HTTP error statuses are reported in the Result; the error is
// non-nil only for transport, decode, encode, auth and configuration
// failures.
func (c *Client) Request(ctx context.Context, method, resource string, params Params, opts ...RequestOption) (*Result, error) {
	if c.validationError != nil {
		return nil, c.validationError
	}

	cfg := requestConfig{timeout: c.timeout}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.timeout <= 0 {
		return nil, &ClientError{
			Type:      ErrorTypeValidation,
			Message:   fmt.Sprintf("timeout must be positive, got %v", cfg.timeout),
			Method:    method,
			Timestamp: time.Now(),
		}
	}

	fingerprint := c.fingerprint(method, resource, params)

	if c.dedup != nil && method == http.MethodGet {
		return c.dispatchShared(ctx, method, resource, params, fingerprint, cfg.timeout)
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	return c.dispatch(ctx, method, resource, params, fingerprint)
}

func (c *Client) dispatch(ctx context.Context, method, resource string, params Params, fingerprint string) (*Result, error) {
	start := time.Now()
	requestID := c.newRequestID()

	req, err := c.buildRequest(ctx, method, resource, params, fingerprint, requestID)
	if err != nil {
		if ce, ok := err.(*ClientError); ok {
			ce.RequestID = requestID
			ce.Timestamp = time.Now()
			c.metrics.RecordError(ce.Type, method, "unknown")
		}
		return nil, err
	}

	endpoint := getEndpointFromRequest(req)

	if c.debugOn(c.debug.LogRequests) {
		c.logger.Debug("Starting request", "requestID", requestID, "method", req.Method, "url", req.URL.String(), "endpoint", endpoint)
	}

	c.metrics.RecordRequestStart(method, endpoint)
	resp, err := c.executeMiddleware(req)
	if err != nil {
		c.metrics.RecordRequestEnd(method, endpoint)
		c.metrics.RecordRequest(method, endpoint, 0, time.Since(start))
		c.metrics.RecordError(ErrorTypeTransport, method, endpoint)
		if c.debugOn(c.debug.LogRequests) {
			c.logger.Warn("Request failed", "requestID", requestID, "endpoint", endpoint, "error", err.Error())
		}
		return nil, c.createClientError(ErrorTypeTransport, "request failed", err, requestID, req, 0, time.Since(start))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	c.metrics.RecordRequestEnd(method, endpoint)
	if err != nil {
		c.metrics.RecordRequest(method, endpoint, resp.StatusCode, time.Since(start))
		c.metrics.RecordError(ErrorTypeTransport, method, endpoint)
		return nil, c.createClientError(ErrorTypeTransport, "reading response body failed", err, requestID, req, resp.StatusCode, time.Since(start))
	}

	c.storeValidator(ctx, resp, fingerprint, requestID)

	duration := time.Since(start)
	c.metrics.RecordRequest(method, endpoint, resp.StatusCode, duration)
	if resp.StatusCode == http.StatusNotModified {
		c.metrics.RecordNotModified(method, endpoint)
	}

	if c.debugOn(c.debug.LogRequests) {
		c.logger.Debug("Request completed", "requestID", requestID, "statusCode", resp.StatusCode, "duration", duration)
	}

	result, err := normalize(resp.StatusCode, resp.Header, body)
	if err != nil {
		c.metrics.RecordError(ErrorTypeDecode, method, endpoint)
		return nil, c.createClientError(ErrorTypeDecode, "response body is not valid JSON", err, requestID, req, resp.StatusCode, duration)
	}

	return result, nil
}

func (c *Client) executeMiddleware(req *http.Request) (*http.Response, error) {
	if len(c.middleware) == 0 {
		return c.doer.Do(req)
	}

	current := RoundTripperFunc(c.doer.Do)

	for i := len(c.middleware) - 1; i >= 0; i-- {
		middleware := c.middleware[i]
		next := current
		current = RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			return middleware(r, next)
		})
	}

	return current.RoundTrip(req)
}

func (c *Client) createClientError(errorType, message string, cause error, requestID string, req *http.Request, statusCode int, duration time.Duration) *ClientError {
	return &ClientError{
		Type:       errorType,
		Message:    message,
		Cause:      cause,
		RequestID:  requestID,
		Method:     req.Method,
		URL:        req.URL.String(),
		Endpoint:   getEndpointFromRequest(req),
		StatusCode: statusCode,
		Timestamp:  time.Now(),
		Duration:   duration,
	}
}

// IsValid reports whether configuration validation passed at construction.
func (c *Client) IsValid() bool {
	return c.validationError == nil
}

// ValidationError returns the configuration validation error, if any.
func (c *Client) ValidationError() error {
	return c.validationError
}

// getEndpointFromRequest builds a low cardinality label: host plus path with
// numeric ids replaced by ":id".
func getEndpointFromRequest(req *http.Request) string {
	if req.URL == nil {
		return "unknown"
	}

	var builder strings.Builder
	builder.WriteString(req.URL.Host)

	path := strings.Trim(req.URL.Path, "/")
	if path == "" {
		builder.WriteByte('/')
		return builder.String()
	}

	for _, segment := range strings.Split(path, "/") {
		builder.WriteByte('/')
		builder.WriteString(templateSegment(segment))
	}

	return builder.String()
}

// templateSegment turns "123" into ":id" and "123.json" into ":id.json".
func templateSegment(segment string) string {
	i := 0
	for i < len(segment) && segment[i] >= '0' && segment[i] <= '9' {
		i++
	}
	if i == 0 {
		return segment
	}
	rest := segment[i:]
	if rest == "" || rest[0] == '.' {
		return ":id" + rest
	}
	return segment
}
