package basecamp

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// dispatchShared merges concurrent identical GETs: the first caller for a
// fingerprint starts the exchange, later callers arriving while it is in
// flight wait for its outcome. Every caller receives its own copy.
//
// Each caller waits at most its own timeout. The exchange itself is detached
// from the callers' cancellation and bounded by the longer of the starting
// call's timeout and the client default, so one impatient caller cannot fail
// the others.
func (c *Client) dispatchShared(ctx context.Context, method, resource string, params Params, fingerprint string, timeout time.Duration) (*Result, error) {
	callTimeout := timeout
	if c.timeout > callTimeout {
		callTimeout = c.timeout
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	v, err, owner := c.dedup.Do(waitCtx, fingerprint, func() (interface{}, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), callTimeout)
		defer cancel()
		return c.dispatch(callCtx, method, resource, params, fingerprint)
	})

	if !owner {
		c.metrics.RecordDeduplicationHit(method, c.endpointFor(resource))
		if c.debugOn(c.debug.LogRequests) {
			c.logger.Debug("Deduplication hit", "fingerprint", fingerprint)
		}
	}

	if err != nil {
		if _, ok := err.(*ClientError); ok {
			return nil, err
		}
		// Only a wait cut short by waitCtx lands here.
		endpoint := c.endpointFor(resource)
		c.metrics.RecordError(ErrorTypeTransport, method, endpoint)
		return nil, &ClientError{
			Type:      ErrorTypeTransport,
			Message:   "gave up waiting for shared request",
			Cause:     err,
			Method:    method,
			URL:       c.resolve(resource),
			Endpoint:  endpoint,
			Timestamp: time.Now(),
			Duration:  time.Since(start),
		}
	}
	return v.(*Result).Clone(), nil
}

func (c *Client) endpointFor(resource string) string {
	u, err := url.Parse(c.resolve(resource))
	if err != nil {
		return "unknown"
	}
	return getEndpointFromRequest(&http.Request{URL: u})
}
