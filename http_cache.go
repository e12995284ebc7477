package basecamp

import (
	"context"
	"net/http"
	"strings"
)

const (
	headerETag        = "ETag"
	headerIfNoneMatch = "If-None-Match"
)

// validatorFromHeader returns the ETag of a response as an opaque
// entity-tag, quotes and any W/ prefix included, so it can be sent back in
// If-None-Match unchanged. It returns "" when the header is absent or blank.
func validatorFromHeader(h http.Header) string {
	return strings.TrimSpace(h.Get(headerETag))
}

// addConditionalHeaders attaches the stored validator of the request, if any.
func (c *Client) addConditionalHeaders(ctx context.Context, req *http.Request, fingerprint, requestID string) {
	validator, found, err := c.store.Get(ctx, fingerprint)
	if err != nil {
		c.storeFailure("get", fingerprint, requestID, err)
		return
	}
	if !found || validator == "" {
		return
	}

	req.Header.Set(headerIfNoneMatch, validator)
	c.metrics.RecordConditionalRequest(req.Method, getEndpointFromRequest(req))

	if c.debugOn(c.debug.LogValidators) {
		c.logger.Debug("Attached validator", "requestID", requestID, "fingerprint", fingerprint, "validator", validator)
	}
}

// storeValidator records the validator of a response. A response without
// one leaves the stored value untouched.
func (c *Client) storeValidator(ctx context.Context, resp *http.Response, fingerprint, requestID string) {
	validator := validatorFromHeader(resp.Header)
	if validator == "" {
		return
	}

	if err := c.store.Put(ctx, fingerprint, validator); err != nil {
		c.storeFailure("put", fingerprint, requestID, err)
		return
	}
	c.metrics.RecordValidatorUpdate()

	if c.debugOn(c.debug.LogValidators) {
		c.logger.Debug("Stored validator", "requestID", requestID, "fingerprint", fingerprint, "validator", validator, "statusCode", resp.StatusCode)
	}
}

func (c *Client) storeFailure(op, fingerprint, requestID string, err error) {
	c.metrics.RecordStoreError(op)
	if c.logger != nil {
		c.logger.Warn("Validator store failure", "requestID", requestID, "op", op, "fingerprint", fingerprint, "error", err.Error())
	}
}
