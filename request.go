package basecamp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// buildRequest assembles the outgoing request: URL, fixed headers, body,
// conditional validator and credentials.
func (c *Client) buildRequest(ctx context.Context, method, resource string, params Params, fingerprint, requestID string) (*http.Request, error) {
	if !isSupportedMethod(method) {
		return nil, &ClientError{
			Type:    ErrorTypeValidation,
			Message: fmt.Sprintf("unsupported method %q", method),
			Method:  method,
		}
	}

	body, err := encodeBody(params)
	if err != nil {
		return nil, &ClientError{
			Type:    ErrorTypeEncode,
			Message: "cannot encode request params",
			Cause:   err,
			Method:  method,
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(resource), body)
	if err != nil {
		return nil, &ClientError{
			Type:    ErrorTypeValidation,
			Message: "cannot build request",
			Cause:   err,
			Method:  method,
		}
	}

	req.Header.Set("User-Agent", c.account.AppName)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.addConditionalHeaders(ctx, req, fingerprint, requestID)

	if err := c.authorize(req, requestID); err != nil {
		return nil, err
	}

	return req, nil
}

// resolve joins the base URL and a relative resource path.
func (c *Client) resolve(resource string) string {
	return strings.TrimRight(c.baseURL, "/") + "/" + strings.TrimLeft(resource, "/")
}

// authorize applies credentials in fixed priority: basic auth when both
// login and password are set, else a bearer token, else nothing.
func (c *Client) authorize(req *http.Request, requestID string) error {
	c.tokenMu.RLock()
	login, password, token := c.account.Login, c.account.Password, c.account.Token
	c.tokenMu.RUnlock()

	if login != "" && password != "" {
		req.SetBasicAuth(login, password)
		c.logAuth(requestID, "basic")
		return nil
	}

	if token == "" && c.tokenSource != nil {
		tok, err := c.tokenSource.Token()
		if err != nil {
			return &ClientError{
				Type:      ErrorTypeAuth,
				Message:   "token source failed",
				Cause:     err,
				RequestID: requestID,
				Method:    req.Method,
				URL:       req.URL.String(),
			}
		}
		token = tok.AccessToken
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
		c.logAuth(requestID, "bearer")
		return nil
	}

	c.logAuth(requestID, "none")
	return nil
}

func (c *Client) logAuth(requestID, mode string) {
	if c.debugOn(c.debug.LogAuth) {
		c.logger.Debug("Selected auth mode", "requestID", requestID, "mode", mode)
	}
}

// encodeBody returns nil for empty params, the raw payload when the binary
// key is present, and JSON otherwise.
func encodeBody(params Params) (io.Reader, error) {
	if len(params) == 0 {
		return nil, nil
	}

	if raw, ok := params[BinaryParam]; ok {
		switch v := raw.(type) {
		case []byte:
			return bytes.NewReader(v), nil
		case string:
			return strings.NewReader(v), nil
		default:
			return nil, fmt.Errorf("%s param must be []byte or string, got %T", BinaryParam, raw)
		}
	}

	b, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(b), nil
}

func isSupportedMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}
