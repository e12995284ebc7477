package basecamp

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Result is the normalized outcome of a call. Body holds either the decoded
// JSON payload (map[string]any or []any) or a status descriptor of the form
// {"message": "..."}. Callers branch on Message / IsStatus.
type Result struct {
	StatusCode int
	Header     http.Header
	Body       any
}

// Message returns the "message" field of an object body.
func (r *Result) Message() (string, bool) {
	obj := r.Object()
	if obj == nil {
		return "", false
	}
	msg, ok := obj["message"].(string)
	return msg, ok
}

// IsStatus reports whether the body is a status descriptor rather than an
// API payload.
func (r *Result) IsStatus() bool {
	if r == nil {
		return false
	}
	_, ok := statusDescriptors[r.StatusCode]
	return ok
}

// Object returns the body as a JSON object, or nil.
func (r *Result) Object() map[string]any {
	if r == nil {
		return nil
	}
	obj, _ := r.Body.(map[string]any)
	return obj
}

// List returns the body as a JSON array, or nil.
func (r *Result) List() []any {
	if r == nil {
		return nil
	}
	list, _ := r.Body.([]any)
	return list
}

// Decode copies the body into out, matching fields by their json tags.
// RFC 3339 strings decode into time.Time.
func (r *Result) Decode(out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           out,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc(time.RFC3339),
			mapstructure.StringToTimeDurationHookFunc(),
		),
	})
	if err != nil {
		return err
	}
	return decoder.Decode(r.Body)
}

// MarshalJSON encodes the body only.
func (r *Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Body)
}

// Clone returns a deep copy, so callers sharing a deduplicated result cannot
// observe each other's mutations.
func (r *Result) Clone() *Result {
	if r == nil {
		return nil
	}
	return &Result{
		StatusCode: r.StatusCode,
		Header:     r.Header.Clone(),
		Body:       cloneValue(r.Body),
	}
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = cloneValue(val)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, val := range t {
			s[i] = cloneValue(val)
		}
		return s
	default:
		return v
	}
}
