package basecamp

import (
	"bytes"
	"encoding/json"
	"net/http"
)

const createdMessage = "Created"

// statusDescriptor is the fixed body returned for a status code. When
// header is set, its value in the response is appended to text.
type statusDescriptor struct {
	text   string
	header string
}

var statusDescriptors = map[int]statusDescriptor{
	http.StatusNoContent:            {text: "Resource succesfully deleted"},
	http.StatusNotModified:          {text: "304 Not Modified"},
	http.StatusBadRequest:           {text: "400 Bad Request"},
	http.StatusForbidden:            {text: "403 Forbidden"},
	http.StatusNotFound:             {text: "404 Not Found"},
	http.StatusUnsupportedMediaType: {text: "415 Unsupported Media Type"},
	http.StatusTooManyRequests:      {text: "429 Too Many Requests. ", header: "Retry-After"},
	http.StatusInternalServerError:  {text: "500 Hmm, that is not right"},
	http.StatusBadGateway:           {text: "502 Bad Gateway"},
	http.StatusServiceUnavailable:   {text: "503 Service Unavailable"},
	http.StatusGatewayTimeout:       {text: "504 Gateway Timeout"},
}

// StatusMessage returns the fixed message for a status code, reading any
// header the message embeds from h. ok is false for codes that decode the
// body instead.
func StatusMessage(statusCode int, h http.Header) (string, bool) {
	d, ok := statusDescriptors[statusCode]
	if !ok {
		return "", false
	}
	if d.header != "" {
		return d.text + h.Get(d.header), true
	}
	return d.text, true
}

// normalize maps a raw response onto a Result. Only a malformed JSON body on
// a decoding path returns an error.
func normalize(statusCode int, header http.Header, body []byte) (*Result, error) {
	res := &Result{
		StatusCode: statusCode,
		Header:     header.Clone(),
	}

	if msg, ok := StatusMessage(statusCode, header); ok {
		res.Body = map[string]any{"message": msg}
		return res, nil
	}

	payload, err := decodeBody(body)
	if err != nil {
		return nil, err
	}

	if statusCode == http.StatusCreated {
		switch v := payload.(type) {
		case map[string]any:
			v["message"] = createdMessage
		case nil:
			payload = map[string]any{"message": createdMessage}
		}
	}

	res.Body = payload
	return res, nil
}

// decodeBody decodes a JSON document. An empty body decodes to nil.
func decodeBody(body []byte) (any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}
