package recruitee

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// RequestInfo describes the request that produced an error.
type RequestInfo struct {
	Method    string
	URL       string
	RequestID string
}

// APIError is returned for every response outside the 2xx range.
type APIError struct {
	StatusCode int
	Messages   []string
	Body       any
	Header     http.Header
	Request    *RequestInfo
}

// NewAPIError builds an APIError from a failed response. The messages come
// from the "error" field of an object body, or from the whole body when that
// field is absent; a single value becomes a one-element list.
func NewAPIError(statusCode int, body any, req *RequestInfo) *APIError {
	content := body
	if obj, ok := body.(map[string]any); ok {
		if e, ok := obj["error"]; ok {
			content = e
		}
	}

	return &APIError{
		StatusCode: statusCode,
		Messages:   errorMessages(statusCode, content),
		Body:       body,
		Request:    req,
	}
}

func errorMessages(statusCode int, content any) []string {
	switch c := content.(type) {
	case nil:
		return []string{http.StatusText(statusCode)}
	case string:
		if c == "" {
			return []string{http.StatusText(statusCode)}
		}
		return []string{c}
	case []any:
		messages := make([]string, 0, len(c))
		for _, m := range c {
			messages = append(messages, messageText(m))
		}
		return messages
	case []string:
		return append([]string(nil), c...)
	default:
		return []string{messageText(c)}
	}
}

func messageText(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

func (e *APIError) Error() string {
	return fmt.Sprintf("[HTTP %d] %s", e.StatusCode, strings.Join(e.Messages, ", "))
}

// TransportError is returned when no complete response was received, for
// example on DNS failures, refused connections or timeouts. A body that
// breaks off after the status line also counts; the status is not kept.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return "transport error"
	}
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the failure was caused by a timeout.
func (e *TransportError) Timeout() bool {
	var t interface{ Timeout() bool }
	return errors.As(e.Err, &t) && t.Timeout()
}

// AsAPIError returns the APIError wrapped in err, if any.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsTransportError reports whether err is a failure without a response.
func IsTransportError(err error) bool {
	var t *TransportError
	return errors.As(err, &t)
}

// IsNotFound reports whether err is an API error with status 404.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// StatusCode returns the HTTP status carried by err, or 0 when err is not an
// API error.
func StatusCode(err error) int {
	if apiErr, ok := AsAPIError(err); ok {
		return apiErr.StatusCode
	}
	return 0
}
