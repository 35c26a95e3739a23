package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	// Body is the raw response body.
	Body []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("request failed with status code %d", e.StatusCode)
}

// ErrorMessage reduces any failure to one human-readable string: a structured
// "message" field, then a structured "error" field, then a plain-text body,
// then the error's own text, then fallback.
func ErrorMessage(err error, fallback string) string {
	if err == nil {
		return fallback
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if msg, ok := bodyMessage(apiErr.Body); ok {
			return msg
		}
	}

	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}

// bodyMessage extracts the message from a response body. Any JSON value other
// than a string is treated as structured: only string "message" and "error"
// fields count, and anything else yields no message.
func bodyMessage(body []byte) (string, bool) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return "", false
	}

	var parsed interface{}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return trimmed, true
	}

	switch v := parsed.(type) {
	case string:
		return v, true
	case map[string]interface{}:
		if msg, ok := v["message"].(string); ok && strings.TrimSpace(msg) != "" {
			return msg, true
		}
		if msg, ok := v["error"].(string); ok {
			return msg, true
		}
	}
	return "", false
}
