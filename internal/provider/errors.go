package provider

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
)

// StatusError is a non-200 answer from the AI service.
type StatusError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned %d: %s", e.Provider, e.StatusCode, e.Message)
}

// Temporary reports whether retrying the same request could succeed.
func (e *StatusError) Temporary() bool {
	switch e.StatusCode {
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// TransportError is a failure to exchange a request with the AI service at all.
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s API error: %s", e.Provider, friendlyProviderError(e.Err))
}

func (e *TransportError) Unwrap() error { return e.Err }

// parseProviderError extracts a human-readable error from an API error body.
func parseProviderError(providerName string, statusCode int, body []byte) string {
	var errResp struct {
		Error struct {
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &errResp) == nil {
		msg := errResp.Error.Message
		if msg == "" {
			msg = errResp.Message
		}
		if msg != "" {
			return msg
		}
	}

	switch statusCode {
	case http.StatusBadRequest:
		return "malformed request (unsupported image or prompt too large)"
	case http.StatusUnauthorized:
		return "authentication failed, check your API key"
	case http.StatusForbidden:
		return "access denied, the API key may lack permission for this model"
	case http.StatusNotFound:
		return "model or endpoint not found"
	case http.StatusTooManyRequests:
		return "quota exhausted or rate limited, please wait"
	case http.StatusInternalServerError:
		return "internal server error on the " + providerName + " side"
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		return "service temporarily unavailable"
	}

	s := string(body)
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return fmt.Sprintf("HTTP %d: %s", statusCode, s)
}

// friendlyProviderError converts common network errors to short messages.
func friendlyProviderError(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "connection refused"
	case strings.Contains(msg, "no such host"):
		return "host not found (check base_url)"
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return "request timed out"
	case strings.Contains(msg, "reset by peer"):
		return "connection reset by server"
	case strings.Contains(msg, "EOF"):
		return "connection closed unexpectedly"
	}
	return msg
}
