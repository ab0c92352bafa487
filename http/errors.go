package http

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType identifies how a logical call ended when it did not succeed.
type ErrorType string

const (
	// RateLimited means retries were exhausted while the server kept answering 429.
	RateLimited ErrorType = "rate_limited"
	// ConnectionFailure means retries were exhausted on network or timeout errors.
	ConnectionFailure ErrorType = "connection_failure"
	// ClientError is a 4xx other than 429. It is never retried.
	ClientError ErrorType = "client_error"
	// ServerError means retries were exhausted on 5xx responses.
	ServerError ErrorType = "server_error"
	// ProtocolError is a malformed or unexpected response.
	ProtocolError ErrorType = "protocol_error"
	// Unexpected covers everything else, including a cancelled context.
	Unexpected ErrorType = "unexpected"
)

// Error is the single failure outcome of a logical call.
type Error struct {
	Type       ErrorType
	Method     string
	URL        string
	StatusCode int            // zero when no response was received
	Body       map[string]any // decoded error body, nil when not JSON
	Attempts   int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Type))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status: %d)", e.StatusCode)
	}
	if e.Method != "" {
		fmt.Fprintf(&b, " for %s %s", e.Method, e.URL)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// APIMessage returns the "err" field ClickUp puts in error bodies, if any.
func (e *Error) APIMessage() string {
	if e.Body == nil {
		return ""
	}
	if msg, ok := e.Body["err"].(string); ok {
		return msg
	}
	return ""
}

// IsErrorType checks if an error is an *Error of a specific type
func IsErrorType(err error, errorType ErrorType) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == errorType
	}
	return false
}

// TypeOf returns the ErrorType of err, or Unexpected for foreign errors.
func TypeOf(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return Unexpected
}

// StatusCode returns the HTTP status carried by err, if any.
func StatusCode(err error) (int, bool) {
	var e *Error
	if errors.As(err, &e) && e.StatusCode != 0 {
		return e.StatusCode, true
	}
	return 0, false
}

// IsHTTPStatusError checks if an error carries a specific status code
func IsHTTPStatusError(err error, statusCode int) bool {
	code, ok := StatusCode(err)
	return ok && code == statusCode
}

// IsSuccessStatus checks if a status code represents success (2xx)
func IsSuccessStatus(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}

func isServerStatus(statusCode int) bool {
	return statusCode >= 500 && statusCode < 600
}

func isClientStatus(statusCode int) bool {
	return statusCode >= 400 && statusCode < 500
}
