package http

import (
	"context"
	nethttp "net/http"
	"net/url"
	"time"
)

// Client performs one logical request per call and returns either the decoded
// JSON object or an *Error.
type Client interface {
	Get(ctx context.Context, req *Request) (map[string]any, error)
	Post(ctx context.Context, req *Request) (map[string]any, error)
	Put(ctx context.Context, req *Request) (map[string]any, error)
	Delete(ctx context.Context, req *Request) (map[string]any, error)
	Do(ctx context.Context, req *Request) (map[string]any, error)
}

// Request describes one logical call. It is not modified by the client.
type Request struct {
	Method  string
	Path    string     // appended to the base URL
	Route   string     // path template such as /task/{task_id}, names the span
	Body    any        // JSON-encoded when non-nil
	Query   url.Values // optional query parameters
	Headers map[string]string
}

// RequestInterceptor is called on every attempt before sending
type RequestInterceptor func(ctx context.Context, req *nethttp.Request) error

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Config holds the REST client configuration
type Config struct {
	BaseURL             string
	Token               string // sent verbatim as the Authorization header
	Timeout             time.Duration
	MaxRetries          int
	RetryDelay          time.Duration
	DefaultRetryAfter   time.Duration
	RateLimit           int // requests per minute, 0 disables
	RateBurst           int
	DefaultHeaders      map[string]string
	RequestInterceptors []RequestInterceptor
}
