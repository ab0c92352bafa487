package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/xtraqtiv/clickup-sync/logger"
	reqtrace "github.com/xtraqtiv/clickup-sync/trace"
)

const (
	// DefaultTimeout bounds a single attempt so a hung peer cannot stall a retry forever
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries is the default maximum number of retries for transient failures
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the base of the exponential backoff
	DefaultRetryDelay = 1 * time.Second

	// DefaultRetryAfter is used for 429 responses without a usable Retry-After header
	DefaultRetryAfter = 60 * time.Second
)

// client implements the Client interface
type client struct {
	httpClient *nethttp.Client
	logger     logger.Logger
	config     *Config
	limiter    *rate.Limiter
	sleep      Sleeper
	jitter     func() float64
	now        func() time.Time
	telemetry  *instruments
}

// NewClient creates a REST client with default configuration
func NewClient(log logger.Logger) Client {
	return NewBuilder(log).Build()
}

// Builder provides a fluent interface for configuring the REST client
type Builder struct {
	config         *Config
	logger         logger.Logger
	httpClient     *nethttp.Client
	transport      nethttp.RoundTripper
	sleep          Sleeper
	jitter         func() float64
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

// NewBuilder creates a new client builder
func NewBuilder(log logger.Logger) *Builder {
	if log == nil {
		log = logger.Nop()
	}
	return &Builder{
		config: &Config{
			Timeout:           DefaultTimeout,
			MaxRetries:        DefaultMaxRetries,
			RetryDelay:        DefaultRetryDelay,
			DefaultRetryAfter: DefaultRetryAfter,
			DefaultHeaders:    make(map[string]string),
		},
		logger: log,
	}
}

// WithBaseURL sets the URL every request path is appended to
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.config.BaseURL = strings.TrimRight(baseURL, "/")
	return b
}

// WithToken sets the Authorization header value
func (b *Builder) WithToken(token string) *Builder {
	b.config.Token = token
	return b
}

// WithTimeout sets the per-attempt timeout
func (b *Builder) WithTimeout(timeout time.Duration) *Builder {
	b.config.Timeout = timeout
	return b
}

// WithRetries sets the retry budget and the base backoff delay
func (b *Builder) WithRetries(maxRetries int, retryDelay time.Duration) *Builder {
	b.config.MaxRetries = maxRetries
	b.config.RetryDelay = retryDelay
	return b
}

// WithDefaultRetryAfter sets the 429 wait used when Retry-After is absent
func (b *Builder) WithDefaultRetryAfter(d time.Duration) *Builder {
	b.config.DefaultRetryAfter = d
	return b
}

// WithRateLimit throttles outgoing attempts to perMinute with the given burst.
func (b *Builder) WithRateLimit(perMinute, burst int) *Builder {
	b.config.RateLimit = perMinute
	b.config.RateBurst = burst
	return b
}

// WithDefaultHeader adds a header sent with all requests
func (b *Builder) WithDefaultHeader(key, value string) *Builder {
	b.config.DefaultHeaders[key] = value
	return b
}

// WithRequestInterceptor adds a request interceptor
func (b *Builder) WithRequestInterceptor(interceptor RequestInterceptor) *Builder {
	b.config.RequestInterceptors = append(b.config.RequestInterceptors, interceptor)
	return b
}

// WithHTTPClient uses a caller-supplied client. A zero Timeout is replaced by the builder timeout.
func (b *Builder) WithHTTPClient(c *nethttp.Client) *Builder {
	b.httpClient = c
	return b
}

// WithTransport sets the RoundTripper of the default client
func (b *Builder) WithTransport(rt nethttp.RoundTripper) *Builder {
	b.transport = rt
	return b
}

// WithSleeper replaces the context-aware timer used between attempts
func (b *Builder) WithSleeper(s Sleeper) *Builder {
	if s != nil {
		b.sleep = s
	}
	return b
}

// WithJitter replaces the [0,1) jitter source
func (b *Builder) WithJitter(j func() float64) *Builder {
	if j != nil {
		b.jitter = j
	}
	return b
}

// WithTracerProvider sets the provider spans are created from
func (b *Builder) WithTracerProvider(tp trace.TracerProvider) *Builder {
	b.tracerProvider = tp
	return b
}

// WithMeterProvider sets the provider instruments are created from
func (b *Builder) WithMeterProvider(mp metric.MeterProvider) *Builder {
	b.meterProvider = mp
	return b
}

// Build creates the REST client with the configured options
func (b *Builder) Build() Client {
	hc := b.httpClient
	if hc == nil {
		hc = cleanhttp.DefaultPooledClient()
		hc.Timeout = b.config.Timeout
		if b.transport != nil {
			hc.Transport = b.transport
		}
	} else if hc.Timeout == 0 {
		hc.Timeout = b.config.Timeout
	}

	c := &client{
		httpClient: hc,
		logger:     b.logger,
		config:     b.config,
		sleep:      b.sleep,
		jitter:     b.jitter,
		now:        time.Now,
		telemetry:  newInstruments(b.tracerProvider, b.meterProvider),
	}
	if c.sleep == nil {
		c.sleep = sleepContext
	}
	if c.jitter == nil {
		c.jitter = defaultJitter
	}
	if b.config.RateLimit > 0 {
		burst := b.config.RateBurst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(b.config.RateLimit)), burst)
	}
	return c
}

// Get performs a GET request
func (c *client) Get(ctx context.Context, req *Request) (map[string]any, error) {
	return c.doMethod(ctx, nethttp.MethodGet, req)
}

// Post performs a POST request
func (c *client) Post(ctx context.Context, req *Request) (map[string]any, error) {
	return c.doMethod(ctx, nethttp.MethodPost, req)
}

// Put performs a PUT request
func (c *client) Put(ctx context.Context, req *Request) (map[string]any, error) {
	return c.doMethod(ctx, nethttp.MethodPut, req)
}

// Delete performs a DELETE request
func (c *client) Delete(ctx context.Context, req *Request) (map[string]any, error) {
	return c.doMethod(ctx, nethttp.MethodDelete, req)
}

func (c *client) doMethod(ctx context.Context, method string, req *Request) (map[string]any, error) {
	if req == nil {
		return c.Do(ctx, nil)
	}
	r := *req
	r.Method = method
	return c.Do(ctx, &r)
}

// Do performs one logical request, retrying 429, 5xx and connection failures.
func (c *client) Do(ctx context.Context, req *Request) (map[string]any, error) {
	if err := c.validateRequest(req); err != nil {
		return nil, err
	}

	ctx = reqtrace.WithRequestID(ctx, reqtrace.EnsureRequestID(ctx))
	attrs := []attribute.KeyValue{
		attribute.String("http.request.method", req.Method),
		attribute.String("url.path", req.Path),
	}
	if req.Route != "" {
		attrs = append(attrs, attribute.String("url.template", req.Route))
	}
	ctx, span := c.telemetry.tracer.Start(ctx, spanName(req),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...))
	defer span.End()

	start := time.Now()
	result, err := c.execute(ctx, req)
	c.telemetry.recordCall(ctx, req.Method, time.Since(start), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(TypeOf(err)))
		if code, ok := StatusCode(err); ok {
			span.SetAttributes(attribute.Int("http.response.status_code", code))
		}
		return nil, err
	}
	span.SetStatus(codes.Ok, "")
	return result, nil
}

// spanName keeps concrete ids out of span names. Without a Route only the
// method is used.
func spanName(req *Request) string {
	if req.Route == "" {
		return "clickup " + req.Method
	}
	return "clickup " + req.Method + " " + req.Route
}

func (c *client) execute(ctx context.Context, req *Request) (map[string]any, error) {
	url := c.buildURL(req)
	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, &Error{Type: Unexpected, Method: req.Method, URL: url, Message: "failed to encode request body", Err: err}
	}

	maxRetries := c.config.MaxRetries
	var rateLimited *Error

	for attempt := 0; attempt <= maxRetries; {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, &Error{Type: Unexpected, Method: req.Method, URL: url, Attempts: attempt, Message: "rate limiter wait aborted", Err: err}
			}
		}

		httpReq, err := c.buildRequest(ctx, req, url, body)
		if err != nil {
			return nil, &Error{Type: Unexpected, Method: req.Method, URL: url, Attempts: attempt, Message: "failed to build request", Err: err}
		}

		c.logRequest(ctx, req, url, attempt)
		c.telemetry.recordAttempt(ctx, req.Method)

		status, header, respBody, err := c.send(httpReq)
		if err != nil {
			if ctx.Err() != nil || !isConnectionError(err) {
				c.logger.Error().Err(err).Str("url", url).Msg("Unexpected error")
				return nil, &Error{Type: Unexpected, Method: req.Method, URL: url, Attempts: attempt + 1, Message: "unexpected error", Err: err}
			}
			attempt++
			if attempt > maxRetries {
				c.logger.Error().Err(err).Str("url", url).Int("attempts", attempt).Msg("Max retries exceeded")
				return nil, &Error{
					Type: ConnectionFailure, Method: req.Method, URL: url, Attempts: attempt,
					Message: fmt.Sprintf("connection error after %d retries", maxRetries), Err: err,
				}
			}
			if err := c.backoff(ctx, attempt, ConnectionFailure); err != nil {
				return nil, &Error{Type: Unexpected, Method: req.Method, URL: url, Attempts: attempt, Message: "backoff aborted", Err: err}
			}
			continue
		}

		switch {
		case status == nethttp.StatusTooManyRequests:
			attempt++
			rateLimited = &Error{
				Type: RateLimited, Method: req.Method, URL: url, StatusCode: status,
				Body: decodeErrorBody(respBody), Attempts: attempt,
				Message: fmt.Sprintf("rate limited after %d retries", maxRetries),
			}
			if attempt > maxRetries {
				continue
			}
			wait := parseRetryAfter(header.Get("Retry-After"), c.now(), c.config.DefaultRetryAfter)
			c.logger.Warn().Str("url", url).Dur("retry_after", wait).Int("attempt", attempt).
				Msgf("Rate limited. Waiting for %s before retrying", wait)
			c.telemetry.recordRetry(ctx, RateLimited)
			if err := c.sleep(ctx, wait); err != nil {
				return nil, &Error{Type: Unexpected, Method: req.Method, URL: url, Attempts: attempt, Message: "rate limit wait aborted", Err: err}
			}
			continue

		case IsSuccessStatus(status):
			result, err := decodeResult(respBody)
			if err != nil {
				return nil, &Error{
					Type: ProtocolError, Method: req.Method, URL: url, StatusCode: status,
					Attempts: attempt + 1, Message: "response body is not a JSON object", Err: err,
				}
			}
			c.logResponse(url, status, attempt+1)
			return result, nil

		case isServerStatus(status):
			errBody := decodeErrorBody(respBody)
			attempt++
			e := &Error{
				Type: ServerError, Method: req.Method, URL: url, StatusCode: status,
				Body: errBody, Attempts: attempt, Message: "server error",
			}
			c.logger.Error().Str("url", url).Int("status", status).Str("api_error", e.APIMessage()).Msg("HTTP error")
			if attempt > maxRetries {
				return nil, e
			}
			if err := c.backoff(ctx, attempt, ServerError); err != nil {
				return nil, &Error{Type: Unexpected, Method: req.Method, URL: url, Attempts: attempt, Message: "backoff aborted", Err: err}
			}
			continue

		case isClientStatus(status):
			e := &Error{
				Type: ClientError, Method: req.Method, URL: url, StatusCode: status,
				Body: decodeErrorBody(respBody), Attempts: attempt + 1, Message: "client error",
			}
			c.logger.Error().Str("url", url).Int("status", status).Str("api_error", e.APIMessage()).Msg("HTTP error")
			return nil, e

		default:
			return nil, &Error{
				Type: ProtocolError, Method: req.Method, URL: url, StatusCode: status,
				Attempts: attempt + 1, Message: "unexpected status",
			}
		}
	}

	if rateLimited != nil {
		c.logger.Error().Str("url", url).Int("attempts", rateLimited.Attempts).Msg("Max retries exceeded while rate limited")
		return nil, rateLimited
	}
	return nil, &Error{
		Type: Unexpected, Method: req.Method, URL: url,
		Message: fmt.Sprintf("request failed after %d retries", maxRetries),
	}
}

// backoff sleeps RetryDelay * 2^(attempt-1) + jitter before the next attempt.
func (c *client) backoff(ctx context.Context, attempt int, reason ErrorType) error {
	delay := backoffDelay(c.config.RetryDelay, attempt, c.jitter())
	c.logger.Warn().
		Str("reason", string(reason)).
		Float64("sleep_seconds", delay.Seconds()).
		Int("attempt", attempt).
		Int("max_retries", c.config.MaxRetries).
		Msgf("Retrying in %.2f seconds", delay.Seconds())
	c.telemetry.recordRetry(ctx, reason)
	return c.sleep(ctx, delay)
}

// send executes one attempt and reads the whole body.
func (c *client) send(httpReq *nethttp.Request) (int, nethttp.Header, []byte, error) {
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, nil, nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return 0, nil, nil, err
	}
	return httpResp.StatusCode, httpResp.Header, respBody, nil
}

// validateRequest validates the request before sending
func (c *client) validateRequest(req *Request) error {
	if req == nil {
		return &Error{Type: Unexpected, Message: "request cannot be nil"}
	}
	if req.Method == "" {
		return &Error{Type: Unexpected, Message: "method cannot be empty"}
	}
	if c.config.BaseURL == "" && req.Path == "" {
		return &Error{Type: Unexpected, Method: req.Method, Message: "URL cannot be empty"}
	}
	return nil
}

func (c *client) buildURL(req *Request) string {
	u := c.config.BaseURL + req.Path
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}
	return u
}

// buildRequest constructs an *http.Request, applies headers, and runs request interceptors.
func (c *client) buildRequest(ctx context.Context, req *Request, url string, body []byte) (*nethttp.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	httpReq, err := nethttp.NewRequestWithContext(ctx, req.Method, url, reader)
	if err != nil {
		return nil, err
	}

	for key, value := range c.config.DefaultHeaders {
		httpReq.Header.Set(key, value)
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}
	if c.config.Token != "" {
		httpReq.Header.Set("Authorization", c.config.Token)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}
	if id, ok := reqtrace.RequestIDFromContext(ctx); ok {
		httpReq.Header.Set(reqtrace.HeaderXRequestID, id)
	}

	for _, interceptor := range c.config.RequestInterceptors {
		if err := interceptor(ctx, httpReq); err != nil {
			return nil, fmt.Errorf("request interceptor failed: %w", err)
		}
	}
	return httpReq, nil
}

func encodeBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	return json.Marshal(body)
}

// decodeResult decodes a 2xx body. Empty bodies decode to an empty object.
func decodeResult(body []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return map[string]any{}, nil
	}
	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, err
	}
	if result == nil {
		return nil, fmt.Errorf("expected JSON object, got null")
	}
	return result, nil
}

// decodeErrorBody is best effort: non-JSON error bodies are dropped.
func decodeErrorBody(body []byte) map[string]any {
	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil
	}
	return decoded
}

func (c *client) logRequest(ctx context.Context, req *Request, url string, attempt int) {
	event := c.logger.Debug().
		Str("direction", "outbound").
		Str("method", req.Method).
		Str("url", url).
		Int("attempt", attempt)
	if id, ok := reqtrace.RequestIDFromContext(ctx); ok {
		event = event.Str("request_id", id)
	}
	if runID, ok := reqtrace.RunIDFromContext(ctx); ok {
		event = event.Str("run_id", runID)
	}
	event.Msg("REST client request")
}

func (c *client) logResponse(url string, status, attempts int) {
	c.logger.Debug().
		Str("direction", "inbound").
		Str("url", url).
		Int("status", status).
		Int("attempts", attempts).
		Msg("REST client response")
}
