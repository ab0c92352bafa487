// Package http provides the resilient request client used for every ClickUp call.
//
// One call to Client.Do is one logical request. It ends in exactly one outcome:
// the decoded JSON object of a 2xx response, or an *Error whose Type names the
// failure.
//
// Retries
//   - 429: waits the Retry-After seconds (DefaultRetryAfter when absent), then
//     retries. The wait counts against MaxRetries.
//   - 5xx and connection/timeout errors: waits RetryDelay * 2^(n-1) plus a
//     uniform jitter in [0, 1s), where n is the number of failures so far.
//   - Other 4xx responses, undecodable 2xx bodies and any other error are
//     returned at once.
//
// MaxRetries = 0 makes exactly one attempt. Sleeps honor context cancellation.
// Retry state lives inside one call; concurrent calls never share a budget.
package http
