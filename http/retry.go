package http

import (
	"context"
	"errors"
	"io"
	"math"
	"math/rand/v2"
	"net"
	nethttp "net/http"
	"strconv"
	"strings"
	"syscall"
	"time"
)

const (
	// maxBackoffShift bounds the exponent of the backoff
	maxBackoffShift = 20

	// maxDelay is the saturation value of computed waits
	maxDelay = time.Duration(math.MaxInt64)
)

// backoffDelay returns base * 2^(attempt-1) plus jitter seconds, where attempt
// is the number of failed attempts so far (>= 1) and jitter is in [0, 1).
// The result saturates at maxDelay instead of wrapping.
func backoffDelay(base time.Duration, attempt int, jitter float64) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	shift := attempt - 1
	if shift > maxBackoffShift {
		shift = maxBackoffShift
	}
	if jitter < 0 || jitter >= 1 {
		jitter = 0
	}
	d := maxDelay
	if base <= maxDelay>>shift {
		d = base << shift
	}
	j := time.Duration(jitter * float64(time.Second))
	if d > maxDelay-j {
		return maxDelay
	}
	return d + j
}

// parseRetryAfter reads a Retry-After value as integer seconds or an HTTP date.
// Missing or unparsable values yield fallback. Huge values saturate at maxDelay.
func parseRetryAfter(value string, now time.Time, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(value)
	if v == "" {
		return fallback
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return fallback
		}
		if int64(secs) > int64(maxDelay/time.Second) {
			return maxDelay
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := nethttp.ParseTime(v); err == nil {
		d := t.Sub(now)
		if d < 0 {
			d = 0
		}
		return d
	}
	return fallback
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func defaultJitter() float64 {
	return rand.Float64()
}

// isConnectionError reports whether err means no usable response arrived
// because of the network: refused or reset connections, DNS failures, timeouts.
func isConnectionError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}
