package llm

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"docchat-backend/internal/shared/telemetry"
)

const retryBaseDelay = 300 * time.Millisecond

// StatusCoder is implemented by provider errors that carry an HTTP status.
type StatusCoder interface {
	StatusCode() int
}

type retryingClient struct {
	base  Client
	delay time.Duration
}

// WithRetry wraps base so a transient failure is retried once.
func WithRetry(base Client) Client {
	if base == nil {
		return nil
	}
	return retryingClient{base: base, delay: retryBaseDelay}
}

func (r retryingClient) Chat(ctx context.Context, messages []Message) (string, error) {
	resp, err := r.base.Chat(ctx, messages)
	if err == nil || !ShouldRetry(err) {
		return resp, err
	}

	telemetry.Info("llm.retry", map[string]any{
		"attempt": 1,
		"error":   err.Error(),
	})
	select {
	case <-time.After(r.delay):
	case <-ctx.Done():
		return "", ctx.Err()
	}

	return r.base.Chat(ctx, messages)
}

// ShouldRetry reports whether err looks transient: timeouts, connection
// failures, rate limiting and 5xx responses.
func ShouldRetry(err error) bool {
	if err == nil || errors.Is(err, ErrNotConfigured) || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var coded StatusCoder
	if errors.As(err, &coded) {
		code := coded.StatusCode()
		return code == 429 || code >= 500
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"connection reset",
		"connection refused",
		"connection closed",
		"broken pipe",
		"tls handshake timeout",
		"client.timeout",
		"eof",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
