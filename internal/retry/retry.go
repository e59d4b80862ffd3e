package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Config holds retry configuration
type Config struct {
	MaxRetries int
	BaseDelay  time.Duration
	// MaxDelay caps a single wait, including server-suggested delays. Zero means no cap.
	MaxDelay time.Duration
	// OnRetry, when set, is called before each wait.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// DefaultConfig returns a default retry configuration
func DefaultConfig() Config {
	return Config{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
	}
}

// ErrNonRetryable marks errors that WithBackoff gave up on without retrying.
var ErrNonRetryable = errors.New("non-retryable error")

// WithBackoff executes a function with exponential backoff retry logic
func WithBackoff(ctx context.Context, config Config, operation func(context.Context) error) error {
	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		err := operation(ctx)
		if err == nil {
			return nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if !isRetryableError(err) {
			return fmt.Errorf("%w: %w", ErrNonRetryable, err)
		}

		// Don't retry on the last attempt
		if attempt == config.MaxRetries {
			return fmt.Errorf("operation failed after %d attempts: %w", config.MaxRetries+1, err)
		}

		delay := config.delay(attempt, RetryAfter(err))
		if config.OnRetry != nil {
			config.OnRetry(attempt+1, delay, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil // Should never reach here
}

// delay computes the wait before the next attempt. A server-suggested delay
// replaces the exponential base; jitter is added in both cases.
func (c Config) delay(attempt int, suggested time.Duration) time.Duration {
	base := c.BaseDelay * time.Duration(1<<attempt)
	if suggested > 0 {
		base = suggested
	}

	var jitter time.Duration
	if c.BaseDelay > 0 {
		jitter = time.Duration(rand.Int64N(int64(c.BaseDelay)))
	}

	d := base + jitter
	if c.MaxDelay > 0 && d > c.MaxDelay {
		d = c.MaxDelay
	}
	return d
}

var statusCodeRegex = regexp.MustCompile(`(?i)(?:status|error)[\s:]*(\d{3})\b`)

// isRetryableError determines if an error is worth retrying
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	if IsRateLimit(err) {
		return true
	}

	errStr := strings.ToLower(err.Error())

	// Network-level errors are generally retryable
	if strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "temporary failure") ||
		strings.Contains(errStr, "network") {
		return true
	}

	// Only 5xx server errors and 429 rate limiting should be retried
	if m := statusCodeRegex.FindStringSubmatch(errStr); len(m) == 2 {
		if code, convErr := strconv.Atoi(m[1]); convErr == nil && code >= 400 {
			return HTTPStatusRetryable(code)
		}
	}

	// For unknown errors, err on the side of caution and retry
	return true
}

// rateLimitStatusRegex matches 429 only where it is a status code:
// "status 429", "code: 429", "Error 429", "HTTP 429" or "429 Too Many Requests".
var rateLimitStatusRegex = regexp.MustCompile(`(?i)\b(?:status|code|error|http)[\s:=]*429\b|\b429 too many requests`)

// IsRateLimit reports whether err looks like a provider quota rejection
// (HTTP 429 or RESOURCE_EXHAUSTED).
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return rateLimitStatusRegex.MatchString(errStr) ||
		strings.Contains(errStr, "RESOURCE_EXHAUSTED") ||
		strings.Contains(strings.ToLower(errStr), "rate limit")
}

// retryDelayRegex matches "Please retry in Xs" or "retryDelay:Xs" patterns
var retryDelayRegex = regexp.MustCompile(`(?i)(?:Please retry in |retryDelay[:\s"]+)(\d+(?:\.\d+)?)\s*s`)

// RetryAfter parses the retry delay a provider suggested in its error
// message. Returns 0 when there is none.
func RetryAfter(err error) time.Duration {
	if err == nil {
		return 0
	}

	matches := retryDelayRegex.FindStringSubmatch(err.Error())
	if len(matches) < 2 {
		return 0
	}

	seconds, parseErr := strconv.ParseFloat(matches[1], 64)
	if parseErr != nil {
		return 0
	}

	return time.Duration(seconds * float64(time.Second))
}

// HTTPStatusRetryable checks if an HTTP status code is retryable
func HTTPStatusRetryable(statusCode int) bool {
	// Retry on server errors (5xx) and rate limiting (429)
	return statusCode >= 500 || statusCode == http.StatusTooManyRequests
}
