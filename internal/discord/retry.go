package discord

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/charmbracelet/log"
)

const defaultInitialDelay = 500 * time.Millisecond

// retryWithBackoff runs fn until it succeeds, returns a non-retryable error,
// or maxRetries retries have been spent. The delay doubles on each retry.
func retryWithBackoff(ctx context.Context, logger *log.Logger, maxRetries int, initialDelay time.Duration, fn func() error) error {
	var lastErr error
	delay := initialDelay

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			logger.Debug("Retrying Discord request", "attempt", attempt+1, "of", maxRetries+1, "delay", delay)
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return errors.Join(lastErr, ctx.Err())
			case <-timer.C:
			}
			delay *= 2
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if !isRetryableError(lastErr) {
			return lastErr
		}

		if attempt < maxRetries {
			logger.Warn("Retryable Discord error", "attempt", attempt+1, "of", maxRetries+1, "error", lastErr)
		}
	}

	return lastErr
}

// isRetryableError reports whether err is a transient failure: a 5xx or 429
// response, or a transport error.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) {
		if restErr.Response == nil {
			return true
		}
		status := restErr.Response.StatusCode
		return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
	}

	errStr := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"eof",
		"timeout",
		"connection refused",
		"temporary failure",
		"connection reset",
		"broken pipe",
		"no such host",
		"network is unreachable",
	}
	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}
