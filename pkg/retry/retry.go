package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/retailworks/pos-backoffice/pkg/logger"
)

// RetryableFunc defines a function that can be retried
type RetryableFunc func() error

// RetryConfig holds the configuration for retrying operations
type RetryConfig struct {
	MaxAttempts     int
	BackoffStrategy BackoffStrategy
	Logger          logger.Logger
	RetryableErrors []error // List of errors to retry on
}

// Retry retries the given function according to the provided configuration
func Retry(ctx context.Context, fn RetryableFunc, cfg *RetryConfig) error {
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled by context: %w", ctx.Err())
		default:
		}

		err := fn()

		if err == nil {
			return nil
		}

		lastErr = err

		if attempt == cfg.MaxAttempts {
			break
		}

		if !isRetryable(err, cfg.RetryableErrors) {
			cfg.Logger.Warn("Non-retryable error encountered, giving up",
				"error", err,
				"attempt", attempt)
			return err
		}

		backoff := cfg.BackoffStrategy.NextBackoff(attempt)

		cfg.Logger.Info("Retrying after error",
			"error", err,
			"attempt", attempt,
			"maxAttempts", cfg.MaxAttempts,
			"backoff", backoff)

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled by context during backoff: %w", ctx.Err())
		}
	}

	return fmt.Errorf("all %d retry attempts failed, last error: %w", cfg.MaxAttempts, lastErr)
}

// isRetryable checks if an error is retryable. With no specific errors
// configured, every error is retried.
func isRetryable(err error, retryableErrors []error) bool {
	if len(retryableErrors) == 0 {
		return true
	}

	for _, retryableErr := range retryableErrors {
		if errors.Is(err, retryableErr) {
			return true
		}
	}

	return false
}
