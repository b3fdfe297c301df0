package reindex

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/poiesic/worldsignal/core"
)

// RetryWithBackoff retries an operation with exponential backoff.
// maxAttempts: maximum number of attempts (must be > 0)
// baseDelay: base delay between retries (doubles on each retry)
// Errors that another attempt cannot fix, such as a dimension mismatch or a
// cancelled context, are returned immediately. Otherwise the error from the
// last attempt is returned if all attempts fail.
func RetryWithBackoff(ctx context.Context, maxAttempts int, baseDelay time.Duration, operation func(ctx context.Context) error) error {
	if maxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = operation(ctx)
		if lastErr == nil {
			if attempt > 1 {
				slog.Debug("operation succeeded after retry", "attempt", attempt)
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return errors.Join(err, lastErr)
		}
		if permanent(lastErr) {
			return lastErr
		}

		slog.Debug("operation failed, will retry", "attempt", attempt, "maxAttempts", maxAttempts, "err", lastErr)

		if attempt == maxAttempts {
			break
		}

		// baseDelay * 2^(attempt-1)
		delay := baseDelay << (attempt - 1)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return lastErr
}

func permanent(err error) bool {
	return errors.Is(err, core.ErrDimensionMismatch) ||
		errors.Is(err, core.ErrLengthMismatch)
}
