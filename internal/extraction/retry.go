package extraction

import (
	"context"
	"errors"
	"time"

	"github.com/FarhanAnis005/Founders-Gauntlet-Backend/internal/shared/telemetry"
)

const retryBaseDelay = 300 * time.Millisecond

type retryingExtractor struct {
	base     Extractor
	attempts int
}

// WithRetry wraps an Extractor with bounded retries for transient upstream
// failures. attempts is the total number of calls, not the number of retries;
// only ErrUpstreamUnavailable is retried, everything else surfaces as-is.
func WithRetry(base Extractor, attempts int) Extractor {
	if base == nil {
		return nil
	}
	if attempts < 1 {
		attempts = 1
	}
	return retryingExtractor{base: base, attempts: attempts}
}

func (r retryingExtractor) Extract(ctx context.Context, documentBytes []byte) (Result, error) {
	delay := retryBaseDelay
	var lastErr error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		result, err := r.base.Extract(ctx, documentBytes)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !errors.Is(err, ErrUpstreamUnavailable) || attempt == r.attempts {
			break
		}
		telemetry.Warn("extraction_retry", map[string]any{
			"attempt": attempt,
			"error":   err.Error(),
		})
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
		delay *= 2
	}
	return Result{}, lastErr
}
