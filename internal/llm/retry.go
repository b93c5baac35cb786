package llm

import (
	"context"
	"time"
)

// completeWithRetries calls the provider up to retries times, doubling
// the delay after each failure. Context cancellation stops the retry
// loop immediately.
func completeWithRetries(ctx context.Context, p Provider, req Request, retries int, baseDelay time.Duration) (string, error) {
	if retries < 1 {
		retries = 1
	}

	var lastErr error
	for attempt := 0; attempt < retries; attempt++ {
		if attempt > 0 {
			delay := baseDelay << (attempt - 1)
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return "", ctx.Err()
			case <-timer.C:
			}
		}

		response, err := p.Complete(ctx, req)
		if err == nil {
			return response, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return "", lastErr
}
