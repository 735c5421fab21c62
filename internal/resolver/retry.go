package resolver

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glsalierno/cas-to-HSPiP-data/internal/model"
)

// isRetryableError reports whether the lookup failed in a way a retry can fix.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotFound) {
		return false
	}

	errMsg := strings.ToLower(err.Error())

	// Throttling and transient upstream trouble.
	retryableErrors := []string{
		"serverbusy",
		"server busy",
		"too many requests",
		"rate limit",
		"status 503",
		"status 502",
		"timeout",
		"temporarily",
		"connection reset",
	}

	for _, retryableErr := range retryableErrors {
		if strings.Contains(errMsg, retryableErr) {
			return true
		}
	}

	return false
}

// retryWithBackoff re-invokes a lookup up to attempts times with an increasing
// delay between attempts.
func retryWithBackoff(service, target string, attempts int, queryFunc func() (*model.Compound, error)) (*model.Compound, error) {
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		compound, err := queryFunc()

		if err == nil {
			if attempt > 1 {
				fmt.Printf("[%s] retry succeeded: %s (attempt %d)\n", service, target, attempt)
			}
			return compound, nil
		}

		lastErr = err

		if !isRetryableError(err) {
			return nil, err
		}

		// Increasing delay: 3s, 6s, 9s.
		delay := time.Duration(attempt) * 3 * time.Second

		fmt.Printf("[%s] attempt %d failed: %s -> %v\n", service, attempt, target, err)
		if attempt < attempts {
			fmt.Printf("[%s] waiting %ds before retrying: %s\n", service, delay/time.Second, target)
			time.Sleep(delay)
		}
	}

	fmt.Printf("[%s] giving up on %s -> %v\n", service, target, lastErr)
	return nil, fmt.Errorf("still failing after %d attempts: %w", attempts, lastErr)
}
