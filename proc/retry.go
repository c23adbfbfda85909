package proc

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy mirrors a step-level retry declaration. The engine performs no
// automatic retries of its own; a policy applies only when the step declares
// one.
type RetryPolicy struct {
	// Attempts is the total number of attempts, including the first.
	Attempts int
	// Interval is the initial backoff interval. Defaults to 1s.
	Interval time.Duration
	// MaxInterval caps the backoff interval. Defaults to 30s.
	MaxInterval time.Duration
}

// RunWithRetry executes a command, retrying with exponential backoff while
// the exit code differs from expectedExit. The last attempt's result is
// returned. Context cancellation stops retrying immediately.
func RunWithRetry(ctx context.Context, cmd Command, policy RetryPolicy, expectedExit int) (*Result, error) {
	if policy.Attempts <= 1 {
		return Run(ctx, cmd)
	}

	bo := backoff.NewExponentialBackOff()
	if policy.Interval > 0 {
		bo.InitialInterval = policy.Interval
	}
	if policy.MaxInterval > 0 {
		bo.MaxInterval = policy.MaxInterval
	} else {
		bo.MaxInterval = 30 * time.Second
	}

	b := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(policy.Attempts-1)), ctx)

	var result *Result
	var runErr error
	operation := func() error {
		result, runErr = Run(ctx, cmd)
		if runErr != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(runErr)
			}
			return runErr
		}
		if result.ExitCode != expectedExit {
			return errUnexpectedExit
		}
		return nil
	}

	if err := backoff.Retry(operation, b); err != nil && runErr != nil {
		return result, runErr
	}
	return result, nil
}

// errUnexpectedExit is retryable but never surfaced: the caller inspects
// Result.ExitCode on the final attempt.
var errUnexpectedExit = &unexpectedExitError{}

type unexpectedExitError struct{}

func (e *unexpectedExitError) Error() string { return "proc: unexpected exit code" }
