package testutil

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
)

// ConcurrencyTestConfig holds parameters for concurrency tests.
type ConcurrencyTestConfig struct {
	// NumGoroutines is the number of concurrent operations to run.
	// Default: 20
	NumGoroutines int

	// Timeout is the maximum duration for each operation.
	// If an operation takes longer, it's counted as a timeout (potential deadlock).
	// Default: 3 seconds
	Timeout time.Duration
}

// ConcurrencyTestResult captures the outcome of concurrency tests.
type ConcurrencyTestResult struct {
	SuccessCount int
	ErrorCount   int
	// TimeoutCount indicates potential deadlocks or blocking issues.
	TimeoutCount int

	AverageDuration time.Duration
	MaxDuration     time.Duration

	Errors []error
}

// RunConcurrent executes operation NumGoroutines times in parallel and
// classifies each run as a success, an error or a timeout. Failures do not
// cancel the other runs.
//
// Example:
//
//	result := testutil.RunConcurrent(ctx, t, testutil.ConcurrencyTestConfig{NumGoroutines: 16},
//	    func(i int) movable.RelocateRequest { return reqs[i%len(reqs)] },
//	    func(ctx context.Context, req movable.RelocateRequest) error {
//	        _, err := engine.Relocate(ctx, req.NodeID, req.Kind, req.TargetID, req.Directive)
//	        return err
//	    },
//	)
//	assert.Zero(t, result.TimeoutCount)
func RunConcurrent[T any](
	ctx context.Context,
	t *testing.T,
	config ConcurrencyTestConfig,
	setupData func(i int) T,
	operation func(ctx context.Context, data T) error,
) ConcurrencyTestResult {
	t.Helper()

	if config.NumGoroutines == 0 {
		config.NumGoroutines = 20
	}
	if config.Timeout == 0 {
		config.Timeout = 3 * time.Second
	}

	var (
		mu     sync.Mutex
		result ConcurrencyTestResult
		total  time.Duration
	)

	var g errgroup.Group
	for i := 0; i < config.NumGoroutines; i++ {
		data := setupData(i)
		g.Go(func() error {
			opCtx, cancel := context.WithTimeout(ctx, config.Timeout)
			defer cancel()

			start := time.Now()
			err := operation(opCtx, data)
			elapsed := time.Since(start)

			mu.Lock()
			defer mu.Unlock()
			total += elapsed
			if elapsed > result.MaxDuration {
				result.MaxDuration = elapsed
			}
			switch {
			case err == nil:
				result.SuccessCount++
			case errors.Is(err, context.DeadlineExceeded):
				result.TimeoutCount++
				t.Logf("operation timed out after %v (potential deadlock)", elapsed)
			default:
				result.ErrorCount++
				result.Errors = append(result.Errors, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	result.AverageDuration = total / time.Duration(config.NumGoroutines)
	return result
}
