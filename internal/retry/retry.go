package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"feedback_service/internal/errdefs"
)

// WithBackoff calls fn until it succeeds, returns a non-transport error, or
// maxAttempts is reached. Only errdefs.ErrTransport is retried.
func WithBackoff[T any](
	ctx context.Context,
	maxAttempts int,
	baseDelay time.Duration,
	fn func() (T, error),
) (T, error) {
	var zero T
	if maxAttempts <= 0 {
		return zero, fmt.Errorf("maxAttempts must be > 0, got %d", maxAttempts)
	}
	var lastErr error

	for i := range maxAttempts {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !errdefs.IsRetryable(err) {
			return zero, err
		}

		if i < maxAttempts-1 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(backoff(i, baseDelay)):
			}
		}
	}
	return zero, fmt.Errorf("after %d attempts: %w", maxAttempts, lastErr)
}

func backoff(attempt int, base time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	jitter := time.Duration(rand.Int63n(int64(base))) //nolint:gosec // jitter doesn't need crypto rand
	return time.Duration(math.Pow(2, float64(attempt)))*base + jitter
}

type CircuitState int

const (
	StateClosed CircuitState = iota
	StateOpen
	StateHalfOpen
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreaker stops calling a collaborator after failureThreshold
// consecutive transport failures, until resetTimeout has elapsed.
type CircuitBreaker struct {
	mu               sync.Mutex
	state            CircuitState
	failureCount     int
	failureThreshold int
	resetTimeout     time.Duration
	lastFailureTime  time.Time
}

func NewCircuitBreaker(failureThreshold int, resetTimeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		state:            StateClosed,
		failureThreshold: failureThreshold,
		resetTimeout:     resetTimeout,
	}
}

func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) Execute(fn func() error) error {
	cb.mu.Lock()
	if cb.state == StateOpen {
		if time.Since(cb.lastFailureTime) <= cb.resetTimeout {
			cb.mu.Unlock()
			return errdefs.Transport("circuit breaker", ErrCircuitOpen)
		}
		cb.state = StateHalfOpen
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch {
	case err == nil:
		cb.failureCount = 0
		cb.state = StateClosed
	case errdefs.IsRetryable(err):
		cb.failureCount++
		cb.lastFailureTime = time.Now()
		if cb.state == StateHalfOpen || cb.failureCount >= cb.failureThreshold {
			cb.state = StateOpen
		}
	}
	return err
}

func WithCircuitBreaker[T any](
	ctx context.Context,
	cb *CircuitBreaker,
	maxAttempts int,
	baseDelay time.Duration,
	fn func() (T, error),
) (T, error) {
	return WithBackoff(ctx, maxAttempts, baseDelay, func() (T, error) {
		var result T
		err := cb.Execute(func() error {
			var fnErr error
			result, fnErr = fn()
			return fnErr
		})
		return result, err
	})
}
