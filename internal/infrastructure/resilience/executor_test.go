package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
)

func fastRetryConfig(attempts int) Config {
	return Config{
		RetryMaxAttempts:    attempts,
		RetryInitialBackoff: 1 * time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	}
}

func TestExecuteRetriesTemporaryFailure(t *testing.T) {
	exec := NewExecutor(fastRetryConfig(3))

	attempts := 0
	errTemp := errors.New("temporary")
	err := exec.Execute(context.Background(), "oracle.expand", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errTemp
		}
		return nil
	}, func(err error) ErrorClassification {
		return ErrorClassification{
			Retryable:     errors.Is(err, errTemp),
			RecordFailure: true,
		}
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestExecuteDoesNotRetryPermanentFailure(t *testing.T) {
	exec := NewExecutor(fastRetryConfig(3))

	attempts := 0
	errPermanent := errors.New("permanent")
	err := exec.Execute(context.Background(), "oracle.expand", func(context.Context) error {
		attempts++
		return errPermanent
	}, func(error) ErrorClassification {
		return ErrorClassification{}
	})
	if !errors.Is(err, errPermanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestExecuteStopsRetryingWhenContextEnds(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    5,
		RetryInitialBackoff: time.Second,
		RetryMaxBackoff:     time.Second,
		RetryMultiplier:     2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	errTemp := errors.New("temporary")
	attempts := 0
	err := exec.Execute(ctx, "oracle.expand", func(context.Context) error {
		attempts++
		return errTemp
	}, func(error) ErrorClassification {
		return ErrorClassification{Retryable: true, RecordFailure: true}
	})
	if !errors.Is(err, errTemp) {
		t.Fatalf("expected last operation error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt before deadline, got %d", attempts)
	}
}

func TestCallReturnsValue(t *testing.T) {
	exec := NewExecutor(fastRetryConfig(2))

	attempts := 0
	got, err := Call(context.Background(), exec, "oracle.expand", func(context.Context) (string, error) {
		attempts++
		if attempts == 1 {
			return "partial", errors.New("temporary")
		}
		return `{"direct":["vestido"]}`, nil
	}, func(error) ErrorClassification {
		return ErrorClassification{Retryable: true, RecordFailure: true}
	})
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if got != `{"direct":["vestido"]}` {
		t.Fatalf("unexpected value %q", got)
	}
}

func TestCallWithoutExecutor(t *testing.T) {
	got, err := Call(context.Background(), nil, "op", func(context.Context) (int, error) {
		return 7, nil
	}, nil)
	if err != nil || got != 7 {
		t.Fatalf("expected passthrough result, got %d, %v", got, err)
	}
}

func TestExecuteOpensCircuitAfterFailures(t *testing.T) {
	var (
		mu          sync.Mutex
		transitions []string
	)
	exec := NewExecutor(Config{
		RetryMaxAttempts:        1,
		RetryInitialBackoff:     1 * time.Millisecond,
		RetryMaxBackoff:         1 * time.Millisecond,
		RetryMultiplier:         2,
		BreakerEnabled:          true,
		BreakerMinRequests:      2,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      50 * time.Millisecond,
		BreakerHalfOpenMaxCalls: 1,
		OnStateChange: func(operation, from, to string) {
			mu.Lock()
			defer mu.Unlock()
			transitions = append(transitions, operation+":"+from+"->"+to)
		},
	})

	errTemp := errors.New("temporary")
	classifier := func(error) ErrorClassification {
		return ErrorClassification{Retryable: true, RecordFailure: true}
	}

	for i := 0; i < 2; i++ {
		err := exec.Execute(context.Background(), "oracle.expand", func(context.Context) error {
			return errTemp
		}, classifier)
		if !errors.Is(err, errTemp) {
			t.Fatalf("expected temporary error on iteration %d, got %v", i, err)
		}
	}

	err := exec.Execute(context.Background(), "oracle.expand", func(context.Context) error {
		t.Fatalf("circuit should be open and must not call operation")
		return nil
	}, classifier)
	if !errors.Is(err, gobreaker.ErrOpenState) || !IsCircuitOpen(err) {
		t.Fatalf("expected open state error, got %v", err)
	}
	if state := exec.State("oracle.expand"); state != "open" {
		t.Fatalf("expected open state, got %s", state)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(transitions) != 1 || transitions[0] != "oracle.expand:closed->open" {
		t.Fatalf("unexpected transitions %v", transitions)
	}
}

func TestStateDefaultsToClosed(t *testing.T) {
	if state := NewExecutor(DefaultConfig()).State("never"); state != "closed" {
		t.Fatalf("expected closed, got %s", state)
	}
}

func TestExecuteOpensCircuitOnDeadlineButNotOnCancel(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:        3,
		RetryInitialBackoff:     1 * time.Millisecond,
		RetryMaxBackoff:         1 * time.Millisecond,
		RetryMultiplier:         2,
		BreakerEnabled:          true,
		BreakerMinRequests:      2,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      time.Minute,
		BreakerHalfOpenMaxCalls: 1,
	})
	classifier := func(err error) ErrorClassification {
		if class, ok := ClassifyContextError(err); ok {
			return class
		}
		return ErrorClassification{Retryable: true, RecordFailure: true}
	}
	hang := func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}

	for i := 0; i < 3; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := exec.Execute(ctx, "oracle.cancelled", hang, classifier)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected cancellation, got %v", err)
		}
	}
	if state := exec.State("oracle.cancelled"); state != "closed" {
		t.Fatalf("cancelled calls must not open the circuit, got %s", state)
	}

	attempts := 0
	for i := 0; i < 2; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		err := exec.Execute(ctx, "oracle.hung", func(ctx context.Context) error {
			attempts++
			return hang(ctx)
		}, classifier)
		cancel()
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("expected deadline error on iteration %d, got %v", i, err)
		}
	}
	if attempts != 2 {
		t.Fatalf("expired deadlines must not be retried, got %d attempts", attempts)
	}
	if state := exec.State("oracle.hung"); state != "open" {
		t.Fatalf("expected hung operation to open the circuit, got %s", state)
	}

	start := time.Now()
	err := exec.Execute(context.Background(), "oracle.hung", hang, classifier)
	if !IsCircuitOpen(err) {
		t.Fatalf("expected open circuit, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Millisecond {
		t.Fatalf("open circuit should fail fast, took %s", elapsed)
	}
}

func TestClassifyContextError(t *testing.T) {
	if _, ok := ClassifyContextError(errors.New("boom")); ok {
		t.Fatalf("plain errors are not context errors")
	}
	class, ok := ClassifyContextError(context.Canceled)
	if !ok || class.Retryable || class.RecordFailure {
		t.Fatalf("unexpected cancel classification %+v", class)
	}
	class, ok = ClassifyContextError(context.DeadlineExceeded)
	if !ok || class.Retryable || !class.RecordFailure {
		t.Fatalf("unexpected deadline classification %+v", class)
	}
}
