package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/colespa/colespa-api/internal/infra/resilience"

	"github.com/sony/gobreaker"
)

func TestRetryWithBackoff_StopsOnFirstSuccess(t *testing.T) {
	cfg := resilience.Config{MaxRetries: 3, InitialBackoff: 5 * time.Millisecond}

	calls := 0
	err := resilience.RetryWithBackoff(context.Background(), cfg, func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("fn called %d times, want 1", calls)
	}
}

func TestRetryWithBackoff_RetriesUntilSuccess(t *testing.T) {
	cfg := resilience.Config{MaxRetries: 3, InitialBackoff: 5 * time.Millisecond}

	calls := 0
	err := resilience.RetryWithBackoff(context.Background(), cfg, func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if calls != 3 {
		t.Errorf("fn called %d times, want 3", calls)
	}
}

func TestRetryWithBackoff_ReturnsLastErrorWhenExhausted(t *testing.T) {
	cfg := resilience.Config{MaxRetries: 2, InitialBackoff: 5 * time.Millisecond}

	calls := 0
	wantErr := errors.New("persistent")
	err := resilience.RetryWithBackoff(context.Background(), cfg, func() error {
		calls++
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("error = %v, want the fn's last error", err)
	}
	if calls != 3 {
		t.Errorf("fn called %d times, want MaxRetries+1 = 3", calls)
	}
}

func TestRetryWithBackoff_ZeroBackoffUsesDefault(t *testing.T) {
	// An unset InitialBackoff must not break the jitter computation; the
	// default kicks in and the retries still run.
	cfg := resilience.Config{MaxRetries: 2}

	calls := 0
	err := resilience.RetryWithBackoff(context.Background(), cfg, func() error {
		calls++
		return errors.New("still failing")
	})
	if err == nil {
		t.Fatal("expected the last error back")
	}
	if calls != 3 {
		t.Errorf("fn called %d times, want 3", calls)
	}
}

func TestRetryWithBackoff_CancelledContextAbortsWait(t *testing.T) {
	cfg := resilience.Config{MaxRetries: 5, InitialBackoff: time.Second}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := resilience.RetryWithBackoff(ctx, cfg, func() error {
		return errors.New("failing")
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("error = %v, want the context's", err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("cancellation did not interrupt the backoff wait")
	}
}

func TestCircuitBreaker_OpensAfterRepeatedFailures(t *testing.T) {
	cb := resilience.NewCircuitBreaker(t.Name())

	boom := errors.New("vendor down")
	for i := 0; i < 5; i++ {
		cb.Execute(func() (any, error) { return nil, boom })
	}

	_, err := cb.Execute(func() (any, error) { return nil, nil })
	if err != gobreaker.ErrOpenState {
		t.Fatalf("error = %v, want gobreaker.ErrOpenState after 5 straight failures", err)
	}
}

func TestBulkhead_CapsConcurrency(t *testing.T) {
	bh := resilience.NewBulkhead(2)

	if err := bh.Acquire(context.Background()); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if err := bh.Acquire(context.Background()); err != nil {
		t.Fatalf("second acquire: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := bh.Acquire(ctx); err == nil {
		t.Fatal("third acquire should block until a slot frees")
	}

	bh.Release()
	if err := bh.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
}
