package llmwire

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 2,
		BaseDelay:  time.Millisecond,
		MaxDelay:   10 * time.Millisecond,
		Multiplier: 2.0,
	}
}

func TestRetrySucceedsFirstTry(t *testing.T) {
	calls := 0
	result, err := Retry(context.Background(), fastPolicy(), func(ctx context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "ok" || calls != 1 {
		t.Errorf("expected ok after 1 call, got %q after %d", result, calls)
	}
}

func TestRetryRecoversFromRetryable(t *testing.T) {
	calls := 0
	result, err := Retry(context.Background(), fastPolicy(), func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", &ServerError{ProviderError: ProviderError{
				WireError: WireError{Message: "temporarily down"}, Retryable: true,
			}}
		}
		return "recovered", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "recovered" || calls != 3 {
		t.Errorf("expected recovered after 3 calls, got %q after %d", result, calls)
	}
}

func TestRetryStopsOnNonRetryable(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), fastPolicy(), func(ctx context.Context) (string, error) {
		calls++
		return "", &AuthenticationError{ProviderError: ProviderError{
			WireError: WireError{Message: "bad key"}, StatusCode: 401,
		}}
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call for non-retryable error, got %d", calls)
	}
	var authErr *AuthenticationError
	if !errors.As(err, &authErr) {
		t.Errorf("expected AuthenticationError, got %T", err)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), fastPolicy(), func(ctx context.Context) (string, error) {
		calls++
		return "", &NetworkError{WireError: WireError{Message: "unreachable"}}
	})
	if err == nil {
		t.Fatal("expected error")
	}
	// Initial call plus MaxRetries.
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetryHonorsRetryAfterHint(t *testing.T) {
	hint := 0.001
	calls := 0
	var observedDelay time.Duration
	policy := fastPolicy()
	policy.OnRetry = func(err error, attempt int, delay time.Duration) {
		observedDelay = delay
	}

	_, err := Retry(context.Background(), policy, func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", &RateLimitError{ProviderError: ProviderError{
				WireError: WireError{Message: "slow down"}, Retryable: true, RetryAfter: &hint,
			}}
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if observedDelay != time.Millisecond {
		t.Errorf("expected hinted delay of 1ms, got %v", observedDelay)
	}
}

func TestRetryRejectsExcessiveRetryAfter(t *testing.T) {
	hint := 120.0 // seconds, beyond MaxDelay
	calls := 0
	_, err := Retry(context.Background(), fastPolicy(), func(ctx context.Context) (string, error) {
		calls++
		return "", &RateLimitError{ProviderError: ProviderError{
			WireError: WireError{Message: "slow down"}, Retryable: true, RetryAfter: &hint,
		}}
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected immediate return, got %d calls", calls)
	}
}

func TestRetryCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := fastPolicy()
	policy.BaseDelay = time.Second

	done := make(chan error, 1)
	go func() {
		_, err := Retry(ctx, policy, func(ctx context.Context) (string, error) {
			return "", &NetworkError{WireError: WireError{Message: "unreachable"}}
		})
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		var abortErr *AbortError
		if !errors.As(err, &abortErr) {
			t.Errorf("expected AbortError, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("retry did not observe cancellation")
	}
}

func TestDelayBackoffAndCap(t *testing.T) {
	p := RetryPolicy{BaseDelay: time.Second, MaxDelay: 3 * time.Second, Multiplier: 2.0}

	if d := p.Delay(0); d != time.Second {
		t.Errorf("expected 1s, got %v", d)
	}
	if d := p.Delay(1); d != 2*time.Second {
		t.Errorf("expected 2s, got %v", d)
	}
	if d := p.Delay(5); d != 3*time.Second {
		t.Errorf("expected cap of 3s, got %v", d)
	}
}

func TestDelayJitterStaysInRange(t *testing.T) {
	p := RetryPolicy{BaseDelay: time.Second, MaxDelay: time.Minute, Multiplier: 2.0, Jitter: true}
	for i := 0; i < 50; i++ {
		d := p.Delay(0)
		if d < 500*time.Millisecond || d >= 1500*time.Millisecond {
			t.Fatalf("jittered delay out of range: %v", d)
		}
	}
}
