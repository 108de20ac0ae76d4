// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

package breaker

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/lineup/internal/metrics"
)

// TestBreaker_OpensAfterFailures verifies the breaker opens once the failure
// ratio crosses the threshold over the minimum request count.
func TestBreaker_OpensAfterFailures(t *testing.T) {
	b := New("test-opens", Settings{})

	if b.State() != gobreaker.StateClosed {
		t.Fatalf("initial state = %v, want closed", b.State())
	}

	failures := 0
	for i := 0; i < 10; i++ {
		_, err := Do(b, func() (string, error) {
			if i < 7 {
				return "", errors.New("simulated failure")
			}
			return "ok", nil
		})
		if err != nil {
			failures++
		}
	}
	if failures != 7 {
		t.Fatalf("failures = %d, want 7", failures)
	}

	// ReadyToTrip runs after each failure, so one more failure trips it.
	_, _ = Do(b, func() (string, error) { return "", errors.New("final failure") })

	if b.State() != gobreaker.StateOpen {
		t.Fatalf("state = %v, want open after 70%% failures", b.State())
	}

	called := false
	_, err := Do(b, func() (string, error) {
		called = true
		return "ok", nil
	})
	if !Rejected(err) {
		t.Errorf("err = %v, want rejection", err)
	}
	if called {
		t.Error("open breaker still ran the call")
	}

	if got := testutil.ToFloat64(metrics.CircuitBreakerState.WithLabelValues("test-opens")); got != 2 {
		t.Errorf("state gauge = %v, want 2", got)
	}
	if got := testutil.ToFloat64(metrics.CircuitBreakerRequests.WithLabelValues("test-opens", "rejected")); got != 1 {
		t.Errorf("rejected counter = %v, want 1", got)
	}
}

func TestBreaker_StaysClosedBelowMinimum(t *testing.T) {
	b := New("test-minimum", Settings{})

	for i := 0; i < 9; i++ {
		_, _ = Do(b, func() (int, error) { return 0, errors.New("fail") })
	}
	if b.State() != gobreaker.StateClosed {
		t.Errorf("state = %v after 9 failures, want closed", b.State())
	}
	if got := testutil.ToFloat64(metrics.CircuitBreakerConsecutiveFailures.WithLabelValues("test-minimum")); got != 9 {
		t.Errorf("consecutive failures gauge = %v, want 9", got)
	}

	if _, err := Do(b, func() (int, error) { return 1, nil }); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if got := testutil.ToFloat64(metrics.CircuitBreakerConsecutiveFailures.WithLabelValues("test-minimum")); got != 0 {
		t.Errorf("consecutive failures gauge = %v after success, want 0", got)
	}
}

func TestBreaker_IsSuccessful(t *testing.T) {
	errCaller := errors.New("caller error")
	b := New("test-successful", Settings{
		MinRequests:  2,
		IsSuccessful: func(err error) bool { return err == nil || errors.Is(err, errCaller) },
	})

	for i := 0; i < 5; i++ {
		_, err := Do(b, func() (int, error) { return 0, errCaller })
		if !errors.Is(err, errCaller) {
			t.Fatalf("err = %v, want caller error returned unchanged", err)
		}
	}
	if b.State() != gobreaker.StateClosed {
		t.Errorf("caller errors opened the breaker")
	}
}

func TestBreaker_HalfOpenRecovery(t *testing.T) {
	b := New("test-recovery", Settings{MinRequests: 1, Timeout: 20 * time.Millisecond})

	_, _ = Do(b, func() (int, error) { return 0, errors.New("fail") })
	if b.State() != gobreaker.StateOpen {
		t.Fatalf("state = %v, want open", b.State())
	}

	time.Sleep(40 * time.Millisecond)
	if b.State() != gobreaker.StateHalfOpen {
		t.Fatalf("state = %v after timeout, want half-open", b.State())
	}

	for i := 0; i < 3; i++ {
		if _, err := Do(b, func() (int, error) { return 1, nil }); err != nil {
			t.Fatalf("half-open call %d: %v", i, err)
		}
	}
	if b.State() != gobreaker.StateClosed {
		t.Errorf("state = %v after half-open successes, want closed", b.State())
	}
}

func TestStateString(t *testing.T) {
	t.Parallel()

	tests := map[gobreaker.State]string{
		gobreaker.StateClosed:   "closed",
		gobreaker.StateHalfOpen: "half-open",
		gobreaker.StateOpen:     "open",
		gobreaker.State(42):     "unknown",
	}
	for state, want := range tests {
		if got := StateString(state); got != want {
			t.Errorf("StateString(%d) = %q, want %q", state, got, want)
		}
	}
}
