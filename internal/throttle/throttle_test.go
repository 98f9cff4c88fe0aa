package throttle

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestHost(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"https://x.test/a?b=1", "x.test"},
		{"http://y.test:8080/", "y.test:8080"},
		{"not a url", "not a url"},
	}

	for _, tt := range tests {
		if got := Host(tt.input); got != tt.expected {
			t.Errorf("Host(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestAcquireUnlimitedRPM(t *testing.T) {
	rl := NewRateLimiter(1, 0)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		release, err := rl.Acquire(ctx, "x.test")
		if err != nil {
			t.Fatalf("Acquire: %v", err)
		}
		release()
	}
}

func TestAcquireBlocksWhileHeld(t *testing.T) {
	rl := NewRateLimiter(1, 0)

	release, err := rl.Acquire(context.Background(), "x.test")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if _, err := rl.Acquire(ctx, "x.test"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("second Acquire = %v, want deadline exceeded", err)
	}

	// Other hosts are independent.
	other, err := rl.Acquire(context.Background(), "y.test")
	if err != nil {
		t.Fatalf("Acquire other host: %v", err)
	}
	other()
	release()
}

func TestAcquireRPMBudget(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	now := time.Date(2025, 10, 18, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		release, err := rl.Acquire(context.Background(), "x.test")
		if err != nil {
			t.Fatalf("Acquire %d: %v", i, err)
		}
		release()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if _, err := rl.Acquire(ctx, "x.test"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("third Acquire = %v, want deadline exceeded", err)
	}

	// A new minute resets the budget.
	now = now.Add(time.Minute)
	release, err := rl.Acquire(context.Background(), "x.test")
	if err != nil {
		t.Fatalf("Acquire after window: %v", err)
	}
	release()
}
