package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name             string
		recordsPerSecond float64
		wantLimit        float64
		wantUnlimited    bool
	}{
		{name: "unlimited_zero", recordsPerSecond: 0, wantLimit: 0, wantUnlimited: true},
		{name: "unlimited_negative", recordsPerSecond: -1, wantLimit: 0, wantUnlimited: true},
		{name: "limited", recordsPerSecond: 250, wantLimit: 250},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(tt.recordsPerSecond)
			if got := l.Limit(); got != tt.wantLimit {
				t.Errorf("Limit() = %v, want %v", got, tt.wantLimit)
			}
			if got := l.Unlimited(); got != tt.wantUnlimited {
				t.Errorf("Unlimited() = %v, want %v", got, tt.wantUnlimited)
			}
		})
	}
}

func TestLimiter_Wait(t *testing.T) {
	t.Run("unlimited_no_wait", func(t *testing.T) {
		l := New(0)

		start := time.Now()
		for range 1000 {
			if err := l.Wait(context.Background()); err != nil {
				t.Fatalf("Wait() error = %v", err)
			}
		}
		if d := time.Since(start); d > 100*time.Millisecond {
			t.Errorf("unlimited limiter took %v", d)
		}
	})

	t.Run("limited_spaces_records", func(t *testing.T) {
		l := New(20)

		if err := l.Wait(context.Background()); err != nil {
			t.Fatalf("first Wait() error = %v", err)
		}
		start := time.Now()
		if err := l.Wait(context.Background()); err != nil {
			t.Fatalf("second Wait() error = %v", err)
		}
		if d := time.Since(start); d < 30*time.Millisecond {
			t.Errorf("second Wait() returned after %v, want ~50ms", d)
		}
	})

	t.Run("context_cancellation", func(t *testing.T) {
		l := New(1)
		if err := l.Wait(context.Background()); err != nil {
			t.Fatalf("first Wait() error = %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		if err := l.Wait(ctx); err == nil {
			t.Error("Wait() error = nil, want cancellation")
		}
	})
}
