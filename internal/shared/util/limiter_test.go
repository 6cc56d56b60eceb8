package util

import (
	"context"
	"testing"
	"time"
)

func TestLimiter(t *testing.T) {
	l := NewLimiter(10, 2)

	if !l.Allow(1) || !l.Allow(1) {
		t.Fatal("expected the burst to be allowed")
	}
	if l.Allow(1) {
		t.Error("expected the third run to be rejected")
	}

	time.Sleep(150 * time.Millisecond)
	if !l.Allow(1) {
		t.Error("expected a token after the refill interval")
	}
}

func TestLimiter_Wait(t *testing.T) {
	l := NewLimiter(100, 1)
	l.Allow(1)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	if err := l.Wait(ctx, 1); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if time.Since(start) < 5*time.Millisecond {
		t.Error("Wait returned before a token was available")
	}
}

func TestLimiter_SetLimit(t *testing.T) {
	l := NewLimiter(1, 1)
	l.Allow(1)
	l.SetLimit(1000)

	time.Sleep(10 * time.Millisecond)
	if !l.Allow(1) {
		t.Error("expected the raised limit to refill quickly")
	}
}
