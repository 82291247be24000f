package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPacerSpacesCalls(t *testing.T) {
	pacer := NewPacer(40 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := pacer.Wait(ctx); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 70*time.Millisecond {
		t.Fatalf("three calls should take at least two delays, took %s", elapsed)
	}
}

func TestPacerZeroDelayDoesNotBlock(t *testing.T) {
	pacer := NewPacer(0)
	start := time.Now()
	for i := 0; i < 100; i++ {
		if err := pacer.Wait(context.Background()); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Fatalf("zero delay should not block, took %s", elapsed)
	}
}

func TestPacerHonoursCancellation(t *testing.T) {
	pacer := NewPacer(time.Hour)
	if err := pacer.Wait(context.Background()); err != nil {
		t.Fatalf("first call should pass, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := pacer.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation error, got %v", err)
	}
}
