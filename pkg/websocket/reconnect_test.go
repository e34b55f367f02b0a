package websocket

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestReconnectManager() *ReconnectManager {
	return NewReconnectManager(ReconnectConfig{
		InitialDelay:      5 * time.Second,
		MaxDelay:          60 * time.Second,
		BackoffMultiplier: 2.0,
	}, zap.NewNop())
}

func TestBackoffDoublesAndCaps(t *testing.T) {
	rm := newTestReconnectManager()

	want := []time.Duration{
		10 * time.Second,
		20 * time.Second,
		40 * time.Second,
		60 * time.Second, // capped
		60 * time.Second,
	}

	for i, w := range want {
		rm.incrementBackoff()
		if rm.currentBackoff != w {
			t.Fatalf("after %d increments backoff = %s, want %s", i+1, rm.currentBackoff, w)
		}
	}
}

func TestFullJitterStaysWithinBackoff(t *testing.T) {
	rm := newTestReconnectManager()
	rm.incrementBackoff() // 10s

	for i := 0; i < 100; i++ {
		d := rm.nextBackoff()
		if d < 0 || d > 10*time.Second {
			t.Fatalf("jittered delay %s outside [0, 10s]", d)
		}
	}
}

func TestResetRestoresInitialDelay(t *testing.T) {
	rm := newTestReconnectManager()
	rm.incrementBackoff()
	rm.incrementBackoff()

	rm.Reset()
	if rm.currentBackoff != 5*time.Second {
		t.Errorf("backoff after reset = %s, want 5s", rm.currentBackoff)
	}
}

func TestReconnectStopsOnContextCancel(t *testing.T) {
	rm := NewReconnectManager(ReconnectConfig{
		InitialDelay:      10 * time.Millisecond,
		MaxDelay:          50 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := rm.Reconnect(ctx, func(context.Context) error {
		return errors.New("dial refused")
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}

func TestReconnectSucceedsAndResets(t *testing.T) {
	rm := NewReconnectManager(ReconnectConfig{
		InitialDelay:      time.Millisecond,
		MaxDelay:          10 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}, zap.NewNop())

	attempts := 0
	err := rm.Reconnect(context.Background(), func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("dial refused")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Reconnect error = %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
	if rm.currentBackoff != time.Millisecond {
		t.Errorf("backoff not reset: %s", rm.currentBackoff)
	}
}
