package notifications_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ailahq/safecheck/internal/notifications"
)

type flakyNotifier struct {
	err   error
	calls int
}

func (f *flakyNotifier) SendAlert(ctx context.Context, a notifications.Alert) error {
	f.calls++
	return f.err
}

func TestProtectedNotifierOpensAfterThreshold(t *testing.T) {
	inner := &flakyNotifier{err: errors.New("provider down")}
	n := notifications.NewProtectedNotifier(inner, notifications.ProtectedNotifierConfig{
		FailureThreshold: 3,
		Cooldown:         time.Hour,
	})
	ctx := context.Background()

	// three real failures trip the breaker
	for i := 0; i < 3; i++ {
		if err := n.SendAlert(ctx, notifications.Alert{}); err == nil {
			t.Fatalf("call %d: want error", i)
		}
	}
	if inner.calls != 3 {
		t.Fatalf("inner calls: %d", inner.calls)
	}

	// subsequent calls fail fast without touching the provider
	if err := n.SendAlert(ctx, notifications.Alert{}); !errors.Is(err, notifications.ErrCircuitOpen) {
		t.Fatalf("want ErrCircuitOpen, got %v", err)
	}
	if inner.calls != 3 {
		t.Fatalf("open circuit still called inner: %d", inner.calls)
	}
}

func TestProtectedNotifierRecoversViaHalfOpen(t *testing.T) {
	inner := &flakyNotifier{err: errors.New("provider down")}
	n := notifications.NewProtectedNotifier(inner, notifications.ProtectedNotifierConfig{
		FailureThreshold: 1,
		Cooldown:         10 * time.Millisecond,
	})
	ctx := context.Background()

	if err := n.SendAlert(ctx, notifications.Alert{}); err == nil {
		t.Fatal("want failure")
	}
	if err := n.SendAlert(ctx, notifications.Alert{}); !errors.Is(err, notifications.ErrCircuitOpen) {
		t.Fatalf("want ErrCircuitOpen, got %v", err)
	}

	// provider comes back; after the cooldown one trial call closes the
	// circuit again
	inner.err = nil
	time.Sleep(20 * time.Millisecond)

	if err := n.SendAlert(ctx, notifications.Alert{}); err != nil {
		t.Fatalf("half-open trial: %v", err)
	}
	if err := n.SendAlert(ctx, notifications.Alert{}); err != nil {
		t.Fatalf("closed again: %v", err)
	}
}

func TestProtectedNotifierPassesThroughWhenHealthy(t *testing.T) {
	inner := &flakyNotifier{}
	n := notifications.NewProtectedNotifier(inner, notifications.ProtectedNotifierConfig{})

	for i := 0; i < 5; i++ {
		if err := n.SendAlert(context.Background(), notifications.Alert{}); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if inner.calls != 5 {
		t.Fatalf("inner calls: %d", inner.calls)
	}
}
