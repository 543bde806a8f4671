package delayed

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestAfterRunsCallback(t *testing.T) {
	s := New(nil)
	defer s.Stop()

	done := make(chan struct{})
	s.After(10*time.Millisecond, "test", func(ctx context.Context) error {
		close(done)
		return nil
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("callback did not run")
	}
}

func TestStopDropsPendingCallbacks(t *testing.T) {
	s := New(nil)

	var ran atomic.Int32
	s.After(time.Hour, "late", func(ctx context.Context) error {
		ran.Add(1)
		return nil
	})
	if s.Pending() != 1 {
		t.Fatalf("expected one pending task, got %d", s.Pending())
	}

	s.Stop()
	if s.Pending() != 0 || ran.Load() != 0 {
		t.Fatalf("expected pending task dropped, pending=%d ran=%d", s.Pending(), ran.Load())
	}

	s.After(time.Millisecond, "after-stop", func(ctx context.Context) error {
		ran.Add(1)
		return errors.New("should not run")
	})
	time.Sleep(20 * time.Millisecond)
	if ran.Load() != 0 {
		t.Fatalf("expected no callbacks after stop")
	}
}
