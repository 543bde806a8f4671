package cleanup

import (
	"context"
	"errors"
	"testing"
)

type fakePurger struct {
	calls  int
	purged int64
	err    error
}

func (f *fakePurger) PurgeExpired(_ context.Context) (int64, error) {
	f.calls++
	return f.purged, f.err
}

func TestRunPurgesExpiredBans(t *testing.T) {
	purger := &fakePurger{purged: 3}
	job := New(purger, nil)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run cleanup job: %v", err)
	}
	if purger.calls != 1 {
		t.Fatalf("expected one purge call, got %d", purger.calls)
	}
}

func TestRunWrapsPurgeError(t *testing.T) {
	purger := &fakePurger{err: errors.New("db down")}
	if err := New(purger, nil).Run(context.Background()); !errors.Is(err, purger.err) {
		t.Fatalf("expected wrapped purge error, got %v", err)
	}
}

func TestStartRejectsBadSpec(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := New(&fakePurger{}, nil).Start(ctx, "every now and then"); err == nil {
		t.Fatalf("expected invalid cron spec error")
	}
}
