package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakePurger struct {
	mu      sync.Mutex
	cutoffs []time.Time
	err     error
}

func (f *fakePurger) Purge(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoffs = append(f.cutoffs, cutoff)
	return 3, f.err
}

func (f *fakePurger) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cutoffs)
}

func TestPurgeDraftsUsesTTLCutoff(t *testing.T) {
	purger := &fakePurger{}
	svc := New(purger, Options{DraftTTL: 48 * time.Hour})
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	details, err := svc.PurgeDrafts(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(purger.cutoffs) != 1 || !purger.cutoffs[0].Equal(now.Add(-48*time.Hour)) {
		t.Fatalf("unexpected cutoffs: %v", purger.cutoffs)
	}
	payload, ok := details.(map[string]any)
	if !ok || payload["deleted"] != int64(3) {
		t.Fatalf("unexpected details: %#v", details)
	}
}

func TestPurgeDraftsPropagatesError(t *testing.T) {
	purger := &fakePurger{err: errors.New("db down")}
	svc := New(purger, Options{DraftTTL: time.Hour})
	if _, err := svc.PurgeDrafts(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestScheduledPurgeRunsAndStops(t *testing.T) {
	purger := &fakePurger{}
	svc := New(purger, Options{DraftTTL: time.Hour, PurgeInterval: 10 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	svc.Start(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for purger.calls() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	svc.Wait()

	if purger.calls() == 0 {
		t.Fatal("expected scheduled purge to run")
	}
}

func TestEnqueueReportsFullQueue(t *testing.T) {
	svc := New(nil, Options{QueueSize: 1})
	noop := func(context.Context) (any, error) { return nil, nil }
	if !svc.Enqueue("a", noop) {
		t.Fatal("expected first enqueue to succeed")
	}
	if svc.Enqueue("b", noop) {
		t.Fatal("expected second enqueue to be rejected without a worker")
	}
}
