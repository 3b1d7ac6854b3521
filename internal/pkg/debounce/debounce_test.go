package debounce

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

type inlineExecutor struct{}

func (inlineExecutor) Post(fn func()) { fn() }

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.After(time.Second)
	for !cond() {
		select {
		case <-deadline:
			t.Fatal("condition not met in time")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestDebouncerRunsOnlyLastTrigger(t *testing.T) {
	clock := clockwork.NewFakeClock()
	d := New(clock, 500*time.Millisecond, inlineExecutor{})

	var (
		mu  sync.Mutex
		got []string
	)
	record := func(v string) func() {
		return func() {
			mu.Lock()
			got = append(got, v)
			mu.Unlock()
		}
	}

	d.Trigger(record("o"))
	clock.Advance(200 * time.Millisecond)
	d.Trigger(record("oc"))
	clock.Advance(200 * time.Millisecond)
	d.Trigger(record("oct"))

	if !d.Pending() {
		t.Fatal("expected pending call")
	}
	clock.Advance(500 * time.Millisecond)

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	})
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0] != "oct" {
		t.Fatalf("expected only last trigger to run, got %v", got)
	}
	if d.Pending() {
		t.Fatal("expected no pending call after firing")
	}
}

func TestDebouncerCancel(t *testing.T) {
	clock := clockwork.NewFakeClock()
	d := New(clock, 500*time.Millisecond, inlineExecutor{})

	var calls int32
	d.Trigger(func() { atomic.AddInt32(&calls, 1) })
	if !d.Cancel() {
		t.Fatal("expected cancel to report a pending call")
	}
	if d.Cancel() {
		t.Fatal("expected second cancel to be a no-op")
	}

	clock.Advance(time.Second)
	time.Sleep(20 * time.Millisecond)
	if atomic.LoadInt32(&calls) != 0 {
		t.Fatalf("expected cancelled call not to run, got %d calls", calls)
	}
}

func TestDebouncerStaleFireIsDropped(t *testing.T) {
	d := New(clockwork.NewFakeClock(), time.Second, inlineExecutor{})
	d.Trigger(func() {})
	stale := d.seq
	d.Trigger(func() {})
	if d.take(stale) {
		t.Fatal("expected stale sequence to be rejected")
	}
	if !d.take(d.seq) {
		t.Fatal("expected current sequence to be accepted")
	}
}
