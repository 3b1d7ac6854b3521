package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestDispatcherRunsInPostOrder(t *testing.T) {
	d := NewDispatcher(testLogger())
	d.Start(context.Background())
	defer d.Stop()

	var (
		mu  sync.Mutex
		got []int
	)
	for i := 0; i < 100; i++ {
		i := i
		d.Post(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		})
	}

	if err := d.Sync(context.Background(), nil); err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 100 {
		t.Fatalf("expected 100 callbacks, got %d", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("expected FIFO order, position %d holds %d", i, v)
		}
	}
}

func TestDispatcherQueuesBeforeStart(t *testing.T) {
	d := NewDispatcher(testLogger())
	ran := make(chan struct{})
	d.Post(func() { close(ran) })

	select {
	case <-ran:
		t.Fatal("callback ran before dispatcher start")
	case <-time.After(20 * time.Millisecond):
	}

	d.Start(context.Background())
	defer d.Stop()

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("queued callback did not run after start")
	}
}

func TestDispatcherRecoversFromPanics(t *testing.T) {
	d := NewDispatcher(testLogger())
	d.Start(context.Background())
	defer d.Stop()

	d.Post(func() { panic("boom") })
	called := false
	if err := d.Sync(context.Background(), func() { called = true }); err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if !called {
		t.Fatal("expected dispatcher to keep running after panic")
	}
}

func TestDispatcherStopDropsLatePosts(t *testing.T) {
	d := NewDispatcher(testLogger())
	d.Start(context.Background())
	d.Stop()
	d.Stop()

	d.Post(func() { t.Error("callback must not run after stop") })
	if err := d.Sync(context.Background(), nil); !errors.Is(err, ErrDispatcherStopped) {
		t.Fatalf("expected ErrDispatcherStopped, got %v", err)
	}
}

func TestDispatcherSyncHonoursContext(t *testing.T) {
	d := NewDispatcher(testLogger())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := d.Sync(ctx, nil); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded for unstarted dispatcher, got %v", err)
	}
}
