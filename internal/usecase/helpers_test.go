package usecase

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/polkiloo/usersearch/internal/favorites"
	testhelpers "github.com/polkiloo/usersearch/internal/test"
	"github.com/polkiloo/usersearch/internal/worker"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func startDispatcher(t *testing.T) *worker.Dispatcher {
	t.Helper()
	d := worker.NewDispatcher(testLogger())
	d.Start(context.Background())
	t.Cleanup(d.Stop)
	return d
}

// flush waits until everything posted so far has run.
func flush(t *testing.T, d *worker.Dispatcher) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := d.Sync(ctx, func() {}); err != nil {
		t.Fatalf("dispatcher did not settle: %v", err)
	}
}

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

func newStore(d *worker.Dispatcher) *favorites.Store {
	return favorites.NewStore(context.Background(), testhelpers.NewKeyValueStub(), d, testLogger())
}
