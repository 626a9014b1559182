package sqlite

import (
	"context"
	"testing"

	"tabletally/internal/match"
)

func TestSaverCoalescesPendingSnapshots(t *testing.T) {
	sv := NewSaver(openTestStore(t))
	sv.Enqueue(match.Snapshot{Version: 1})
	sv.Enqueue(match.Snapshot{Version: 2})
	sv.Enqueue(match.Snapshot{Version: 3})

	select {
	case snap := <-sv.ch:
		if snap.Version != 3 {
			t.Fatalf("expected only the newest pending snapshot, got version %d", snap.Version)
		}
	default:
		t.Fatalf("expected a pending snapshot")
	}
	select {
	case snap := <-sv.ch:
		t.Fatalf("expected older snapshots to be coalesced away, got version %d", snap.Version)
	default:
	}
}

func TestSaverFlushesPendingOnShutdown(t *testing.T) {
	store := openTestStore(t)
	sv := NewSaver(store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sv.Enqueue(match.Snapshot{Version: 9, Phase: string(match.PhaseGameOver)})
	sv.Run(ctx)

	loaded, ok := store.Load()
	if !ok {
		t.Fatalf("expected the pending snapshot to be flushed before Run returns")
	}
	if loaded.Version != 9 {
		t.Fatalf("expected version 9, got %d", loaded.Version)
	}
}
