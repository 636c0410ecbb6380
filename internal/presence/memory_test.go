package presence

import (
	"context"
	"testing"
)

func TestMarkOnlineLastWriterWins(t *testing.T) {
	r := NewMemoryRegistry()
	ctx := context.Background()

	r.MarkOnline(ctx, "u1", "c1")
	r.MarkOnline(ctx, "u1", "c2")

	snap := r.Snapshot(ctx)
	if len(snap) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(snap))
	}
	if connID, _ := r.Lookup(ctx, "u1"); connID != "c2" {
		t.Fatalf("expected c2, got %q", connID)
	}
}

func TestMarkOfflineUnknownUserIsNoop(t *testing.T) {
	r := NewMemoryRegistry()
	ctx := context.Background()

	r.MarkOnline(ctx, "u1", "c1")
	r.MarkOffline(ctx, "never-online")

	if len(r.Snapshot(ctx)) != 1 {
		t.Fatalf("registry size changed on no-op offline")
	}
	if !r.IsOnline(ctx, "u1") {
		t.Fatalf("u1 should still be online")
	}
}

func TestMarkOfflineIdempotent(t *testing.T) {
	r := NewMemoryRegistry()
	ctx := context.Background()

	r.MarkOnline(ctx, "u1", "c1")
	r.MarkOffline(ctx, "u1")
	r.MarkOffline(ctx, "u1")

	if r.IsOnline(ctx, "u1") {
		t.Fatalf("u1 should be offline")
	}
}

func TestHandleDisconnectOnlyMatchingConn(t *testing.T) {
	r := NewMemoryRegistry()
	ctx := context.Background()

	r.MarkOnline(ctx, "u1", "c1")
	r.MarkOnline(ctx, "u2", "c2")
	r.MarkOnline(ctx, "u3", "c3")

	r.HandleDisconnect(ctx, "c2")

	if r.IsOnline(ctx, "u2") {
		t.Fatalf("u2 should be removed")
	}
	if !r.IsOnline(ctx, "u1") || !r.IsOnline(ctx, "u3") {
		t.Fatalf("other users must be untouched")
	}
}

func TestHandleDisconnectUnknownConn(t *testing.T) {
	r := NewMemoryRegistry()
	ctx := context.Background()

	r.MarkOnline(ctx, "u1", "c1")
	r.HandleDisconnect(ctx, "ghost")

	if !r.IsOnline(ctx, "u1") {
		t.Fatalf("unrelated entry removed")
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	r := NewMemoryRegistry()
	ctx := context.Background()

	r.MarkOnline(ctx, "u1", "c1")
	snap := r.Snapshot(ctx)
	snap["u1"] = "tampered"
	delete(snap, "u1")

	if connID, _ := r.Lookup(ctx, "u1"); connID != "c1" {
		t.Fatalf("snapshot mutation leaked into registry")
	}
}

func TestMarkOnlineEmptyUserIgnored(t *testing.T) {
	r := NewMemoryRegistry()
	ctx := context.Background()

	r.MarkOnline(ctx, "", "c1")
	if len(r.Snapshot(ctx)) != 0 {
		t.Fatalf("empty user id must not be registered")
	}
}
