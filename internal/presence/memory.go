package presence

import (
	"context"
	"sync"
)

// MemoryRegistry is the single-instance backend: a process-local map with no
// persistence, reset to empty on restart.
type MemoryRegistry struct {
	mu      sync.RWMutex
	entries map[string]string // userID -> connID
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{entries: make(map[string]string)}
}

func (r *MemoryRegistry) MarkOnline(_ context.Context, userID, connID string) {
	if userID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[userID] = connID
}

func (r *MemoryRegistry) MarkOffline(_ context.Context, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, userID)
}

func (r *MemoryRegistry) HandleDisconnect(_ context.Context, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for uid, cid := range r.entries {
		if cid == connID {
			delete(r.entries, uid)
		}
	}
}

func (r *MemoryRegistry) IsOnline(ctx context.Context, userID string) bool {
	_, ok := r.Lookup(ctx, userID)
	return ok
}

func (r *MemoryRegistry) Lookup(_ context.Context, userID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	connID, ok := r.entries[userID]
	return connID, ok
}

func (r *MemoryRegistry) Snapshot(_ context.Context) map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.entries))
	for uid, cid := range r.entries {
		out[uid] = cid
	}
	return out
}
