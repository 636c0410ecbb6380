// Package presence tracks which users currently have a reachable realtime
// connection.
package presence

import "context"

// Registry maps a user id to its active connection id. At most one
// connection per user: a second connection for the same user overwrites the
// first (last writer wins), leaving the older one connected but unreachable
// for unicast delivery until it re-announces.
//
// Operations never fail and are idempotent. Implementations backed by
// external stores degrade to best effort and log their own errors.
type Registry interface {
	MarkOnline(ctx context.Context, userID, connID string)
	MarkOffline(ctx context.Context, userID string)

	// HandleDisconnect removes every entry whose connection id equals connID.
	// At most one entry matches under correct operation, but the scan
	// tolerates more; disconnect is not latency-critical.
	HandleDisconnect(ctx context.Context, connID string)

	IsOnline(ctx context.Context, userID string) bool
	Lookup(ctx context.Context, userID string) (connID string, ok bool)

	// Snapshot returns a copy of the full mapping, used for presence
	// broadcasts and initial sync of late joiners.
	Snapshot(ctx context.Context) map[string]string
}
