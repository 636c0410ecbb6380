package presence

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisRegistry shares presence across instances. Keys carry a TTL so
// entries from a crashed instance eventually expire even if its disconnect
// handlers never ran.
type RedisRegistry struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	log    *zap.SugaredLogger
}

func NewRedisRegistry(client *redis.Client, prefix string, ttl time.Duration, log *zap.SugaredLogger) *RedisRegistry {
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &RedisRegistry{client: client, prefix: prefix, ttl: ttl, log: log}
}

func (r *RedisRegistry) key(userID string) string { return r.prefix + ":presence:" + userID }

func (r *RedisRegistry) MarkOnline(ctx context.Context, userID, connID string) {
	if userID == "" {
		return
	}
	if err := r.client.Set(ctx, r.key(userID), connID, r.ttl).Err(); err != nil {
		r.log.Warnw("presence mark online", "user", userID, "err", err)
	}
}

func (r *RedisRegistry) MarkOffline(ctx context.Context, userID string) {
	if err := r.client.Del(ctx, r.key(userID)).Err(); err != nil {
		r.log.Warnw("presence mark offline", "user", userID, "err", err)
	}
}

func (r *RedisRegistry) HandleDisconnect(ctx context.Context, connID string) {
	for userID, cid := range r.Snapshot(ctx) {
		if cid == connID {
			r.MarkOffline(ctx, userID)
		}
	}
}

func (r *RedisRegistry) IsOnline(ctx context.Context, userID string) bool {
	_, ok := r.Lookup(ctx, userID)
	return ok
}

func (r *RedisRegistry) Lookup(ctx context.Context, userID string) (string, bool) {
	connID, err := r.client.Get(ctx, r.key(userID)).Result()
	if err != nil {
		if err != redis.Nil {
			r.log.Warnw("presence lookup", "user", userID, "err", err)
		}
		return "", false
	}
	return connID, true
}

func (r *RedisRegistry) Snapshot(ctx context.Context) map[string]string {
	out := make(map[string]string)
	pattern := r.prefix + ":presence:*"
	iter := r.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		connID, err := r.client.Get(ctx, key).Result()
		if err != nil {
			continue
		}
		out[key[len(r.prefix)+len(":presence:"):]] = connID
	}
	if err := iter.Err(); err != nil {
		r.log.Warnw("presence snapshot scan", "err", err)
	}
	return out
}
