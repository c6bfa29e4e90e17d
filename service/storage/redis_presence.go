package storage

import (
	"context"
	"time"

	redisc "PulseChat/service/storage/redis"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// PresenceStore mirrors live-connection state into Redis so that other
// processes (admin tools, the CRUD surface) can read online status without
// touching the in-memory registry. Best effort: the registry stays the source
// of truth and mirror failures are never fatal.
type PresenceStore struct {
	nodeID string
	ttl    time.Duration
}

func NewPresenceStore(nodeID string, ttl time.Duration) *PresenceStore {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &PresenceStore{nodeID: nodeID, ttl: ttl}
}

// presence key: chat:presence:<user>
// value: node id; the TTL bounds staleness after a crash
func presenceKey(user string) string { return "chat:presence:" + user }

// Online marks the user online and renews the TTL.
func (p *PresenceStore) Online(ctx context.Context, user string) error {
	return redisc.GetRedis().Set(ctx, presenceKey(user), p.nodeID, p.ttl).Err()
}

// Offline removes the user's presence key.
func (p *PresenceStore) Offline(ctx context.Context, user string) error {
	return redisc.GetRedis().Del(ctx, presenceKey(user)).Err()
}

// Lookup reports whether the user is marked online and on which node.
func (p *PresenceStore) Lookup(ctx context.Context, user string) (nodeID string, online bool, err error) {
	val, err := redisc.GetRedis().Get(ctx, presenceKey(user)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}
