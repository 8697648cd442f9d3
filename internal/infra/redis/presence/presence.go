// Package infra_redis_presence tracks per-player liveness as short-TTL
// lease keys, decoupled from the Room record. A player is live iff its
// lease exists; the Room's own lastSeen field is advisory only.
package infra_redis_presence

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis"
)

type Manager struct {
	client   *redis.Client
	leaseTTL time.Duration
}

func New(client *redis.Client, leaseTTL time.Duration) *Manager {
	return &Manager{
		client:   client,
		leaseTTL: leaseTTL,
	}
}

func leaseKey(roomCode, playerID string) string {
	return "player:" + roomCode + ":" + playerID
}

// Renew sets or refreshes the lease. Called on create/join/rejoin and on
// every heartbeat; never by the room mutation path.
func (m *Manager) Renew(ctx context.Context, roomCode, playerID string) error {
	value := strconv.FormatInt(time.Now().UnixMilli(), 10)
	if err := m.client.Set(leaseKey(roomCode, playerID), value, m.leaseTTL).Err(); err != nil {
		return fmt.Errorf("renew lease: %w", err)
	}
	return nil
}

// IsLive reports whether the lease exists. A store error is surfaced, not
// mapped to a liveness verdict; callers must treat it as "do not evict".
func (m *Manager) IsLive(ctx context.Context, roomCode, playerID string) (bool, error) {
	n, err := m.client.Exists(leaseKey(roomCode, playerID)).Result()
	if err != nil {
		return false, fmt.Errorf("check lease: %w", err)
	}
	return n == 1, nil
}

// Revoke deletes the lease immediately so liveness reflects an explicit
// disconnect before the TTL would expire.
func (m *Manager) Revoke(ctx context.Context, roomCode, playerID string) error {
	if err := m.client.Del(leaseKey(roomCode, playerID)).Err(); err != nil {
		return fmt.Errorf("revoke lease: %w", err)
	}
	return nil
}
