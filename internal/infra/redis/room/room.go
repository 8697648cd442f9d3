// Package infra_redis_room stores one Room blob per code with a TTL tied
// to room activity and an optimistic read-modify-commit primitive on top
// of WATCH/MULTI.
package infra_redis_room

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/go-redis/redis"
	"github.com/partydeck/core/internal/model"
	storage_room "github.com/partydeck/core/internal/storage/room"
)

// returned from inside the Watch closure to stop retrying
var errAborted = errors.New("update aborted")

const (
	keyPrefix          = "room:"
	reservedPlacehoder = "PENDING"
	maxUpdateAttempts  = 10
)

type Store struct {
	client     *redis.Client
	roomTTL    time.Duration
	reserveTTL time.Duration
}

func New(client *redis.Client, roomTTL, reserveTTL time.Duration) *Store {
	return &Store{
		client:     client,
		roomTTL:    roomTTL,
		reserveTTL: reserveTTL,
	}
}

func roomKey(code string) string {
	return keyPrefix + code
}

// Reserve claims a room code with a short-lived placeholder so concurrent
// creations cannot collide. The caller overwrites it via Create.
func (s *Store) Reserve(ctx context.Context, code string) error {
	ok, err := s.client.SetNX(roomKey(code), reservedPlacehoder, s.reserveTTL).Result()
	if err != nil {
		return fmt.Errorf("reserve room code: %w", err)
	}
	if !ok {
		return storage_room.ErrCodeTaken
	}
	return nil
}

// Create materializes the Room under a previously reserved code.
func (s *Store) Create(ctx context.Context, code string, room *model.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("marshal room: %w", err)
	}
	if err := s.client.Set(roomKey(code), data, s.roomTTL).Err(); err != nil {
		return fmt.Errorf("store room: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, code string) (*model.Room, error) {
	data, err := s.client.Get(roomKey(code)).Result()
	if err == redis.Nil {
		return nil, storage_room.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load room: %w", err)
	}
	if data == reservedPlacehoder {
		// reservation not yet materialized
		return nil, storage_room.ErrRoomNotFound
	}

	var room model.Room
	if err := json.Unmarshal([]byte(data), &room); err != nil {
		return nil, fmt.Errorf("decode room: %w", err)
	}
	return &room, nil
}

func (s *Store) Delete(ctx context.Context, code string) error {
	if err := s.client.Del(roomKey(code)).Err(); err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	return nil
}

// Refresh extends the room TTL without touching its content. Used by
// heartbeats so active rooms never expire mid-session.
func (s *Store) Refresh(ctx context.Context, code string) error {
	if err := s.client.Expire(roomKey(code), s.roomTTL).Err(); err != nil {
		return fmt.Errorf("refresh room ttl: %w", err)
	}
	return nil
}

// ApplyUpdate runs fn against the current Room inside a WATCH transaction
// and commits the result only if no other writer touched the key in
// between. A lost race is retried with jittered backoff, bounded at
// maxUpdateAttempts. fn returning nil aborts without writing and
// ApplyUpdate returns (nil, nil); the caller carries its own precondition
// error out of the closure. Missing rooms never invoke fn. Every commit
// refreshes the room TTL.
func (s *Store) ApplyUpdate(ctx context.Context, code string, fn func(*model.Room) *model.Room) (*model.Room, error) {
	key := roomKey(code)

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		var updated *model.Room

		err := s.client.Watch(func(tx *redis.Tx) error {
			data, err := tx.Get(key).Result()
			if err == redis.Nil {
				return storage_room.ErrRoomNotFound
			}
			if err != nil {
				return err
			}
			if data == reservedPlacehoder {
				return storage_room.ErrRoomNotFound
			}

			var room model.Room
			if err := json.Unmarshal([]byte(data), &room); err != nil {
				return fmt.Errorf("decode room: %w", err)
			}

			modified := fn(&room)
			if modified == nil {
				return errAborted
			}

			payload, err := json.Marshal(modified)
			if err != nil {
				return fmt.Errorf("marshal room: %w", err)
			}

			_, err = tx.Pipelined(func(pipe redis.Pipeliner) error {
				pipe.Set(key, payload, 0)
				pipe.Expire(key, s.roomTTL)
				return nil
			})
			if err == nil {
				updated = modified
			}
			return err
		}, key)

		switch {
		case err == nil:
			return updated, nil
		case err == redis.TxFailedErr:
			time.Sleep(time.Duration(5+rand.Intn(20)) * time.Millisecond)
		case errors.Is(err, errAborted):
			return nil, nil
		case errors.Is(err, storage_room.ErrRoomNotFound):
			return nil, storage_room.ErrRoomNotFound
		default:
			return nil, fmt.Errorf("update room: %w", err)
		}
	}

	return nil, storage_room.ErrTooManyConflicts
}

// ScanCodes walks room keys incrementally with a bounded batch size so
// sweeps never block the store with a full keyspace scan.
func (s *Store) ScanCodes(ctx context.Context, cursor uint64, count int64) ([]string, uint64, error) {
	keys, next, err := s.client.Scan(cursor, keyPrefix+"*", count).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("scan rooms: %w", err)
	}

	codes := make([]string, 0, len(keys))
	for _, k := range keys {
		codes = append(codes, strings.TrimPrefix(k, keyPrefix))
	}
	return codes, next, nil
}
