// Package storage_room is the Room Record Store: TTL-bounded storage of
// one Room per code with a conflict-safe update primitive and atomic code
// reservation. The backing layout (single blob vs. split fields) is a
// private concern of the Repository implementation; callers only ever see
// whole, consistent Rooms.
package storage_room

import (
	"context"
	"errors"
	"math/rand"
	"strings"

	"github.com/partydeck/core/internal/model"
)

var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrCodeTaken        = errors.New("room code already reserved")
	ErrTooManyConflicts = errors.New("room update retries exhausted")
	ErrNoFreeCodes      = errors.New("could not reserve a unique room code")
)

// Repository is the store-side contract. Implementations must return
// ErrRoomNotFound for missing rooms and ErrCodeTaken for reservation
// collisions, must never invoke an ApplyUpdate fn for a missing room, and
// must refresh the room TTL on every successful commit.
//
//go:generate mockery --name=Repository --output=./mocks/repository --filename=repository.go
type Repository interface {
	Reserve(ctx context.Context, code string) error
	Create(ctx context.Context, code string, room *model.Room) error
	Load(ctx context.Context, code string) (*model.Room, error)
	Delete(ctx context.Context, code string) error
	Refresh(ctx context.Context, code string) error
	ApplyUpdate(ctx context.Context, code string, fn func(*model.Room) *model.Room) (*model.Room, error)
	ScanCodes(ctx context.Context, cursor uint64, count int64) ([]string, uint64, error)
}

type Storage struct {
	repo        Repository
	maxAttempts int
}

func New(repo Repository) *Storage {
	return &Storage{
		repo:        repo,
		maxAttempts: 5,
	}
}

// CreateRoom claims a fresh code via atomic create-if-absent and
// materializes the room under it. Collisions are retried a bounded number
// of times; two concurrent creations can never share a code.
func (s *Storage) CreateRoom(ctx context.Context, room *model.Room) (string, error) {
	for attempts := 0; attempts < s.maxAttempts; attempts++ {
		code := buildRoomCode()
		if err := s.repo.Reserve(ctx, code); err != nil {
			if errors.Is(err, ErrCodeTaken) {
				continue
			}
			return "", err
		}

		room.Code = code
		if err := s.repo.Create(ctx, code, room); err != nil {
			return "", err
		}
		return code, nil
	}
	return "", ErrNoFreeCodes
}

const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

func buildRoomCode() string {
	const codeLen = 6
	var builder strings.Builder
	builder.Grow(codeLen)

	for i := 0; i < codeLen; i++ {
		builder.WriteByte(codeAlphabet[rand.Intn(len(codeAlphabet))])
	}

	return builder.String()
}

func (s *Storage) Load(ctx context.Context, code string) (*model.Room, error) {
	return s.repo.Load(ctx, code)
}

func (s *Storage) Delete(ctx context.Context, code string) error {
	return s.repo.Delete(ctx, code)
}

func (s *Storage) Refresh(ctx context.Context, code string) error {
	return s.repo.Refresh(ctx, code)
}

func (s *Storage) ApplyUpdate(ctx context.Context, code string, fn func(*model.Room) *model.Room) (*model.Room, error) {
	return s.repo.ApplyUpdate(ctx, code, fn)
}

func (s *Storage) ScanCodes(ctx context.Context, cursor uint64, count int64) ([]string, uint64, error) {
	return s.repo.ScanCodes(ctx, cursor, count)
}
