// Package service_sweeper runs the two background reclamation loops: a
// full reconciliation that evicts players with expired leases, and a
// lighter pass that only deletes rooms whose roster already drained. Both
// ride the same optimistic-update primitive as interactive handlers, so
// losing a race with live traffic is just a no-op.
package service_sweeper

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/partydeck/core/internal/model"
	usecase_session "github.com/partydeck/core/internal/usecase/session"
)

// Store is the slice of the room store the sweeps need.
type Store interface {
	ScanCodes(ctx context.Context, cursor uint64, count int64) ([]string, uint64, error)
	Load(ctx context.Context, code string) (*model.Room, error)
	Delete(ctx context.Context, code string) error
}

// Reconciler is the shared liveness-aware read; the session coordinator
// provides it so sweeps and handlers evict with identical rules.
type Reconciler interface {
	ReconcileRoom(ctx context.Context, code string) (*model.Room, error)
}

type Broadcaster interface {
	ToRoom(roomCode, event string, payload any)
}

type Sweeper struct {
	store       Store
	reconciler  Reconciler
	broadcaster Broadcaster
	logger      *slog.Logger

	fullInterval    time.Duration
	reclaimInterval time.Duration
	batchSize       int64
}

func New(store Store, reconciler Reconciler, broadcaster Broadcaster, fullInterval, reclaimInterval time.Duration, batchSize int64) *Sweeper {
	return &Sweeper{
		store:           store,
		reconciler:      reconciler,
		broadcaster:     broadcaster,
		logger:          slog.Default(),
		fullInterval:    fullInterval,
		reclaimInterval: reclaimInterval,
		batchSize:       batchSize,
	}
}

// Run blocks until ctx is cancelled, interleaving both sweep cadences.
func (s *Sweeper) Run(ctx context.Context) {
	full := time.NewTicker(s.fullInterval)
	reclaim := time.NewTicker(s.reclaimInterval)
	defer full.Stop()
	defer reclaim.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-full.C:
			s.fullSweep(ctx)
		case <-reclaim.C:
			s.reclaimSweep(ctx)
		}
	}
}

// fullSweep reconciles every room in bounded batches and rebroadcasts the
// surviving state so clients converge on sweep evictions.
func (s *Sweeper) fullSweep(ctx context.Context) {
	var cursor uint64
	for {
		codes, next, err := s.store.ScanCodes(ctx, cursor, s.batchSize)
		if err != nil {
			s.logger.Error("full sweep scan failed", "error", err)
			return
		}

		for _, code := range codes {
			room, err := s.reconciler.ReconcileRoom(ctx, code)
			if err != nil {
				if !errors.Is(err, usecase_session.ErrRoomNotFound) {
					s.logger.Error("sweep reconcile failed", "error", err, "room", code)
				}
				continue
			}
			s.broadcaster.ToRoom(code, usecase_session.EventRoomUpdated, room)
		}

		cursor = next
		if cursor == 0 {
			return
		}
	}
}

// reclaimSweep only deletes rooms that are already empty, bounding memory
// independent of the full reconciliation cost.
func (s *Sweeper) reclaimSweep(ctx context.Context) {
	var cursor uint64
	for {
		codes, next, err := s.store.ScanCodes(ctx, cursor, s.batchSize)
		if err != nil {
			s.logger.Error("reclaim sweep scan failed", "error", err)
			return
		}

		for _, code := range codes {
			room, err := s.store.Load(ctx, code)
			if err != nil {
				continue
			}
			if len(room.Players) > 0 {
				continue
			}
			if err := s.store.Delete(ctx, code); err != nil {
				s.logger.Error("failed to reclaim empty room", "error", err, "room", code)
				continue
			}
			s.logger.Info("reclaimed empty room", "room", code)
		}

		cursor = next
		if cursor == 0 {
			return
		}
	}
}
