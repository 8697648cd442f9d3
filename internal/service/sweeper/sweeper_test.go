package service_sweeper

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ozontech/allure-go/pkg/framework/provider"
	"github.com/ozontech/allure-go/pkg/framework/suite"
	"github.com/stretchr/testify/assert"

	"github.com/partydeck/core/internal/model"
	usecase_session "github.com/partydeck/core/internal/usecase/session"
)

type fakeStore struct {
	mu      sync.Mutex
	rooms   map[string]*model.Room
	deleted []string
}

func (s *fakeStore) ScanCodes(_ context.Context, cursor uint64, _ int64) ([]string, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cursor != 0 {
		return nil, 0, nil
	}
	codes := make([]string, 0, len(s.rooms))
	for code := range s.rooms {
		codes = append(codes, code)
	}
	return codes, 0, nil
}

func (s *fakeStore) Load(_ context.Context, code string) (*model.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[code]
	if !ok {
		return nil, assert.AnError
	}
	return room, nil
}

func (s *fakeStore) Delete(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.rooms, code)
	s.deleted = append(s.deleted, code)
	return nil
}

type fakeReconciler struct {
	mu    sync.Mutex
	seen  []string
	rooms map[string]*model.Room
}

func (r *fakeReconciler) ReconcileRoom(_ context.Context, code string) (*model.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seen = append(r.seen, code)
	room, ok := r.rooms[code]
	if !ok {
		return nil, usecase_session.ErrRoomNotFound
	}
	return room, nil
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	events int
}

func (b *fakeBroadcaster) ToRoom(_, _ string, _ any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events++
}

type SweeperSuite struct {
	suite.Suite
}

func (s *SweeperSuite) TestReclaimSweepDeletesOnlyEmptyRooms(t provider.T) {
	t.Parallel()

	store := &fakeStore{rooms: map[string]*model.Room{
		"EMPTY1": {Code: "EMPTY1"},
		"LIVELY": {Code: "LIVELY", Players: []model.Player{{ID: "a"}}},
	}}
	sw := New(store, &fakeReconciler{}, &fakeBroadcaster{}, time.Minute, time.Minute, 100)

	sw.reclaimSweep(context.Background())

	assert.Equal(t, []string{"EMPTY1"}, store.deleted)
	assert.Contains(t, store.rooms, "LIVELY")
}

func (s *SweeperSuite) TestFullSweepReconcilesAndRebroadcasts(t provider.T) {
	t.Parallel()

	room := &model.Room{Code: "ABC234", Players: []model.Player{{ID: "a"}}}
	store := &fakeStore{rooms: map[string]*model.Room{
		"ABC234": room,
		"GONE99": {Code: "GONE99"},
	}}
	rec := &fakeReconciler{rooms: map[string]*model.Room{"ABC234": room}}
	bcast := &fakeBroadcaster{}
	sw := New(store, rec, bcast, time.Minute, time.Minute, 100)

	sw.fullSweep(context.Background())

	assert.Len(t, rec.seen, 2)
	// only the surviving room is rebroadcast
	assert.Equal(t, 1, bcast.events)
}

func (s *SweeperSuite) TestRunStopsOnContextCancel(t provider.T) {
	t.Parallel()

	store := &fakeStore{rooms: map[string]*model.Room{}}
	sw := New(store, &fakeReconciler{}, &fakeBroadcaster{}, 5*time.Millisecond, 5*time.Millisecond, 100)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sw.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop on cancel")
	}
}

func TestSweeperSuite(t *testing.T) {
	suite.RunSuite(t, new(SweeperSuite))
}
