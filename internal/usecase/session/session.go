// Package usecase_session is the session lifecycle coordinator: it
// translates inbound realtime events into Room Record Store transactions,
// enforcing authorization, admission control and idempotence. All deck and
// turn transitions route through the game package inside a single
// optimistic update, so racing mutations either serialize through retry or
// observably fail, never corrupt a Room.
package usecase_session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/partydeck/core/internal/game"
	"github.com/partydeck/core/internal/model"
	storage_room "github.com/partydeck/core/internal/storage/room"
)

var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrConflict       = errors.New("room is busy, try again")
	ErrUnauthorized   = errors.New("host privileges required")
	ErrNotInRoom      = errors.New("you are no longer in this room")
	ErrPlayerNotFound = errors.New("player not found")
	ErrCannotKickHost = errors.New("cannot kick the host")
	ErrNoPackSelected = errors.New("no question pack selected")
	ErrRateLimited    = errors.New("too many rooms created")
	ErrHighTraffic    = errors.New("room creation temporarily disabled")
	ErrNoFreeCodes    = errors.New("could not generate a room code")
	ErrInternal       = errors.New("internal error")
)

//go:generate mockery --name=RoomStore --output=./mocks --filename=room_store.go
type RoomStore interface {
	CreateRoom(ctx context.Context, room *model.Room) (string, error)
	Load(ctx context.Context, code string) (*model.Room, error)
	Delete(ctx context.Context, code string) error
	Refresh(ctx context.Context, code string) error
	ApplyUpdate(ctx context.Context, code string, fn func(*model.Room) *model.Room) (*model.Room, error)
}

//go:generate mockery --name=PresenceManager --output=./mocks --filename=presence_manager.go
type PresenceManager interface {
	Renew(ctx context.Context, roomCode, playerID string) error
	IsLive(ctx context.Context, roomCode, playerID string) (bool, error)
	Revoke(ctx context.Context, roomCode, playerID string) error
}

//go:generate mockery --name=PackRepository --output=./mocks --filename=pack_repository.go
type PackRepository interface {
	LoadByID(ctx context.Context, id string) (model.Pack, error)
}

//go:generate mockery --name=RateLimiter --output=./mocks --filename=rate_limiter.go
type RateLimiter interface {
	Allow(ctx context.Context, identifier string) model.RateLimitResult
}

//go:generate mockery --name=TrafficGate --output=./mocks --filename=traffic_gate.go
type TrafficGate interface {
	RoomCreationAllowed(ctx context.Context) (allowed bool, message string)
}

// Broadcaster is the fan-out channel abstraction. It is injected, never a
// package global, so coordinator instances stay independently testable and
// cross-process fan-out does not hide behind implicit state.
//
//go:generate mockery --name=Broadcaster --output=./mocks --filename=broadcaster.go
type Broadcaster interface {
	ToRoom(roomCode, event string, payload any)
	ToClient(clientID, event string, payload any)
}

// Transport exposes connection-level operations of the realtime layer:
// channel membership, forced termination and the open-connection signal
// used as the second half of the eviction double gate.
//
//go:generate mockery --name=Transport --output=./mocks --filename=transport.go
type Transport interface {
	JoinRoom(clientID, roomCode string)
	LeaveRoom(clientID, roomCode string)
	Terminate(clientID string)
	IsConnected(clientID string) bool
}

type Usecase struct {
	rooms       RoomStore
	presence    PresenceManager
	packs       PackRepository
	limiter     RateLimiter
	traffic     TrafficGate
	broadcaster Broadcaster
	transport   Transport

	rng    game.Rand
	logger *slog.Logger
}

func New(
	rooms RoomStore,
	presence PresenceManager,
	packs PackRepository,
	limiter RateLimiter,
	traffic TrafficGate,
	broadcaster Broadcaster,
	transport Transport,
) *Usecase {
	return &Usecase{
		rooms:       rooms,
		presence:    presence,
		packs:       packs,
		limiter:     limiter,
		traffic:     traffic,
		broadcaster: broadcaster,
		transport:   transport,
		rng:         game.DefaultRand,
		logger:      slog.Default(),
	}
}

// CreateRoom reserves a fresh code and materializes a room with the
// requester as sole player and host. Admission control runs before any
// store write.
func (u *Usecase) CreateRoom(ctx context.Context, connID, playerName string) (*model.Room, *model.Player, error) {
	if res := u.limiter.Allow(ctx, connID); !res.Allowed {
		retryIn := time.Until(res.ResetAt).Round(time.Second)
		return nil, nil, fmt.Errorf("%w, retry in %s", ErrRateLimited, retryIn)
	}
	if allowed, message := u.traffic.RoomCreationAllowed(ctx); !allowed {
		if message != "" {
			return nil, nil, fmt.Errorf("%w: %s", ErrHighTraffic, message)
		}
		return nil, nil, ErrHighTraffic
	}

	room := &model.Room{
		Players: []model.Player{{
			ID:       connID,
			Name:     playerName,
			IsHost:   true,
			LastSeen: time.Now().UnixMilli(),
		}},
		CustomQuestions:   []model.Question{},
		AnsweredQuestions: []string{},
	}

	code, err := u.rooms.CreateRoom(ctx, room)
	if err != nil {
		if errors.Is(err, storage_room.ErrNoFreeCodes) {
			return nil, nil, ErrNoFreeCodes
		}
		return nil, nil, errors.Join(ErrInternal, err)
	}

	if err := u.presence.Renew(ctx, code, connID); err != nil {
		u.logger.Error("failed to create lease", "error", err, "room", code)
	}
	u.transport.JoinRoom(connID, code)

	return room, &room.Players[0], nil
}

// JoinRoom adds a new non-host player after a liveness-aware read.
func (u *Usecase) JoinRoom(ctx context.Context, connID, roomCode, playerName string) (*model.Room, *model.Player, error) {
	code := strings.ToUpper(roomCode)

	if _, err := u.ReconcileRoom(ctx, code); err != nil {
		return nil, nil, err
	}

	updated, err := u.rooms.ApplyUpdate(ctx, code, func(r *model.Room) *model.Room {
		if p := r.PlayerByID(connID); p != nil {
			// same connection joining twice is a refresh, not a new entry
			p.LastSeen = time.Now().UnixMilli()
			return r
		}
		r.Players = append(r.Players, model.Player{
			ID:       connID,
			Name:     playerName,
			IsHost:   false,
			LastSeen: time.Now().UnixMilli(),
		})
		return r
	})
	if err != nil {
		return nil, nil, u.mapStoreErr(err)
	}
	if updated == nil {
		return nil, nil, ErrRoomNotFound
	}

	if err := u.presence.Renew(ctx, code, connID); err != nil {
		u.logger.Error("failed to create lease", "error", err, "room", code)
	}
	u.transport.JoinRoom(connID, code)
	u.broadcaster.ToRoom(code, EventRoomUpdated, updated)

	return updated, updated.PlayerByID(connID), nil
}

// RejoinRoom rebinds an existing roster entry, matched by name, to a new
// connection id so a transient disconnect does not fragment one logical
// participant into two entries. Unknown names fall back to a plain join.
func (u *Usecase) RejoinRoom(ctx context.Context, connID, roomCode, playerName string) (*model.Room, *model.Player, error) {
	code := strings.ToUpper(roomCode)

	room, err := u.ReconcileRoom(ctx, code)
	if err != nil {
		return nil, nil, err
	}
	if room.PlayerByName(playerName) == nil {
		return u.JoinRoom(ctx, connID, code, playerName)
	}

	var oldID string
	updated, err := u.rooms.ApplyUpdate(ctx, code, func(r *model.Room) *model.Room {
		oldID = ""
		p := r.PlayerByName(playerName)
		if p == nil {
			return nil
		}
		oldID = p.ID
		p.ID = connID
		p.LastSeen = time.Now().UnixMilli()
		return r
	})
	if err != nil {
		return nil, nil, u.mapStoreErr(err)
	}
	if updated == nil {
		// entry vanished between reconcile and update
		return u.JoinRoom(ctx, connID, code, playerName)
	}

	if oldID != "" && oldID != connID {
		if err := u.presence.Revoke(ctx, code, oldID); err != nil {
			u.logger.Error("failed to revoke stale lease", "error", err, "room", code)
		}
	}
	if err := u.presence.Renew(ctx, code, connID); err != nil {
		u.logger.Error("failed to renew lease", "error", err, "room", code)
	}
	u.transport.JoinRoom(connID, code)
	u.broadcaster.ToRoom(code, EventRoomUpdated, updated)

	return updated, updated.PlayerByID(connID), nil
}

// Heartbeat refreshes the player's lease and the room TTL, then
// reconciles and rebroadcasts so clients converge on evictions.
func (u *Usecase) Heartbeat(ctx context.Context, connID, roomCode string) {
	if roomCode == "" {
		return
	}
	code := strings.ToUpper(roomCode)

	if err := u.presence.Renew(ctx, code, connID); err != nil {
		u.logger.Error("heartbeat lease renewal failed", "error", err, "room", code)
		return
	}
	if err := u.rooms.Refresh(ctx, code); err != nil {
		u.logger.Error("heartbeat room refresh failed", "error", err, "room", code)
	}

	room, err := u.ReconcileRoom(ctx, code)
	if err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			u.broadcaster.ToClient(connID, EventRoomNotFound, RoomNotFoundPayload{RoomCode: code})
		}
		return
	}
	u.broadcaster.ToRoom(code, EventRoomUpdated, room)
}

// SelectPack sets the room's question pack. Host only.
func (u *Usecase) SelectPack(ctx context.Context, connID, roomCode, packID string) error {
	code := strings.ToUpper(roomCode)

	var denied error
	updated, err := u.rooms.ApplyUpdate(ctx, code, func(r *model.Room) *model.Room {
		denied = nil
		if !r.IsHostPlayer(connID) {
			denied = ErrUnauthorized
			return nil
		}
		r.SelectedPack = packID
		return r
	})
	if err != nil {
		return u.mapStoreErr(err)
	}
	if denied != nil {
		return denied
	}
	if updated == nil {
		return ErrRoomNotFound
	}

	u.broadcaster.ToRoom(code, EventRoomUpdated, updated)
	return nil
}

// StartGame moves the lobby into play. Host only.
func (u *Usecase) StartGame(ctx context.Context, connID, roomCode string) (*model.Room, error) {
	code := strings.ToUpper(roomCode)

	room, err := u.ReconcileRoom(ctx, code)
	if err != nil {
		return nil, err
	}
	if !room.IsHostPlayer(connID) {
		return nil, ErrUnauthorized
	}
	if room.SelectedPack == "" {
		return nil, ErrNoPackSelected
	}

	pack, err := u.packs.LoadByID(ctx, room.SelectedPack)
	if err != nil {
		return nil, errors.Join(ErrInternal, err)
	}

	var startErr error
	updated, err := u.rooms.ApplyUpdate(ctx, code, func(r *model.Room) *model.Room {
		startErr = nil
		if !r.IsHostPlayer(connID) {
			startErr = ErrUnauthorized
			return nil
		}
		if r.SelectedPack != pack.ID {
			// pack changed underneath us, let the caller retry
			startErr = ErrConflict
			return nil
		}
		if err := game.Start(r, pack, u.rng); err != nil {
			startErr = err
			return nil
		}
		return r
	})
	if err != nil {
		return nil, u.mapStoreErr(err)
	}
	if startErr != nil {
		return nil, startErr
	}
	if updated == nil {
		return nil, ErrRoomNotFound
	}

	u.broadcaster.ToRoom(code, EventGameStarted, updated)
	u.broadcaster.ToRoom(code, EventRoomUpdated, updated)
	return updated, nil
}

// FlipCard reveals the current question. Idempotent.
func (u *Usecase) FlipCard(ctx context.Context, connID, roomCode string) error {
	code := strings.ToUpper(roomCode)

	if !u.isMember(ctx, code, connID) {
		return ErrNotInRoom
	}

	updated, err := u.rooms.ApplyUpdate(ctx, code, func(r *model.Room) *model.Room {
		game.Reveal(r)
		return r
	})
	if err != nil {
		return u.mapStoreErr(err)
	}
	if updated == nil {
		return ErrRoomNotFound
	}

	u.broadcaster.ToRoom(code, EventRoomUpdated, updated)
	return nil
}

// NextQuestion advances the deck and the turn. A concurrent advance on the
// same room is rejected by the transition guard, not queued.
func (u *Usecase) NextQuestion(ctx context.Context, connID, roomCode string) error {
	code := strings.ToUpper(roomCode)

	room, err := u.ReconcileRoom(ctx, code)
	if err != nil {
		return err
	}

	var pack model.Pack
	if room.SelectedPack != "" {
		pack, err = u.packs.LoadByID(ctx, room.SelectedPack)
		if err != nil {
			return errors.Join(ErrInternal, err)
		}
	}

	var advErr error
	updated, err := u.rooms.ApplyUpdate(ctx, code, func(r *model.Room) *model.Room {
		advErr = nil
		if err := game.Advance(r, pack, u.rng); err != nil {
			advErr = err
			return nil
		}
		return r
	})
	if err != nil {
		return u.mapStoreErr(err)
	}
	if advErr != nil {
		return advErr
	}
	if updated == nil {
		return ErrRoomNotFound
	}

	if updated.IsFinished {
		u.broadcaster.ToRoom(code, EventGameOver, MessagePayload{Message: "No more questions! Game complete!"})
	}
	u.broadcaster.ToRoom(code, EventRoomUpdated, updated)
	return nil
}

// AddCustomQuestion appends a room-scoped question to the pool.
func (u *Usecase) AddCustomQuestion(ctx context.Context, connID, roomCode, text string) error {
	code := strings.ToUpper(roomCode)

	updated, err := u.rooms.ApplyUpdate(ctx, code, func(r *model.Room) *model.Room {
		r.CustomQuestions = append(r.CustomQuestions, model.Question{
			ID:   uuid.NewString(),
			Text: text,
		})
		return r
	})
	if err != nil {
		return u.mapStoreErr(err)
	}
	if updated == nil {
		return ErrRoomNotFound
	}

	u.broadcaster.ToRoom(code, EventRoomUpdated, updated)
	return nil
}

func (u *Usecase) RemoveCustomQuestion(ctx context.Context, connID, roomCode, questionID string) error {
	code := strings.ToUpper(roomCode)

	updated, err := u.rooms.ApplyUpdate(ctx, code, func(r *model.Room) *model.Room {
		kept := r.CustomQuestions[:0:0]
		for _, q := range r.CustomQuestions {
			if q.ID != questionID {
				kept = append(kept, q)
			}
		}
		r.CustomQuestions = kept
		return r
	})
	if err != nil {
		return u.mapStoreErr(err)
	}
	if updated == nil {
		return ErrRoomNotFound
	}

	u.broadcaster.ToRoom(code, EventRoomUpdated, updated)
	return nil
}

// KickPlayer removes a player on the host's request. The target's
// connection is evicted and notified before the store mutation completes
// so the removal is immediately visible to them.
func (u *Usecase) KickPlayer(ctx context.Context, connID, roomCode, targetID string) error {
	code := strings.ToUpper(roomCode)

	room, err := u.rooms.Load(ctx, code)
	if err != nil {
		return u.mapStoreErr(err)
	}
	requester := room.PlayerByID(connID)
	if requester == nil {
		return ErrNotInRoom
	}
	if !requester.IsHost {
		return ErrUnauthorized
	}
	target := room.PlayerByID(targetID)
	if target == nil {
		return ErrPlayerNotFound
	}
	if target.IsHost {
		return ErrCannotKickHost
	}

	u.broadcaster.ToClient(targetID, EventPlayerKicked, KickedPayload{
		RoomCode: code,
		Message:  "You have been kicked from the room by the host",
	})
	u.transport.LeaveRoom(targetID, code)
	u.transport.Terminate(targetID)

	if err := u.presence.Revoke(ctx, code, targetID); err != nil {
		u.logger.Error("failed to revoke lease of kicked player", "error", err, "room", code)
	}

	var kicked model.Player
	updated, err := u.rooms.ApplyUpdate(ctx, code, func(r *model.Room) *model.Room {
		kicked = model.Player{}
		idx := r.PlayerIndex(targetID)
		if idx < 0 {
			return nil
		}
		kicked = r.Players[idx]
		game.RemovePlayer(r, idx)
		if len(r.Players) == 0 {
			return nil
		}
		return r
	})
	if err != nil {
		return u.mapStoreErr(err)
	}
	if updated == nil {
		if kicked.ID == "" {
			// lost a race with the player's own departure
			return ErrPlayerNotFound
		}
		return u.destroyRoom(ctx, code)
	}

	u.broadcaster.ToRoom(code, EventPlayerLeft, PlayerLeftPayload{
		LeavingPlayer: kicked,
		Room:          updated,
		Kicked:        true,
	})
	u.broadcaster.ToRoom(code, EventRoomUpdated, updated)
	return nil
}

// Disconnect handles a transport-originated departure: the lease is
// revoked immediately so liveness reflects reality before TTL expiry, the
// roster shrinks, host authority is reassigned if lost and the room is
// destroyed once empty.
func (u *Usecase) Disconnect(ctx context.Context, connID, roomCode string) {
	if roomCode == "" {
		return
	}
	code := strings.ToUpper(roomCode)

	if err := u.presence.Revoke(ctx, code, connID); err != nil {
		u.logger.Error("failed to revoke lease on disconnect", "error", err, "room", code)
	}

	var leaving model.Player
	var promotedName string
	updated, err := u.rooms.ApplyUpdate(ctx, code, func(r *model.Room) *model.Room {
		leaving, promotedName = model.Player{}, ""
		idx := r.PlayerIndex(connID)
		if idx < 0 {
			return nil
		}
		leaving = r.Players[idx]
		game.RemovePlayer(r, idx)
		if len(r.Players) == 0 {
			return nil
		}
		if p := game.PromoteHost(r); p != nil {
			promotedName = p.Name
		}
		return r
	})
	if err != nil {
		if !errors.Is(err, ErrRoomNotFound) && !errors.Is(err, storage_room.ErrRoomNotFound) {
			u.logger.Error("disconnect update failed", "error", err, "room", code)
		}
		return
	}
	if updated == nil {
		if leaving.ID == "" {
			return
		}
		if err := u.destroyRoom(ctx, code); err != nil {
			u.logger.Error("failed to destroy empty room", "error", err, "room", code)
		}
		u.broadcaster.ToRoom(code, EventRoomDeleted, MessagePayload{Message: "Room has been closed"})
		return
	}

	if promotedName != "" {
		u.broadcaster.ToRoom(code, EventNewHostToast, NewHostPayload{Name: promotedName})
	}
	u.broadcaster.ToRoom(code, EventPlayerLeft, PlayerLeftPayload{LeavingPlayer: leaving, Room: updated})
	u.broadcaster.ToRoom(code, EventRoomUpdated, updated)
}

// CheckMembership lets a client poll whether it still belongs to a room,
// typically after waking from device sleep.
func (u *Usecase) CheckMembership(ctx context.Context, connID, roomCode string) (*model.Room, bool) {
	code := strings.ToUpper(roomCode)

	room, err := u.rooms.Load(ctx, code)
	if err != nil {
		return nil, false
	}
	if room.PlayerByID(connID) == nil {
		return nil, false
	}
	live, err := u.presence.IsLive(ctx, code, connID)
	if err != nil {
		// store ambiguity resolves to live; see the presence policy
		return room, true
	}
	return room, live
}

// ReconcileRoom is the liveness-aware read: it loads the room, evicts
// roster entries whose lease expired and whose connection the transport no
// longer reports open (the double gate), reassigns host authority and
// repairs the turn index, destroying the room if it drained. Sweeps and
// interactive handlers share this path.
func (u *Usecase) ReconcileRoom(ctx context.Context, roomCode string) (*model.Room, error) {
	code := strings.ToUpper(roomCode)

	room, err := u.rooms.Load(ctx, code)
	if err != nil {
		return nil, u.mapStoreErr(err)
	}

	stale := make(map[string]bool)
	for _, p := range room.Players {
		live, err := u.presence.IsLive(ctx, code, p.ID)
		if err != nil {
			// ambiguous store state never evicts a player
			u.logger.Error("lease check failed, keeping player", "error", err, "room", code, "player", p.ID)
			continue
		}
		if live {
			continue
		}
		if u.transport != nil && u.transport.IsConnected(p.ID) {
			// lease lapsed but the connection is open: slow heartbeat, not
			// a departure
			continue
		}
		stale[p.ID] = true
	}
	if len(stale) == 0 {
		return room, nil
	}

	updated, err := u.rooms.ApplyUpdate(ctx, code, func(r *model.Room) *model.Room {
		var removed []int
		for i, p := range r.Players {
			if stale[p.ID] {
				removed = append(removed, i)
			}
		}
		// remove back to front so earlier indexes stay valid
		sort.Sort(sort.Reverse(sort.IntSlice(removed)))
		for _, idx := range removed {
			game.RemovePlayer(r, idx)
		}
		if len(r.Players) == 0 {
			return nil
		}
		game.PromoteHost(r)
		return r
	})
	if err != nil {
		return nil, u.mapStoreErr(err)
	}
	if updated == nil {
		if err := u.destroyRoom(ctx, code); err != nil {
			u.logger.Error("failed to destroy drained room", "error", err, "room", code)
		}
		return nil, ErrRoomNotFound
	}
	return updated, nil
}

func (u *Usecase) isMember(ctx context.Context, code, connID string) bool {
	room, err := u.rooms.Load(ctx, code)
	if err != nil {
		return false
	}
	return room.PlayerByID(connID) != nil
}

func (u *Usecase) destroyRoom(ctx context.Context, code string) error {
	if err := u.rooms.Delete(ctx, code); err != nil {
		return errors.Join(ErrInternal, err)
	}
	return nil
}

func (u *Usecase) mapStoreErr(err error) error {
	switch {
	case errors.Is(err, storage_room.ErrRoomNotFound):
		return ErrRoomNotFound
	case errors.Is(err, storage_room.ErrTooManyConflicts):
		return ErrConflict
	default:
		return errors.Join(ErrInternal, err)
	}
}
