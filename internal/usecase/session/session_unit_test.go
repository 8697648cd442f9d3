package usecase_session

import (
	"context"
	"testing"
	"time"

	"github.com/ozontech/allure-go/pkg/framework/provider"
	"github.com/ozontech/allure-go/pkg/framework/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/partydeck/core/internal/model"
	storage_room "github.com/partydeck/core/internal/storage/room"
	"github.com/partydeck/core/internal/usecase/session/mocks"
)

type SessionUnitSuite struct {
	suite.Suite
}

type resources struct {
	usecase     *Usecase
	rooms       *mocks.RoomStore
	presence    *mocks.PresenceManager
	packs       *mocks.PackRepository
	limiter     *mocks.RateLimiter
	traffic     *mocks.TrafficGate
	broadcaster *mocks.Broadcaster
	transport   *mocks.Transport
	ctx         context.Context
}

func initResources(t provider.T) *resources {
	rooms := mocks.NewRoomStore(t)
	presence := mocks.NewPresenceManager(t)
	packs := mocks.NewPackRepository(t)
	limiter := mocks.NewRateLimiter(t)
	traffic := mocks.NewTrafficGate(t)
	broadcaster := mocks.NewBroadcaster(t)
	transport := mocks.NewTransport(t)

	return &resources{
		usecase:     New(rooms, presence, packs, limiter, traffic, broadcaster, transport),
		rooms:       rooms,
		presence:    presence,
		packs:       packs,
		limiter:     limiter,
		traffic:     traffic,
		broadcaster: broadcaster,
		transport:   transport,
		ctx:         context.Background(),
	}
}

func allowed() model.RateLimitResult {
	return model.RateLimitResult{Allowed: true, Remaining: 9}
}

func lobbyRoom() *model.Room {
	return &model.Room{
		Code: "ABC234",
		Players: []model.Player{
			{ID: "host-conn", Name: "Ann", IsHost: true},
			{ID: "guest-conn", Name: "Bob"},
		},
	}
}

// applyOn makes the ApplyUpdate mock execute the handed closure against
// room, mirroring what the real store does inside its transaction.
func applyOn(room *model.Room) func(context.Context, string, func(*model.Room) *model.Room) (*model.Room, error) {
	return func(_ context.Context, _ string, fn func(*model.Room) *model.Room) (*model.Room, error) {
		return fn(room), nil
	}
}

func (suite *SessionUnitSuite) TestCreateRoom(t provider.T) {
	t.Parallel()

	t.Run("Should create room with requester as host", func(t provider.T) {
		t.Parallel()
		r := initResources(t)

		r.limiter.On("Allow", r.ctx, "conn-1").Return(allowed()).Once()
		r.traffic.On("RoomCreationAllowed", r.ctx).Return(true, "").Once()
		r.rooms.On("CreateRoom", r.ctx, mock.AnythingOfType("*model.Room")).
			Return(func(_ context.Context, room *model.Room) (string, error) {
				room.Code = "ABC234"
				return "ABC234", nil
			}).Once()
		r.presence.On("Renew", r.ctx, "ABC234", "conn-1").Return(nil).Once()
		r.transport.On("JoinRoom", "conn-1", "ABC234").Once()

		room, player, err := r.usecase.CreateRoom(r.ctx, "conn-1", "Ann")

		assert.NoError(t, err)
		assert.Equal(t, "ABC234", room.Code)
		assert.Len(t, room.Players, 1)
		assert.True(t, player.IsHost)
		assert.Equal(t, "Ann", player.Name)
	})

	t.Run("Should reject when rate limited", func(t provider.T) {
		t.Parallel()
		r := initResources(t)

		r.limiter.On("Allow", r.ctx, "conn-1").Return(model.RateLimitResult{
			Allowed: false,
			ResetAt: time.Now().Add(30 * time.Second),
		}).Once()

		_, _, err := r.usecase.CreateRoom(r.ctx, "conn-1", "Ann")

		assert.ErrorIs(t, err, ErrRateLimited)
	})

	t.Run("Should reject when traffic gate denies", func(t provider.T) {
		t.Parallel()
		r := initResources(t)

		r.limiter.On("Allow", r.ctx, "conn-1").Return(allowed()).Once()
		r.traffic.On("RoomCreationAllowed", r.ctx).Return(false, "Server is at capacity").Once()

		_, _, err := r.usecase.CreateRoom(r.ctx, "conn-1", "Ann")

		assert.ErrorIs(t, err, ErrHighTraffic)
	})

	t.Run("Should surface code exhaustion", func(t provider.T) {
		t.Parallel()
		r := initResources(t)

		r.limiter.On("Allow", r.ctx, "conn-1").Return(allowed()).Once()
		r.traffic.On("RoomCreationAllowed", r.ctx).Return(true, "").Once()
		r.rooms.On("CreateRoom", r.ctx, mock.AnythingOfType("*model.Room")).
			Return("", storage_room.ErrNoFreeCodes).Once()

		_, _, err := r.usecase.CreateRoom(r.ctx, "conn-1", "Ann")

		assert.ErrorIs(t, err, ErrNoFreeCodes)
	})
}

func (suite *SessionUnitSuite) TestSelectPack(t provider.T) {
	t.Parallel()

	t.Run("Should set the pack when the host asks", func(t provider.T) {
		t.Parallel()
		r := initResources(t)
		room := lobbyRoom()

		r.rooms.On("ApplyUpdate", r.ctx, "ABC234", mock.AnythingOfType("func(*model.Room) *model.Room")).
			Return(applyOn(room)).Once()
		r.broadcaster.On("ToRoom", "ABC234", EventRoomUpdated, mock.Anything).Once()

		err := r.usecase.SelectPack(r.ctx, "host-conn", "abc234", "pack-7")

		assert.NoError(t, err)
		assert.Equal(t, "pack-7", room.SelectedPack)
	})

	t.Run("Should refuse a non-host", func(t provider.T) {
		t.Parallel()
		r := initResources(t)
		room := lobbyRoom()

		r.rooms.On("ApplyUpdate", r.ctx, "ABC234", mock.AnythingOfType("func(*model.Room) *model.Room")).
			Return(applyOn(room)).Once()

		err := r.usecase.SelectPack(r.ctx, "guest-conn", "ABC234", "pack-7")

		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.Empty(t, room.SelectedPack)
	})
}

func (suite *SessionUnitSuite) TestKickPlayer(t provider.T) {
	t.Parallel()

	t.Run("Should refuse a non-host requester", func(t provider.T) {
		t.Parallel()
		r := initResources(t)

		r.rooms.On("Load", r.ctx, "ABC234").Return(lobbyRoom(), nil).Once()

		err := r.usecase.KickPlayer(r.ctx, "guest-conn", "ABC234", "host-conn")

		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("Should refuse to kick the host", func(t provider.T) {
		t.Parallel()
		r := initResources(t)

		r.rooms.On("Load", r.ctx, "ABC234").Return(lobbyRoom(), nil).Once()

		err := r.usecase.KickPlayer(r.ctx, "host-conn", "ABC234", "host-conn")

		assert.ErrorIs(t, err, ErrCannotKickHost)
	})

	t.Run("Should notify and evict the target before mutating the roster", func(t provider.T) {
		t.Parallel()
		r := initResources(t)
		room := lobbyRoom()

		r.rooms.On("Load", r.ctx, "ABC234").Return(room, nil).Once()
		r.broadcaster.On("ToClient", "guest-conn", EventPlayerKicked, mock.Anything).Once()
		r.transport.On("LeaveRoom", "guest-conn", "ABC234").Once()
		r.transport.On("Terminate", "guest-conn").Once()
		r.presence.On("Revoke", r.ctx, "ABC234", "guest-conn").Return(nil).Once()
		r.rooms.On("ApplyUpdate", r.ctx, "ABC234", mock.AnythingOfType("func(*model.Room) *model.Room")).
			Return(applyOn(room)).Once()
		r.broadcaster.On("ToRoom", "ABC234", EventPlayerLeft, mock.Anything).Once()
		r.broadcaster.On("ToRoom", "ABC234", EventRoomUpdated, mock.Anything).Once()

		err := r.usecase.KickPlayer(r.ctx, "host-conn", "ABC234", "guest-conn")

		assert.NoError(t, err)
		assert.Len(t, room.Players, 1)
		assert.Equal(t, "host-conn", room.Players[0].ID)
	})

	t.Run("Should report a target that already left", func(t provider.T) {
		t.Parallel()
		r := initResources(t)

		r.rooms.On("Load", r.ctx, "ABC234").Return(lobbyRoom(), nil).Once()

		err := r.usecase.KickPlayer(r.ctx, "host-conn", "ABC234", "ghost-conn")

		assert.ErrorIs(t, err, ErrPlayerNotFound)
	})
}

func (suite *SessionUnitSuite) TestDisconnect(t provider.T) {
	t.Parallel()

	t.Run("Should promote a new host when the host leaves", func(t provider.T) {
		t.Parallel()
		r := initResources(t)
		room := lobbyRoom()

		r.presence.On("Revoke", r.ctx, "ABC234", "host-conn").Return(nil).Once()
		r.rooms.On("ApplyUpdate", r.ctx, "ABC234", mock.AnythingOfType("func(*model.Room) *model.Room")).
			Return(applyOn(room)).Once()
		r.broadcaster.On("ToRoom", "ABC234", EventNewHostToast, NewHostPayload{Name: "Bob"}).Once()
		r.broadcaster.On("ToRoom", "ABC234", EventPlayerLeft, mock.Anything).Once()
		r.broadcaster.On("ToRoom", "ABC234", EventRoomUpdated, mock.Anything).Once()

		r.usecase.Disconnect(r.ctx, "host-conn", "ABC234")

		assert.Len(t, room.Players, 1)
		assert.True(t, room.Players[0].IsHost)
		assert.Equal(t, "Bob", room.Players[0].Name)
	})

	t.Run("Should destroy the room when the last player leaves", func(t provider.T) {
		t.Parallel()
		r := initResources(t)
		room := &model.Room{
			Code:    "ABC234",
			Players: []model.Player{{ID: "host-conn", Name: "Ann", IsHost: true}},
		}

		r.presence.On("Revoke", r.ctx, "ABC234", "host-conn").Return(nil).Once()
		r.rooms.On("ApplyUpdate", r.ctx, "ABC234", mock.AnythingOfType("func(*model.Room) *model.Room")).
			Return(applyOn(room)).Once()
		r.rooms.On("Delete", r.ctx, "ABC234").Return(nil).Once()
		r.broadcaster.On("ToRoom", "ABC234", EventRoomDeleted, mock.Anything).Once()

		r.usecase.Disconnect(r.ctx, "host-conn", "ABC234")
	})

	t.Run("Should ignore a connection that is not on the roster", func(t provider.T) {
		t.Parallel()
		r := initResources(t)
		room := lobbyRoom()

		r.presence.On("Revoke", r.ctx, "ABC234", "stranger").Return(nil).Once()
		r.rooms.On("ApplyUpdate", r.ctx, "ABC234", mock.AnythingOfType("func(*model.Room) *model.Room")).
			Return(applyOn(room)).Once()

		r.usecase.Disconnect(r.ctx, "stranger", "ABC234")

		assert.Len(t, room.Players, 2)
	})
}

func (suite *SessionUnitSuite) TestRejoinRoom(t provider.T) {
	t.Parallel()

	t.Run("Should rebind the roster entry to the new connection", func(t provider.T) {
		t.Parallel()
		r := initResources(t)
		room := lobbyRoom()

		r.rooms.On("Load", r.ctx, "ABC234").Return(room, nil).Once()
		r.presence.On("IsLive", r.ctx, "ABC234", "host-conn").Return(true, nil).Once()
		r.presence.On("IsLive", r.ctx, "ABC234", "guest-conn").Return(true, nil).Once()
		r.rooms.On("ApplyUpdate", r.ctx, "ABC234", mock.AnythingOfType("func(*model.Room) *model.Room")).
			Return(applyOn(room)).Once()
		r.presence.On("Revoke", r.ctx, "ABC234", "guest-conn").Return(nil).Once()
		r.presence.On("Renew", r.ctx, "ABC234", "fresh-conn").Return(nil).Once()
		r.transport.On("JoinRoom", "fresh-conn", "ABC234").Once()
		r.broadcaster.On("ToRoom", "ABC234", EventRoomUpdated, mock.Anything).Once()

		updated, player, err := r.usecase.RejoinRoom(r.ctx, "fresh-conn", "ABC234", "Bob")

		assert.NoError(t, err)
		assert.Len(t, updated.Players, 2)
		assert.Equal(t, "fresh-conn", player.ID)
		assert.Equal(t, "Bob", player.Name)
		assert.Nil(t, updated.PlayerByID("guest-conn"))
	})
}

func (suite *SessionUnitSuite) TestReconcileRoom(t provider.T) {
	t.Parallel()

	t.Run("Should keep players whose lease check errored", func(t provider.T) {
		t.Parallel()
		r := initResources(t)
		room := lobbyRoom()

		r.rooms.On("Load", r.ctx, "ABC234").Return(room, nil).Once()
		r.presence.On("IsLive", r.ctx, "ABC234", "host-conn").Return(true, nil).Once()
		r.presence.On("IsLive", r.ctx, "ABC234", "guest-conn").Return(false, assert.AnError).Once()

		got, err := r.usecase.ReconcileRoom(r.ctx, "ABC234")

		assert.NoError(t, err)
		assert.Len(t, got.Players, 2)
	})

	t.Run("Should keep a lapsed lease whose connection is still open", func(t provider.T) {
		t.Parallel()
		r := initResources(t)
		room := lobbyRoom()

		r.rooms.On("Load", r.ctx, "ABC234").Return(room, nil).Once()
		r.presence.On("IsLive", r.ctx, "ABC234", "host-conn").Return(true, nil).Once()
		r.presence.On("IsLive", r.ctx, "ABC234", "guest-conn").Return(false, nil).Once()
		r.transport.On("IsConnected", "guest-conn").Return(true).Once()

		got, err := r.usecase.ReconcileRoom(r.ctx, "ABC234")

		assert.NoError(t, err)
		assert.Len(t, got.Players, 2)
	})

	t.Run("Should evict an expired player and promote a surviving host", func(t provider.T) {
		t.Parallel()
		r := initResources(t)
		room := lobbyRoom()
		room.Players[0].IsHost = false
		room.Players[1].IsHost = true

		r.rooms.On("Load", r.ctx, "ABC234").Return(room, nil).Once()
		r.presence.On("IsLive", r.ctx, "ABC234", "host-conn").Return(true, nil).Once()
		r.presence.On("IsLive", r.ctx, "ABC234", "guest-conn").Return(false, nil).Once()
		r.transport.On("IsConnected", "guest-conn").Return(false).Once()
		r.rooms.On("ApplyUpdate", r.ctx, "ABC234", mock.AnythingOfType("func(*model.Room) *model.Room")).
			Return(applyOn(room)).Once()

		got, err := r.usecase.ReconcileRoom(r.ctx, "ABC234")

		assert.NoError(t, err)
		assert.Len(t, got.Players, 1)
		assert.Equal(t, "host-conn", got.Players[0].ID)
		assert.True(t, got.Players[0].IsHost)
	})

	t.Run("Should destroy a room that drained completely", func(t provider.T) {
		t.Parallel()
		r := initResources(t)
		room := &model.Room{
			Code:    "ABC234",
			Players: []model.Player{{ID: "host-conn", Name: "Ann", IsHost: true}},
		}

		r.rooms.On("Load", r.ctx, "ABC234").Return(room, nil).Once()
		r.presence.On("IsLive", r.ctx, "ABC234", "host-conn").Return(false, nil).Once()
		r.transport.On("IsConnected", "host-conn").Return(false).Once()
		r.rooms.On("ApplyUpdate", r.ctx, "ABC234", mock.AnythingOfType("func(*model.Room) *model.Room")).
			Return(applyOn(room)).Once()
		r.rooms.On("Delete", r.ctx, "ABC234").Return(nil).Once()

		_, err := r.usecase.ReconcileRoom(r.ctx, "ABC234")

		assert.ErrorIs(t, err, ErrRoomNotFound)
	})
}

func (suite *SessionUnitSuite) TestCheckMembership(t provider.T) {
	t.Parallel()

	t.Run("Should treat an ambiguous lease check as live", func(t provider.T) {
		t.Parallel()
		r := initResources(t)

		r.rooms.On("Load", r.ctx, "ABC234").Return(lobbyRoom(), nil).Once()
		r.presence.On("IsLive", r.ctx, "ABC234", "guest-conn").Return(false, assert.AnError).Once()

		room, isMember := r.usecase.CheckMembership(r.ctx, "guest-conn", "ABC234")

		assert.True(t, isMember)
		assert.NotNil(t, room)
	})

	t.Run("Should deny a connection missing from the roster", func(t provider.T) {
		t.Parallel()
		r := initResources(t)

		r.rooms.On("Load", r.ctx, "ABC234").Return(lobbyRoom(), nil).Once()

		_, isMember := r.usecase.CheckMembership(r.ctx, "stranger", "ABC234")

		assert.False(t, isMember)
	})
}

func TestSessionUnitSuite(t *testing.T) {
	suite.RunSuite(t, new(SessionUnitSuite))
}
