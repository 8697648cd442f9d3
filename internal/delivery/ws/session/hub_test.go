package ws_session

import (
	"log/slog"
	"testing"

	"github.com/ozontech/allure-go/pkg/framework/provider"
	"github.com/ozontech/allure-go/pkg/framework/suite"
	"github.com/stretchr/testify/assert"
)

type HubSuite struct {
	suite.Suite
}

func newTestClient(hub *Hub, id string) *Client {
	return &Client{
		hub:    hub,
		send:   make(chan Event, 8),
		logger: slog.Default(),
		id:     id,
	}
}

func (s *HubSuite) TestRoomFanOut(t provider.T) {
	t.Parallel()

	hub := NewHub()
	a := newTestClient(hub, "conn-a")
	b := newTestClient(hub, "conn-b")
	c := newTestClient(hub, "conn-c")
	hub.handleRegister(a)
	hub.handleRegister(b)
	hub.handleRegister(c)

	hub.JoinRoom("conn-a", "ABC234")
	hub.JoinRoom("conn-b", "ABC234")
	hub.JoinRoom("conn-c", "XYZ789")

	hub.ToRoom("ABC234", "room_updated", "payload")

	assert.Len(t, a.send, 1)
	assert.Len(t, b.send, 1)
	assert.Len(t, c.send, 0)

	got := <-a.send
	assert.Equal(t, "room_updated", got.Type)
}

func (s *HubSuite) TestToClientTargetsOneConnection(t provider.T) {
	t.Parallel()

	hub := NewHub()
	a := newTestClient(hub, "conn-a")
	b := newTestClient(hub, "conn-b")
	hub.handleRegister(a)
	hub.handleRegister(b)

	hub.ToClient("conn-a", "player_kicked", nil)

	assert.Len(t, a.send, 1)
	assert.Len(t, b.send, 0)
}

func (s *HubSuite) TestLeaveRoomStopsDelivery(t provider.T) {
	t.Parallel()

	hub := NewHub()
	a := newTestClient(hub, "conn-a")
	hub.handleRegister(a)
	hub.JoinRoom("conn-a", "ABC234")

	hub.LeaveRoom("conn-a", "ABC234")
	hub.ToRoom("ABC234", "room_updated", nil)

	assert.Len(t, a.send, 0)
	assert.True(t, hub.IsConnected("conn-a"))
}

func (s *HubSuite) TestUnregisterClearsMembership(t provider.T) {
	t.Parallel()

	hub := NewHub()
	a := newTestClient(hub, "conn-a")
	hub.handleRegister(a)
	hub.JoinRoom("conn-a", "ABC234")
	assert.Equal(t, 1, hub.ConnectionCount())

	hub.handleUnregister(a)

	assert.False(t, hub.IsConnected("conn-a"))
	assert.Equal(t, 0, hub.ConnectionCount())
	hub.ToRoom("ABC234", "room_updated", nil)
}

func (s *HubSuite) TestToAll(t provider.T) {
	t.Parallel()

	hub := NewHub()
	a := newTestClient(hub, "conn-a")
	b := newTestClient(hub, "conn-b")
	hub.handleRegister(a)
	hub.handleRegister(b)

	hub.ToAll("traffic_status", nil)

	assert.Len(t, a.send, 1)
	assert.Len(t, b.send, 1)
}

func TestHubSuite(t *testing.T) {
	suite.RunSuite(t, new(HubSuite))
}
