package ws_session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"github.com/partydeck/core/internal/model"
	usecase_session "github.com/partydeck/core/internal/usecase/session"
)

const (
	writeWait = 10 * time.Second

	// pongWait stays below the presence lease TTL so a dead socket is
	// noticed before the lease expires.
	pongWait   = 12 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 8192
)

type Client struct {
	hub      *Hub
	sessions *usecase_session.Usecase
	conn     *websocket.Conn
	send     chan Event
	logger   *slog.Logger

	id string

	// roomCode is the channel this connection joined; only the read pump
	// goroutine touches it.
	roomCode string
}

func (c *Client) readPump() {
	defer func() {
		if c.roomCode != "" {
			c.sessions.Disconnect(context.Background(), c.id, c.roomCode)
		}
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("unexpected close", "client_id", c.id, "error", err)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.logger.Warn("malformed envelope", "client_id", c.id, "error", err)
			c.hub.ToClient(c.id, EventError, map[string]string{"message": "malformed message"})
			continue
		}
		c.dispatch(env)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) dispatch(env Envelope) {
	ctx := context.Background()

	switch env.Type {
	case EventCreateRoom:
		var p CreateRoomPayload
		if !c.decode(env, &p) {
			return
		}
		room, player, err := c.sessions.CreateRoom(ctx, c.id, p.PlayerName)
		if err == nil {
			c.roomCode = room.Code
		}
		c.ack(env.Type, room, player, err)

	case EventJoinRoom:
		var p JoinRoomPayload
		if !c.decode(env, &p) {
			return
		}
		room, player, err := c.sessions.JoinRoom(ctx, c.id, p.RoomCode, p.PlayerName)
		if err == nil {
			c.roomCode = room.Code
		}
		c.ack(env.Type, room, player, err)

	case EventRejoinRoom:
		var p JoinRoomPayload
		if !c.decode(env, &p) {
			return
		}
		room, player, err := c.sessions.RejoinRoom(ctx, c.id, p.RoomCode, p.PlayerName)
		if err == nil {
			c.roomCode = room.Code
		}
		c.ack(env.Type, room, player, err)

	case EventHeartbeat:
		var p RoomPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil || p.Validate() != nil {
			return
		}
		c.sessions.Heartbeat(ctx, c.id, p.RoomCode)

	case EventSelectPack:
		var p SelectPackPayload
		if !c.decode(env, &p) {
			return
		}
		c.ack(env.Type, nil, nil, c.sessions.SelectPack(ctx, c.id, p.RoomCode, p.PackID))

	case EventStartGame:
		var p RoomPayload
		if !c.decode(env, &p) {
			return
		}
		room, err := c.sessions.StartGame(ctx, c.id, p.RoomCode)
		c.ack(env.Type, room, nil, err)

	case EventFlipCard:
		var p RoomPayload
		if !c.decode(env, &p) {
			return
		}
		c.ack(env.Type, nil, nil, c.sessions.FlipCard(ctx, c.id, p.RoomCode))

	case EventNextQuestion:
		var p RoomPayload
		if !c.decode(env, &p) {
			return
		}
		c.ack(env.Type, nil, nil, c.sessions.NextQuestion(ctx, c.id, p.RoomCode))

	case EventAddCustomQuestion:
		var p CustomQuestionPayload
		if !c.decode(env, &p) {
			return
		}
		c.ack(env.Type, nil, nil, c.sessions.AddCustomQuestion(ctx, c.id, p.RoomCode, p.Text))

	case EventRemoveCustomQuestion:
		var p RemoveQuestionPayload
		if !c.decode(env, &p) {
			return
		}
		c.ack(env.Type, nil, nil, c.sessions.RemoveCustomQuestion(ctx, c.id, p.RoomCode, p.QuestionID))

	case EventKickPlayer:
		var p KickPlayerPayload
		if !c.decode(env, &p) {
			return
		}
		c.ack(env.Type, nil, nil, c.sessions.KickPlayer(ctx, c.id, p.RoomCode, p.PlayerID))

	case EventCheckMembership:
		var p RoomPayload
		if !c.decode(env, &p) {
			return
		}
		room, isMember := c.sessions.CheckMembership(ctx, c.id, p.RoomCode)
		if isMember {
			c.roomCode = p.RoomCode
		}
		c.hub.ToClient(c.id, env.Type+"_result", MembershipResultPayload{
			IsMember: isMember,
			Room:     room,
		})

	default:
		c.logger.Warn("unknown event type", "client_id", c.id, "type", env.Type)
		c.hub.ToClient(c.id, EventError, map[string]string{"message": "unknown event type: " + env.Type})
	}
}

type validator interface {
	Validate() error
}

// decode unmarshals and validates the payload, acking the failure itself
// so handlers only see well-formed requests.
func (c *Client) decode(env Envelope, payload validator) bool {
	if err := json.Unmarshal(env.Payload, payload); err != nil {
		c.ackError(env.Type, "malformed payload", false)
		return false
	}
	if err := payload.Validate(); err != nil {
		c.ackError(env.Type, err.Error(), false)
		return false
	}
	return true
}

func (c *Client) ack(event string, room *model.Room, player *model.Player, err error) {
	if err != nil {
		msg, highTraffic := describeError(err)
		c.ackError(event, msg, highTraffic)
		return
	}
	c.hub.ToClient(c.id, event+"_result", ResultPayload{
		Success: true,
		Room:    room,
		Player:  player,
	})
}

func (c *Client) ackError(event, message string, highTraffic bool) {
	c.hub.ToClient(c.id, event+"_result", ResultPayload{
		Success:     false,
		Message:     message,
		HighTraffic: highTraffic,
	})
}

// describeError maps coordinator errors onto client-facing messages. The
// second return marks capacity rejections so clients can back off.
func describeError(err error) (string, bool) {
	switch {
	case errors.Is(err, usecase_session.ErrRoomNotFound):
		return "Room not found", false
	case errors.Is(err, usecase_session.ErrRateLimited):
		return "Too many requests. Please slow down.", true
	case errors.Is(err, usecase_session.ErrHighTraffic):
		return "Server is busy. Please try again shortly.", true
	case errors.Is(err, usecase_session.ErrNoFreeCodes):
		return "No room codes available right now. Please try again.", true
	case errors.Is(err, usecase_session.ErrUnauthorized):
		return "Only the host can do that", false
	case errors.Is(err, usecase_session.ErrNotInRoom):
		return "You are not in this room", false
	case errors.Is(err, usecase_session.ErrPlayerNotFound):
		return "Player not found", false
	case errors.Is(err, usecase_session.ErrCannotKickHost):
		return "The host cannot be kicked", false
	case errors.Is(err, usecase_session.ErrNoPackSelected):
		return "Select a question pack first", false
	case errors.Is(err, usecase_session.ErrConflict):
		return "Room is busy, please retry", false
	default:
		return "Something went wrong. Please try again.", false
	}
}
