package ws_session

import (
	"log/slog"
	"sync"
)

type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Hub indexes live connections by id and by room channel. Registration
// flows through channels on the Run loop; fan-out and channel membership
// are called synchronously from the coordinator under the lock.
type Hub struct {
	logger     *slog.Logger
	clients    map[string]*Client
	rooms      map[string]map[string]*Client
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		logger:     slog.Default(),
		clients:    make(map[string]*Client),
		rooms:      make(map[string]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.handleRegister(client)

		case client := <-h.unregister:
			h.handleUnregister(client)
		}
	}
}

func (h *Hub) handleRegister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.id] = client

	h.logger.Info("client registered", "client_id", client.id)
}

func (h *Hub) handleUnregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.id]; !ok {
		return
	}
	delete(h.clients, client.id)
	close(client.send)

	for code, members := range h.rooms {
		if _, ok := members[client.id]; ok {
			delete(members, client.id)
			if len(members) == 0 {
				delete(h.rooms, code)
			}
		}
	}

	h.logger.Info("client unregistered", "client_id", client.id)
}

func (h *Hub) send(client *Client, event Event) {
	select {
	case client.send <- event:
	default:
		// slow consumer, drop the connection
		close(client.send)
		delete(h.clients, client.id)
		for _, members := range h.rooms {
			delete(members, client.id)
		}
	}
}

func (h *Hub) ToRoom(roomCode, event string, payload any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.rooms[roomCode] {
		h.send(client, Event{Type: event, Payload: payload})
	}
}

func (h *Hub) ToClient(clientID, event string, payload any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client, ok := h.clients[clientID]; ok {
		h.send(client, Event{Type: event, Payload: payload})
	}
}

func (h *Hub) ToAll(event string, payload any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		h.send(client, Event{Type: event, Payload: payload})
	}
}

func (h *Hub) JoinRoom(clientID, roomCode string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[clientID]
	if !ok {
		return
	}
	if _, exists := h.rooms[roomCode]; !exists {
		h.rooms[roomCode] = make(map[string]*Client)
	}
	h.rooms[roomCode][clientID] = client
}

func (h *Hub) LeaveRoom(clientID, roomCode string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members, ok := h.rooms[roomCode]; ok {
		delete(members, clientID)
		if len(members) == 0 {
			delete(h.rooms, roomCode)
		}
	}
}

// Terminate force-closes the underlying connection; the read pump then
// drives the normal unregister path.
func (h *Hub) Terminate(clientID string) {
	h.mu.RLock()
	client, ok := h.clients[clientID]
	h.mu.RUnlock()

	if ok {
		client.conn.Close()
	}
}

func (h *Hub) IsConnected(clientID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, ok := h.clients[clientID]
	return ok
}

func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}
