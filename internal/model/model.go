package model

import "time"

// Player is one roster entry of a room. ID is the opaque connection
// identifier of the player's current transport connection and is rebound
// on reconnect, never duplicated.
type Player struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsHost   bool   `json:"isHost"`
	LastSeen int64  `json:"lastSeen"`
}

// Question is a single card, either from a pack or room-scoped custom.
type Question struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Pack is a named, read-only question set.
type Pack struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Questions   []Question `json:"questions"`
}

// Room is the shared state of one game session. It is stored as a single
// blob so every mutation goes through one optimistic transaction.
type Room struct {
	Code               string     `json:"code"`
	Players            []Player   `json:"players"`
	SelectedPack       string     `json:"selectedPack,omitempty"`
	CustomQuestions    []Question `json:"customQuestions"`
	IsStarted          bool       `json:"isStarted"`
	IsFlipped          bool       `json:"isFlipped"`
	IsTransitioning    bool       `json:"isTransitioning"`
	IsFinished         bool       `json:"isFinished"`
	CurrentPlayerIndex int        `json:"currentPlayerIndex"`
	CurrentQuestion    string     `json:"currentQuestion,omitempty"`
	AnsweredQuestions  []string   `json:"answeredQuestions"`
	TotalQuestions     int        `json:"totalQuestions"`
}

// PlayerIndex returns the roster position of the player with the given
// connection id, or -1.
func (r *Room) PlayerIndex(id string) int {
	for i, p := range r.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// PlayerByID returns the roster entry with the given connection id.
func (r *Room) PlayerByID(id string) *Player {
	if i := r.PlayerIndex(id); i >= 0 {
		return &r.Players[i]
	}
	return nil
}

// PlayerByName returns the roster entry with the given display name.
// Used by rejoin to match a reconnecting client to its old entry.
func (r *Room) PlayerByName(name string) *Player {
	for i, p := range r.Players {
		if p.Name == name {
			return &r.Players[i]
		}
	}
	return nil
}

// IsHostPlayer reports whether the given connection id holds the host role.
func (r *Room) IsHostPlayer(id string) bool {
	p := r.PlayerByID(id)
	return p != nil && p.IsHost
}

type TrafficLevel string

const (
	TrafficNormal   TrafficLevel = "normal"
	TrafficHigh     TrafficLevel = "high"
	TrafficCritical TrafficLevel = "critical"
)

// TrafficStatus is the traffic monitor snapshot broadcast to clients and
// mirrored on the HTTP surface.
type TrafficStatus struct {
	Level               TrafficLevel `json:"level"`
	ActiveRooms         int          `json:"activeRooms"`
	ActiveConnections   int          `json:"activeConnections"`
	RoomCreationEnabled bool         `json:"roomCreationEnabled"`
	Message             string       `json:"message,omitempty"`
	Timestamp           int64        `json:"timestamp"`
}

// RateLimitResult is the verdict of a fixed-window rate limit check.
type RateLimitResult struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}
