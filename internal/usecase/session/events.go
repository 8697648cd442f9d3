package usecase_session

import "github.com/partydeck/core/internal/model"

// Outbound broadcast events. The transport layer fans these out to room
// channels, single clients or the whole cluster.
const (
	EventRoomUpdated   = "room_updated"
	EventGameStarted   = "game_started"
	EventGameOver      = "game_over"
	EventRoomDeleted   = "room_deleted"
	EventNewHostToast  = "new_host_toast"
	EventPlayerLeft    = "player_left"
	EventPlayerKicked  = "player_kicked"
	EventRoomNotFound  = "room_not_found"
	EventTrafficStatus = "traffic_status"
)

type MessagePayload struct {
	Message string `json:"message"`
}

type NewHostPayload struct {
	Name string `json:"name"`
}

type PlayerLeftPayload struct {
	LeavingPlayer model.Player `json:"leavingPlayer"`
	Room          *model.Room  `json:"room"`
	Kicked        bool         `json:"kicked,omitempty"`
}

type KickedPayload struct {
	RoomCode string `json:"roomCode"`
	Message  string `json:"message"`
}

type RoomNotFoundPayload struct {
	RoomCode string `json:"roomCode"`
}
