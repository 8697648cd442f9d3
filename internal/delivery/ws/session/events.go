package ws_session

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/partydeck/core/internal/model"
)

// Inbound event types. Every client request arrives as an Envelope whose
// Type selects the handler and whose Payload decodes into the matching
// struct below.
const (
	EventCreateRoom           = "create_room"
	EventJoinRoom             = "join_room"
	EventRejoinRoom           = "rejoin_room"
	EventHeartbeat            = "heartbeat"
	EventSelectPack           = "select_pack"
	EventStartGame            = "start_game"
	EventFlipCard             = "flip_card"
	EventNextQuestion         = "next_question"
	EventAddCustomQuestion    = "add_custom_question"
	EventRemoveCustomQuestion = "remove_custom_question"
	EventKickPlayer           = "kick_player"
	EventCheckMembership      = "check_membership"
)

// EventError is sent back when a request cannot even be dispatched:
// unparseable envelope or an unknown event type.
const EventError = "error"

const (
	maxNameLen = 32
	codeLen    = 6
)

var (
	ErrMissingName     = errors.New("player name is required")
	ErrNameTooLong     = errors.New("player name is too long")
	ErrInvalidRoomCode = errors.New("invalid room code")
)

type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrMissingName
	}
	if len(name) > maxNameLen {
		return "", ErrNameTooLong
	}
	return name, nil
}

func validateCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != codeLen {
		return "", ErrInvalidRoomCode
	}
	return code, nil
}

type CreateRoomPayload struct {
	PlayerName string `json:"playerName"`
}

func (p *CreateRoomPayload) Validate() error {
	name, err := validateName(p.PlayerName)
	if err != nil {
		return err
	}
	p.PlayerName = name
	return nil
}

type JoinRoomPayload struct {
	RoomCode   string `json:"roomCode"`
	PlayerName string `json:"playerName"`
}

func (p *JoinRoomPayload) Validate() error {
	code, err := validateCode(p.RoomCode)
	if err != nil {
		return err
	}
	name, err := validateName(p.PlayerName)
	if err != nil {
		return err
	}
	p.RoomCode, p.PlayerName = code, name
	return nil
}

type RoomPayload struct {
	RoomCode string `json:"roomCode"`
}

func (p *RoomPayload) Validate() error {
	code, err := validateCode(p.RoomCode)
	if err != nil {
		return err
	}
	p.RoomCode = code
	return nil
}

type SelectPackPayload struct {
	RoomCode string `json:"roomCode"`
	PackID   string `json:"packId"`
}

func (p *SelectPackPayload) Validate() error {
	code, err := validateCode(p.RoomCode)
	if err != nil {
		return err
	}
	if strings.TrimSpace(p.PackID) == "" {
		return errors.New("pack id is required")
	}
	p.RoomCode = code
	return nil
}

type CustomQuestionPayload struct {
	RoomCode string `json:"roomCode"`
	Text     string `json:"text"`
}

func (p *CustomQuestionPayload) Validate() error {
	code, err := validateCode(p.RoomCode)
	if err != nil {
		return err
	}
	if strings.TrimSpace(p.Text) == "" {
		return errors.New("question text is required")
	}
	p.RoomCode = code
	return nil
}

type RemoveQuestionPayload struct {
	RoomCode   string `json:"roomCode"`
	QuestionID string `json:"questionId"`
}

func (p *RemoveQuestionPayload) Validate() error {
	code, err := validateCode(p.RoomCode)
	if err != nil {
		return err
	}
	if p.QuestionID == "" {
		return errors.New("question id is required")
	}
	p.RoomCode = code
	return nil
}

type KickPlayerPayload struct {
	RoomCode string `json:"roomCode"`
	PlayerID string `json:"playerId"`
}

func (p *KickPlayerPayload) Validate() error {
	code, err := validateCode(p.RoomCode)
	if err != nil {
		return err
	}
	if p.PlayerID == "" {
		return errors.New("player id is required")
	}
	p.RoomCode = code
	return nil
}

// ResultPayload acknowledges a request. Every inbound event except
// heartbeat gets one back on "<event>_result".
type ResultPayload struct {
	Success     bool          `json:"success"`
	Room        *model.Room   `json:"room,omitempty"`
	Player      *model.Player `json:"player,omitempty"`
	Message     string        `json:"message,omitempty"`
	HighTraffic bool          `json:"highTraffic,omitempty"`
}

type MembershipResultPayload struct {
	IsMember bool        `json:"isMember"`
	Room     *model.Room `json:"room,omitempty"`
}
