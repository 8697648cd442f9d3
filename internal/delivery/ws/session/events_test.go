package ws_session

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/ozontech/allure-go/pkg/framework/provider"
	"github.com/ozontech/allure-go/pkg/framework/suite"
	"github.com/stretchr/testify/assert"
)

type EventsSuite struct {
	suite.Suite
}

func (s *EventsSuite) TestEnvelopeDecode(t provider.T) {
	t.Parallel()

	raw := `{"type":"join_room","payload":{"roomCode":"abc234","playerName":"  Ann "}}`

	var env Envelope
	assert.NoError(t, json.Unmarshal([]byte(raw), &env))
	assert.Equal(t, EventJoinRoom, env.Type)

	var p JoinRoomPayload
	assert.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.NoError(t, p.Validate())
	assert.Equal(t, "ABC234", p.RoomCode)
	assert.Equal(t, "Ann", p.PlayerName)
}

func (s *EventsSuite) TestValidation(t provider.T) {
	t.Parallel()

	testCases := []struct {
		name          string
		payload       interface{ Validate() error }
		expectedError error
	}{
		{
			name:          "Should reject empty player name",
			payload:       &CreateRoomPayload{PlayerName: "   "},
			expectedError: ErrMissingName,
		},
		{
			name:          "Should reject oversized player name",
			payload:       &CreateRoomPayload{PlayerName: strings.Repeat("x", maxNameLen+1)},
			expectedError: ErrNameTooLong,
		},
		{
			name:          "Should reject short room code",
			payload:       &RoomPayload{RoomCode: "AB1"},
			expectedError: ErrInvalidRoomCode,
		},
		{
			name:    "Should accept lowercase room code",
			payload: &RoomPayload{RoomCode: "abc234"},
		},
		{
			name:          "Should reject kick without target",
			payload:       &KickPlayerPayload{RoomCode: "ABC234"},
			expectedError: nil,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t provider.T) {
			t.Parallel()

			err := tc.payload.Validate()

			switch {
			case tc.expectedError != nil:
				assert.ErrorIs(t, err, tc.expectedError)
			case strings.HasPrefix(tc.name, "Should reject"):
				assert.Error(t, err)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func (s *EventsSuite) TestErrorMapping(t provider.T) {
	t.Parallel()

	msg, highTraffic := describeError(assert.AnError)
	assert.NotEmpty(t, msg)
	assert.False(t, highTraffic)
}

func TestEventsSuite(t *testing.T) {
	suite.RunSuite(t, new(EventsSuite))
}
