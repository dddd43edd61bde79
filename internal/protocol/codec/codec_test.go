package codec

import (
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/emoguchi/internal/protocol"
)

func TestNewMessage(t *testing.T) {
	msg, err := NewMessage(protocol.MsgJoinRoom, protocol.JoinRoomPayload{RoomID: "room1", PlayerName: "alice"})
	require.NoError(t, err)
	assert.Equal(t, protocol.MsgJoinRoom, msg.Type)
	assert.JSONEq(t, `{"roomId":"room1","playerName":"alice"}`, string(msg.Payload))

	empty, err := NewMessage(protocol.MsgStartRound, nil)
	require.NoError(t, err)
	assert.Nil(t, empty.Payload)
}

func TestParsePayload(t *testing.T) {
	msg := MustNewMessage(protocol.MsgSubmitVote, protocol.SubmitVotePayload{RoundID: "r1", EmotionID: "joy"})

	payload, err := ParsePayload[protocol.SubmitVotePayload](msg)
	require.NoError(t, err)
	assert.Equal(t, "r1", payload.RoundID)
	assert.Equal(t, "joy", payload.EmotionID)

	_, err = ParsePayload[protocol.SubmitVotePayload](&protocol.Message{Type: protocol.MsgSubmitVote})
	assert.ErrorIs(t, err, ErrEmptyPayload)

	_, err = ParsePayload[protocol.SubmitVotePayload](&protocol.Message{Type: protocol.MsgSubmitVote, Payload: []byte("{")})
	assert.Error(t, err)
}

func TestNewErrorMessage(t *testing.T) {
	msg := NewErrorMessage(protocol.ErrCodeForbidden)
	payload, err := ParsePayload[protocol.ErrorPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, "EMO-403", payload.Code)
	assert.Equal(t, protocol.ErrorMessages[protocol.ErrCodeForbidden], payload.Message)

	custom := NewErrorMessageWithText(protocol.ErrCodeBadRequest, "Speaker cannot vote")
	payload, err = ParsePayload[protocol.ErrorPayload](custom)
	require.NoError(t, err)
	assert.Equal(t, "Speaker cannot vote", payload.Message)
}

func TestCodecs_EncodeDecode(t *testing.T) {
	original := MustNewMessage(protocol.MsgRoundResult, protocol.RoundResultPayload{
		RoundID:          "r1",
		CorrectEmotionID: "joy",
		Scores:           map[string]int{"alice": 2, "bob": 1},
		Votes:            map[string]string{"bob": "joy"},
		CompletedRounds:  1,
		MaxCycles:        1,
	})

	for _, c := range []Codec{JSONCodec{}, ProtoCodec{}} {
		t.Run(c.Name(), func(t *testing.T) {
			data, err := c.Encode(original)
			require.NoError(t, err)
			require.NotEmpty(t, data)

			decoded, err := c.Decode(data)
			require.NoError(t, err)
			assert.Equal(t, original.Type, decoded.Type)
			assert.JSONEq(t, string(original.Payload), string(decoded.Payload))
		})
	}
}

func TestCodecs_RejectMissingType(t *testing.T) {
	_, err := JSONCodec{}.Decode([]byte(`{"payload":{}}`))
	assert.Error(t, err)

	_, err = JSONCodec{}.Decode([]byte(`not json`))
	assert.Error(t, err)

	_, err = ProtoCodec{}.Decode([]byte{0xff, 0x01})
	assert.Error(t, err)
}

func TestForName(t *testing.T) {
	assert.Equal(t, websocket.BinaryMessage, ForName("proto").FrameType())
	assert.Equal(t, websocket.TextMessage, ForName("json").FrameType())
	assert.Equal(t, JSONCodecName, ForName("unknown").Name())
}
