package handler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/emoguchi/internal/apperrors"
	"github.com/palemoky/emoguchi/internal/protocol"
	"github.com/palemoky/emoguchi/internal/protocol/codec"
	"github.com/palemoky/emoguchi/internal/testutil"
)

func newTestHandler(t *testing.T) (*Handler, *testutil.MockGame, *testutil.SimpleClient) {
	t.Helper()
	game := new(testutil.MockGame)
	srv := new(testutil.MockServer)
	srv.On("IsMaintenanceMode").Return(false).Maybe()
	h := NewHandler(HandlerDeps{Server: srv, Game: game})
	return h, game, &testutil.SimpleClient{ID: "conn-1"}
}

func errorPayload(t *testing.T, msg *protocol.Message) *protocol.ErrorPayload {
	t.Helper()
	require.NotNil(t, msg)
	require.Equal(t, protocol.MsgError, msg.Type)
	p, err := codec.ParsePayload[protocol.ErrorPayload](msg)
	require.NoError(t, err)
	return p
}

func TestHandle_Dispatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		msg    *protocol.Message
		expect func(g *testutil.MockGame)
	}{
		{
			name: "join_room",
			msg:  codec.MustNewMessage(protocol.MsgJoinRoom, protocol.JoinRoomPayload{RoomID: "ROOM1", PlayerName: "Alice"}),
			expect: func(g *testutil.MockGame) {
				g.On("Join", mock.Anything, "conn-1", "ROOM1", "Alice").Return(nil).Once()
			},
		},
		{
			name: "leave_room",
			msg:  &protocol.Message{Type: protocol.MsgLeaveRoom},
			expect: func(g *testutil.MockGame) {
				g.On("Leave", mock.Anything, "conn-1").Return(nil).Once()
			},
		},
		{
			name: "start_round",
			msg:  &protocol.Message{Type: protocol.MsgStartRound},
			expect: func(g *testutil.MockGame) {
				g.On("StartRound", mock.Anything, "conn-1").Return(nil).Once()
			},
		},
		{
			name: "submit_vote",
			msg:  codec.MustNewMessage(protocol.MsgSubmitVote, protocol.SubmitVotePayload{RoundID: "r1", EmotionID: "joy"}),
			expect: func(g *testutil.MockGame) {
				g.On("SubmitVote", mock.Anything, "conn-1", "r1", "joy").Return(nil).Once()
			},
		},
		{
			name: "restart_game",
			msg:  &protocol.Message{Type: protocol.MsgRestartGame},
			expect: func(g *testutil.MockGame) {
				g.On("RestartGame", mock.Anything, "conn-1").Return(nil).Once()
			},
		},
		{
			name: "audio_send",
			msg:  codec.MustNewMessage(protocol.MsgAudioSend, protocol.AudioSendPayload{Audio: "AAAA"}),
			expect: func(g *testutil.MockGame) {
				g.On("RelayAudio", mock.Anything, "conn-1", "AAAA").Return(nil).Once()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h, game, client := newTestHandler(t)
			tt.expect(game)

			h.Handle(client, tt.msg)

			game.AssertExpectations(t)
			assert.Empty(t, client.Messages())
		})
	}
}

func TestHandle_ErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		wantCode string
		wantText string
	}{
		{"forbidden", apperrors.ErrNotHost, protocol.ErrCodeForbidden, apperrors.ErrNotHost.Message},
		{"conflict", apperrors.ErrNotWaiting, protocol.ErrCodeConflict, apperrors.ErrNotWaiting.Message},
		{"bad request", apperrors.ErrInsufficientPlayers, protocol.ErrCodeBadRequest, apperrors.ErrInsufficientPlayers.Message},
		{"unauthenticated", apperrors.ErrUnauthenticated, protocol.ErrCodeUnauthenticated, "Not authenticated"},
		{"plain error", errors.New("boom"), protocol.ErrCodeInternal, "Internal server error: boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h, game, client := newTestHandler(t)
			game.On("StartRound", mock.Anything, "conn-1").Return(tt.err).Once()

			h.Handle(client, &protocol.Message{Type: protocol.MsgStartRound})

			msgs := client.Messages()
			require.Len(t, msgs, 1, "exactly one error frame")
			p := errorPayload(t, msgs[0])
			assert.Equal(t, tt.wantCode, p.Code)
			assert.Equal(t, tt.wantText, p.Message)
		})
	}
}

func TestHandle_BadPayloads(t *testing.T) {
	t.Parallel()

	t.Run("unknown type", func(t *testing.T) {
		t.Parallel()
		h, _, client := newTestHandler(t)
		h.Handle(client, &protocol.Message{Type: "dance"})
		assert.Equal(t, protocol.ErrCodeBadRequest, errorPayload(t, client.Last()).Code)
	})

	t.Run("join without payload", func(t *testing.T) {
		t.Parallel()
		h, game, client := newTestHandler(t)
		h.Handle(client, &protocol.Message{Type: protocol.MsgJoinRoom})
		p := errorPayload(t, client.Last())
		assert.Equal(t, protocol.ErrCodeBadRequest, p.Code)
		assert.Equal(t, apperrors.ErrMissingJoinFields.Message, p.Message)
		game.AssertNotCalled(t, "Join", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("vote with malformed payload", func(t *testing.T) {
		t.Parallel()
		h, _, client := newTestHandler(t)
		h.Handle(client, &protocol.Message{Type: protocol.MsgSubmitVote, Payload: []byte(`{"roundId": 5`)})
		assert.Equal(t, apperrors.ErrMissingVoteFields.Message, errorPayload(t, client.Last()).Message)
	})
}

func TestHandle_PanicRecovered(t *testing.T) {
	t.Parallel()
	h, game, client := newTestHandler(t)
	game.On("Leave", mock.Anything, "conn-1").Panic("kaboom").Once()

	assert.NotPanics(t, func() {
		h.Handle(client, &protocol.Message{Type: protocol.MsgLeaveRoom})
	})
	assert.Equal(t, protocol.ErrCodeInternal, errorPayload(t, client.Last()).Code)
}

func TestHandle_Ping(t *testing.T) {
	t.Parallel()
	h, _, client := newTestHandler(t)

	h.Handle(client, codec.MustNewMessage(protocol.MsgPing, protocol.PingPayload{Timestamp: 42}))

	msg := client.Last()
	require.NotNil(t, msg)
	assert.Equal(t, protocol.MsgPong, msg.Type)
	p, err := codec.ParsePayload[protocol.PongPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, int64(42), p.ClientTimestamp)
	assert.Positive(t, p.ServerTimestamp)
}

func TestHandle_MaintenanceBlocksStart(t *testing.T) {
	t.Parallel()
	game := new(testutil.MockGame)
	srv := new(testutil.MockServer)
	srv.On("IsMaintenanceMode").Return(true)
	h := NewHandler(HandlerDeps{Server: srv, Game: game})
	client := &testutil.SimpleClient{ID: "conn-1"}

	h.Handle(client, &protocol.Message{Type: protocol.MsgStartRound})

	assert.Equal(t, protocol.ErrCodeConflict, errorPayload(t, client.Last()).Code)
	game.AssertNotCalled(t, "StartRound", mock.Anything, mock.Anything)
}

func TestOnDisconnect(t *testing.T) {
	t.Parallel()
	h, game, client := newTestHandler(t)
	game.On("HandleDisconnect", mock.Anything, "conn-1").Return(nil).Once()

	h.OnDisconnect(client)
	game.AssertExpectations(t)
}

func TestHandle_GameErrorSendsSingleFrame(t *testing.T) {
	t.Parallel()

	game := new(testutil.MockGame)
	h := NewHandler(HandlerDeps{Game: game})
	client := new(testutil.MockClient)
	client.On("GetID").Return("conn-9")
	client.On("SendMessage", mock.MatchedBy(func(msg *protocol.Message) bool {
		p, err := codec.ParsePayload[protocol.ErrorPayload](msg)
		return err == nil && msg.Type == protocol.MsgError && p.Code == protocol.ErrCodeForbidden
	})).Once()
	game.On("StartRound", mock.Anything, "conn-9").Return(apperrors.ErrNotHost).Once()

	h.Handle(client, &protocol.Message{Type: protocol.MsgStartRound})

	client.AssertExpectations(t)
	client.AssertNumberOfCalls(t, "SendMessage", 1)
	client.AssertNotCalled(t, "Close")
	game.AssertExpectations(t)
}
