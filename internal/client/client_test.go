package client

import (
	"context"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/emoguchi/internal/config"
	"github.com/palemoky/emoguchi/internal/game/room"
	"github.com/palemoky/emoguchi/internal/protocol"
	"github.com/palemoky/emoguchi/internal/protocol/codec"
	"github.com/palemoky/emoguchi/internal/server"
	"github.com/palemoky/emoguchi/internal/server/storage"
)

func wsURL(ts *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + path
}

func newGameServer(t *testing.T) (*server.Server, string) {
	t.Helper()
	cfg := config.Default()
	cfg.Server.MaxConnections = 10
	s := server.NewServer(cfg, server.Deps{Repo: storage.NewMemoryStore()})
	mux := http.NewServeMux()
	s.Routes(mux)
	ts := httptest.NewServer(mux)
	t.Cleanup(func() {
		ts.Close()
		s.Shutdown()
	})
	_, err := s.Engine().CreateRoom(context.Background(), "ROOM1", room.DefaultConfig(), "")
	require.NoError(t, err)
	return s, wsURL(ts, "/ws")
}

func connect(t *testing.T, url string, opts ...Option) *Client {
	t.Helper()
	c := NewClient(url, opts...)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Connect(ctx))
	t.Cleanup(c.Close)

	msg, err := c.ReceiveWithTimeout(5 * time.Second)
	require.NoError(t, err)
	require.Equal(t, protocol.MsgConnected, msg.Type)
	return c
}

func waitFor(t *testing.T, c *Client, msgType protocol.MessageType) *protocol.Message {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	msg, err := c.WaitFor(ctx, msgType)
	require.NoError(t, err, "waiting for %s", msgType)
	return msg
}

func TestClient_PlaysRound(t *testing.T) {
	for _, codecName := range []string{codec.JSONCodecName, codec.ProtoCodecName} {
		t.Run(codecName, func(t *testing.T) {
			_, url := newGameServer(t)
			alice := connect(t, url, WithCodec(codecName))
			bob := connect(t, url, WithCodec(codecName))
			assert.NotEmpty(t, alice.ConnectionID())
			assert.NotEqual(t, alice.ConnectionID(), bob.ConnectionID())

			require.NoError(t, alice.JoinRoom("ROOM1", "Alice"))
			waitFor(t, alice, protocol.MsgRoomState)
			require.NoError(t, bob.JoinRoom("ROOM1", "Bob"))
			waitFor(t, bob, protocol.MsgRoomState)

			require.NoError(t, alice.StartRound())
			emotionMsg := waitFor(t, alice, protocol.MsgSpeakerEmotion)
			target, err := codec.ParsePayload[protocol.SpeakerEmotionPayload](emotionMsg)
			require.NoError(t, err)

			startMsg := waitFor(t, bob, protocol.MsgRoundStart)
			start, err := codec.ParsePayload[protocol.RoundStartPayload](startMsg)
			require.NoError(t, err)
			assert.Equal(t, "Alice", start.SpeakerName)
			assert.Len(t, start.VotingChoices, 4)

			require.NoError(t, alice.SendAudio([]byte("voice")))
			audioMsg := waitFor(t, bob, protocol.MsgAudioReceived)
			audio, err := codec.ParsePayload[protocol.AudioReceivedPayload](audioMsg)
			require.NoError(t, err)
			assert.Equal(t, "dm9pY2U=", audio.Audio)

			require.NoError(t, bob.SubmitVote(start.RoundID, target.EmotionID))
			resultMsg := waitFor(t, alice, protocol.MsgRoundResult)
			result, err := codec.ParsePayload[protocol.RoundResultPayload](resultMsg)
			require.NoError(t, err)
			assert.Equal(t, target.EmotionID, result.CorrectEmotionID)
			assert.Equal(t, 1, result.Scores["Alice"])
			assert.Equal(t, 1, result.Scores["Bob"])
		})
	}
}

func TestClient_Ping(t *testing.T) {
	_, url := newGameServer(t)
	var updated atomic.Int64
	c := connect(t, url, func(c *Client) {
		c.OnLatencyUpdate = func(ms int64) { updated.Store(ms + 1) }
	})

	require.NoError(t, c.Ping())
	waitFor(t, c, protocol.MsgPong)
	assert.GreaterOrEqual(t, c.Latency(), int64(0))
	assert.Positive(t, updated.Load())
}

func TestClient_LeaveClearsRoom(t *testing.T) {
	_, url := newGameServer(t)
	c := connect(t, url)

	require.NoError(t, c.JoinRoom("ROOM1", "Alice"))
	waitFor(t, c, protocol.MsgRoomState)
	require.NoError(t, c.LeaveRoom())
	waitFor(t, c, protocol.MsgLeftRoom)

	c.mu.RLock()
	defer c.mu.RUnlock()
	assert.Empty(t, c.roomID)
}

func TestClient_ServerError(t *testing.T) {
	_, url := newGameServer(t)
	c := connect(t, url)

	require.NoError(t, c.JoinRoom("NOPE1", "Alice"))
	msg := waitFor(t, c, protocol.MsgError)
	payload, err := codec.ParsePayload[protocol.ErrorPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, protocol.ErrCodeNotFound, payload.Code)
}

// dropFirstServer 第一次连接收到 join_room 后立即断开，之后的连接回显 join_room
func dropFirstServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var conns atomic.Int32
	upgrader := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		n := conns.Add(1)

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			msg, err := codec.JSONCodec{}.Decode(data)
			if err != nil || msg.Type != protocol.MsgJoinRoom {
				continue
			}
			if n == 1 {
				return
			}
			_ = conn.WriteMessage(websocket.TextMessage, data)
		}
	}))
	t.Cleanup(ts.Close)
	return ts, &conns
}

func TestClient_AutoReconnectRejoins(t *testing.T) {
	ts, conns := dropFirstServer(t)

	c := NewClient(wsURL(ts, "/"), WithAutoReconnect(3, 10*time.Millisecond))
	reconnected := make(chan struct{}, 1)
	c.OnReconnect = func() { reconnected <- struct{}{} }

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Connect(ctx))
	t.Cleanup(c.Close)

	require.NoError(t, c.JoinRoom("ROOM1", "Alice"))

	select {
	case <-reconnected:
	case <-ctx.Done():
		t.Fatal("client did not reconnect")
	}

	msg := waitFor(t, c, protocol.MsgJoinRoom)
	payload, err := codec.ParsePayload[protocol.JoinRoomPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, "Alice", payload.PlayerName)
	assert.Equal(t, int32(2), conns.Load())
	assert.True(t, c.IsConnected())
}

func TestClient_NoReconnectWithoutRoom(t *testing.T) {
	ts, _ := dropFirstServer(t)
	c := NewClient(wsURL(ts, "/"), WithAutoReconnect(3, 10*time.Millisecond))
	closed := make(chan struct{})
	c.OnClose = func() { close(closed) }

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Connect(ctx))
	// 直接发送原始 join_room，不记录房间，断线后不会重连
	require.NoError(t, c.SendMessage(codec.MustNewMessage(protocol.MsgJoinRoom, protocol.JoinRoomPayload{RoomID: "R", PlayerName: "A"})))

	select {
	case <-closed:
	case <-ctx.Done():
		t.Fatal("client was not closed")
	}
	assert.False(t, c.IsConnected())
	assert.ErrorIs(t, c.SendMessage(codec.MustNewMessage(protocol.MsgPing, nil)), ErrClosed)
}

func TestClient_SendAfterClose(t *testing.T) {
	c := NewClient("ws://127.0.0.1:0/ws")
	c.Close()
	c.Close()
	assert.ErrorIs(t, c.Ping(), ErrClosed)
	_, err := c.ReceiveWithTimeout(10 * time.Millisecond)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestBot_PlaysFullGame(t *testing.T) {
	s, url := newGameServer(t)
	cfg := room.DefaultConfig()
	cfg.MaxCycles = 1
	_, err := s.Engine().CreateRoom(context.Background(), "BOTS", cfg, "")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	names := []string{"Alice", "Bob", "Carol"}
	results := make(chan *protocol.GameCompletePayload, len(names))
	errs := make(chan error, len(names))
	for i, name := range names {
		c := connect(t, url)
		bot := NewBot(c, "BOTS", name, i == 0, len(names), rand.New(rand.NewPCG(uint64(i), 1)))
		go func() {
			res, err := bot.Run(ctx)
			if err != nil {
				errs <- err
				return
			}
			results <- res
		}()
	}

	for range names {
		select {
		case res := <-results:
			require.Len(t, res.Rankings, len(names))
			assert.Equal(t, len(names), res.TotalRounds)
			assert.Equal(t, 1, res.Rankings[0].Rank)
		case err := <-errs:
			t.Fatalf("bot failed: %v", err)
		case <-ctx.Done():
			t.Fatal("game did not complete")
		}
	}
}
