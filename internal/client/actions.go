package client

import (
	"encoding/base64"
	"time"

	"github.com/palemoky/emoguchi/internal/protocol"
	"github.com/palemoky/emoguchi/internal/protocol/codec"
)

// --- 便捷方法 ---

// JoinRoom 加入房间（同名即重连）
func (c *Client) JoinRoom(roomID, playerName string) error {
	c.mu.Lock()
	c.roomID, c.playerName = roomID, playerName
	c.mu.Unlock()

	return c.SendMessage(codec.MustNewMessage(protocol.MsgJoinRoom, protocol.JoinRoomPayload{
		RoomID:     roomID,
		PlayerName: playerName,
	}))
}

// LeaveRoom 离开房间
func (c *Client) LeaveRoom() error {
	return c.SendMessage(codec.MustNewMessage(protocol.MsgLeaveRoom, nil))
}

// StartRound 开始回合（房主）
func (c *Client) StartRound() error {
	return c.SendMessage(codec.MustNewMessage(protocol.MsgStartRound, nil))
}

// RestartGame 重新开始（房主）
func (c *Client) RestartGame() error {
	return c.SendMessage(codec.MustNewMessage(protocol.MsgRestartGame, nil))
}

// SubmitVote 投票
func (c *Client) SubmitVote(roundID, emotionID string) error {
	return c.SendMessage(codec.MustNewMessage(protocol.MsgSubmitVote, protocol.SubmitVotePayload{
		RoundID:   roundID,
		EmotionID: emotionID,
	}))
}

// SendAudio 发言者上传音频，内容按 base64 编码
func (c *Client) SendAudio(clip []byte) error {
	return c.SendMessage(codec.MustNewMessage(protocol.MsgAudioSend, protocol.AudioSendPayload{
		Audio: base64.StdEncoding.EncodeToString(clip),
	}))
}

// Ping 发送心跳
func (c *Client) Ping() error {
	return c.SendMessage(codec.MustNewMessage(protocol.MsgPing, protocol.PingPayload{
		Timestamp: time.Now().UnixMilli(),
	}))
}
