package client

import (
	"context"
	"errors"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/palemoky/emoguchi/internal/protocol"
	"github.com/palemoky/emoguchi/internal/protocol/codec"
)

// ErrKicked 机器人被移出房间
var ErrKicked = errors.New("bot left the room")

// Bot 自动参与游戏的机器人：听众随机投票，讲述者上传占位音频，房主人满后自动开局
type Bot struct {
	client     *Client
	roomID     string
	name       string
	host       bool
	minPlayers int
	rng        *rand.Rand
	log        *zap.Logger
}

// NewBot 创建机器人；host 为 true 时在房间人数达到 minPlayers 后自动开始回合
func NewBot(c *Client, roomID, name string, host bool, minPlayers int, rng *rand.Rand) *Bot {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Bot{
		client:     c,
		roomID:     roomID,
		name:       name,
		host:       host,
		minPlayers: minPlayers,
		rng:        rng,
		log:        c.log.With(zap.String("bot", name)),
	}
}

// Run 加入房间并一直玩到游戏结束，返回最终排名
func (b *Bot) Run(ctx context.Context) (*protocol.GameCompletePayload, error) {
	if err := b.client.JoinRoom(b.roomID, b.name); err != nil {
		return nil, err
	}

	for {
		msg, err := b.client.Receive(ctx)
		if err != nil {
			return nil, err
		}

		switch msg.Type {
		case protocol.MsgRoomState:
			b.onRoomState(msg)
		case protocol.MsgRoundStart:
			b.onRoundStart(msg)
		case protocol.MsgSpeakerEmotion:
			b.onSpeakerEmotion(msg)
		case protocol.MsgGameComplete:
			return codec.ParsePayload[protocol.GameCompletePayload](msg)
		case protocol.MsgLeftRoom:
			return nil, ErrKicked
		case protocol.MsgError:
			if p, err := codec.ParsePayload[protocol.ErrorPayload](msg); err == nil {
				b.log.Debug("服务端返回错误", zap.String("code", p.Code), zap.String("message", p.Message))
			}
		}
	}
}

func (b *Bot) onRoomState(msg *protocol.Message) {
	if !b.host {
		return
	}
	state, err := codec.ParsePayload[protocol.RoomStatePayload](msg)
	if err != nil {
		return
	}
	if state.Phase == "waiting" && len(state.Players) >= b.minPlayers {
		_ = b.client.StartRound()
	}
}

func (b *Bot) onRoundStart(msg *protocol.Message) {
	start, err := codec.ParsePayload[protocol.RoundStartPayload](msg)
	if err != nil || start.SpeakerName == b.name || len(start.VotingChoices) == 0 {
		return
	}
	choice := start.VotingChoices[b.rng.IntN(len(start.VotingChoices))]
	b.log.Debug("🗳️ 投票", zap.String("round", start.RoundID), zap.String("emotion", choice.ID))
	_ = b.client.SubmitVote(start.RoundID, choice.ID)
}

func (b *Bot) onSpeakerEmotion(msg *protocol.Message) {
	target, err := codec.ParsePayload[protocol.SpeakerEmotionPayload](msg)
	if err != nil {
		return
	}
	_ = b.client.SendAudio([]byte(b.name + ":" + target.EmotionID))
}
