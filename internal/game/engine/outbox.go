package engine

import (
	"github.com/palemoky/emoguchi/internal/game/emotion"
	"github.com/palemoky/emoguchi/internal/game/room"
	"github.com/palemoky/emoguchi/internal/game/scoring"
	"github.com/palemoky/emoguchi/internal/protocol"
	"github.com/palemoky/emoguchi/internal/protocol/codec"
)

// outbox 收集一次操作要发出的消息，持久化成功后按顺序投递
type outbox struct {
	items      []outItem
	stopTimers []string // 持久化成功后才取消的投票计时器
}

type outItem struct {
	roomID string // 非空表示房间广播
	connID string // 非空表示单播
	msg    *protocol.Message
}

func (o *outbox) room(roomID string, msgType protocol.MessageType, payload any) {
	o.items = append(o.items, outItem{roomID: roomID, msg: codec.MustNewMessage(msgType, payload)})
}

func (o *outbox) conn(connID string, msgType protocol.MessageType, payload any) {
	if connID == "" {
		return
	}
	o.items = append(o.items, outItem{connID: connID, msg: codec.MustNewMessage(msgType, payload)})
}

func (o *outbox) stopTimer(roomID string) {
	o.stopTimers = append(o.stopTimers, roomID)
}

// flush 取消已结束回合的计时器，再按收集顺序投递
func (e *Engine) flush(o *outbox) {
	for _, roomID := range o.stopTimers {
		e.timers.stop(roomID)
	}
	if e.out == nil {
		return
	}
	for _, it := range o.items {
		if it.connID != "" {
			e.out.Send(it.connID, it.msg)
		} else {
			e.out.Broadcast(it.roomID, it.msg)
		}
	}
}

// RoomState 构建 room_state
func RoomState(r *room.Room) protocol.RoomStatePayload {
	var speaker *string
	if p := r.CurrentSpeaker(); p != nil {
		name := p.Name
		speaker = &name
	}
	return protocol.RoomStatePayload{
		RoomID:         r.ID,
		Players:        r.PlayerNames(),
		Phase:          string(r.Phase),
		Config:         ConfigInfo(r.Config),
		CurrentSpeaker: speaker,
	}
}

// ConfigInfo 房间配置的对外形式
func ConfigInfo(c room.Config) protocol.RoomConfigInfo {
	return protocol.RoomConfigInfo{
		Mode:               string(c.Mode),
		VoteType:           string(c.VoteType),
		SpeakerOrder:       string(c.SpeakerOrder),
		VoteTimeoutSeconds: c.VoteTimeoutSeconds,
		MaxCycles:          c.MaxCycles,
		HardMode:           c.HardMode,
	}
}

func roundStart(r *room.Room, enforceDeadline bool) protocol.RoundStartPayload {
	rd := r.CurrentRound
	choices := make([]protocol.VotingChoice, 0, len(rd.VotingChoices))
	for _, id := range rd.VotingChoices {
		choices = append(choices, protocol.VotingChoice{ID: id, Name: emotion.Name(id)})
	}

	payload := protocol.RoundStartPayload{
		RoundID:       rd.ID,
		Phrase:        rd.Phrase,
		VotingChoices: choices,
	}
	if sp, ok := r.Players[rd.SpeakerID]; ok {
		payload.SpeakerName = sp.Name
	}
	if enforceDeadline && rd.VoteTimeoutSeconds > 0 {
		payload.VoteDeadline = rd.Deadline().UnixMilli()
	}
	return payload
}

func speakerEmotion(rd *room.Round) protocol.SpeakerEmotionPayload {
	return protocol.SpeakerEmotionPayload{
		RoundID:     rd.ID,
		EmotionID:   rd.EmotionID,
		EmotionName: emotion.Name(rd.EmotionID),
		SpeakerID:   rd.SpeakerID,
	}
}

func playerEvent(p *room.Player) protocol.PlayerEventPayload {
	return protocol.PlayerEventPayload{PlayerName: p.Name, PlayerID: p.ID}
}

func roundResult(r *room.Room, rd *room.Round, speakerName string, closed bool) protocol.RoundResultPayload {
	votes := make(map[string]string, len(rd.Votes))
	for playerID, emotionID := range rd.Votes {
		if p, ok := r.Players[playerID]; ok {
			votes[p.Name] = emotionID
		}
	}
	return protocol.RoundResultPayload{
		RoundID:          rd.ID,
		CorrectEmotion:   emotion.Name(rd.EmotionID),
		CorrectEmotionID: rd.EmotionID,
		SpeakerName:      speakerName,
		Scores:           scoring.ScoreMap(r),
		Votes:            votes,
		IsGameComplete:   closed,
		CompletedRounds:  len(r.RoundHistory),
		CompletedCycles:  r.CompletedCycles(),
		MaxCycles:        r.Config.MaxCycles,
	}
}

func gameComplete(rankings []scoring.Ranking, totalRounds int) protocol.GameCompletePayload {
	entries := make([]protocol.RankingEntry, 0, len(rankings))
	for _, rk := range rankings {
		entries = append(entries, protocol.RankingEntry{Name: rk.Name, Score: rk.Score, Rank: rk.Rank})
	}
	return protocol.GameCompletePayload{Rankings: entries, TotalRounds: totalRounds}
}
