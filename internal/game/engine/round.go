package engine

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/palemoky/emoguchi/internal/apperrors"
	"github.com/palemoky/emoguchi/internal/audio"
	"github.com/palemoky/emoguchi/internal/game/emotion"
	"github.com/palemoky/emoguchi/internal/game/room"
	"github.com/palemoky/emoguchi/internal/game/scoring"
	"github.com/palemoky/emoguchi/internal/game/turn"
	"github.com/palemoky/emoguchi/internal/game/voting"
	"github.com/palemoky/emoguchi/internal/protocol"
)

// StartRound 房主开始新一轮
func (e *Engine) StartRound(ctx context.Context, connID string) error {
	b, err := e.binding(connID)
	if err != nil {
		return err
	}

	// 先在锁外检查一次，避免无效请求去生成台词
	r, err := e.load(ctx, b.RoomID)
	if err != nil {
		return err
	}
	if err := checkStartable(r, b.PlayerID); err != nil {
		return err
	}

	phrase, emotionID := e.nextPrompt(ctx, r.ID, r.Config.Mode)

	unlock := e.locks.lock(b.RoomID)
	defer unlock()

	// 生成台词期间房间可能已经变化，重新加载再校验
	r, err = e.load(ctx, b.RoomID)
	if err != nil {
		return err
	}
	if err := checkStartable(r, b.PlayerID); err != nil {
		return err
	}

	speaker, ok := turn.Resolve(r, e.rng)
	if !ok {
		return apperrors.ErrNoSpeaker
	}

	count := emotion.ChoiceCount(string(r.Config.VoteType))
	choices := emotion.Choices(r.Config.Mode, emotionID, count, e.rng)
	ids := make([]string, 0, len(choices))
	for _, c := range choices {
		ids = append(ids, c.ID)
	}

	rd := room.NewRound(speaker.ID, phrase, emotionID, ids, r.Config.VoteTimeoutSeconds, e.now())
	r.CurrentRound = rd
	r.Phase = room.PhaseInRound

	if err := e.save(ctx, r); err != nil {
		return err
	}

	var out outbox
	out.room(r.ID, protocol.MsgRoomState, RoomState(r))
	out.room(r.ID, protocol.MsgRoundStart, roundStart(r, e.cfg.EnforceVoteTimeout))
	// 目标情绪只发给讲述者本人
	if speakerConn, ok := e.sessions.ConnectionFor(r.ID, speaker.ID); ok {
		out.conn(speakerConn, protocol.MsgSpeakerEmotion, speakerEmotion(rd))
	}
	e.flush(&out)

	e.startVoteTimer(r.ID, rd.ID, rd.Deadline().Sub(rd.StartedAt))

	e.log.Info("🎬 回合开始",
		zap.String("room", r.ID),
		zap.String("round", rd.ID),
		zap.String("speaker", speaker.Name),
		zap.Int("choices", len(ids)))
	return nil
}

func checkStartable(r *room.Room, playerID string) error {
	p, ok := r.Players[playerID]
	if !ok {
		return apperrors.ErrPlayerNotFound
	}
	if !p.IsHost {
		return apperrors.ErrNotHost
	}
	if r.Phase != room.PhaseWaiting {
		return apperrors.ErrNotWaiting
	}
	if len(r.Players) < room.MinPlayers {
		return apperrors.ErrInsufficientPlayers
	}
	return nil
}

// nextPrompt 获取台词，超时或失败时使用兜底内容
func (e *Engine) nextPrompt(ctx context.Context, roomID string, mode emotion.Mode) (string, string) {
	if e.prompts != nil {
		pctx := ctx
		if e.cfg.PromptTimeout > 0 {
			var cancel context.CancelFunc
			pctx, cancel = context.WithTimeout(ctx, e.cfg.PromptTimeout)
			defer cancel()
		}
		phrase, emotionID, err := e.prompts.Next(pctx, roomID, mode)
		if err == nil && phrase != "" && emotion.Contains(mode, emotionID) {
			return phrase, emotionID
		}
		e.log.Warn("⚠️ 台词生成失败，使用兜底台词", zap.String("room", roomID), zap.Error(err))
	}
	phrase, emotionID, _ := e.fallback.Generate(ctx, mode)
	return phrase, emotionID
}

// SubmitVote 听众投票。全部在线听众投完后自动结算。
func (e *Engine) SubmitVote(ctx context.Context, connID, roundID, emotionID string) error {
	b, err := e.binding(connID)
	if err != nil {
		return err
	}
	if roundID == "" || emotionID == "" {
		return apperrors.ErrMissingVoteFields
	}

	unlock := e.locks.lock(b.RoomID)
	defer unlock()

	r, err := e.load(ctx, b.RoomID)
	if err != nil {
		return err
	}
	if _, ok := r.Players[b.PlayerID]; !ok {
		return apperrors.ErrPlayerNotFound
	}
	if err := voting.Accept(r.CurrentRound, roundID, b.PlayerID); err != nil {
		return err
	}
	if !slices.Contains(r.CurrentRound.VotingChoices, emotionID) {
		return apperrors.InvalidInput("Emotion %q is not a choice in this round", emotionID)
	}

	d := voting.Record(r, b.PlayerID, emotionID)
	e.log.Debug("🗳️ 收到投票",
		zap.String("room", r.ID),
		zap.String("round", roundID),
		zap.Int("votes", d.VotesReceived),
		zap.Int("listeners", d.ListenerCount))

	var out outbox
	closed := false
	if d.RoundComplete {
		closed = e.completeRound(r, &out)
	}
	if err := e.save(ctx, r); err != nil {
		return err
	}
	e.flush(&out)
	if d.RoundComplete {
		e.afterComplete(ctx, r, closed)
	}
	return nil
}

// completeRound 结算当前轮：计分、归档、轮换讲述者，达到循环上限时结束游戏。
// 只修改房间并把消息放入 out，调用方负责持久化和投递。
func (e *Engine) completeRound(r *room.Room, out *outbox) (closed bool) {
	rd := r.CurrentRound
	if rd == nil {
		return false
	}
	out.stopTimer(r.ID)

	res := scoring.Score(rd)
	scoring.Apply(r, res)

	now := e.now()
	rd.IsCompleted = true
	rd.CompletedAt = &now
	r.RoundHistory = append(r.RoundHistory, rd)
	r.CurrentRound = nil
	turn.Advance(r, e.rng)

	closed = r.CompletedCycles() >= r.Config.MaxCycles
	if closed {
		r.Phase = room.PhaseClosed
	} else {
		r.Phase = room.PhaseWaiting
	}

	speakerName := ""
	if sp, ok := r.Players[rd.SpeakerID]; ok {
		speakerName = sp.Name
	}
	out.room(r.ID, protocol.MsgRoundResult, roundResult(r, rd, speakerName, closed))
	if closed {
		out.room(r.ID, protocol.MsgGameComplete, gameComplete(scoring.Rankings(r), len(r.RoundHistory)))
	}
	out.room(r.ID, protocol.MsgRoomState, RoomState(r))

	e.log.Info("🏁 回合结算",
		zap.String("room", r.ID),
		zap.String("round", rd.ID),
		zap.Int("correct", res.CorrectVotes),
		zap.Int("rounds", len(r.RoundHistory)),
		zap.Bool("gameComplete", closed))
	return closed
}

// afterComplete 结算已持久化并广播后的收尾：游戏结束时写入排行榜
func (e *Engine) afterComplete(ctx context.Context, r *room.Room, closed bool) {
	if !closed || e.recorder == nil {
		return
	}
	rankings := scoring.Rankings(r)
	if err := e.recorder.RecordGame(ctx, r.ID, rankings); err != nil {
		e.log.Error("📉 写入排行榜失败", zap.String("room", r.ID), zap.Error(err))
		return
	}
	e.log.Info("🏆 游戏结束", zap.String("room", r.ID), zap.Int("players", len(rankings)))
}

// RestartGame 房主重开：清空轮次和分数，回到 WAITING
func (e *Engine) RestartGame(ctx context.Context, connID string) error {
	b, err := e.binding(connID)
	if err != nil {
		return err
	}

	unlock := e.locks.lock(b.RoomID)
	defer unlock()

	r, err := e.loadAsHost(ctx, b)
	if err != nil {
		return err
	}
	var out outbox
	e.reset(r, &out)
	if err := e.save(ctx, r); err != nil {
		return err
	}

	out.room(r.ID, protocol.MsgRoomState, RoomState(r))
	e.flush(&out)

	e.log.Info("🔄 游戏重开", zap.String("room", r.ID))
	return nil
}

func (e *Engine) reset(r *room.Room, out *outbox) {
	out.stopTimer(r.ID)
	r.ResetGame()
}

// RelayAudio 讲述者在回合进行中上传音频，转发给房间内其他人
func (e *Engine) RelayAudio(ctx context.Context, connID, data string) error {
	b, err := e.binding(connID)
	if err != nil {
		return err
	}

	unlock := e.locks.lock(b.RoomID)
	defer unlock()

	r, err := e.load(ctx, b.RoomID)
	if err != nil {
		return err
	}
	if r.Phase != room.PhaseInRound || r.CurrentRound == nil {
		return apperrors.ErrNoActiveRound
	}
	if r.CurrentRound.SpeakerID != b.PlayerID {
		return apperrors.ErrNotSpeaker
	}
	if e.relay == nil {
		return nil
	}

	return e.relay.Relay(ctx, audio.Clip{
		RoomID:       r.ID,
		RoundID:      r.CurrentRound.ID,
		SpeakerID:    b.PlayerID,
		ConnectionID: connID,
		Data:         data,
		ReceivedAt:   e.now(),
	})
}
