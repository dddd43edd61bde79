package engine

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/palemoky/emoguchi/internal/apperrors"
	"github.com/palemoky/emoguchi/internal/game/room"
	"github.com/palemoky/emoguchi/internal/game/voting"
	"github.com/palemoky/emoguchi/internal/protocol"
	"github.com/palemoky/emoguchi/internal/protocol/codec"
)

// Join 加入房间。同名玩家视为重连，沿用原来的 ID 和分数；房间为空时新玩家成为房主。
func (e *Engine) Join(ctx context.Context, connID, roomID, playerName string) error {
	roomID = strings.TrimSpace(roomID)
	playerName = strings.TrimSpace(playerName)
	if roomID == "" || playerName == "" {
		return apperrors.ErrMissingJoinFields
	}
	if utf8.RuneCountInString(playerName) > maxPlayerNameLength {
		return apperrors.InvalidInput("Player name must be at most %d characters", maxPlayerNameLength)
	}

	// 连接之前绑定在别的房间，先按掉线处理旧绑定
	if b, ok := e.sessions.Lookup(connID); ok && b.RoomID != roomID {
		if err := e.HandleDisconnect(ctx, connID); err != nil {
			e.log.Warn("切换房间时释放旧绑定失败", zap.String("conn", connID), zap.Error(err))
		}
	}

	unlock := e.locks.lock(roomID)
	defer unlock()

	r, err := e.load(ctx, roomID)
	if err != nil {
		return err
	}

	var out outbox

	// 同一房间内换名字：旧身份随这个连接一起离线
	var closed, completed bool
	if b, ok := e.sessions.Lookup(connID); ok && b.RoomID == r.ID {
		if prev, ok := r.Players[b.PlayerID]; ok && prev.Name != playerName && prev.IsConnected {
			prev.IsConnected = false
			out.room(r.ID, protocol.MsgPlayerDisconnected, playerEvent(prev))
			closed, completed = e.afterDeparture(r, "", &out)
		}
	}

	player := r.PlayerByName(playerName)
	reconnected := player != nil
	if reconnected {
		player.IsConnected = true
	} else {
		player = r.AddPlayer(playerName, e.now())
	}

	if err := e.save(ctx, r); err != nil {
		return err
	}

	if replaced := e.sessions.Bind(connID, player.ID, r.ID); replaced != "" && e.out != nil {
		e.out.Send(replaced, newLeftRoom("Connected from another session"))
	}

	if reconnected {
		out.room(r.ID, protocol.MsgPlayerReconnected, playerEvent(player))
		e.log.Info("📶 玩家重连", zap.String("room", r.ID), zap.String("player", player.Name))
	} else {
		out.room(r.ID, protocol.MsgPlayerJoined, playerEvent(player))
		e.log.Info("👤 玩家加入房间", zap.String("room", r.ID), zap.String("player", player.Name), zap.Bool("host", player.IsHost))
	}
	out.room(r.ID, protocol.MsgRoomState, RoomState(r))

	// 进行中的回合：补发公开信息，讲述者本人再补发目标情绪
	if r.Phase == room.PhaseInRound && r.CurrentRound != nil {
		out.conn(connID, protocol.MsgRoundStart, roundStart(r, e.cfg.EnforceVoteTimeout))
		if r.CurrentRound.SpeakerID == player.ID {
			out.conn(connID, protocol.MsgSpeakerEmotion, speakerEmotion(r.CurrentRound))
		}
	}
	e.flush(&out)
	if completed {
		e.afterComplete(ctx, r, closed)
	}
	return nil
}

// Leave 主动离开房间：彻底移除玩家并解除绑定
func (e *Engine) Leave(ctx context.Context, connID string) error {
	b, err := e.binding(connID)
	if err != nil {
		return err
	}

	unlock := e.locks.lock(b.RoomID)
	defer unlock()

	r, err := e.repo.Get(ctx, b.RoomID)
	if err != nil {
		return apperrors.Internal("load room", err)
	}
	if r == nil {
		e.sessions.Unbind(connID)
		return apperrors.ErrPlayerNotFound
	}
	if _, ok := r.Players[b.PlayerID]; !ok {
		e.sessions.Unbind(connID)
		return apperrors.ErrPlayerNotFound
	}

	player, _ := r.RemovePlayer(b.PlayerID)

	var out outbox
	out.room(r.ID, protocol.MsgPlayerLeft, playerEvent(player))
	closed, completed := e.afterDeparture(r, player.ID, &out)
	out.room(r.ID, protocol.MsgRoomState, RoomState(r))

	if err := e.save(ctx, r); err != nil {
		return err
	}
	e.sessions.Unbind(connID)
	out.conn(connID, protocol.MsgLeftRoom, protocol.LeftRoomPayload{Message: "Successfully left the room"})
	e.flush(&out)
	if completed {
		e.afterComplete(ctx, r, closed)
	}

	e.log.Info("👋 玩家离开房间", zap.String("room", r.ID), zap.String("player", player.Name))
	return nil
}

// HandleDisconnect 连接断开：只标记离线，保留玩家以便按名字重连
func (e *Engine) HandleDisconnect(ctx context.Context, connID string) error {
	b, ok := e.sessions.Unbind(connID)
	if !ok {
		return nil
	}

	unlock := e.locks.lock(b.RoomID)
	defer unlock()

	r, err := e.repo.Get(ctx, b.RoomID)
	if err != nil {
		return apperrors.Internal("load room", err)
	}
	if r == nil {
		return nil
	}
	player, ok := r.Players[b.PlayerID]
	if !ok {
		return nil
	}
	player.IsConnected = false

	var out outbox
	out.room(r.ID, protocol.MsgPlayerDisconnected, playerEvent(player))
	closed, completed := e.afterDeparture(r, "", &out)
	if completed {
		out.room(r.ID, protocol.MsgRoomState, RoomState(r))
	}

	if err := e.save(ctx, r); err != nil {
		return err
	}
	e.flush(&out)
	if completed {
		e.afterComplete(ctx, r, closed)
	}

	e.log.Info("📴 玩家掉线", zap.String("room", r.ID), zap.String("player", player.Name))
	return nil
}

// afterDeparture 有人离开或掉线后检查进行中的回合。
// 讲述者离开房间时本轮作废；否则听众减少可能让本轮达到结算条件。
func (e *Engine) afterDeparture(r *room.Room, removedID string, out *outbox) (closed, completed bool) {
	if r.Phase != room.PhaseInRound || r.CurrentRound == nil {
		return false, false
	}

	if removedID != "" && r.CurrentRound.SpeakerID == removedID {
		out.stopTimer(r.ID)
		r.CurrentRound = nil
		r.Phase = room.PhaseWaiting
		e.log.Info("🚫 讲述者离开，本轮作废", zap.String("room", r.ID))
		return false, false
	}

	d := voting.Evaluate(r.CurrentRound.Votes, r.ConnectedIDs(), r.CurrentRound.SpeakerID)
	if !d.RoundComplete {
		return false, false
	}
	return e.completeRound(r, out), true
}

func newLeftRoom(message string) *protocol.Message {
	return codec.MustNewMessage(protocol.MsgLeftRoom, protocol.LeftRoomPayload{Message: message})
}
