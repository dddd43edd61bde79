package engine

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/palemoky/emoguchi/internal/apperrors"
	"github.com/palemoky/emoguchi/internal/game/room"
	"github.com/palemoky/emoguchi/internal/protocol"
)

// CreateRoom 创建房间，roomID 为空时自动生成
func (e *Engine) CreateRoom(ctx context.Context, roomID string, cfg room.Config, hostToken string) (*room.Room, error) {
	if roomID == "" {
		roomID = room.GenerateID()
	}
	if !room.ValidateID(roomID) {
		return nil, apperrors.ErrInvalidRoomID
	}

	unlock := e.locks.lock(roomID)
	defer unlock()

	r := room.New(roomID, cfg, e.now())
	r.HostToken = hostToken
	if err := e.repo.Create(ctx, r); err != nil {
		if errors.Is(err, apperrors.ErrRoomExists) {
			return nil, err
		}
		return nil, apperrors.Internal("create room", err)
	}

	e.log.Info("🏠 房间已创建",
		zap.String("room", r.ID),
		zap.String("mode", string(r.Config.Mode)),
		zap.String("voteType", string(r.Config.VoteType)),
		zap.Int("maxCycles", r.Config.MaxCycles))
	return r, nil
}

// Room 读取房间快照
func (e *Engine) Room(ctx context.Context, roomID string) (*room.Room, error) {
	return e.load(ctx, roomID)
}

// Rooms 列出所有房间
func (e *Engine) Rooms(ctx context.Context) ([]*room.Room, error) {
	rooms, err := e.repo.List(ctx)
	if err != nil {
		return nil, apperrors.Internal("list rooms", err)
	}
	return rooms, nil
}

// ForceCompleteRound 不等投票直接结算当前轮（调试接口）
func (e *Engine) ForceCompleteRound(ctx context.Context, roomID string) error {
	unlock := e.locks.lock(roomID)
	defer unlock()

	r, err := e.load(ctx, roomID)
	if err != nil {
		return err
	}
	if r.Phase != room.PhaseInRound || r.CurrentRound == nil {
		return apperrors.ErrNoActiveRound
	}

	var out outbox
	closed := e.completeRound(r, &out)
	if err := e.save(ctx, r); err != nil {
		return err
	}
	e.flush(&out)
	e.afterComplete(ctx, r, closed)

	e.log.Info("⏩ 强制结算", zap.String("room", roomID))
	return nil
}

// ResetRoom 重置对局（调试接口），玩家保留
func (e *Engine) ResetRoom(ctx context.Context, roomID string) error {
	unlock := e.locks.lock(roomID)
	defer unlock()

	r, err := e.load(ctx, roomID)
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

	e.log.Info("🧹 房间已重置", zap.String("room", roomID))
	return nil
}

// DeleteRoom 删除房间，房间内的连接收到 left_room 并解除绑定
func (e *Engine) DeleteRoom(ctx context.Context, roomID, reason string) error {
	unlock := e.locks.lock(roomID)
	defer unlock()

	r, err := e.load(ctx, roomID)
	if err != nil {
		return err
	}
	if err := e.repo.Delete(ctx, roomID); err != nil {
		return apperrors.Internal("delete room", err)
	}
	e.timers.stop(roomID)

	if reason == "" {
		reason = "Room closed"
	}
	var out outbox
	for _, connID := range e.sessions.UnbindRoom(roomID) {
		out.conn(connID, protocol.MsgLeftRoom, protocol.LeftRoomPayload{Message: reason})
	}
	e.flush(&out)

	e.log.Info("🗑️ 房间已删除", zap.String("room", roomID), zap.Int("players", len(r.Players)), zap.String("reason", reason))
	return nil
}
