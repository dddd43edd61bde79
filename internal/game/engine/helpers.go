package engine

import (
	"context"

	"github.com/palemoky/emoguchi/internal/apperrors"
	"github.com/palemoky/emoguchi/internal/game/room"
	"github.com/palemoky/emoguchi/internal/server/session"
)

// load 读取房间，不存在时返回 ErrRoomNotFound
func (e *Engine) load(ctx context.Context, roomID string) (*room.Room, error) {
	r, err := e.repo.Get(ctx, roomID)
	if err != nil {
		return nil, apperrors.Internal("load room", err)
	}
	if r == nil {
		return nil, apperrors.ErrRoomNotFound
	}
	return r, nil
}

// save 持久化房间
func (e *Engine) save(ctx context.Context, r *room.Room) error {
	r.UpdatedAt = e.now()
	if err := e.repo.Update(ctx, r); err != nil {
		if apperrors.KindOf(err) != apperrors.KindInternal {
			return err
		}
		return apperrors.Internal("persist room", err)
	}
	return nil
}

// binding 查找连接绑定，未绑定返回 ErrUnauthenticated
func (e *Engine) binding(connID string) (session.Binding, error) {
	b, ok := e.sessions.Lookup(connID)
	if !ok {
		return session.Binding{}, apperrors.ErrUnauthenticated
	}
	return b, nil
}

// loadAsHost 在房间锁内加载房间并校验调用者是房主
func (e *Engine) loadAsHost(ctx context.Context, b session.Binding) (*room.Room, error) {
	r, err := e.load(ctx, b.RoomID)
	if err != nil {
		return nil, err
	}
	p, ok := r.Players[b.PlayerID]
	if !ok {
		return nil, apperrors.ErrPlayerNotFound
	}
	if !p.IsHost {
		return nil, apperrors.ErrNotHost
	}
	return r, nil
}
