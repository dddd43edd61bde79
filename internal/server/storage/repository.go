package storage

import (
	"context"

	"github.com/palemoky/emoguchi/internal/game/room"
)

// Repository 房间仓库。Get 在房间不存在时返回 (nil, nil)。
// 实现返回的 Room 是副本，修改后需 Update 才会生效。
type Repository interface {
	Create(ctx context.Context, r *room.Room) error
	Get(ctx context.Context, id string) (*room.Room, error)
	Update(ctx context.Context, r *room.Room) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*room.Room, error)
}
