package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/palemoky/emoguchi/internal/apperrors"
	"github.com/palemoky/emoguchi/internal/game/room"
)

const (
	// Redis key 前缀
	roomKeyPrefix = "room:"
	roomIndexKey  = "rooms"

	// 默认房间数据过期时间，每次写入刷新
	defaultRoomExpiration = 2 * time.Hour
)

// RedisStore Redis 房间仓库
type RedisStore struct {
	client     *redis.Client
	expiration time.Duration
}

// NewRedisStore 创建 Redis 存储，expiration <= 0 时使用默认值
func NewRedisStore(client *redis.Client, expiration time.Duration) *RedisStore {
	if expiration <= 0 {
		expiration = defaultRoomExpiration
	}
	return &RedisStore{client: client, expiration: expiration}
}

// Create 房间号已存在时返回 ErrRoomExists
func (rs *RedisStore) Create(ctx context.Context, r *room.Room) error {
	data, err := room.Marshal(r)
	if err != nil {
		return err
	}

	ok, err := rs.client.SetNX(ctx, roomKeyPrefix+r.ID, data, rs.expiration).Result()
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.ErrRoomExists
	}
	return rs.client.SAdd(ctx, roomIndexKey, r.ID).Err()
}

// Get 从 Redis 加载房间
func (rs *RedisStore) Get(ctx context.Context, id string) (*room.Room, error) {
	data, err := rs.client.Get(ctx, roomKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // 房间不存在
		}
		return nil, err
	}
	return room.Unmarshal(data)
}

// Update 覆盖保存房间（仅当房间存在）
func (rs *RedisStore) Update(ctx context.Context, r *room.Room) error {
	data, err := room.Marshal(r)
	if err != nil {
		return err
	}

	ok, err := rs.client.SetXX(ctx, roomKeyPrefix+r.ID, data, rs.expiration).Result()
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.ErrRoomNotFound
	}
	return nil
}

// Delete 从 Redis 删除房间
func (rs *RedisStore) Delete(ctx context.Context, id string) error {
	pipe := rs.client.TxPipeline()
	pipe.Del(ctx, roomKeyPrefix+id)
	pipe.SRem(ctx, roomIndexKey, id)
	_, err := pipe.Exec(ctx)
	return err
}

// List 返回所有未过期的房间，顺手清理索引中已过期的房间号
func (rs *RedisStore) List(ctx context.Context) ([]*room.Room, error) {
	ids, err := rs.client.SMembers(ctx, roomIndexKey).Result()
	if err != nil {
		return nil, err
	}

	rooms := make([]*room.Room, 0, len(ids))
	for _, id := range ids {
		r, err := rs.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("加载房间 %s 失败: %w", id, err)
		}
		if r == nil {
			rs.client.SRem(ctx, roomIndexKey, id)
			continue
		}
		rooms = append(rooms, r)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].CreatedAt.Before(rooms[j].CreatedAt) })
	return rooms, nil
}
