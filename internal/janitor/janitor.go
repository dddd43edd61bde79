// Package janitor 定时清理无人且长时间未更新的房间
package janitor

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/palemoky/emoguchi/internal/apperrors"
	"github.com/palemoky/emoguchi/internal/game/room"
	"github.com/palemoky/emoguchi/internal/logger"
)

// 单次清理的最长时间
const sweepTimeout = time.Minute

// Rooms 清理任务需要的房间操作
type Rooms interface {
	Rooms(ctx context.Context) ([]*room.Room, error)
	DeleteRoom(ctx context.Context, roomID, reason string) error
}

// Janitor 房间清理任务
type Janitor struct {
	rooms    Rooms
	ttl      time.Duration
	log      *zap.Logger
	now      func() time.Time
	onDelete func(roomID string)
	cron     *cron.Cron
}

// Option 配置项
type Option func(*Janitor)

// WithOnDelete 房间删除后的回调（例如丢弃预取的台词）
func WithOnDelete(fn func(roomID string)) Option {
	return func(j *Janitor) { j.onDelete = fn }
}

// WithClock 替换时钟（测试用）
func WithClock(now func() time.Time) Option {
	return func(j *Janitor) { j.now = now }
}

// New 创建清理任务
func New(rooms Rooms, ttl time.Duration, log *zap.Logger, opts ...Option) *Janitor {
	j := &Janitor{
		rooms: rooms,
		ttl:   ttl,
		log:   logger.OrNop(log).Named("janitor"),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Start 按 cron 表达式启动（支持 "@every 5m" 这类描述符）
func (j *Janitor) Start(schedule string) error {
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()
		if _, err := j.Sweep(ctx); err != nil {
			j.log.Error("房间清理失败", zap.Error(err))
		}
	}); err != nil {
		return err
	}
	j.cron = c
	c.Start()
	j.log.Info("🧹 房间清理任务已启动", zap.String("schedule", schedule), zap.Duration("ttl", j.ttl))
	return nil
}

// Stop 停止调度并等待正在执行的清理结束
func (j *Janitor) Stop() {
	if j.cron == nil {
		return
	}
	<-j.cron.Stop().Done()
}

// Sweep 删除没有在线玩家且超过 ttl 未更新的房间，返回删除数量
func (j *Janitor) Sweep(ctx context.Context) (int, error) {
	rooms, err := j.rooms.Rooms(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := j.now().Add(-j.ttl)
	removed := 0
	for _, r := range rooms {
		if r.HasConnected() || r.UpdatedAt.After(cutoff) {
			continue
		}
		if err := j.rooms.DeleteRoom(ctx, r.ID, "Room expired"); err != nil {
			// 并发删除时房间可能已经不存在
			if apperrors.KindOf(err) == apperrors.KindNotFound {
				continue
			}
			j.log.Warn("删除过期房间失败", zap.String("room", r.ID), zap.Error(err))
			continue
		}
		if j.onDelete != nil {
			j.onDelete(r.ID)
		}
		removed++
	}

	if removed > 0 {
		j.log.Info("🧹 已清理过期房间", zap.Int("removed", removed), zap.Int("scanned", len(rooms)))
	}
	return removed, nil
}
