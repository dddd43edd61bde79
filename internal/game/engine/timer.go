package engine

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/palemoky/emoguchi/internal/apperrors"
)

// voteTimers 每个房间最多一个投票计时器，绑定到具体的 roundID
type voteTimers struct {
	mu     sync.Mutex
	timers map[string]*voteTimer
}

type voteTimer struct {
	roundID string
	timer   *time.Timer
}

func newVoteTimers() *voteTimers {
	return &voteTimers{timers: make(map[string]*voteTimer)}
}

func (vt *voteTimers) start(roomID, roundID string, d time.Duration, fire func()) {
	vt.mu.Lock()
	defer vt.mu.Unlock()

	if old, ok := vt.timers[roomID]; ok {
		old.timer.Stop()
	}
	vt.timers[roomID] = &voteTimer{roundID: roundID, timer: time.AfterFunc(d, fire)}
}

func (vt *voteTimers) stop(roomID string) {
	vt.mu.Lock()
	defer vt.mu.Unlock()

	if t, ok := vt.timers[roomID]; ok {
		t.timer.Stop()
		delete(vt.timers, roomID)
	}
}

// clear 计时器触发后移除自身（只移除同一轮的）
func (vt *voteTimers) clear(roomID, roundID string) {
	vt.mu.Lock()
	defer vt.mu.Unlock()

	if t, ok := vt.timers[roomID]; ok && t.roundID == roundID {
		delete(vt.timers, roomID)
	}
}

func (vt *voteTimers) active(roomID string) (string, bool) {
	vt.mu.Lock()
	defer vt.mu.Unlock()
	t, ok := vt.timers[roomID]
	if !ok {
		return "", false
	}
	return t.roundID, true
}

func (vt *voteTimers) stopAll() {
	vt.mu.Lock()
	defer vt.mu.Unlock()
	for id, t := range vt.timers {
		t.timer.Stop()
		delete(vt.timers, id)
	}
}

// startVoteTimer 为当前轮启动投票时限
func (e *Engine) startVoteTimer(roomID, roundID string, d time.Duration) {
	if !e.cfg.EnforceVoteTimeout || d <= 0 {
		return
	}
	e.timers.start(roomID, roundID, d, func() {
		e.timers.clear(roomID, roundID)
		ctx, cancel := context.WithTimeout(context.Background(), timerOpTimeout)
		defer cancel()
		if err := e.expireRound(ctx, roomID, roundID); err != nil && apperrors.KindOf(err) == apperrors.KindInternal {
			e.log.Error("⏰ 投票超时结算失败", zap.String("room", roomID), zap.String("round", roundID), zap.Error(err))
		}
	})
}

// expireRound 投票时限到达，按正常结算路径完成这一轮
func (e *Engine) expireRound(ctx context.Context, roomID, roundID string) error {
	unlock := e.locks.lock(roomID)
	defer unlock()

	r, err := e.load(ctx, roomID)
	if err != nil {
		return err
	}
	// 这一轮已经正常结束
	if r.CurrentRound == nil || r.CurrentRound.ID != roundID {
		return nil
	}

	e.log.Info("⏰ 投票超时，自动结算", zap.String("room", roomID), zap.String("round", roundID))
	var out outbox
	closed := e.completeRound(r, &out)
	if err := e.save(ctx, r); err != nil {
		return err
	}
	e.flush(&out)
	e.afterComplete(ctx, r, closed)
	return nil
}
