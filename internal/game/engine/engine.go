// Package engine 房间状态机：加入、开局、投票、结算、重开、离开和掉线。
// 同一房间的操作串行执行：加载 → 修改 → 持久化 → 广播；持久化失败时不会广播任何消息。
package engine

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/palemoky/emoguchi/internal/audio"
	"github.com/palemoky/emoguchi/internal/game/emotion"
	"github.com/palemoky/emoguchi/internal/game/scoring"
	"github.com/palemoky/emoguchi/internal/logger"
	"github.com/palemoky/emoguchi/internal/prompt"
	"github.com/palemoky/emoguchi/internal/protocol"
	"github.com/palemoky/emoguchi/internal/server/session"
	"github.com/palemoky/emoguchi/internal/server/storage"
)

const (
	maxPlayerNameLength = 32
	timerOpTimeout      = 10 * time.Second
)

// Broadcaster 出站消息投递（由连接层实现）
type Broadcaster interface {
	Broadcast(roomID string, msg *protocol.Message)
	BroadcastExcept(roomID, exceptConnID string, msg *protocol.Message)
	Send(connID string, msg *protocol.Message)
}

// Prompter 提供下一轮的台词和目标情绪
type Prompter interface {
	Next(ctx context.Context, roomID string, mode emotion.Mode) (phrase, emotionID string, err error)
}

// Recorder 记录结束的对局（排行榜）
type Recorder interface {
	RecordGame(ctx context.Context, roomID string, rankings []scoring.Ranking) error
}

// Config 状态机配置
type Config struct {
	PromptTimeout      time.Duration // 开局时获取台词的最长等待
	EnforceVoteTimeout bool          // 到达投票时限自动结算
}

// Deps 状态机依赖
type Deps struct {
	Repo     storage.Repository
	Sessions *session.Directory
	Out      Broadcaster
	Prompts  Prompter    // 可选，默认使用兜底台词
	Recorder Recorder    // 可选
	Relay    audio.Relay // 可选，默认广播给房间
	Logger   *zap.Logger // 可选
	Rand     *rand.Rand  // 可选，测试时固定随机序列
	Now      func() time.Time
}

// Engine 房间状态机
type Engine struct {
	repo     storage.Repository
	sessions *session.Directory
	out      Broadcaster
	prompts  Prompter
	fallback prompt.Generator
	recorder Recorder
	relay    audio.Relay
	log      *zap.Logger
	rng      *rand.Rand
	now      func() time.Time
	cfg      Config

	locks  *roomLocks
	timers *voteTimers
}

// New 创建状态机
func New(cfg Config, deps Deps) *Engine {
	e := &Engine{
		repo:     deps.Repo,
		sessions: deps.Sessions,
		out:      deps.Out,
		prompts:  deps.Prompts,
		recorder: deps.Recorder,
		relay:    deps.Relay,
		log:      logger.OrNop(deps.Logger).Named("engine"),
		now:      deps.Now,
		cfg:      cfg,
		locks:    newRoomLocks(),
		timers:   newVoteTimers(),
	}
	if deps.Rand != nil {
		e.rng = rand.New(&lockedSource{src: deps.Rand})
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.sessions == nil {
		e.sessions = session.NewDirectory()
	}
	e.fallback = prompt.NewFallbackGenerator(e.rng)
	if e.relay == nil && e.out != nil {
		e.relay = audio.NewBroadcastRelay(e.out)
	}
	return e
}

// Sessions 会话目录
func (e *Engine) Sessions() *session.Directory {
	return e.sessions
}

// Close 停止所有投票计时器
func (e *Engine) Close() {
	e.timers.stopAll()
}

// lockedSource 让带种子的随机源可以被多个房间并发使用
type lockedSource struct {
	src *rand.Rand
	mu  sync.Mutex
}

func (s *lockedSource) Uint64() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Uint64()
}

// roomLocks 按房间号加锁，引用计数归零时回收
type roomLocks struct {
	mu    sync.Mutex
	locks map[string]*roomLock
}

type roomLock struct {
	mu   sync.Mutex
	refs int
}

func newRoomLocks() *roomLocks {
	return &roomLocks{locks: make(map[string]*roomLock)}
}

// lock 获取房间锁，返回解锁函数
func (l *roomLocks) lock(roomID string) func() {
	l.mu.Lock()
	rl, ok := l.locks[roomID]
	if !ok {
		rl = &roomLock{}
		l.locks[roomID] = rl
	}
	rl.refs++
	l.mu.Unlock()

	rl.mu.Lock()
	return func() {
		rl.mu.Unlock()
		l.mu.Lock()
		rl.refs--
		if rl.refs == 0 {
			delete(l.locks, roomID)
		}
		l.mu.Unlock()
	}
}

func (l *roomLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
