// Package prompt 提供每轮的台词和目标情绪。
// 真正的生成器（如 LLM）在外部实现 Generator；这里提供兜底实现、超时包装和按房间的预取队列。
package prompt

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/palemoky/emoguchi/internal/game/emotion"
)

// Generator 根据模式生成一句台词和目标情绪
type Generator interface {
	Generate(ctx context.Context, mode emotion.Mode) (phrase, emotionID string, err error)
}

// GeneratorFunc 函数适配器
type GeneratorFunc func(ctx context.Context, mode emotion.Mode) (string, string, error)

func (f GeneratorFunc) Generate(ctx context.Context, mode emotion.Mode) (string, string, error) {
	return f(ctx, mode)
}

// Prompt 一条预生成的台词
type Prompt struct {
	Phrase    string `json:"phrase"`
	EmotionID string `json:"emotionId"`
}

// ErrEmptyPrompt 生成器返回了空台词或空情绪
var ErrEmptyPrompt = errors.New("prompt: generator returned empty phrase or emotion")

var fallbackPhrases = []string{
	"はぁ…",
	"うそでしょ…",
	"なんで…",
	"まじか",
	"やばい！",
	"えっ！？",
	"なんでよ！",
	"あーあ…",
	"なるほどね",
	"ふーん",
}

// FallbackGenerator 从固定台词表和模式词表中随机选取
type FallbackGenerator struct {
	rng *rand.Rand
	mu  sync.Mutex
}

// NewFallbackGenerator 创建兜底生成器，rng 为 nil 时使用全局随机源
func NewFallbackGenerator(rng *rand.Rand) *FallbackGenerator {
	return &FallbackGenerator{rng: rng}
}

func (g *FallbackGenerator) Generate(_ context.Context, mode emotion.Mode) (string, string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	var phrase string
	if g.rng != nil {
		phrase = fallbackPhrases[g.rng.IntN(len(fallbackPhrases))]
	} else {
		phrase = fallbackPhrases[rand.IntN(len(fallbackPhrases))]
	}
	return phrase, emotion.Random(mode, g.rng).ID, nil
}

// timeoutGenerator 限时调用，超时或出错时使用兜底内容
type timeoutGenerator struct {
	next     Generator
	fallback Generator
	timeout  time.Duration
}

// WithTimeout 包装生成器：超过 timeout、出错或结果为空时改用 fallback，
// 保证慢生成器不会卡住一个房间。
func WithTimeout(next, fallback Generator, timeout time.Duration) Generator {
	return &timeoutGenerator{next: next, fallback: fallback, timeout: timeout}
}

func (g *timeoutGenerator) Generate(ctx context.Context, mode emotion.Mode) (string, string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	type result struct {
		phrase, emotionID string
		err               error
	}
	done := make(chan result, 1)
	go func() {
		p, e, err := g.next.Generate(ctx, mode)
		done <- result{p, e, err}
	}()

	select {
	case res := <-done:
		if res.err == nil && res.phrase != "" && res.emotionID != "" {
			return res.phrase, res.emotionID, nil
		}
	case <-ctx.Done():
	}
	return g.fallback.Generate(context.WithoutCancel(ctx), mode)
}

// Pool 按房间缓存预取的台词，开始新一轮时优先消费
type Pool struct {
	gen    Generator
	queues map[string][]Prompt
	mu     sync.Mutex
}

// NewPool 创建预取池
func NewPool(gen Generator) *Pool {
	return &Pool{gen: gen, queues: make(map[string][]Prompt)}
}

// Prefetch 为房间生成 n 条台词加入队列，并返回本次生成的结果
func (p *Pool) Prefetch(ctx context.Context, roomID string, mode emotion.Mode, n int) ([]Prompt, error) {
	batch := make([]Prompt, 0, n)
	for range n {
		phrase, emotionID, err := p.gen.Generate(ctx, mode)
		if err != nil {
			return nil, err
		}
		if phrase == "" || emotionID == "" {
			return nil, ErrEmptyPrompt
		}
		batch = append(batch, Prompt{Phrase: phrase, EmotionID: emotionID})
	}

	p.mu.Lock()
	p.queues[roomID] = append(p.queues[roomID], batch...)
	p.mu.Unlock()
	return batch, nil
}

// Next 取出房间的下一条台词，队列为空时现场生成
func (p *Pool) Next(ctx context.Context, roomID string, mode emotion.Mode) (string, string, error) {
	p.mu.Lock()
	if q := p.queues[roomID]; len(q) > 0 {
		next := q[0]
		if len(q) == 1 {
			delete(p.queues, roomID)
		} else {
			p.queues[roomID] = q[1:]
		}
		p.mu.Unlock()
		return next.Phrase, next.EmotionID, nil
	}
	p.mu.Unlock()

	phrase, emotionID, err := p.gen.Generate(ctx, mode)
	if err != nil {
		return "", "", err
	}
	if phrase == "" || emotionID == "" {
		return "", "", ErrEmptyPrompt
	}
	return phrase, emotionID, nil
}

// Pending 房间队列中剩余的台词数
func (p *Pool) Pending(roomID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queues[roomID])
}

// Discard 丢弃房间的预取队列（房间删除或重开时）
func (p *Pool) Discard(roomID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.queues, roomID)
}
