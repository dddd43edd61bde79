// Package solo 单人练习模式：给出台词和目标情绪，对上传的录音做情绪分类并打分
package solo

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"

	"go.uber.org/zap"

	"github.com/palemoky/emoguchi/internal/apperrors"
	"github.com/palemoky/emoguchi/internal/game/emotion"
	"github.com/palemoky/emoguchi/internal/game/scoring"
	"github.com/palemoky/emoguchi/internal/logger"
	"github.com/palemoky/emoguchi/internal/prompt"
)

const (
	// CorrectBonus 分类结果与目标一致时的加分
	CorrectBonus = 50
	maxScore     = 100

	fallbackPhrase = "こんにちは"
)

// Emotion 单人模式可判定的情绪类别，ID 与分类器输出的下标一致
type Emotion struct {
	ID    int    `json:"id"`
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Emotions 单人模式的四个类别
var Emotions = [...]Emotion{
	{0, "neutral", "中立"},
	{1, "joy", "喜び"},
	{2, "anger", "怒り"},
	{3, "sadness", "悲しみ"},
}

// ValidEmotion 类别 ID 是否在范围内
func ValidEmotion(id int) bool {
	return id >= 0 && id < len(Emotions)
}

// Classifier 语音情绪分类器，返回每个类别的概率（和为 1）
type Classifier interface {
	Classify(ctx context.Context, audio []byte) ([]float64, error)
}

// Dialogue 一条练习台词
type Dialogue struct {
	EmotionID   int    `json:"emotion_id"`
	EmotionName string `json:"emotion_name"`
	Dialogue    string `json:"dialogue"`
}

// Prediction 一次练习的判定结果
type Prediction struct {
	Emotion        string               `json:"emotion"`
	PredictedClass int                  `json:"predicted_class"`
	TargetClass    int                  `json:"target_class"`
	Score          int                  `json:"score"`
	Confidence     float64              `json:"confidence"`
	IsCorrect      bool                 `json:"is_correct"`
	Relationship   scoring.Relationship `json:"relationship,omitempty"`
	Closeness      int                  `json:"closeness"`
	Message        string               `json:"message"`
}

// Service 单人模式
type Service struct {
	prompts    prompt.Generator
	classifier Classifier
	log        *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// Option 配置项
type Option func(*Service)

// WithRand 指定随机源（测试用）
func WithRand(rng *rand.Rand) Option {
	return func(s *Service) { s.rng = rng }
}

// WithLogger 指定日志
func WithLogger(log *zap.Logger) Option {
	return func(s *Service) { s.log = log }
}

// NewService 创建单人模式服务
func NewService(prompts prompt.Generator, classifier Classifier, opts ...Option) *Service {
	s := &Service{prompts: prompts, classifier: classifier}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logger.OrNop(s.log).Named("solo")
	return s
}

func (s *Service) intN(n int) int {
	if s.rng == nil {
		return rand.IntN(n)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}

// Dialogue 随机选一个目标情绪并生成台词，生成失败时退回中立和固定台词
func (s *Service) Dialogue(ctx context.Context) Dialogue {
	target := Emotions[s.intN(len(Emotions))]
	phrase, _, err := s.prompts.Generate(ctx, emotion.ModeBasic)
	if err != nil || phrase == "" {
		s.log.Warn("⚠️ 台词生成失败，使用默认台词", zap.Error(err))
		return Dialogue{EmotionID: Emotions[0].ID, EmotionName: Emotions[0].Label, Dialogue: fallbackPhrase}
	}
	return Dialogue{EmotionID: target.ID, EmotionName: target.Label, Dialogue: phrase}
}

// Predict 分类录音并打分：目标类别的概率 × 100，命中再加 CorrectBonus，上限 100
func (s *Service) Predict(ctx context.Context, audio []byte, target int) (*Prediction, error) {
	if !ValidEmotion(target) {
		return nil, apperrors.InvalidInput("target_emotion must be between 0 and %d", len(Emotions)-1)
	}

	probs, err := s.classifier.Classify(ctx, audio)
	if err != nil {
		return nil, err
	}
	if len(probs) != len(Emotions) {
		return nil, apperrors.Internal("classify audio", fmt.Errorf("classifier returned %d classes, want %d", len(probs), len(Emotions)))
	}

	predicted := 0
	for i, p := range probs {
		if p > probs[predicted] {
			predicted = i
		}
	}

	res := &Prediction{
		Emotion:        Emotions[predicted].Label,
		PredictedClass: predicted,
		TargetClass:    target,
		Confidence:     math.Round(probs[predicted]*10000) / 100,
		IsCorrect:      predicted == target,
	}

	base := int(math.Round(probs[target] * 100))
	if res.IsCorrect {
		res.Score = min(base+CorrectBonus, maxScore)
		res.Relationship = scoring.RelationExact
		res.Closeness = maxScore
		res.Message = fmt.Sprintf("🎉 正解！%sの感情を正確に演技できました！(+%d点ボーナス)", Emotions[target].Label, CorrectBonus)
	} else {
		res.Score = base
		// 中立不在情绪轮上，没有部分分
		if c, err := scoring.Plutchik(Emotions[target].Key, Emotions[predicted].Key, maxScore); err == nil {
			res.Relationship = c.Relationship
			res.Closeness = c.Score
		}
		res.Message = fmt.Sprintf("目標は「%s」でしたが、「%s」として認識されました。", Emotions[target].Label, Emotions[predicted].Label)
	}

	s.log.Info("🎯 单人模式判定",
		zap.Int("target", target),
		zap.Int("predicted", predicted),
		zap.Int("score", res.Score),
	)
	return res, nil
}
