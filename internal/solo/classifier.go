package solo

import (
	"bytes"
	"context"
	"io"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/gopxl/beep/v2/wav"

	"github.com/palemoky/emoguchi/internal/apperrors"
)

// ErrUnsupportedAudio 录音不是可解码的 WAV
var ErrUnsupportedAudio = apperrors.InvalidInput("Audio must be a PCM WAV file")

// AudioFeatures 从录音中提取的特征
type AudioFeatures struct {
	Duration  time.Duration
	Amplitude float64 // 平均绝对振幅，范围 0~1
}

// Features 解码 WAV 并计算时长和平均振幅
func Features(audio []byte) (AudioFeatures, error) {
	streamer, format, err := wav.Decode(io.NopCloser(bytes.NewReader(audio)))
	if err != nil {
		return AudioFeatures{}, ErrUnsupportedAudio
	}
	defer func() { _ = streamer.Close() }()

	var (
		buf   = make([][2]float64, 512)
		total float64
		count int
	)
	for {
		n, ok := streamer.Stream(buf)
		for _, s := range buf[:n] {
			total += (math.Abs(s[0]) + math.Abs(s[1])) / 2
		}
		count += n
		if !ok {
			break
		}
	}
	if err := streamer.Err(); err != nil {
		return AudioFeatures{}, ErrUnsupportedAudio
	}

	f := AudioFeatures{Duration: format.SampleRate.D(count)}
	if count > 0 {
		f.Amplitude = total / float64(count)
	}
	return f, nil
}

// HeuristicClassifier 没有接入模型时使用的分类器：按时长和音量给出倾向，再加少量随机扰动
type HeuristicClassifier struct {
	mu    sync.Mutex
	rng   *rand.Rand
	noise float64
}

// NewHeuristicClassifier rng 为 nil 时不加扰动，结果完全由录音决定
func NewHeuristicClassifier(rng *rand.Rand) *HeuristicClassifier {
	c := &HeuristicClassifier{rng: rng}
	if rng != nil {
		c.noise = 0.5
	}
	return c
}

func (c *HeuristicClassifier) Classify(_ context.Context, audio []byte) ([]float64, error) {
	f, err := Features(audio)
	if err != nil {
		return nil, err
	}
	return softmax(c.logits(f)), nil
}

// logits 长录音偏中立，短录音偏悲伤；大音量偏愤怒和喜悦，小音量偏中立和悲伤
func (c *HeuristicClassifier) logits(f AudioFeatures) []float64 {
	l := make([]float64, len(Emotions))
	if c.rng != nil {
		c.mu.Lock()
		for i := range l {
			l[i] = c.rng.NormFloat64() * c.noise
		}
		c.mu.Unlock()
	}

	switch {
	case f.Duration > 3*time.Second:
		l[0] += 0.3
	case f.Duration < time.Second:
		l[3] += 0.2
	}
	if f.Amplitude > 0.1 {
		l[2] += 0.4
		l[1] += 0.3
	} else {
		l[0] += 0.2
		l[3] += 0.2
	}
	return l
}

func softmax(logits []float64) []float64 {
	peak := math.Inf(-1)
	for _, v := range logits {
		peak = max(peak, v)
	}
	out := make([]float64, len(logits))
	var sum float64
	for i, v := range logits {
		out[i] = math.Exp(v - peak)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
