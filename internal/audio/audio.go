// Package audio 转发讲述者的音频。编码、变声和情绪识别都在外部完成。
package audio

import (
	"context"
	"time"

	"github.com/palemoky/emoguchi/internal/apperrors"
	"github.com/palemoky/emoguchi/internal/protocol"
	"github.com/palemoky/emoguchi/internal/protocol/codec"
)

// MaxClipSize 单段音频（编码后）上限
const MaxClipSize = 2 << 20

// ErrClipTooLarge 音频超过上限
var ErrClipTooLarge = apperrors.InvalidInput("Audio clip exceeds %d bytes", MaxClipSize)

// ErrEmptyClip 音频为空
var ErrEmptyClip = apperrors.InvalidInput("Missing audio")

// Clip 一段讲述者音频
type Clip struct {
	RoomID       string
	RoundID      string
	SpeakerID    string
	ConnectionID string // 讲述者的连接，转发时跳过
	Data         string
	ReceivedAt   time.Time
}

// Validate 检查音频大小
func (c Clip) Validate() error {
	if c.Data == "" {
		return ErrEmptyClip
	}
	if len(c.Data) > MaxClipSize {
		return ErrClipTooLarge
	}
	return nil
}

// Relay 把讲述者的音频交给外部处理或转发给听众
type Relay interface {
	Relay(ctx context.Context, clip Clip) error
}

// Classification 情绪识别结果（外部服务提供，本服务不做评分）
type Classification struct {
	PredictedEmotion string
	Score            float64
	Confidence       float64
}

// Classifier 外部情绪识别服务
type Classifier interface {
	Classify(ctx context.Context, audio []byte, targetEmotion string) (Classification, error)
}

// Publisher 按房间广播，跳过指定连接
type Publisher interface {
	BroadcastExcept(roomID, exceptConnID string, msg *protocol.Message)
}

// BroadcastRelay 默认实现：以 audio_received 转发给房间内其他连接
type BroadcastRelay struct {
	out Publisher
}

// NewBroadcastRelay 创建广播转发
func NewBroadcastRelay(out Publisher) *BroadcastRelay {
	return &BroadcastRelay{out: out}
}

func (r *BroadcastRelay) Relay(_ context.Context, clip Clip) error {
	if err := clip.Validate(); err != nil {
		return err
	}
	msg, err := codec.NewMessage(protocol.MsgAudioReceived, protocol.AudioReceivedPayload{
		RoundID:   clip.RoundID,
		SpeakerID: clip.SpeakerID,
		Audio:     clip.Data,
	})
	if err != nil {
		return apperrors.Internal("encode audio", err)
	}
	r.out.BroadcastExcept(clip.RoomID, clip.ConnectionID, msg)
	return nil
}
