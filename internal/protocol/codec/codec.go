package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"

	"github.com/palemoky/emoguchi/internal/protocol"
)

// ErrEmptyPayload 消息缺少 payload
var ErrEmptyPayload = errors.New("empty payload")

// Codec 帧编解码器，每个连接在握手时选定一种
type Codec interface {
	Name() string
	// FrameType 返回 websocket 帧类型（TextMessage / BinaryMessage）
	FrameType() int
	Encode(msg *protocol.Message) ([]byte, error)
	Decode(data []byte) (*protocol.Message, error)
}

// ForName 按名字选择编解码器，未知名字回落到 JSON
func ForName(name string) Codec {
	switch name {
	case ProtoCodecName:
		return ProtoCodec{}
	default:
		return JSONCodec{}
	}
}

// JSONCodecName JSON 文本帧
const JSONCodecName = "json"

// JSONCodec 默认的 JSON 文本帧编解码
type JSONCodec struct{}

func (JSONCodec) Name() string   { return JSONCodecName }
func (JSONCodec) FrameType() int { return websocket.TextMessage }

// Encode 将消息编码为 JSON 字节
func (JSONCodec) Encode(msg *protocol.Message) ([]byte, error) {
	buf := acquireBuffer()
	defer releaseBuffer(buf)

	if err := json.NewEncoder(buf).Encode(msg); err != nil {
		return nil, err
	}
	// Encoder 会追加换行，复制一份避免引用池中的缓冲区
	return append([]byte(nil), bytes.TrimRight(buf.Bytes(), "\n")...), nil
}

// Decode 从 JSON 字节解码消息
// 注意: 使用完毕后可调用 ReleaseMessage 归还对象到池
func (JSONCodec) Decode(data []byte) (*protocol.Message, error) {
	msg := acquireMessage()
	if err := json.Unmarshal(data, msg); err != nil {
		ReleaseMessage(msg)
		return nil, err
	}
	if msg.Type == "" {
		ReleaseMessage(msg)
		return nil, fmt.Errorf("message type missing")
	}
	return msg, nil
}

// NewMessage 创建一个新消息
func NewMessage(msgType protocol.MessageType, payload any) (*protocol.Message, error) {
	var data json.RawMessage
	if payload != nil {
		var err error
		data, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	return &protocol.Message{
		Type:    msgType,
		Payload: data,
	}, nil
}

// MustNewMessage 创建消息，失败时 panic
func MustNewMessage(msgType protocol.MessageType, payload any) *protocol.Message {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		panic(err)
	}
	return msg
}

// ParsePayload 解析消息的 Payload 到指定类型
func ParsePayload[T any](msg *protocol.Message) (*T, error) {
	var payload T
	if len(msg.Payload) == 0 {
		return &payload, ErrEmptyPayload
	}
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// NewErrorMessage 创建错误消息
func NewErrorMessage(code string) *protocol.Message {
	return NewErrorMessageWithText(code, protocol.ErrorMessages[code])
}

// NewErrorMessageWithText 创建带自定义文本的错误消息
func NewErrorMessageWithText(code, text string) *protocol.Message {
	msg, _ := NewMessage(protocol.MsgError, protocol.ErrorPayload{
		Code:    code,
		Message: text,
	})
	return msg
}
