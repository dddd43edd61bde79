package handler

import (
	"context"
	"time"

	"github.com/palemoky/emoguchi/internal/protocol"
	"github.com/palemoky/emoguchi/internal/protocol/codec"
	"github.com/palemoky/emoguchi/internal/types"
)

// handlePing 处理心跳消息
func (h *Handler) handlePing(_ context.Context, client types.ClientInterface, msg *protocol.Message) error {
	var ts int64
	if payload, err := codec.ParsePayload[protocol.PingPayload](msg); err == nil {
		ts = payload.Timestamp
	}

	// 立即回复 pong
	client.SendMessage(codec.MustNewMessage(protocol.MsgPong, protocol.PongPayload{
		ClientTimestamp: ts,
		ServerTimestamp: time.Now().UnixMilli(),
	}))
	return nil
}
