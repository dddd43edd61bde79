package handler

import (
	"context"

	"github.com/palemoky/emoguchi/internal/apperrors"
	"github.com/palemoky/emoguchi/internal/protocol"
	"github.com/palemoky/emoguchi/internal/types"
)

// handleJoinRoom 加入（或按名字重连）房间
func (h *Handler) handleJoinRoom(ctx context.Context, client types.ClientInterface, msg *protocol.Message) error {
	payload, err := parse[protocol.JoinRoomPayload](msg)
	if err != nil {
		return apperrors.ErrMissingJoinFields
	}
	return h.game.Join(ctx, client.GetID(), payload.RoomID, payload.PlayerName)
}

// handleLeaveRoom 离开房间
func (h *Handler) handleLeaveRoom(ctx context.Context, client types.ClientInterface, _ *protocol.Message) error {
	return h.game.Leave(ctx, client.GetID())
}

// handleRestartGame 房主重开
func (h *Handler) handleRestartGame(ctx context.Context, client types.ClientInterface, _ *protocol.Message) error {
	return h.game.RestartGame(ctx, client.GetID())
}
