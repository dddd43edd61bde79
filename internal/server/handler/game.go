package handler

import (
	"context"

	"github.com/palemoky/emoguchi/internal/apperrors"
	"github.com/palemoky/emoguchi/internal/protocol"
	"github.com/palemoky/emoguchi/internal/types"
)

// handleStartRound 房主开始新一轮
func (h *Handler) handleStartRound(ctx context.Context, client types.ClientInterface, _ *protocol.Message) error {
	if h.server != nil && h.server.IsMaintenanceMode() {
		return apperrors.InvalidState("Server is under maintenance")
	}
	return h.game.StartRound(ctx, client.GetID())
}

// handleSubmitVote 听众投票
func (h *Handler) handleSubmitVote(ctx context.Context, client types.ClientInterface, msg *protocol.Message) error {
	payload, err := parse[protocol.SubmitVotePayload](msg)
	if err != nil {
		return apperrors.ErrMissingVoteFields
	}
	return h.game.SubmitVote(ctx, client.GetID(), payload.RoundID, payload.EmotionID)
}

// handleAudioSend 讲述者上传音频
func (h *Handler) handleAudioSend(ctx context.Context, client types.ClientInterface, msg *protocol.Message) error {
	payload, err := parse[protocol.AudioSendPayload](msg)
	if err != nil {
		return err
	}
	return h.game.RelayAudio(ctx, client.GetID(), payload.Audio)
}
