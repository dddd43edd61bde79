package handler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/palemoky/emoguchi/internal/apperrors"
	"github.com/palemoky/emoguchi/internal/logger"
	"github.com/palemoky/emoguchi/internal/protocol"
	"github.com/palemoky/emoguchi/internal/protocol/codec"
	"github.com/palemoky/emoguchi/internal/types"
)

// requestTimeout 单条消息处理的最长时间（包含台词生成）
const requestTimeout = 15 * time.Second

// GameService 房间状态机提供的操作
type GameService interface {
	Join(ctx context.Context, connID, roomID, playerName string) error
	Leave(ctx context.Context, connID string) error
	StartRound(ctx context.Context, connID string) error
	SubmitVote(ctx context.Context, connID, roundID, emotionID string) error
	RestartGame(ctx context.Context, connID string) error
	RelayAudio(ctx context.Context, connID, data string) error
	HandleDisconnect(ctx context.Context, connID string) error
}

// HandlerDeps 处理器依赖
type HandlerDeps struct {
	Server types.ServerInterface
	Game   GameService
	Logger *zap.Logger
}

// Handler 消息处理器
type Handler struct {
	server   types.ServerInterface
	game     GameService
	log      *zap.Logger
	handlers map[protocol.MessageType]handlerFunc
}

// handlerFunc 统一的处理器函数签名，返回的错误会转换成一条 error 消息
type handlerFunc func(ctx context.Context, client types.ClientInterface, msg *protocol.Message) error

// NewHandler 创建处理器
func NewHandler(deps HandlerDeps) *Handler {
	h := &Handler{
		server: deps.Server,
		game:   deps.Game,
		log:    logger.OrNop(deps.Logger).Named("handler"),
	}
	h.initHandlers()
	return h
}

// initHandlers 初始化消息处理器映射
func (h *Handler) initHandlers() {
	h.handlers = map[protocol.MessageType]handlerFunc{
		// 连接操作
		protocol.MsgPing: h.handlePing,

		// 房间操作
		protocol.MsgJoinRoom:    h.handleJoinRoom,
		protocol.MsgLeaveRoom:   h.handleLeaveRoom,
		protocol.MsgRestartGame: h.handleRestartGame,

		// 游戏操作
		protocol.MsgStartRound: h.handleStartRound,
		protocol.MsgSubmitVote: h.handleSubmitVote,
		protocol.MsgAudioSend:  h.handleAudioSend,
	}
}

// Handle 处理消息。任何失败（包括 panic）都只回复一条 error 消息给发送者。
func (h *Handler) Handle(client types.ClientInterface, msg *protocol.Message) {
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(h.log, r)
			client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInternal))
		}
	}()

	handler, ok := h.handlers[msg.Type]
	if !ok {
		h.log.Warn("⚠️ 未知消息类型",
			zap.String("type", string(msg.Type)),
			zap.String("conn", client.GetID()),
			zap.Int("payloadBytes", len(msg.Payload)))
		h.sendError(client, apperrors.InvalidInput("Unknown message type: %s", msg.Type))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if err := handler(ctx, client, msg); err != nil {
		h.sendError(client, err)
	}
}

// OnDisconnect 连接断开时通知状态机
func (h *Handler) OnDisconnect(client types.ClientInterface) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	if err := h.game.HandleDisconnect(ctx, client.GetID()); err != nil {
		h.log.Error("处理掉线失败", zap.String("conn", client.GetID()), zap.Error(err))
	}
}

// sendError 把错误映射为 EMO-xxx 错误码发送给客户端
func (h *Handler) sendError(client types.ClientInterface, err error) {
	code, text := apperrors.CodeAndMessage(err)
	if code == protocol.ErrCodeInternal {
		h.log.Error("❌ 处理消息失败", zap.String("conn", client.GetID()), zap.Error(err))
	}
	client.SendMessage(codec.NewErrorMessageWithText(code, text))
}

// parse 解析 payload，失败时返回 InvalidInput
func parse[T any](msg *protocol.Message) (*T, error) {
	payload, err := codec.ParsePayload[T](msg)
	if err != nil {
		return nil, apperrors.ErrInvalidMessage
	}
	return payload, nil
}
