package apperrors

import (
	"errors"
	"fmt"

	"github.com/palemoky/emoguchi/internal/protocol"
)

// Kind 错误分类，决定返回给客户端的错误码
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindInvalidState
	KindInvalidInput
)

// Code 返回分类对应的 EMO-xxx 错误码
func (k Kind) Code() string {
	switch k {
	case KindUnauthenticated:
		return protocol.ErrCodeUnauthenticated
	case KindForbidden:
		return protocol.ErrCodeForbidden
	case KindNotFound:
		return protocol.ErrCodeNotFound
	case KindInvalidState:
		return protocol.ErrCodeConflict
	case KindInvalidInput:
		return protocol.ErrCodeBadRequest
	default:
		return protocol.ErrCodeInternal
	}
}

// GameError 游戏错误（房间、投票、会话共享）
type GameError struct {
	Kind    Kind
	Message string
	Err     error // 原始错误，仅 Internal 使用
}

func (e *GameError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *GameError) Unwrap() error { return e.Err }

// Is 同一个哨兵错误按指针比较；带格式化消息的错误按 Kind+Message 比较
func (e *GameError) Is(target error) bool {
	t, ok := target.(*GameError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

// Code 返回 EMO-xxx 错误码
func (e *GameError) Code() string { return e.Kind.Code() }

// 预定义错误
var (
	ErrUnauthenticated     = &GameError{Kind: KindUnauthenticated, Message: "Not authenticated"}
	ErrNotHost             = &GameError{Kind: KindForbidden, Message: "Only host can perform this action"}
	ErrNotSpeaker          = &GameError{Kind: KindForbidden, Message: "Only the current speaker can send audio"}
	ErrRoomNotFound        = &GameError{Kind: KindNotFound, Message: "Room not found"}
	ErrPlayerNotFound      = &GameError{Kind: KindNotFound, Message: "Room or player not found"}
	ErrNoActiveRound       = &GameError{Kind: KindNotFound, Message: "No active round"}
	ErrRoomExists          = &GameError{Kind: KindInvalidState, Message: "Room already exists"}
	ErrNotWaiting          = &GameError{Kind: KindInvalidState, Message: "Room is not in waiting phase"}
	ErrInvalidRound        = &GameError{Kind: KindInvalidInput, Message: "Invalid round ID"}
	ErrSpeakerCannotVote   = &GameError{Kind: KindInvalidInput, Message: "Speaker cannot vote"}
	ErrInsufficientPlayers = &GameError{Kind: KindInvalidInput, Message: "Need at least 2 players to start the game"}
	ErrNoSpeaker           = &GameError{Kind: KindInvalidInput, Message: "No players available"}
	ErrMissingJoinFields   = &GameError{Kind: KindInvalidInput, Message: "Missing roomId or playerName"}
	ErrMissingVoteFields   = &GameError{Kind: KindInvalidInput, Message: "Missing roundId or emotionId"}
	ErrInvalidRoomID       = &GameError{Kind: KindInvalidInput, Message: "Room id must be 3-20 letters, digits, '-', '_' or Japanese characters"}
	ErrInvalidMessage      = &GameError{Kind: KindInvalidInput, Message: "Invalid message format"}
)

// InvalidState 带当前状态说明的 InvalidState 错误
func InvalidState(format string, args ...any) *GameError {
	return &GameError{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

// InvalidInput 带说明的 InvalidInput 错误
func InvalidInput(format string, args ...any) *GameError {
	return &GameError{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

// Internal 包装意外错误，消息中保留原始错误便于排查
func Internal(op string, err error) *GameError {
	return &GameError{Kind: KindInternal, Message: "Internal server error (" + op + ")", Err: err}
}

// CodeAndMessage 把任意错误映射为一个 error 帧的 code 和 message
func CodeAndMessage(err error) (string, string) {
	var gameErr *GameError
	if errors.As(err, &gameErr) {
		return gameErr.Code(), gameErr.Error()
	}
	return protocol.ErrCodeInternal, "Internal server error: " + err.Error()
}

// KindOf 返回错误的分类，非 GameError 视为 Internal
func KindOf(err error) Kind {
	var gameErr *GameError
	if errors.As(err, &gameErr) {
		return gameErr.Kind
	}
	return KindInternal
}
