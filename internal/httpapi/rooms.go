package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/palemoky/emoguchi/internal/apperrors"
	"github.com/palemoky/emoguchi/internal/game/emotion"
	"github.com/palemoky/emoguchi/internal/game/engine"
	"github.com/palemoky/emoguchi/internal/game/room"
	"github.com/palemoky/emoguchi/internal/protocol"
)

const (
	defaultPrefetchCount = 5
	maxPrefetchCount     = 20
)

// createRoomRequest 创建房间请求
type createRoomRequest struct {
	RoomID string                   `json:"roomId"`
	Config *protocol.RoomConfigInfo `json:"config"`
}

// createRoomResponse 创建房间响应
type createRoomResponse struct {
	RoomID    string                  `json:"roomId"`
	HostToken string                  `json:"hostToken"`
	Config    protocol.RoomConfigInfo `json:"config"`
}

// handleCreateRoom 创建房间，返回房主令牌
func (a *API) handleCreateRoom(c *gin.Context) {
	var req createRoomRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			a.abortWithError(c, apperrors.InvalidInput("Invalid request body"))
			return
		}
	}

	roomID := strings.TrimSpace(req.RoomID)
	if roomID == "" {
		roomID = room.GenerateID()
	}
	if !room.ValidateID(roomID) {
		a.abortWithError(c, apperrors.ErrInvalidRoomID)
		return
	}

	token, err := a.tokens.Issue(roomID)
	if err != nil {
		a.abortWithError(c, apperrors.Internal("issue host token", err))
		return
	}

	r, err := a.rooms.CreateRoom(c.Request.Context(), roomID, a.roomConfig(req.Config), token)
	if err != nil {
		a.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, createRoomResponse{
		RoomID:    r.ID,
		HostToken: token,
		Config:    engine.ConfigInfo(r.Config),
	})
}

// roomConfig 请求中的配置，缺省项使用服务端默认值
func (a *API) roomConfig(in *protocol.RoomConfigInfo) room.Config {
	cfg := room.Config{
		VoteTimeoutSeconds: a.opts.DefaultVoteTimeout,
		MaxCycles:          a.opts.DefaultMaxCycles,
	}
	if in == nil {
		return cfg.Normalize()
	}
	cfg.Mode = emotion.Mode(in.Mode)
	cfg.VoteType = room.VoteType(in.VoteType)
	cfg.SpeakerOrder = room.SpeakerOrder(in.SpeakerOrder)
	cfg.HardMode = in.HardMode
	if in.VoteTimeoutSeconds > 0 {
		cfg.VoteTimeoutSeconds = in.VoteTimeoutSeconds
	}
	if in.MaxCycles > 0 {
		cfg.MaxCycles = in.MaxCycles
	}
	return cfg.Normalize()
}

// handleGetRoom 房间公开状态（与 room_state 相同）
func (a *API) handleGetRoom(c *gin.Context) {
	r, err := a.rooms.Room(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, engine.RoomState(r))
}

// requireHost 校验 Authorization: Bearer <hostToken>
func (a *API) requireHost(c *gin.Context) {
	roomID := c.Param("id")
	header := c.GetHeader("Authorization")
	if header == "" {
		a.abortWithError(c, apperrors.ErrUnauthenticated)
		return
	}
	if err := a.tokens.Verify(header, roomID); err != nil {
		a.abortWithError(c, err)
		return
	}
	c.Next()
}

// handleDeleteRoom 房主关闭房间
func (a *API) handleDeleteRoom(c *gin.Context) {
	roomID := c.Param("id")
	if err := a.rooms.DeleteRoom(c.Request.Context(), roomID, "Room closed by host"); err != nil {
		a.abortWithError(c, err)
		return
	}
	a.log.Info("🗑️ 房主关闭房间", zap.String("room", roomID))
	c.Status(http.StatusNoContent)
}

// handlePrefetch 为房间预取一批台词
func (a *API) handlePrefetch(c *gin.Context) {
	if a.prompts == nil {
		a.abortWithError(c, apperrors.InvalidState("Prompt prefetch is not enabled"))
		return
	}

	n := defaultPrefetchCount
	if v := c.Query("count"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 || parsed > maxPrefetchCount {
			a.abortWithError(c, apperrors.InvalidInput("count must be between 1 and %d", maxPrefetchCount))
			return
		}
		n = parsed
	}

	ctx := c.Request.Context()
	r, err := a.rooms.Room(ctx, c.Param("id"))
	if err != nil {
		a.abortWithError(c, err)
		return
	}

	prompts, err := a.prompts.Prefetch(ctx, r.ID, r.Config.Mode, n)
	if err != nil {
		a.abortWithError(c, apperrors.Internal("prefetch prompts", err))
		return
	}

	out := make([]gin.H, 0, len(prompts))
	for _, p := range prompts {
		out = append(out, gin.H{"phrase": p.Phrase, "emotionId": p.EmotionID})
	}
	c.JSON(http.StatusOK, gin.H{"roomId": r.ID, "prompts": out})
}
