package httpapi

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/palemoky/emoguchi/internal/apperrors"
	"github.com/palemoky/emoguchi/internal/game/engine"
	"github.com/palemoky/emoguchi/internal/protocol"
)

const debugTokenHeader = "X-Debug-Token"

// requireDebugToken 校验调试令牌
func (a *API) requireDebugToken(c *gin.Context) {
	got := c.GetHeader(debugTokenHeader)
	if subtle.ConstantTimeCompare([]byte(got), []byte(a.opts.DebugToken)) != 1 {
		a.abortWithError(c, apperrors.ErrUnauthenticated)
		return
	}
	c.Next()
}

// handleDebugRooms 列出所有房间
func (a *API) handleDebugRooms(c *gin.Context) {
	rooms, err := a.rooms.Rooms(c.Request.Context())
	if err != nil {
		a.abortWithError(c, err)
		return
	}
	out := make([]protocol.RoomStatePayload, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, engine.RoomState(r))
	}
	c.JSON(http.StatusOK, gin.H{"rooms": out})
}

// handleDebugReset 重置房间
func (a *API) handleDebugReset(c *gin.Context) {
	roomID := c.Param("id")
	if err := a.rooms.ResetRoom(c.Request.Context(), roomID); err != nil {
		a.abortWithError(c, err)
		return
	}
	a.log.Warn("🔧 调试：重置房间", zap.String("room", roomID))
	c.JSON(http.StatusOK, gin.H{"roomId": roomID, "status": "reset"})
}

// handleDebugCompleteRound 强制结束当前回合
func (a *API) handleDebugCompleteRound(c *gin.Context) {
	roomID := c.Param("id")
	if err := a.rooms.ForceCompleteRound(c.Request.Context(), roomID); err != nil {
		a.abortWithError(c, err)
		return
	}
	a.log.Warn("🔧 调试：强制结束回合", zap.String("room", roomID))
	c.JSON(http.StatusOK, gin.H{"roomId": roomID, "status": "completed"})
}
