package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/palemoky/emoguchi/internal/apperrors"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
)

// handleLeaderboard 排行榜：?type=total|daily|weekly&limit=10
func (a *API) handleLeaderboard(c *gin.Context) {
	if a.leaderboard == nil {
		a.abortWithError(c, apperrors.InvalidState("Leaderboard is not enabled"))
		return
	}

	kind := c.DefaultQuery("type", "total")
	switch kind {
	case "total", "daily", "weekly":
	default:
		a.abortWithError(c, apperrors.InvalidInput("Unknown leaderboard type: %s", kind))
		return
	}

	limit := defaultLeaderboardLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			a.abortWithError(c, apperrors.InvalidInput("Invalid limit"))
			return
		}
		limit = min(n, maxLeaderboardLimit)
	}

	entries, err := a.leaderboard.Top(c.Request.Context(), kind, limit)
	if err != nil {
		a.abortWithError(c, apperrors.Internal("load leaderboard", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"type": kind, "entries": entries})
}

// handlePlayerStats 玩家历史统计和总榜排名
func (a *API) handlePlayerStats(c *gin.Context) {
	if a.leaderboard == nil {
		a.abortWithError(c, apperrors.InvalidState("Leaderboard is not enabled"))
		return
	}

	ctx := c.Request.Context()
	name := c.Param("name")
	stats, err := a.leaderboard.GetPlayerStats(ctx, name)
	if err != nil {
		a.abortWithError(c, apperrors.Internal("load player stats", err))
		return
	}
	if stats == nil {
		a.abortWithError(c, apperrors.ErrPlayerNotFound)
		return
	}

	rank, err := a.leaderboard.Rank(ctx, name)
	if err != nil {
		a.abortWithError(c, apperrors.Internal("load player rank", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats, "rank": rank})
}
