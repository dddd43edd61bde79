// Package httpapi 房间管理、排行榜和调试用的 HTTP 接口
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/palemoky/emoguchi/internal/apperrors"
	"github.com/palemoky/emoguchi/internal/auth"
	"github.com/palemoky/emoguchi/internal/game/emotion"
	"github.com/palemoky/emoguchi/internal/game/room"
	"github.com/palemoky/emoguchi/internal/logger"
	"github.com/palemoky/emoguchi/internal/prompt"
	"github.com/palemoky/emoguchi/internal/server/storage"
	"github.com/palemoky/emoguchi/internal/solo"
)

// Rooms 房间状态机提供的管理操作
type Rooms interface {
	CreateRoom(ctx context.Context, roomID string, cfg room.Config, hostToken string) (*room.Room, error)
	Room(ctx context.Context, roomID string) (*room.Room, error)
	Rooms(ctx context.Context) ([]*room.Room, error)
	DeleteRoom(ctx context.Context, roomID, reason string) error
	ForceCompleteRound(ctx context.Context, roomID string) error
	ResetRoom(ctx context.Context, roomID string) error
}

// Prefetcher 预取台词
type Prefetcher interface {
	Prefetch(ctx context.Context, roomID string, mode emotion.Mode, n int) ([]prompt.Prompt, error)
}

// LeaderboardReader 排行榜查询
type LeaderboardReader interface {
	Top(ctx context.Context, kind string, limit int) ([]storage.LeaderboardEntry, error)
	GetPlayerStats(ctx context.Context, playerName string) (*storage.PlayerStats, error)
	Rank(ctx context.Context, playerName string) (int64, error)
}

// Solo 单人练习模式
type Solo interface {
	Dialogue(ctx context.Context) solo.Dialogue
	Predict(ctx context.Context, audio []byte, target int) (*solo.Prediction, error)
}

// Options 接口配置
type Options struct {
	AllowedOrigins     []string
	DebugToken         string // 为空时不注册调试接口
	DefaultVoteTimeout int
	DefaultMaxCycles   int
}

// Deps 接口依赖
type Deps struct {
	Rooms       Rooms
	Tokens      *auth.HostTokens
	Prompts     Prefetcher        // 可选
	Leaderboard LeaderboardReader // 可选
	Solo        Solo              // 可选
	Health      func(ctx context.Context) error
	WebSocket   http.HandlerFunc // 可选，挂在 /ws
	Logger      *zap.Logger
}

// API HTTP 处理器集合
type API struct {
	rooms       Rooms
	tokens      *auth.HostTokens
	prompts     Prefetcher
	leaderboard LeaderboardReader
	solo        Solo
	health      func(ctx context.Context) error
	opts        Options
	log         *zap.Logger
}

// NewRouter 创建 gin 路由
func NewRouter(opts Options, deps Deps) *gin.Engine {
	api := &API{
		rooms:       deps.Rooms,
		tokens:      deps.Tokens,
		prompts:     deps.Prompts,
		leaderboard: deps.Leaderboard,
		solo:        deps.Solo,
		health:      deps.Health,
		opts:        opts,
		log:         logger.OrNop(deps.Logger).Named("http"),
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(api.log))
	r.Use(cors.New(corsConfig(opts.AllowedOrigins)))

	r.GET("/health", api.handleHealth)
	if deps.WebSocket != nil {
		r.GET("/ws", gin.WrapF(deps.WebSocket))
	}

	v1 := r.Group("/api/v1")
	{
		v1.POST("/rooms", api.handleCreateRoom)
		v1.GET("/rooms/:id", api.handleGetRoom)
		v1.DELETE("/rooms/:id", api.requireHost, api.handleDeleteRoom)
		v1.POST("/rooms/:id/prefetch", api.requireHost, api.handlePrefetch)

		v1.GET("/leaderboard", api.handleLeaderboard)
		v1.GET("/players/:name/stats", api.handlePlayerStats)
	}

	if deps.Solo != nil {
		v1.GET("/solo/dialogue", api.handleSoloDialogue)
		v1.POST("/solo/predict", api.handleSoloPredict)
	}

	if opts.DebugToken != "" {
		debug := v1.Group("/debug", api.requireDebugToken)
		{
			debug.GET("/rooms", api.handleDebugRooms)
			debug.POST("/rooms/:id/reset", api.handleDebugReset)
			debug.POST("/rooms/:id/complete-round", api.handleDebugCompleteRound)
		}
	}
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", debugTokenHeader},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// requestLogger 请求日志中间件
func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		c.Next()
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

// errorResponse 错误响应体
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// abortWithError 把错误映射为 HTTP 状态码和 EMO-xxx 错误码
func (a *API) abortWithError(c *gin.Context, err error) {
	code, message := apperrors.CodeAndMessage(err)
	status := statusFor(apperrors.KindOf(err))
	if status == http.StatusInternalServerError {
		a.log.Error("❌ 请求处理失败", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, errorResponse{Code: code, Message: message})
}

func statusFor(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperrors.KindForbidden:
		return http.StatusForbidden
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindInvalidState:
		return http.StatusConflict
	case apperrors.KindInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// handleHealth 健康检查接口
func (a *API) handleHealth(c *gin.Context) {
	if a.health != nil {
		if err := a.health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
