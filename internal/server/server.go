package server

import (
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/palemoky/emoguchi/internal/audio"
	"github.com/palemoky/emoguchi/internal/config"
	"github.com/palemoky/emoguchi/internal/game/engine"
	"github.com/palemoky/emoguchi/internal/logger"
	"github.com/palemoky/emoguchi/internal/server/handler"
	"github.com/palemoky/emoguchi/internal/server/session"
	"github.com/palemoky/emoguchi/internal/server/storage"
)

// 连接限流封禁时长
const connectBanDuration = time.Minute

// Deps 服务器依赖
type Deps struct {
	Repo     storage.Repository
	Prompts  engine.Prompter // 可选
	Recorder engine.Recorder // 可选
	Relay    audio.Relay     // 可选
	Logger   *zap.Logger
	Rand     *rand.Rand // 可选
}

// Server WebSocket 服务器，同时是状态机的消息出口
type Server struct {
	config   *config.Config
	log      *zap.Logger
	engine   *engine.Engine
	sessions *session.Directory
	handler  *handler.Handler
	upgrader websocket.Upgrader

	clients   map[string]*Client
	clientsMu sync.RWMutex

	// 安全组件
	rateLimiter   *RateLimiter
	originChecker *OriginChecker

	// 连接控制
	maxConnections int
	semaphore      chan struct{} // 信号量控制并发连接数

	// 维护模式
	maintenanceMode bool
	maintenanceMu   sync.RWMutex
}

// NewServer 创建服务器实例
func NewServer(cfg *config.Config, deps Deps) *Server {
	s := &Server{
		config:         cfg,
		log:            logger.OrNop(deps.Logger).Named("server"),
		sessions:       session.NewDirectory(),
		clients:        make(map[string]*Client),
		rateLimiter:    NewRateLimiter(cfg.Security.ConnectRate, cfg.Security.ConnectBurst, connectBanDuration),
		originChecker:  NewOriginChecker(cfg.Server.AllowedOrigins),
		maxConnections: cfg.Server.MaxConnections,
		semaphore:      make(chan struct{}, cfg.Server.MaxConnections),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.originChecker.Check,
	}

	// 初始化状态机，消息通过本服务器投递
	s.engine = engine.New(engine.Config{
		PromptTimeout:      cfg.Game.PromptTimeoutDuration(),
		EnforceVoteTimeout: cfg.Game.EnforceVoteTimeout,
	}, engine.Deps{
		Repo:     deps.Repo,
		Sessions: s.sessions,
		Out:      s,
		Prompts:  deps.Prompts,
		Recorder: deps.Recorder,
		Relay:    deps.Relay,
		Logger:   deps.Logger,
		Rand:     deps.Rand,
	})

	// 初始化消息处理器
	s.handler = handler.NewHandler(handler.HandlerDeps{
		Server: s,
		Game:   s.engine,
		Logger: deps.Logger,
	})

	s.log.Info("🔒 安全配置",
		zap.Float64("messageRate", cfg.Security.MessageRate),
		zap.Int("messageBurst", cfg.Security.MessageBurst),
		zap.Float64("connectRate", cfg.Security.ConnectRate),
		zap.Int("maxConnections", cfg.Server.MaxConnections))
	return s
}

// Engine 房间状态机（HTTP 接口和清理任务共用）
func (s *Server) Engine() *engine.Engine {
	return s.engine
}

// Sessions 会话目录
func (s *Server) Sessions() *session.Directory {
	return s.sessions
}

// Routes 注册 WebSocket 入口
func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", s.HandleWebSocket)
}
