package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/palemoky/emoguchi/internal/auth"
	"github.com/palemoky/emoguchi/internal/config"
	"github.com/palemoky/emoguchi/internal/game/engine"
	"github.com/palemoky/emoguchi/internal/httpapi"
	"github.com/palemoky/emoguchi/internal/janitor"
	"github.com/palemoky/emoguchi/internal/logger"
	"github.com/palemoky/emoguchi/internal/prompt"
	"github.com/palemoky/emoguchi/internal/server"
	"github.com/palemoky/emoguchi/internal/server/storage"
	"github.com/palemoky/emoguchi/internal/solo"
)

const (
	redisPingTimeout = 3 * time.Second
	shutdownTimeout  = 10 * time.Second
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	flag.Parse()

	// 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("加载配置文件失败，使用默认配置: %v", err)
		cfg = config.Default()
	}

	zl, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zl); err != nil {
		zl.Error("❌ 服务器异常退出", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, zl *zap.Logger) error {
	// Redis 可选：redis 驱动必需，其它驱动下只用于排行榜
	rdb := connectRedis(ctx, cfg, zl)
	if rdb != nil {
		defer rdb.Close()
	}

	repo, err := openRepository(cfg, rdb, zl)
	if err != nil {
		return err
	}

	var recorder engine.Recorder
	var leaderboard httpapi.LeaderboardReader
	if rdb != nil {
		lb := storage.NewLeaderboard(rdb)
		recorder, leaderboard = lb, lb
	}

	generator := prompt.NewFallbackGenerator(nil)
	pool := prompt.NewPool(generator)
	soloMode := solo.NewService(generator,
		solo.NewHeuristicClassifier(rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))),
		solo.WithLogger(zl),
	)

	srv := server.NewServer(cfg, server.Deps{
		Repo:     repo,
		Prompts:  pool,
		Recorder: recorder,
		Logger:   zl,
	})

	var health func(context.Context) error
	if rdb != nil {
		health = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	router := httpapi.NewRouter(httpapi.Options{
		AllowedOrigins:     cfg.Server.AllowedOrigins,
		DebugToken:         cfg.Security.DebugToken,
		DefaultVoteTimeout: cfg.Game.DefaultVoteTimeout,
		DefaultMaxCycles:   cfg.Game.DefaultMaxCycles,
	}, httpapi.Deps{
		Rooms:       srv.Engine(),
		Tokens:      auth.NewHostTokens(cfg.Security.HostTokenSecret, 0),
		Prompts:     pool,
		Leaderboard: leaderboard,
		Solo:        soloMode,
		Health:      health,
		WebSocket:   srv.HandleWebSocket,
		Logger:      zl,
	})

	// 清理长时间无人的房间
	jan := janitor.New(srv.Engine(), cfg.Game.RoomTTLDuration(), zl, janitor.WithOnDelete(pool.Discard))
	if err := jan.Start(cfg.Game.CleanupSchedule); err != nil {
		return err
	}
	defer jan.Stop()

	go srv.MonitorStats(ctx)

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("🎭 emoguchi 服务器启动", zap.String("addr", httpServer.Addr), zap.String("driver", cfg.Database.Driver))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	// 优雅关闭
	zl.Info("正在关闭服务器...")
	srv.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// connectRedis 连接 Redis，失败时返回 nil
func connectRedis(ctx context.Context, cfg *config.Config, zl *zap.Logger) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		zl.Warn("⚠️ Redis 不可用，排行榜已关闭", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		_ = rdb.Close()
		return nil
	}
	zl.Info("✅ Redis 已连接", zap.String("addr", cfg.Redis.Addr))
	return rdb
}

// openRepository 按驱动创建房间仓库
func openRepository(cfg *config.Config, rdb *redis.Client, zl *zap.Logger) (storage.Repository, error) {
	switch cfg.Database.Driver {
	case config.DriverRedis:
		if rdb == nil {
			return nil, errors.New("redis driver selected but redis is unavailable")
		}
		return storage.NewRedisStore(rdb, 0), nil
	case config.DriverPostgres:
		db, err := storage.OpenPostgres(cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		zl.Info("✅ PostgreSQL 已连接")
		return storage.NewPostgresStore(db), nil
	case config.DriverMemory:
		return storage.NewMemoryStore(), nil
	default:
		return nil, errors.New("unknown database driver: " + cfg.Database.Driver)
	}
}
