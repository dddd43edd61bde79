package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/palemoky/emoguchi/internal/client"
	"github.com/palemoky/emoguchi/internal/config"
	"github.com/palemoky/emoguchi/internal/logger"
)

func main() {
	serverAddr := flag.String("server", "localhost:8000", "服务器地址")
	roomID := flag.String("room", "", "房间号")
	name := flag.String("name", "bot", "玩家名")
	codecName := flag.String("codec", "json", "帧编码：json | proto")
	host := flag.Bool("host", false, "作为房主自动开局")
	minPlayers := flag.Int("players", 2, "房主开局所需人数")
	verbose := flag.Bool("v", false, "输出调试日志")
	flag.Parse()

	if *roomID == "" {
		log.Fatal("缺少 -room 参数")
	}

	level := "info"
	if *verbose {
		level = "debug"
	}
	zl, err := logger.New(config.LogConfig{Level: level, Development: true})
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverURL := fmt.Sprintf("ws://%s/ws", *serverAddr)
	c := client.NewClient(serverURL,
		client.WithCodec(*codecName),
		client.WithLogger(zl),
		client.WithAutoReconnect(5, 2*time.Second),
	)
	if err := c.Connect(ctx); err != nil {
		zl.Fatal("连接服务器失败", zap.String("url", serverURL), zap.Error(err))
	}
	defer c.Close()
	c.StartHeartbeat()

	bot := client.NewBot(c, *roomID, *name, *host, *minPlayers, nil)
	result, err := bot.Run(ctx)
	if err != nil {
		zl.Error("❌ 机器人退出", zap.Error(err))
		os.Exit(1)
	}

	for _, r := range result.Rankings {
		zl.Info("🏆 最终排名", zap.Int("rank", r.Rank), zap.String("name", r.Name), zap.Int("score", r.Score))
	}
}
