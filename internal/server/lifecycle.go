package server

import (
	"context"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/palemoky/emoguchi/internal/protocol"
	"github.com/palemoky/emoguchi/internal/protocol/codec"
)

// 监控间隔
const monitorInterval = 30 * time.Second

// MonitorStats 定期记录服务器状态，ctx 取消时退出
func (s *Server) MonitorStats(ctx context.Context) {
	ticker := time.NewTicker(monitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)

			s.log.Info("📊 [监控]",
				zap.Int("online", s.GetOnlineCount()),
				zap.Int("bound", s.sessions.Count()),
				zap.Int("goroutines", runtime.NumGoroutine()),
				zap.Int("activeConns", len(s.semaphore)),
				zap.Int("maxConns", s.maxConnections),
				zap.Float64("allocMB", float64(m.Alloc)/1024/1024))
			s.rateLimiter.Cleanup(10 * time.Minute)
		}
	}
}

// EnterMaintenanceMode 进入维护模式：拒绝新连接和新回合
func (s *Server) EnterMaintenanceMode() {
	s.maintenanceMu.Lock()
	s.maintenanceMode = true
	s.maintenanceMu.Unlock()

	s.BroadcastAll(codec.MustNewMessage(protocol.MsgError, protocol.ErrorPayload{
		Code:    protocol.ErrCodeConflict,
		Message: "Server is under maintenance",
	}))

	s.log.Info("🔧 进入维护模式：停止新连接和新回合")
}

// IsMaintenanceMode 检查是否在维护模式
func (s *Server) IsMaintenanceMode() bool {
	s.maintenanceMu.RLock()
	defer s.maintenanceMu.RUnlock()
	return s.maintenanceMode
}

// Shutdown 关闭所有连接并停止投票计时器
func (s *Server) Shutdown() {
	s.EnterMaintenanceMode()

	s.clientsMu.Lock()
	for _, client := range s.clients {
		client.Close()
	}
	s.clientsMu.Unlock()

	s.engine.Close()
	s.log.Info("服务器已关闭")
}
