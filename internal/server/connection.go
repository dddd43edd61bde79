package server

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/palemoky/emoguchi/internal/protocol"
	"github.com/palemoky/emoguchi/internal/protocol/codec"
)

// HandleWebSocket 处理 WebSocket 连接。?codec=proto 选择 protobuf 二进制帧，默认 JSON。
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	clientIP := GetClientIP(r)

	// 维护模式检查（最优先）
	if s.IsMaintenanceMode() {
		s.log.Info("🔧 维护模式，拒绝新连接", zap.String("ip", clientIP))
		http.Error(w, "Server is under maintenance, please try again later", http.StatusServiceUnavailable)
		return
	}

	// 速率限制检查
	if !s.rateLimiter.Allow(clientIP) {
		s.log.Warn("🚫 IP 请求过于频繁", zap.String("ip", clientIP))
		http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
		return
	}

	// 连接数限制检查，信号量在连接关闭时释放
	select {
	case s.semaphore <- struct{}{}:
	default:
		s.log.Warn("🚫 达到最大连接数限制", zap.Int("max", s.maxConnections), zap.String("ip", clientIP))
		http.Error(w, "Server Full", http.StatusServiceUnavailable)
		return
	}

	// 来源验证在 upgrader.CheckOrigin 中完成，失败时返回 403
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		<-s.semaphore
		s.log.Debug("WebSocket 升级失败", zap.String("ip", clientIP), zap.Error(err))
		return
	}

	client := NewClient(s, conn, codec.ForName(r.URL.Query().Get("codec")))
	client.IP = clientIP
	s.registerClient(client)

	client.SendMessage(codec.MustNewMessage(protocol.MsgConnected, protocol.ConnectedPayload{
		Message:      "Connected to emoguchi",
		ConnectionID: client.ID,
	}))

	s.log.Info("✅ 客户端已连接",
		zap.String("conn", client.ID),
		zap.String("ip", clientIP),
		zap.String("codec", client.codec.Name()))

	go func() {
		defer func() { <-s.semaphore }()
		client.ReadPump()
	}()
	go client.WritePump()
}

// registerClient 注册客户端
func (s *Server) registerClient(client *Client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	s.clients[client.ID] = client
}

// unregisterClient 注销客户端
func (s *Server) unregisterClient(client *Client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	if _, ok := s.clients[client.ID]; ok {
		delete(s.clients, client.ID)
		s.log.Info("❌ 客户端已断开", zap.String("conn", client.ID))
	}
}

// client 按连接 ID 查找客户端
func (s *Server) client(id string) *Client {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return s.clients[id]
}
