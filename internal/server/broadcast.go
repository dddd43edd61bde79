package server

import "github.com/palemoky/emoguchi/internal/protocol"

// GetOnlineCount 获取在线连接数
func (s *Server) GetOnlineCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// Broadcast 广播消息给房间内所有已绑定的连接
func (s *Server) Broadcast(roomID string, msg *protocol.Message) {
	s.BroadcastExcept(roomID, "", msg)
}

// BroadcastExcept 广播消息给房间内除 exceptConnID 外的连接
func (s *Server) BroadcastExcept(roomID, exceptConnID string, msg *protocol.Message) {
	for _, connID := range s.sessions.ConnectionsIn(roomID) {
		if connID == exceptConnID {
			continue
		}
		if c := s.client(connID); c != nil {
			c.SendMessage(msg)
		}
	}
}

// Send 发送消息给单个连接，连接不存在时丢弃
func (s *Server) Send(connID string, msg *protocol.Message) {
	if c := s.client(connID); c != nil {
		c.SendMessage(msg)
	}
}

// SendToPlayer 发送消息给房间内某个玩家当前的连接
func (s *Server) SendToPlayer(roomID, playerID string, msg *protocol.Message) bool {
	connID, ok := s.sessions.ConnectionFor(roomID, playerID)
	if !ok {
		return false
	}
	s.Send(connID, msg)
	return true
}

// BroadcastAll 广播消息给所有连接
func (s *Server) BroadcastAll(msg *protocol.Message) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	for _, client := range s.clients {
		client.SendMessage(msg)
	}
}
