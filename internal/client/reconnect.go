package client

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// shouldReconnect 开启了自动重连、仍在房间内且未主动关闭
func (c *Client) shouldReconnect() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.closed && c.maxReconnectAttempts > 0 && c.roomID != "" && !c.reconnecting.Load()
}

// tryReconnect 尝试重连，成功后按名字重新加入房间
func (c *Client) tryReconnect() {
	if !c.reconnecting.CompareAndSwap(false, true) {
		return
	}
	defer c.reconnecting.Store(false)

	for attempt := 1; attempt <= c.maxReconnectAttempts; attempt++ {
		c.log.Info("🔄 尝试重连", zap.Int("attempt", attempt), zap.Int("max", c.maxReconnectAttempts))

		select {
		case <-time.After(c.reconnectInterval):
		case <-c.done:
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), handshakeTimeout)
		conn, err := c.dial(ctx)
		cancel()
		if err != nil {
			c.log.Warn("重连失败", zap.Error(err))
			continue
		}
		c.attach(conn)

		c.mu.RLock()
		roomID, name := c.roomID, c.playerName
		c.mu.RUnlock()
		if err := c.JoinRoom(roomID, name); err != nil {
			c.log.Warn("重新加入房间失败", zap.Error(err))
			return
		}

		if c.OnReconnect != nil {
			c.OnReconnect()
		}
		return
	}

	// 重连失败
	c.Close()
	if c.OnClose != nil {
		c.OnClose()
	}
}

// IsReconnecting 是否正在重连
func (c *Client) IsReconnecting() bool {
	return c.reconnecting.Load()
}
