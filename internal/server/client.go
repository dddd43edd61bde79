package server

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/palemoky/emoguchi/internal/audio"
	"github.com/palemoky/emoguchi/internal/logger"
	"github.com/palemoky/emoguchi/internal/protocol"
	"github.com/palemoky/emoguchi/internal/protocol/codec"
)

const (
	// 写入超时
	writeWait = 10 * time.Second

	// 读取超时（pong 等待时间）
	pongWait = 60 * time.Second

	// ping 发送间隔（必须小于 pongWait）
	pingPeriod = (pongWait * 9) / 10

	// 消息最大大小（音频帧最大，留出信封开销）
	maxMessageSize = audio.MaxClipSize + 64<<10

	// 发送缓冲区大小
	sendBufferSize = 256
)

// Client 一个 WebSocket 连接
type Client struct {
	ID string // 连接 ID，也是会话目录里的 connectionId
	IP string // 客户端 IP 地址

	server  *Server
	conn    *websocket.Conn
	codec   codec.Codec
	limiter *MessageLimiter
	send    chan []byte

	mu     sync.RWMutex
	closed bool
}

// NewClient 创建新客户端
func NewClient(s *Server, conn *websocket.Conn, c codec.Codec) *Client {
	return &Client{
		ID:      uuid.NewString(),
		server:  s,
		conn:    conn,
		codec:   c,
		limiter: NewMessageLimiter(s.config.Security.MessageRate, s.config.Security.MessageBurst),
		send:    make(chan []byte, sendBufferSize),
	}
}

func (c *Client) GetID() string { return c.ID }
func (c *Client) GetIP() string { return c.IP }

// ReadPump 从 WebSocket 读取消息，交给处理器；退出时按掉线处理
func (c *Client) ReadPump() {
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(c.server.log, r)
		}
		c.handleDisconnect()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.server.log.Debug("读取错误", zap.String("conn", c.ID), zap.Error(err))
			}
			return
		}
		// 任何入站消息都说明连接存活
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		// 消息速率限制检查
		if allowed, kick := c.limiter.Allow(); !allowed {
			c.SendMessage(codec.NewErrorMessage(protocol.ErrCodeRateLimit))
			if kick {
				c.server.log.Warn("🚫 客户端因多次超速被断开连接", zap.String("conn", c.ID), zap.String("ip", c.IP))
				return
			}
			continue
		}

		msg, err := c.codec.Decode(data)
		if err != nil {
			c.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeBadRequest, "Invalid message format"))
			continue
		}

		c.server.handler.Handle(c, msg)
		codec.ReleaseMessage(msg)
	}
}

// WritePump 向 WebSocket 写入消息，并定时发送 ping
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// 通道已关闭
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(c.codec.FrameType(), message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendMessage 按连接的编解码器编码后放入发送队列。队列满时关闭连接。
func (c *Client) SendMessage(msg *protocol.Message) {
	data, err := c.codec.Encode(msg)
	if err != nil {
		c.server.log.Error("消息编码错误", zap.String("type", string(msg.Type)), zap.Error(err))
		return
	}

	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return
	}
	full := false
	select {
	case c.send <- data:
	default:
		full = true
	}
	c.mu.RUnlock()

	if full {
		c.server.log.Warn("客户端发送缓冲区已满", zap.String("conn", c.ID))
		c.Close()
	}
}

// handleDisconnect 处理断开连接：通知状态机（保留玩家以便重连），注销连接
func (c *Client) handleDisconnect() {
	c.server.handler.OnDisconnect(c)
	c.server.unregisterClient(c)
	c.Close()
}

// Close 关闭发送队列，WritePump 随后关闭连接
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}
