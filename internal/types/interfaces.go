package types

import (
	"github.com/palemoky/emoguchi/internal/protocol"
)

// ClientInterface 定义客户端连接接口（用于打破 server 与 handler 的循环依赖）
type ClientInterface interface {
	GetID() string
	GetIP() string
	SendMessage(msg *protocol.Message)
	Close()
}

// ServerInterface 定义服务器接口
type ServerInterface interface {
	IsMaintenanceMode() bool
	GetOnlineCount() int
}
