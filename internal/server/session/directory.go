package session

import (
	"sync"
	"time"
)

// Binding 连接与玩家/房间的绑定
type Binding struct {
	ConnectionID string
	PlayerID     string
	RoomID       string
	BoundAt      time.Time
}

type playerKey struct {
	roomID   string
	playerID string
}

// Directory 会话目录：connectionID -> (playerID, roomID)，仅存在于内存，断线即失效
type Directory struct {
	byConn   map[string]Binding
	byPlayer map[playerKey]string // 玩家当前绑定的连接
	mu       sync.RWMutex
}

// NewDirectory 创建会话目录
func NewDirectory() *Directory {
	return &Directory{
		byConn:   make(map[string]Binding),
		byPlayer: make(map[playerKey]string),
	}
}

// Bind 绑定连接到玩家。
// 同一玩家之前绑定的其他连接会被解绑并返回其 ID（重连接管旧连接）。
func (d *Directory) Bind(connID, playerID, roomID string) (replaced string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	// 连接换房间或换身份，先清理旧的反向索引
	if old, ok := d.byConn[connID]; ok {
		key := playerKey{old.RoomID, old.PlayerID}
		if d.byPlayer[key] == connID {
			delete(d.byPlayer, key)
		}
	}

	key := playerKey{roomID, playerID}
	if prev, ok := d.byPlayer[key]; ok && prev != connID {
		delete(d.byConn, prev)
		replaced = prev
	}

	d.byConn[connID] = Binding{
		ConnectionID: connID,
		PlayerID:     playerID,
		RoomID:       roomID,
		BoundAt:      time.Now(),
	}
	d.byPlayer[key] = connID
	return replaced
}

// Unbind 解除连接绑定，返回原绑定
func (d *Directory) Unbind(connID string) (Binding, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	b, ok := d.byConn[connID]
	if !ok {
		return Binding{}, false
	}
	delete(d.byConn, connID)
	key := playerKey{b.RoomID, b.PlayerID}
	if d.byPlayer[key] == connID {
		delete(d.byPlayer, key)
	}
	return b, true
}

// Lookup 查找连接的绑定
func (d *Directory) Lookup(connID string) (Binding, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	b, ok := d.byConn[connID]
	return b, ok
}

// ConnectionFor 返回玩家当前绑定的连接
func (d *Directory) ConnectionFor(roomID, playerID string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	connID, ok := d.byPlayer[playerKey{roomID, playerID}]
	return connID, ok
}

// ConnectionsIn 房间内所有已绑定的连接
func (d *Directory) ConnectionsIn(roomID string) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	conns := make([]string, 0)
	for connID, b := range d.byConn {
		if b.RoomID == roomID {
			conns = append(conns, connID)
		}
	}
	return conns
}

// UnbindRoom 解除房间内所有绑定（房间被删除或重置时）
func (d *Directory) UnbindRoom(roomID string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	var conns []string
	for connID, b := range d.byConn {
		if b.RoomID != roomID {
			continue
		}
		delete(d.byConn, connID)
		delete(d.byPlayer, playerKey{b.RoomID, b.PlayerID})
		conns = append(conns, connID)
	}
	return conns
}

// Count 已绑定连接数
func (d *Directory) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.byConn)
}
