package codec

import (
	"bytes"
	"sync"

	"github.com/palemoky/emoguchi/internal/protocol"
)

// 超过此容量的编码缓冲区不回收，避免一次音频广播把大块内存长期留在池里
const maxPooledBufferCap = 64 << 10

var (
	inboundPool = sync.Pool{New: func() any { return new(protocol.Message) }}
	encodePool  = sync.Pool{New: func() any { return new(bytes.Buffer) }}
)

// acquireMessage 取一个空的入站消息
func acquireMessage() *protocol.Message {
	return inboundPool.Get().(*protocol.Message)
}

// ReleaseMessage 处理完一条入站消息后归还。
// Payload 只断开引用，不截断复用：广播出去的音频可能仍指向这块内存。
func ReleaseMessage(msg *protocol.Message) {
	if msg == nil {
		return
	}
	*msg = protocol.Message{}
	inboundPool.Put(msg)
}

func acquireBuffer() *bytes.Buffer {
	return encodePool.Get().(*bytes.Buffer)
}

func releaseBuffer(buf *bytes.Buffer) {
	if buf == nil || buf.Cap() > maxPooledBufferCap {
		return
	}
	buf.Reset()
	encodePool.Put(buf)
}
