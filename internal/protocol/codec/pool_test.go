package codec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/emoguchi/internal/protocol"
)

func TestReleaseMessage_ClearsFields(t *testing.T) {
	msg := acquireMessage()
	msg.Type = protocol.MsgJoinRoom
	msg.Payload = []byte(`{"roomId":"abc"}`)
	ReleaseMessage(msg)

	assert.Empty(t, msg.Type)
	assert.Nil(t, msg.Payload)
}

func TestDecodedPayloadSurvivesRelease(t *testing.T) {
	for _, c := range []Codec{JSONCodec{}, ProtoCodec{}} {
		t.Run(c.Name(), func(t *testing.T) {
			first, err := c.Encode(MustNewMessage(protocol.MsgAudioSend, map[string]string{"audio": "QUFBQQ=="}))
			require.NoError(t, err)
			second, err := c.Encode(MustNewMessage(protocol.MsgAudioSend, map[string]string{"audio": "QkJCQg=="}))
			require.NoError(t, err)

			msg, err := c.Decode(first)
			require.NoError(t, err)
			kept := msg.Payload
			snapshot := bytes.Clone(kept)
			ReleaseMessage(msg)

			next, err := c.Decode(second)
			require.NoError(t, err)
			defer ReleaseMessage(next)

			assert.Equal(t, snapshot, []byte(kept))
		})
	}
}

func TestReleaseBuffer(t *testing.T) {
	buf := acquireBuffer()
	buf.WriteString("hello")
	releaseBuffer(buf)
	assert.Equal(t, 0, buf.Len())

	big := bytes.NewBuffer(make([]byte, 0, maxPooledBufferCap+1))
	big.WriteString("audio")
	releaseBuffer(big)
	assert.Equal(t, 5, big.Len(), "oversized buffers are dropped, not reset")
}

func TestReleaseNil_NoPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		ReleaseMessage(nil)
		releaseBuffer(nil)
	})
}
