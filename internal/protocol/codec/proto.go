package codec

import (
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/palemoky/emoguchi/internal/protocol"
)

// ProtoCodecName protobuf 二进制帧
const ProtoCodecName = "proto"

// ProtoCodec 把消息编码为 google.protobuf.Struct 的二进制帧。
// 结构为 {"type": string, "payload": any}，与 JSON 帧一一对应。
type ProtoCodec struct{}

func (ProtoCodec) Name() string   { return ProtoCodecName }
func (ProtoCodec) FrameType() int { return websocket.BinaryMessage }

// Encode 将消息编码为 Protobuf 字节
func (ProtoCodec) Encode(msg *protocol.Message) ([]byte, error) {
	fields := map[string]*structpb.Value{
		"type": structpb.NewStringValue(string(msg.Type)),
	}
	if len(msg.Payload) > 0 {
		var payload any
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return nil, fmt.Errorf("payload 不是合法 JSON: %w", err)
		}
		v, err := structpb.NewValue(payload)
		if err != nil {
			return nil, err
		}
		fields["payload"] = v
	}
	return proto.Marshal(&structpb.Struct{Fields: fields})
}

// Decode 从 Protobuf 字节解码消息
func (ProtoCodec) Decode(data []byte) (*protocol.Message, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return nil, err
	}

	typ := s.GetFields()["type"].GetStringValue()
	if typ == "" {
		return nil, fmt.Errorf("message type missing")
	}

	msg := acquireMessage()
	msg.Type = protocol.MessageType(typ)
	if v, ok := s.GetFields()["payload"]; ok {
		raw, err := json.Marshal(v.AsInterface())
		if err != nil {
			ReleaseMessage(msg)
			return nil, err
		}
		msg.Payload = raw
	}
	return msg, nil
}
