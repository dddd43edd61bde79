package protocol

import "encoding/json"

// Message 基础消息结构
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MessageType 消息类型
type MessageType string

// 客户端 → 服务端 消息类型
const (
	// 房间操作
	MsgJoinRoom    MessageType = "join_room"    // 加入房间
	MsgLeaveRoom   MessageType = "leave_room"   // 离开房间
	MsgStartRound  MessageType = "start_round"  // 开始回合（房主）
	MsgRestartGame MessageType = "restart_game" // 重新开始（房主）

	// 游戏操作
	MsgSubmitVote MessageType = "submit_vote" // 投票
	MsgAudioSend  MessageType = "audio_send"  // 发言者上传音频

	// 连接操作
	MsgPing MessageType = "ping" // 心跳 ping
)

// 服务端 → 客户端 消息类型
const (
	// 连接相关
	MsgConnected MessageType = "connected" // 连接成功
	MsgPong      MessageType = "pong"      // 心跳 pong

	// 房间相关
	MsgPlayerJoined       MessageType = "player_joined"       // 新玩家加入
	MsgPlayerReconnected  MessageType = "player_reconnected"  // 玩家按名字重连
	MsgPlayerLeft         MessageType = "player_left"         // 玩家离开
	MsgPlayerDisconnected MessageType = "player_disconnected" // 玩家掉线
	MsgLeftRoom           MessageType = "left_room"           // 离开房间确认
	MsgRoomState          MessageType = "room_state"          // 房间完整状态

	// 游戏流程
	MsgRoundStart     MessageType = "round_start"     // 回合开始
	MsgSpeakerEmotion MessageType = "speaker_emotion" // 发言者的目标情绪（隐藏）
	MsgAudioReceived  MessageType = "audio_received"  // 发言者音频转发
	MsgRoundResult    MessageType = "round_result"    // 回合结果
	MsgGameComplete   MessageType = "game_complete"   // 游戏结束排名

	// 错误
	MsgError MessageType = "error" // 错误消息
)
