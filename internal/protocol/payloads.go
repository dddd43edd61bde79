package protocol

// --- 客户端请求 Payloads ---

// JoinRoomPayload 加入房间请求
type JoinRoomPayload struct {
	RoomID     string `json:"roomId"`
	PlayerName string `json:"playerName"`
}

// SubmitVotePayload 投票请求
type SubmitVotePayload struct {
	RoundID   string `json:"roundId"`
	EmotionID string `json:"emotionId"`
}

// AudioSendPayload 发言者音频（编码由客户端决定，服务端只转发）
type AudioSendPayload struct {
	Audio string `json:"audio"`
}

// PingPayload 心跳请求
type PingPayload struct {
	Timestamp int64 `json:"timestamp"` // 客户端时间戳（毫秒）
}

// --- 服务端响应 Payloads ---

// ConnectedPayload 连接成功
type ConnectedPayload struct {
	Message      string `json:"message"`
	ConnectionID string `json:"connectionId"`
}

// PongPayload 心跳响应
type PongPayload struct {
	ClientTimestamp int64 `json:"clientTimestamp"`
	ServerTimestamp int64 `json:"serverTimestamp"`
}

// PlayerEventPayload player_joined / player_reconnected / player_left / player_disconnected
type PlayerEventPayload struct {
	PlayerName string `json:"playerName"`
	PlayerID   string `json:"playerId"`
}

// LeftRoomPayload 离开房间确认
type LeftRoomPayload struct {
	Message string `json:"message"`
}

// RoomConfigInfo 房间配置
type RoomConfigInfo struct {
	Mode               string `json:"mode"`
	VoteType           string `json:"voteType"`
	SpeakerOrder       string `json:"speakerOrder"`
	VoteTimeoutSeconds int    `json:"voteTimeout"`
	MaxCycles          int    `json:"maxCycles"`
	HardMode           bool   `json:"hardMode"`
}

// RoomStatePayload 房间完整状态
type RoomStatePayload struct {
	RoomID         string         `json:"roomId"`
	Players        []string       `json:"players"` // 玩家名字，按加入顺序
	Phase          string         `json:"phase"`
	Config         RoomConfigInfo `json:"config"`
	CurrentSpeaker *string        `json:"currentSpeaker"`
}

// VotingChoice 投票选项
type VotingChoice struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RoundStartPayload 回合开始
type RoundStartPayload struct {
	RoundID       string         `json:"roundId"`
	Phrase        string         `json:"phrase"`
	SpeakerName   string         `json:"speakerName"`
	VotingChoices []VotingChoice `json:"votingChoices"`
	VoteDeadline  int64          `json:"voteDeadline,omitempty"` // 毫秒时间戳，0 表示不限时
}

// SpeakerEmotionPayload 发言者的目标情绪
type SpeakerEmotionPayload struct {
	RoundID     string `json:"roundId"`
	EmotionID   string `json:"emotionId"`
	EmotionName string `json:"emotionName"`
	SpeakerID   string `json:"speakerId"`
}

// AudioReceivedPayload 发言者音频转发
type AudioReceivedPayload struct {
	RoundID   string `json:"roundId"`
	SpeakerID string `json:"speakerId"`
	Audio     string `json:"audio"`
}

// RoundResultPayload 回合结果
type RoundResultPayload struct {
	RoundID          string            `json:"roundId"`
	CorrectEmotion   string            `json:"correctEmotion"`
	CorrectEmotionID string            `json:"correctEmotionId"`
	SpeakerName      string            `json:"speakerName"`
	Scores           map[string]int    `json:"scores"` // 玩家名 -> 累计得分
	Votes            map[string]string `json:"votes"`  // 玩家名 -> 所投情绪
	IsGameComplete   bool              `json:"isGameComplete"`
	CompletedRounds  int               `json:"completedRounds"`
	CompletedCycles  int               `json:"completedCycles"`
	MaxCycles        int               `json:"maxCycles"`
}

// RankingEntry 最终排名
type RankingEntry struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
	Rank  int    `json:"rank"`
}

// GameCompletePayload 游戏结束
type GameCompletePayload struct {
	Rankings    []RankingEntry `json:"rankings"`
	TotalRounds int            `json:"totalRounds"`
}

// ErrorPayload 错误响应
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
