package room

import (
	"math/rand/v2"
	"regexp"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/palemoky/emoguchi/internal/game/emotion"
)

const (
	roomCodeLength = 6                                  // 生成的房间号长度
	roomCodeChars  = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789" // 去掉易混淆字符

	DefaultVoteTimeoutSeconds = 30
	DefaultMaxCycles          = 3
	MinPlayers                = 2 // 至少一名讲述者加一名听众
)

// 房间号：3-20 个字符，允许字母数字、'-'、'_' 以及平假名/片假名/汉字
var roomIDPattern = regexp.MustCompile(`^[A-Za-z0-9_\-\p{Hiragana}\p{Katakana}\p{Han}ー]{3,20}$`)

// Phase 游戏阶段
type Phase string

const (
	PhaseWaiting Phase = "waiting"
	PhaseInRound Phase = "in_round"
	PhaseResult  Phase = "result" // 只出现在事件里，不会停留
	PhaseClosed  Phase = "closed"
)

// VoteType 投票方式
type VoteType string

const (
	VoteFourChoice  VoteType = "4choice"
	VoteEightChoice VoteType = "8choice"
	VoteWheel       VoteType = "wheel"
)

// SpeakerOrder 讲述者顺序
type SpeakerOrder string

const (
	OrderRandom     SpeakerOrder = "random"
	OrderSequential SpeakerOrder = "sequential"
)

// Player 房间中的玩家
type Player struct {
	ID          string
	Name        string
	Score       int
	IsHost      bool
	IsConnected bool
	JoinedAt    time.Time
}

// Config 房间配置，创建后不可变
type Config struct {
	Mode               emotion.Mode
	VoteType           VoteType
	SpeakerOrder       SpeakerOrder
	VoteTimeoutSeconds int
	MaxCycles          int
	HardMode           bool
}

// DefaultConfig 返回默认房间配置
func DefaultConfig() Config {
	return Config{
		Mode:               emotion.ModeBasic,
		VoteType:           VoteFourChoice,
		SpeakerOrder:       OrderSequential,
		VoteTimeoutSeconds: DefaultVoteTimeoutSeconds,
		MaxCycles:          DefaultMaxCycles,
	}
}

// Normalize 补全缺省值，未知枚举回退到默认
func (c Config) Normalize() Config {
	d := DefaultConfig()
	if !c.Mode.Valid() {
		c.Mode = d.Mode
	}
	switch c.VoteType {
	case VoteFourChoice, VoteEightChoice, VoteWheel:
	default:
		c.VoteType = d.VoteType
	}
	if c.SpeakerOrder != OrderRandom {
		c.SpeakerOrder = OrderSequential
	}
	if c.VoteTimeoutSeconds <= 0 {
		c.VoteTimeoutSeconds = d.VoteTimeoutSeconds
	}
	if c.MaxCycles <= 0 {
		c.MaxCycles = d.MaxCycles
	}
	return c
}

// Round 一轮：讲述者、台词、隐藏的目标情绪和听众投票
type Round struct {
	ID                 string
	Phrase             string
	EmotionID          string
	SpeakerID          string
	Votes              map[string]string // playerID -> emotionID，不含讲述者
	VotingChoices      []string          // 本轮展示的选项 ID，迟到的玩家看到同一组
	IsCompleted        bool
	StartedAt          time.Time
	CompletedAt        *time.Time
	VoteTimeoutSeconds int
}

// NewRound 创建一轮
func NewRound(speakerID, phrase, emotionID string, choices []string, voteTimeout int, now time.Time) *Round {
	return &Round{
		ID:                 uuid.NewString(),
		Phrase:             phrase,
		EmotionID:          emotionID,
		SpeakerID:          speakerID,
		Votes:              make(map[string]string),
		VotingChoices:      choices,
		StartedAt:          now,
		VoteTimeoutSeconds: voteTimeout,
	}
}

// Deadline 投票截止时间
func (rd *Round) Deadline() time.Time {
	return rd.StartedAt.Add(time.Duration(rd.VoteTimeoutSeconds) * time.Second)
}

// Room 游戏房间
type Room struct {
	ID                  string
	Players             map[string]*Player // playerID -> Player
	PlayerOrder         []string           // 加入顺序
	Config              Config
	Phase               Phase
	CurrentRound        *Round // 仅 IN_ROUND 时非空
	RoundHistory        []*Round
	CurrentSpeakerIndex int
	SpeakerOrder        []string // 本轮循环固定的讲述顺序
	HostToken           string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// New 创建房间
func New(id string, cfg Config, now time.Time) *Room {
	return &Room{
		ID:          id,
		Players:     make(map[string]*Player),
		PlayerOrder: make([]string, 0, 8),
		Config:      cfg.Normalize(),
		Phase:       PhaseWaiting,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// ValidateID 检查房间号格式
func ValidateID(id string) bool {
	return roomIDPattern.MatchString(id)
}

// GenerateID 生成房间号
func GenerateID() string {
	code := make([]byte, roomCodeLength)
	for i := range code {
		code[i] = roomCodeChars[rand.IntN(len(roomCodeChars))]
	}
	return string(code)
}

// PlayerByName 按名字查找玩家
func (r *Room) PlayerByName(name string) *Player {
	for _, id := range r.PlayerOrder {
		if p := r.Players[id]; p != nil && p.Name == name {
			return p
		}
	}
	return nil
}

// AddPlayer 添加新玩家，第一个加入的玩家成为房主
func (r *Room) AddPlayer(name string, now time.Time) *Player {
	p := &Player{
		ID:          uuid.NewString(),
		Name:        name,
		IsHost:      len(r.Players) == 0,
		IsConnected: true,
		JoinedAt:    now,
	}
	r.Players[p.ID] = p
	r.PlayerOrder = append(r.PlayerOrder, p.ID)
	return p
}

// RemovePlayer 移除玩家；房主离开时由最早加入的玩家接任
func (r *Room) RemovePlayer(playerID string) (*Player, bool) {
	p, ok := r.Players[playerID]
	if !ok {
		return nil, false
	}
	delete(r.Players, playerID)
	r.PlayerOrder = slices.DeleteFunc(r.PlayerOrder, func(id string) bool { return id == playerID })

	if p.IsHost && len(r.PlayerOrder) > 0 {
		r.Players[r.PlayerOrder[0]].IsHost = true
	}
	if r.CurrentRound != nil {
		delete(r.CurrentRound.Votes, playerID)
	}
	return p, true
}

// Host 返回房主
func (r *Room) Host() *Player {
	for _, id := range r.PlayerOrder {
		if p := r.Players[id]; p != nil && p.IsHost {
			return p
		}
	}
	return nil
}

// ConnectedIDs 在线玩家 ID（按加入顺序）
func (r *Room) ConnectedIDs() []string {
	ids := make([]string, 0, len(r.PlayerOrder))
	for _, id := range r.PlayerOrder {
		if p := r.Players[id]; p != nil && p.IsConnected {
			ids = append(ids, id)
		}
	}
	return ids
}

// HasConnected 是否还有在线玩家
func (r *Room) HasConnected() bool {
	for _, p := range r.Players {
		if p.IsConnected {
			return true
		}
	}
	return false
}

// PlayerNames 按加入顺序返回玩家名
func (r *Room) PlayerNames() []string {
	names := make([]string, 0, len(r.PlayerOrder))
	for _, id := range r.PlayerOrder {
		if p := r.Players[id]; p != nil {
			names = append(names, p.Name)
		}
	}
	return names
}

// CurrentSpeaker 当前轮的讲述者，非 IN_ROUND 时为 nil
func (r *Room) CurrentSpeaker() *Player {
	if r.Phase != PhaseInRound || r.CurrentRound == nil {
		return nil
	}
	return r.Players[r.CurrentRound.SpeakerID]
}

// CompletedCycles 已完成的循环数 = 已完成轮数 / 在线人数
func (r *Room) CompletedCycles() int {
	n := len(r.ConnectedIDs())
	if n == 0 {
		n = len(r.Players)
	}
	if n == 0 {
		return 0
	}
	return len(r.RoundHistory) / n
}

// ResetGame 重置为新一局：清空轮次与分数
func (r *Room) ResetGame() {
	r.Phase = PhaseWaiting
	r.CurrentRound = nil
	r.RoundHistory = nil
	r.CurrentSpeakerIndex = 0
	r.SpeakerOrder = nil
	for _, p := range r.Players {
		p.Score = 0
	}
}

// Clone 深拷贝，仓库返回副本避免调用方共享同一对象
func (r *Room) Clone() *Room {
	if r == nil {
		return nil
	}
	cp := *r
	cp.Players = make(map[string]*Player, len(r.Players))
	for id, p := range r.Players {
		pc := *p
		cp.Players[id] = &pc
	}
	cp.PlayerOrder = slices.Clone(r.PlayerOrder)
	cp.SpeakerOrder = slices.Clone(r.SpeakerOrder)
	cp.CurrentRound = r.CurrentRound.clone()
	if r.RoundHistory != nil {
		cp.RoundHistory = make([]*Round, len(r.RoundHistory))
		for i, rd := range r.RoundHistory {
			cp.RoundHistory[i] = rd.clone()
		}
	}
	return &cp
}

func (rd *Round) clone() *Round {
	if rd == nil {
		return nil
	}
	cp := *rd
	cp.Votes = make(map[string]string, len(rd.Votes))
	for k, v := range rd.Votes {
		cp.Votes[k] = v
	}
	cp.VotingChoices = slices.Clone(rd.VotingChoices)
	if rd.CompletedAt != nil {
		t := *rd.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}
