package room

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/palemoky/emoguchi/internal/game/emotion"
)

// Data 房间的持久化形式（Redis / Postgres 共用）
type Data struct {
	ID                  string       `json:"id"`
	Players             []PlayerData `json:"players"` // 按加入顺序
	Config              ConfigData   `json:"config"`
	Phase               string       `json:"phase"`
	CurrentRound        *RoundData   `json:"current_round,omitempty"`
	RoundHistory        []RoundData  `json:"round_history"`
	CurrentSpeakerIndex int          `json:"current_speaker_index"`
	SpeakerOrder        []string     `json:"speaker_order,omitempty"`
	HostToken           string       `json:"host_token"`
	CreatedAt           time.Time    `json:"created_at"`
	UpdatedAt           time.Time    `json:"updated_at"`
}

// PlayerData 玩家数据
type PlayerData struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Score       int       `json:"score"`
	IsHost      bool      `json:"is_host"`
	IsConnected bool      `json:"is_connected"`
	JoinedAt    time.Time `json:"joined_at"`
}

// ConfigData 房间配置数据
type ConfigData struct {
	Mode               string `json:"mode"`
	VoteType           string `json:"vote_type"`
	SpeakerOrder       string `json:"speaker_order"`
	VoteTimeoutSeconds int    `json:"vote_timeout"`
	MaxCycles          int    `json:"max_cycles"`
	HardMode           bool   `json:"hard_mode"`
}

// RoundData 轮次数据
type RoundData struct {
	ID                 string            `json:"id"`
	Phrase             string            `json:"phrase"`
	EmotionID          string            `json:"emotion_id"`
	SpeakerID          string            `json:"speaker_id"`
	Votes              map[string]string `json:"votes"`
	VotingChoices      []string          `json:"voting_choices,omitempty"`
	IsCompleted        bool              `json:"is_completed"`
	StartedAt          time.Time         `json:"started_at"`
	CompletedAt        *time.Time        `json:"completed_at,omitempty"`
	VoteTimeoutSeconds int               `json:"vote_timeout"`
}

// ToData 将 Room 转换为可序列化的 Data
func (r *Room) ToData() *Data {
	data := &Data{
		ID:      r.ID,
		Players: make([]PlayerData, 0, len(r.PlayerOrder)),
		Config: ConfigData{
			Mode:               string(r.Config.Mode),
			VoteType:           string(r.Config.VoteType),
			SpeakerOrder:       string(r.Config.SpeakerOrder),
			VoteTimeoutSeconds: r.Config.VoteTimeoutSeconds,
			MaxCycles:          r.Config.MaxCycles,
			HardMode:           r.Config.HardMode,
		},
		Phase:               string(r.Phase),
		RoundHistory:        make([]RoundData, 0, len(r.RoundHistory)),
		CurrentSpeakerIndex: r.CurrentSpeakerIndex,
		SpeakerOrder:        r.SpeakerOrder,
		HostToken:           r.HostToken,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}

	for _, id := range r.PlayerOrder {
		p, ok := r.Players[id]
		if !ok {
			continue
		}
		data.Players = append(data.Players, PlayerData{
			ID:          p.ID,
			Name:        p.Name,
			Score:       p.Score,
			IsHost:      p.IsHost,
			IsConnected: p.IsConnected,
			JoinedAt:    p.JoinedAt,
		})
	}

	if r.CurrentRound != nil {
		rd := roundToData(r.CurrentRound)
		data.CurrentRound = &rd
	}
	for _, rd := range r.RoundHistory {
		data.RoundHistory = append(data.RoundHistory, roundToData(rd))
	}

	return data
}

// FromData 从持久化数据重建 Room
func FromData(data *Data) *Room {
	r := &Room{
		ID:          data.ID,
		Players:     make(map[string]*Player, len(data.Players)),
		PlayerOrder: make([]string, 0, len(data.Players)),
		Config: Config{
			Mode:               emotion.Mode(data.Config.Mode),
			VoteType:           VoteType(data.Config.VoteType),
			SpeakerOrder:       SpeakerOrder(data.Config.SpeakerOrder),
			VoteTimeoutSeconds: data.Config.VoteTimeoutSeconds,
			MaxCycles:          data.Config.MaxCycles,
			HardMode:           data.Config.HardMode,
		},
		Phase:               Phase(data.Phase),
		CurrentSpeakerIndex: data.CurrentSpeakerIndex,
		SpeakerOrder:        data.SpeakerOrder,
		HostToken:           data.HostToken,
		CreatedAt:           data.CreatedAt,
		UpdatedAt:           data.UpdatedAt,
	}

	for _, pd := range data.Players {
		r.Players[pd.ID] = &Player{
			ID:          pd.ID,
			Name:        pd.Name,
			Score:       pd.Score,
			IsHost:      pd.IsHost,
			IsConnected: pd.IsConnected,
			JoinedAt:    pd.JoinedAt,
		}
		r.PlayerOrder = append(r.PlayerOrder, pd.ID)
	}

	if data.CurrentRound != nil {
		r.CurrentRound = roundFromData(*data.CurrentRound)
	}
	if len(data.RoundHistory) > 0 {
		r.RoundHistory = make([]*Round, 0, len(data.RoundHistory))
		for _, rd := range data.RoundHistory {
			r.RoundHistory = append(r.RoundHistory, roundFromData(rd))
		}
	}

	return r
}

// Marshal 序列化为 JSON
func Marshal(r *Room) ([]byte, error) {
	b, err := json.Marshal(r.ToData())
	if err != nil {
		return nil, fmt.Errorf("序列化房间数据失败: %w", err)
	}
	return b, nil
}

// Unmarshal 从 JSON 反序列化
func Unmarshal(b []byte) (*Room, error) {
	var data Data
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, fmt.Errorf("反序列化房间数据失败: %w", err)
	}
	return FromData(&data), nil
}

func roundToData(rd *Round) RoundData {
	return RoundData{
		ID:                 rd.ID,
		Phrase:             rd.Phrase,
		EmotionID:          rd.EmotionID,
		SpeakerID:          rd.SpeakerID,
		Votes:              rd.Votes,
		VotingChoices:      rd.VotingChoices,
		IsCompleted:        rd.IsCompleted,
		StartedAt:          rd.StartedAt,
		CompletedAt:        rd.CompletedAt,
		VoteTimeoutSeconds: rd.VoteTimeoutSeconds,
	}
}

func roundFromData(d RoundData) *Round {
	votes := d.Votes
	if votes == nil {
		votes = make(map[string]string)
	}
	return &Round{
		ID:                 d.ID,
		Phrase:             d.Phrase,
		EmotionID:          d.EmotionID,
		SpeakerID:          d.SpeakerID,
		Votes:              votes,
		VotingChoices:      d.VotingChoices,
		IsCompleted:        d.IsCompleted,
		StartedAt:          d.StartedAt,
		CompletedAt:        d.CompletedAt,
		VoteTimeoutSeconds: d.VoteTimeoutSeconds,
	}
}
