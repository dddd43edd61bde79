// Package scoring 计算一轮结束后的得分
package scoring

import (
	"sort"

	"github.com/palemoky/emoguchi/internal/game/room"
)

// Result 一轮的得分变化
type Result struct {
	Deltas       map[string]int // playerID -> 本轮得分
	CorrectVotes int
}

// Score 听众猜对 +1；讲述者得分 = 猜对的听众数
func Score(rd *room.Round) Result {
	res := Result{Deltas: make(map[string]int, len(rd.Votes)+1)}
	for voterID, emotionID := range rd.Votes {
		if voterID == rd.SpeakerID {
			continue
		}
		if emotionID == rd.EmotionID {
			res.Deltas[voterID]++
			res.CorrectVotes++
		}
	}
	if res.CorrectVotes > 0 {
		res.Deltas[rd.SpeakerID] += res.CorrectVotes
	}
	return res
}

// Apply 把得分累加到房间内的玩家（已离开的玩家忽略）
func Apply(r *room.Room, res Result) {
	for id, delta := range res.Deltas {
		if p, ok := r.Players[id]; ok {
			p.Score += delta
		}
	}
}

// Ranking 最终排名
type Ranking struct {
	PlayerID string
	Name     string
	Score    int
	Rank     int
}

// Rankings 按分数降序排名，同分按加入顺序，名次从 1 开始
func Rankings(r *room.Room) []Ranking {
	list := make([]Ranking, 0, len(r.PlayerOrder))
	for _, id := range r.PlayerOrder {
		p, ok := r.Players[id]
		if !ok {
			continue
		}
		list = append(list, Ranking{PlayerID: p.ID, Name: p.Name, Score: p.Score})
	}

	sort.SliceStable(list, func(i, j int) bool { return list[i].Score > list[j].Score })
	for i := range list {
		list[i].Rank = i + 1
	}
	return list
}

// ScoreMap 玩家名 -> 累计分数
func ScoreMap(r *room.Room) map[string]int {
	scores := make(map[string]int, len(r.Players))
	for _, p := range r.Players {
		scores[p.Name] = p.Score
	}
	return scores
}
