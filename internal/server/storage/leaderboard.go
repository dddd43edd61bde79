package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/palemoky/emoguchi/internal/game/scoring"
)

const (
	// Redis key
	playerStatsKey    = "player:stats:"
	leaderboardKey    = "leaderboard:score"
	dailyLeaderboard  = "leaderboard:daily:"
	weeklyLeaderboard = "leaderboard:weekly:"
)

// 排行榜积分：名次加成 + 本局得分
const (
	FirstPlaceBonus  = 10
	SecondPlaceBonus = 5
	ThirdPlaceBonus  = 2
)

// PlayerStats 玩家统计数据（按玩家名统计，玩家 ID 只在单个房间内有效）
type PlayerStats struct {
	PlayerName  string `json:"player_name"`
	TotalGames  int    `json:"total_games"`
	Wins        int    `json:"wins"`         // 第一名次数
	TotalPoints int    `json:"total_points"` // 历史游戏内得分总和
	BestScore   int    `json:"best_score"`

	Score int `json:"score"` // 排行榜积分

	LastRoomID   string `json:"last_room_id"`
	LastPlayedAt int64  `json:"last_played_at"`
	CreatedAt    int64  `json:"created_at"`
}

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	Rank       int     `json:"rank"`
	PlayerName string  `json:"playerName"`
	Score      int     `json:"score"`
	Wins       int     `json:"wins"`
	Games      int     `json:"games"`
	WinRate    float64 `json:"winRate"`
}

// Leaderboard 排行榜
type Leaderboard struct {
	redis *redis.Client
}

// NewLeaderboard 创建排行榜
func NewLeaderboard(client *redis.Client) *Leaderboard {
	return &Leaderboard{redis: client}
}

// GetPlayerStats 获取玩家统计，不存在时返回 nil
func (lb *Leaderboard) GetPlayerStats(ctx context.Context, playerName string) (*PlayerStats, error) {
	data, err := lb.redis.Get(ctx, playerStatsKey+playerName).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var stats PlayerStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (lb *Leaderboard) savePlayerStats(ctx context.Context, stats *PlayerStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return lb.redis.Set(ctx, playerStatsKey+stats.PlayerName, data, 0).Err()
}

// placeBonus 名次加成
func placeBonus(rank int) int {
	switch rank {
	case 1:
		return FirstPlaceBonus
	case 2:
		return SecondPlaceBonus
	case 3:
		return ThirdPlaceBonus
	default:
		return 0
	}
}

// RecordGame 记录一局结束后的最终排名
func (lb *Leaderboard) RecordGame(ctx context.Context, roomID string, rankings []scoring.Ranking) error {
	now := time.Now()
	for _, r := range rankings {
		stats, err := lb.GetPlayerStats(ctx, r.Name)
		if err != nil {
			return fmt.Errorf("读取玩家 %s 统计失败: %w", r.Name, err)
		}
		if stats == nil {
			stats = &PlayerStats{PlayerName: r.Name, CreatedAt: now.Unix()}
		}

		stats.TotalGames++
		if r.Rank == 1 {
			stats.Wins++
		}
		stats.TotalPoints += r.Score
		stats.BestScore = max(stats.BestScore, r.Score)
		stats.Score += r.Score + placeBonus(r.Rank)
		stats.LastRoomID = roomID
		stats.LastPlayedAt = now.Unix()

		if err := lb.savePlayerStats(ctx, stats); err != nil {
			return err
		}
		if err := lb.updateLeaderboard(ctx, stats, now); err != nil {
			return err
		}
	}
	return nil
}

// updateLeaderboard 更新总榜、日榜和周榜
func (lb *Leaderboard) updateLeaderboard(ctx context.Context, stats *PlayerStats, now time.Time) error {
	member := redis.Z{Score: float64(stats.Score), Member: stats.PlayerName}

	if err := lb.redis.ZAdd(ctx, leaderboardKey, member).Err(); err != nil {
		return err
	}

	dailyKey := dailyLeaderboard + now.Format("2006-01-02")
	if err := lb.redis.ZAdd(ctx, dailyKey, member).Err(); err != nil {
		return err
	}
	lb.redis.Expire(ctx, dailyKey, 48*time.Hour)

	year, week := now.ISOWeek()
	weeklyKey := fmt.Sprintf("%s%d-W%02d", weeklyLeaderboard, year, week)
	if err := lb.redis.ZAdd(ctx, weeklyKey, member).Err(); err != nil {
		return err
	}
	lb.redis.Expire(ctx, weeklyKey, 8*24*time.Hour)

	return nil
}

// Top 获取排行榜（total / daily / weekly）
func (lb *Leaderboard) Top(ctx context.Context, kind string, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	now := time.Now()
	key := leaderboardKey
	switch kind {
	case "daily":
		key = dailyLeaderboard + now.Format("2006-01-02")
	case "weekly":
		year, week := now.ISOWeek()
		key = fmt.Sprintf("%s%d-W%02d", weeklyLeaderboard, year, week)
	}

	results, err := lb.redis.ZRevRangeWithScores(ctx, key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(results))
	for i, result := range results {
		name, _ := result.Member.(string)
		stats, err := lb.GetPlayerStats(ctx, name)
		if err != nil || stats == nil {
			continue
		}

		winRate := 0.0
		if stats.TotalGames > 0 {
			winRate = float64(stats.Wins) / float64(stats.TotalGames) * 100
		}
		entries = append(entries, LeaderboardEntry{
			Rank:       i + 1,
			PlayerName: name,
			Score:      int(result.Score),
			Wins:       stats.Wins,
			Games:      stats.TotalGames,
			WinRate:    winRate,
		})
	}
	return entries, nil
}

// Rank 获取玩家总榜排名，未上榜返回 -1
func (lb *Leaderboard) Rank(ctx context.Context, playerName string) (int64, error) {
	rank, err := lb.redis.ZRevRank(ctx, leaderboardKey, playerName).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return -1, nil
		}
		return -1, err
	}
	return rank + 1, nil // Redis 排名从 0 开始
}
