// Package turn 计算讲述者轮换
package turn

import (
	"math/rand/v2"
	"slices"

	"github.com/palemoky/emoguchi/internal/game/room"
)

// Order 返回讲述顺序。sequential 使用加入顺序；random 打乱一份副本。
func Order(playerOrder []string, mode room.SpeakerOrder, rng *rand.Rand) []string {
	order := slices.Clone(playerOrder)
	if mode != room.OrderRandom {
		return order
	}
	swap := func(i, j int) { order[i], order[j] = order[j], order[i] }
	if rng != nil {
		rng.Shuffle(len(order), swap)
	} else {
		rand.Shuffle(len(order), swap)
	}
	return order
}

// Speaker 返回 order[index mod len]，空列表时返回 false
func Speaker(order []string, index int) (string, bool) {
	if len(order) == 0 {
		return "", false
	}
	i := index % len(order)
	if i < 0 {
		i += len(order)
	}
	return order[i], true
}

// Resolve 确定房间当前讲述者。
// random 模式下打乱后的顺序保存在房间上，只在成员变化或新循环开始（见 Advance）时重新打乱，
// 同一循环内重复计算不会换人。
func Resolve(r *room.Room, rng *rand.Rand) (*room.Player, bool) {
	if len(r.PlayerOrder) == 0 {
		return nil, false
	}

	if r.Config.SpeakerOrder == room.OrderRandom {
		if !sameMembers(r.SpeakerOrder, r.PlayerOrder) {
			r.SpeakerOrder = Order(r.PlayerOrder, room.OrderRandom, rng)
		}
	} else {
		r.SpeakerOrder = nil
	}

	order := r.SpeakerOrder
	if order == nil {
		order = r.PlayerOrder
	}
	id, ok := Speaker(order, r.CurrentSpeakerIndex)
	if !ok {
		return nil, false
	}
	p, ok := r.Players[id]
	return p, ok
}

// Advance 完成一轮后移动到下一位讲述者，回到 0 时 random 模式开始新的打乱顺序
func Advance(r *room.Room, rng *rand.Rand) {
	n := len(r.PlayerOrder)
	if n == 0 {
		r.CurrentSpeakerIndex = 0
		return
	}
	r.CurrentSpeakerIndex = (r.CurrentSpeakerIndex + 1) % n
	if r.CurrentSpeakerIndex == 0 && r.Config.SpeakerOrder == room.OrderRandom {
		r.SpeakerOrder = Order(r.PlayerOrder, room.OrderRandom, rng)
	}
}

func sameMembers(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	sa, sb := slices.Clone(a), slices.Clone(b)
	slices.Sort(sa)
	slices.Sort(sb)
	return slices.Equal(sa, sb)
}
