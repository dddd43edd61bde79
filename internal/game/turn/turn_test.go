package turn

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/emoguchi/internal/game/room"
)

func newRoom(order room.SpeakerOrder, names ...string) *room.Room {
	cfg := room.DefaultConfig()
	cfg.SpeakerOrder = order
	r := room.New("turns", cfg, time.Now())
	for _, n := range names {
		r.AddPlayer(n, time.Now())
	}
	return r
}

func TestSpeaker(t *testing.T) {
	t.Parallel()

	order := []string{"a", "b", "c"}
	tests := []struct {
		index int
		want  string
	}{
		{0, "a"}, {1, "b"}, {2, "c"}, {3, "a"}, {7, "b"}, {-1, "c"},
	}
	for _, tt := range tests {
		got, ok := Speaker(order, tt.index)
		require.True(t, ok)
		assert.Equal(t, tt.want, got, "index %d", tt.index)
	}

	_, ok := Speaker(nil, 0)
	assert.False(t, ok)
}

func TestResolve_EmptyRoom(t *testing.T) {
	t.Parallel()

	r := newRoom(room.OrderSequential)
	p, ok := Resolve(r, nil)
	assert.False(t, ok)
	assert.Nil(t, p)
}

func TestResolve_SequentialFollowsJoinOrder(t *testing.T) {
	t.Parallel()

	r := newRoom(room.OrderSequential, "A", "B", "C")
	var got []string
	for range 4 {
		p, ok := Resolve(r, nil)
		require.True(t, ok)
		got = append(got, p.Name)
		Advance(r, nil)
	}
	assert.Equal(t, []string{"A", "B", "C", "A"}, got)
}

func TestResolve_RandomIsStableWithinCycle(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(42, 99))
	r := newRoom(room.OrderRandom, "A", "B", "C", "D")

	first, ok := Resolve(r, rng)
	require.True(t, ok)
	cycleOrder := append([]string(nil), r.SpeakerOrder...)

	// 同一位置重复计算不会换人
	for range 5 {
		p, _ := Resolve(r, rng)
		assert.Equal(t, first.ID, p.ID)
	}

	// 一个循环内每个人恰好讲一次
	seen := map[string]bool{first.ID: true}
	Advance(r, rng)
	for i := 1; i < 4; i++ {
		p, ok := Resolve(r, rng)
		require.True(t, ok)
		assert.Equal(t, cycleOrder[i], p.ID)
		assert.False(t, seen[p.ID])
		seen[p.ID] = true
		Advance(r, rng)
	}
	assert.Len(t, seen, 4)
	assert.Zero(t, r.CurrentSpeakerIndex)
	assert.ElementsMatch(t, cycleOrder, r.SpeakerOrder)
}

func TestResolve_RandomReshufflesOnMembershipChange(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(1, 1))
	r := newRoom(room.OrderRandom, "A", "B", "C")
	Resolve(r, rng)
	Advance(r, rng)

	e := r.AddPlayer("E", time.Now())
	_, ok := Resolve(r, rng)
	require.True(t, ok)
	assert.Contains(t, r.SpeakerOrder, e.ID)
	assert.Len(t, r.SpeakerOrder, 4)
}

func TestAdvance_WrapsByPlayerCount(t *testing.T) {
	t.Parallel()

	r := newRoom(room.OrderSequential, "A", "B")
	Advance(r, nil)
	assert.Equal(t, 1, r.CurrentSpeakerIndex)
	Advance(r, nil)
	assert.Equal(t, 0, r.CurrentSpeakerIndex)

	empty := newRoom(room.OrderSequential)
	empty.CurrentSpeakerIndex = 5
	Advance(empty, nil)
	assert.Zero(t, empty.CurrentSpeakerIndex)
}
