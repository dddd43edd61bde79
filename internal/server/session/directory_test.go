package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectory_BindLookupUnbind(t *testing.T) {
	t.Parallel()
	d := NewDirectory()

	assert.Empty(t, d.Bind("c1", "p1", "room1"))

	b, ok := d.Lookup("c1")
	require.True(t, ok)
	assert.Equal(t, "p1", b.PlayerID)
	assert.Equal(t, "room1", b.RoomID)
	assert.False(t, b.BoundAt.IsZero())

	conn, ok := d.ConnectionFor("room1", "p1")
	require.True(t, ok)
	assert.Equal(t, "c1", conn)

	old, ok := d.Unbind("c1")
	require.True(t, ok)
	assert.Equal(t, "p1", old.PlayerID)

	_, ok = d.Lookup("c1")
	assert.False(t, ok)
	_, ok = d.ConnectionFor("room1", "p1")
	assert.False(t, ok)

	_, ok = d.Unbind("c1")
	assert.False(t, ok)
}

func TestDirectory_ReconnectReplacesOldConnection(t *testing.T) {
	t.Parallel()
	d := NewDirectory()

	d.Bind("old", "p1", "room1")
	replaced := d.Bind("new", "p1", "room1")
	assert.Equal(t, "old", replaced)

	// 旧连接断开时已无绑定，不会把玩家标记为离线
	_, ok := d.Lookup("old")
	assert.False(t, ok)

	conn, _ := d.ConnectionFor("room1", "p1")
	assert.Equal(t, "new", conn)
	assert.Equal(t, 1, d.Count())
}

func TestDirectory_RebindToAnotherRoom(t *testing.T) {
	t.Parallel()
	d := NewDirectory()

	d.Bind("c1", "p1", "room1")
	d.Bind("c1", "p9", "room2")

	_, ok := d.ConnectionFor("room1", "p1")
	assert.False(t, ok)
	b, _ := d.Lookup("c1")
	assert.Equal(t, "room2", b.RoomID)
}

func TestDirectory_ConnectionsInAndUnbindRoom(t *testing.T) {
	t.Parallel()
	d := NewDirectory()

	d.Bind("c1", "p1", "room1")
	d.Bind("c2", "p2", "room1")
	d.Bind("c3", "p3", "room2")

	assert.ElementsMatch(t, []string{"c1", "c2"}, d.ConnectionsIn("room1"))

	removed := d.UnbindRoom("room1")
	assert.ElementsMatch(t, []string{"c1", "c2"}, removed)
	assert.Empty(t, d.ConnectionsIn("room1"))
	assert.Equal(t, 1, d.Count())
}

func TestDirectory_Concurrent(t *testing.T) {
	t.Parallel()
	d := NewDirectory()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conn := fmt.Sprintf("c%d", i)
			d.Bind(conn, fmt.Sprintf("p%d", i), "room")
			d.Lookup(conn)
			if i%2 == 0 {
				d.Unbind(conn)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 25, d.Count())
}
