package storage

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/emoguchi/internal/apperrors"
	"github.com/palemoky/emoguchi/internal/game/room"
)

func newTestRedisClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	client, mr := newTestRedisClient(t)
	return NewRedisStore(client, time.Hour), mr
}

func sampleRoom(id string) *room.Room {
	now := time.Now()
	r := room.New(id, room.DefaultConfig(), now)
	a := r.AddPlayer("A", now)
	b := r.AddPlayer("B", now)
	r.HostToken = "host-token"
	r.CurrentRound = room.NewRound(a.ID, "やばい！", "surprise", []string{"surprise", "joy", "fear", "trust"}, 30, now)
	r.CurrentRound.Votes[b.ID] = "joy"
	r.Phase = room.PhaseInRound
	return r
}

// repositoryContract 所有仓库实现共享的行为
func repositoryContract(t *testing.T, repo Repository) {
	ctx := context.Background()
	r := sampleRoom(fmt.Sprintf("room-%d", time.Now().UnixNano()%100000))

	got, err := repo.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, repo.Create(ctx, r))
	assert.ErrorIs(t, repo.Create(ctx, r), apperrors.ErrRoomExists)

	got, err = repo.Get(ctx, r.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	if diff := cmp.Diff(r, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("loaded room mismatch (-want +got):\n%s", diff)
	}

	// 修改副本不影响仓库，Update 后才生效
	got.PlayerByName("A").Score = 5
	again, err := repo.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Zero(t, again.PlayerByName("A").Score)

	require.NoError(t, repo.Update(ctx, got))
	again, err = repo.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, again.PlayerByName("A").Score)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, list)

	require.NoError(t, repo.Delete(ctx, r.ID))
	got, err = repo.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.ErrorIs(t, repo.Update(ctx, r), apperrors.ErrRoomNotFound)
}

func TestMemoryStore_Contract(t *testing.T) {
	t.Parallel()
	repositoryContract(t, NewMemoryStore())
}

func TestRedisStore_Contract(t *testing.T) {
	t.Parallel()
	store, _ := newTestRedisStore(t)
	repositoryContract(t, store)
}

func TestRedisStore_Expiration(t *testing.T) {
	t.Parallel()
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	r := sampleRoom("expiring")
	require.NoError(t, store.Create(ctx, r))
	assert.Equal(t, time.Hour, mr.TTL(roomKeyPrefix+r.ID))

	mr.FastForward(2 * time.Hour)

	got, err := store.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	// 过期房间从索引中清理
	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
	members, err := mr.Members(roomIndexKey)
	if err == nil {
		assert.Empty(t, members)
	}
}

func TestRedisStore_CorruptData(t *testing.T) {
	t.Parallel()
	store, mr := newTestRedisStore(t)

	require.NoError(t, mr.Set(roomKeyPrefix+"broken", "{not json"))
	_, err := store.Get(context.Background(), "broken")
	assert.Error(t, err)
}

func TestMemoryStore_ListOrder(t *testing.T) {
	t.Parallel()
	store := NewMemoryStore()
	ctx := context.Background()

	first := room.New("first", room.DefaultConfig(), time.Now().Add(-time.Minute))
	second := room.New("second", room.DefaultConfig(), time.Now())
	require.NoError(t, store.Create(ctx, second))
	require.NoError(t, store.Create(ctx, first))

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "first", list[0].ID)
}

func TestPostgresRecordConversion(t *testing.T) {
	t.Parallel()

	r := sampleRoom("pg-room")
	rec, err := toRecord(r)
	require.NoError(t, err)
	assert.Equal(t, "pg-room", rec.ID)
	assert.Equal(t, string(room.PhaseInRound), rec.Phase)
	assert.Equal(t, 2, rec.Players)
	assert.False(t, rec.UpdatedAt.IsZero())

	back, err := fromRecord(rec)
	require.NoError(t, err)
	if diff := cmp.Diff(r, back, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("record round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestPostgresStore_Contract(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	dsn := os.Getenv("EMOGUCHI_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("EMOGUCHI_TEST_POSTGRES_DSN not set")
	}

	db, err := OpenPostgres(dsn)
	require.NoError(t, err)
	repositoryContract(t, NewPostgresStore(db))
}
