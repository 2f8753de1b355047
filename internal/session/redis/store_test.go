package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/davidbz/quotekit/internal/domain"
	"github.com/davidbz/quotekit/internal/session/redis"
)

func setupTestRedis(t *testing.T) (*goredis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := goredis.NewClient(&goredis.Options{
		Addr: mr.Addr(),
	})

	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})

	return client, mr
}

func TestStore_SaveLoad(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := redis.NewStore(client, "quotekit:")
	ctx := context.Background()

	require.NoError(t, store.Ping(ctx))
	require.NoError(t, store.Save(ctx, "chat_session:abc", []byte(`[]`), 30*time.Minute))

	data, err := store.Load(ctx, "chat_session:abc")
	require.NoError(t, err)
	require.Equal(t, "[]", string(data))

	require.True(t, mr.Exists("quotekit:chat_session:abc"))
	require.Equal(t, 30*time.Minute, mr.TTL("quotekit:chat_session:abc"))
}

func TestStore_MissingKey(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := redis.NewStore(client, "")

	_, err := store.Load(context.Background(), "nope")
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestStore_SaveExtendsTTL(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := redis.NewStore(client, "")
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "k", []byte("1"), 30*time.Minute))
	mr.FastForward(20 * time.Minute)
	require.NoError(t, store.Save(ctx, "k", []byte("2"), 30*time.Minute))
	mr.FastForward(20 * time.Minute)

	data, err := store.Load(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "2", string(data))

	mr.FastForward(11 * time.Minute)
	_, err = store.Load(ctx, "k")
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestStore_Delete(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := redis.NewStore(client, "")
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "k", []byte("1"), time.Minute))
	require.NoError(t, store.Delete(ctx, "k"))
	require.False(t, mr.Exists("k"))
	require.NoError(t, store.Delete(ctx, "k"))
}

func TestStore_ConnectionError(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := redis.NewStore(client, "")
	mr.Close()

	_, err := store.Load(context.Background(), "k")
	require.Error(t, err)
	require.NotErrorIs(t, err, domain.ErrSessionNotFound)
}
