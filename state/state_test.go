package state

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("Should round-trip a value through set/get", func(t *testing.T) {
		s := NewMemoryStore("user-1")
		require.NoError(t, s.Set(ctx, "hasSent", true))
		v, ok, err := s.Get(ctx, "hasSent")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, true, v)
	})

	t.Run("Should report absent keys", func(t *testing.T) {
		s := NewMemoryStore("user-1")
		_, ok, err := s.Get(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Should overwrite on repeated upsert", func(t *testing.T) {
		s := NewMemoryStore("user-1")
		require.NoError(t, s.Set(ctx, "k", "v1"))
		require.NoError(t, s.Set(ctx, "k", "v2"))
		v, _, _ := s.Get(ctx, "k")
		assert.Equal(t, "v2", v)
	})

	t.Run("Should delete a key", func(t *testing.T) {
		s := NewMemoryStore("user-1")
		require.NoError(t, s.Set(ctx, "k", "v"))
		require.NoError(t, s.Delete(ctx, "k"))
		_, ok, _ := s.Get(ctx, "k")
		assert.False(t, ok)
	})

	t.Run("Should clear all keys", func(t *testing.T) {
		s := NewMemoryStore("user-1")
		require.NoError(t, s.Set(ctx, "a", 1))
		require.NoError(t, s.Set(ctx, "b", 2))
		require.NoError(t, s.Clear(ctx))
		all, err := s.GetAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("Should return all keys stripped of the namespace", func(t *testing.T) {
		s := NewMemoryStore("user-1")
		require.NoError(t, s.Set(ctx, "a", 1))
		require.NoError(t, s.Set(ctx, "b", 2))
		all, err := s.GetAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"a": 1, "b": 2}, all)
	})
}

func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, "user-1")
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()

	t.Run("Should round-trip a value through set/get", func(t *testing.T) {
		s := newTestRedisStore(t)
		require.NoError(t, s.Set(ctx, "hasSent", true))
		v, ok, err := s.Get(ctx, "hasSent")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, true, v)
	})

	t.Run("Should report absent keys without error", func(t *testing.T) {
		s := newTestRedisStore(t)
		_, ok, err := s.Get(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Should namespace keys so two stores do not collide", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		a := NewRedisStore(client, "user-a")
		b := NewRedisStore(client, "user-b")
		require.NoError(t, a.Set(ctx, "k", "fromA"))
		require.NoError(t, b.Set(ctx, "k", "fromB"))
		va, _, _ := a.Get(ctx, "k")
		vb, _, _ := b.Get(ctx, "k")
		assert.Equal(t, "fromA", va)
		assert.Equal(t, "fromB", vb)
	})

	t.Run("Should return getAll with namespace prefix stripped", func(t *testing.T) {
		s := newTestRedisStore(t)
		require.NoError(t, s.Set(ctx, "a", 1.0))
		require.NoError(t, s.Set(ctx, "b", 2.0))
		all, err := s.GetAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"a": 1.0, "b": 2.0}, all)
	})

	t.Run("Should clear only this namespace's keys", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		a := NewRedisStore(client, "user-a")
		b := NewRedisStore(client, "user-b")
		require.NoError(t, a.Set(ctx, "k", "v"))
		require.NoError(t, b.Set(ctx, "k", "v"))
		require.NoError(t, a.Clear(ctx))
		_, aOk, _ := a.Get(ctx, "k")
		_, bOk, _ := b.Get(ctx, "k")
		assert.False(t, aOk)
		assert.True(t, bOk)
	})
}
