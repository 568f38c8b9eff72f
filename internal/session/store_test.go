package session

import (
	"context"
	"os"
	"testing"
	"time"

	// Packages
	agent "github.com/dileep-u-k/weather-agent/internal/agent"
	api "github.com/dileep-u-k/weather-agent/internal/api"
	usage "github.com/dileep-u-k/weather-agent/internal/usage"
	version "github.com/dileep-u-k/weather-agent/internal/version"
	uuid "github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"
)

func sampleState() agent.ConversationState {
	state := agent.NewConversationState(uuid.NewString(), api.Location{Latitude: 48.8566, Longitude: 2.3522, Name: "Paris"})
	return state.Record("Weather?", &agent.Result{
		Answer: "Mild and sunny.",
		Usage:  api.Usage{PromptTokens: 300, CompletionTokens: 40, TotalTokens: 340},
	}, nil, usage.DefaultPricing)
}

func Test_memory_001(t *testing.T) {
	assert := assert.New(t)
	store := NewMemoryStore(0)
	ctx := context.Background()

	_, err := store.Load(ctx, "missing")
	assert.ErrorIs(err, ErrNotFound)

	state := sampleState()
	require.NoError(t, store.Save(ctx, state))
	got, err := store.Load(ctx, state.ID)
	require.NoError(t, err)
	assert.Equal(state, got)

	assert.Error(store.Save(ctx, agent.ConversationState{}))
}

func Test_memory_002(t *testing.T) {
	assert := assert.New(t)
	store := NewMemoryStore(time.Minute)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	state := sampleState()
	require.NoError(t, store.Save(ctx, state))
	now = now.Add(2 * time.Minute)
	_, err := store.Load(ctx, state.ID)
	assert.ErrorIs(err, ErrNotFound)
}

func Test_memory_003(t *testing.T) {
	// conversations that are never resumed do not accumulate
	assert := assert.New(t)
	store := NewMemoryStore(time.Millisecond)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		state := agent.NewConversationState(uuid.NewString(), api.Location{})
		require.NoError(t, store.Save(ctx, state))
	}
	assert.Len(store.entries, 1000)

	now = now.Add(time.Hour)
	live := sampleState()
	require.NoError(t, store.Save(ctx, live))
	assert.Len(store.entries, 1)

	got, err := store.Load(ctx, live.ID)
	require.NoError(t, err)
	assert.Equal(live.ID, got.ID)
}

func Test_redis_001(t *testing.T) {
	assert := assert.New(t)
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skipf("redis at %s unreachable: %v", addr, err)
	}

	store := NewRedisStore(rdb, time.Minute)
	state := sampleState()
	t.Cleanup(func() { _ = rdb.Del(ctx, version.SessionKey(state.ID)).Err() })

	_, err := store.Load(ctx, state.ID)
	assert.ErrorIs(err, ErrNotFound)

	require.NoError(t, store.Save(ctx, state))
	got, err := store.Load(ctx, state.ID)
	require.NoError(t, err)
	assert.Equal(state.ID, got.ID)
	assert.Equal(state.Messages, got.Messages)
	assert.Equal(state.Stats, got.Stats)
	assert.Equal(state.Location, got.Location)
	assert.True(state.UpdatedAt.Equal(got.UpdatedAt))

	ttl, err := rdb.TTL(ctx, version.SessionKey(state.ID)).Result()
	require.NoError(t, err)
	assert.True(ttl > 0 && ttl <= time.Minute)
}
