// In file: internal/session/store.go

// Package session persists conversation state between chat turns.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dileep-u-k/weather-agent/internal/agent"
	"github.com/dileep-u-k/weather-agent/internal/version"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL is how long an idle conversation is kept.
const DefaultTTL = time.Hour

// ErrNotFound is returned when a conversation does not exist or expired.
var ErrNotFound = errors.New("conversation not found")

// Store loads and saves conversation state by id.
type Store interface {
	Load(ctx context.Context, id string) (agent.ConversationState, error)
	Save(ctx context.Context, state agent.ConversationState) error
}

///////////////////////////////////////////////////////////////////////////////
// REDIS

// RedisStore keeps each conversation as a JSON string with a sliding TTL.
type RedisStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a Redis-backed store. A non-positive ttl uses
// DefaultTTL.
func NewRedisStore(rdb redis.Cmdable, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) Load(ctx context.Context, id string) (agent.ConversationState, error) {
	var state agent.ConversationState
	data, err := s.rdb.Get(ctx, version.SessionKey(id)).Bytes()
	if err == redis.Nil {
		return state, ErrNotFound
	} else if err != nil {
		return state, fmt.Errorf("failed to load conversation %s: %w", id, err)
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return state, fmt.Errorf("failed to decode conversation %s: %w", id, err)
	}
	return state, nil
}

func (s *RedisStore) Save(ctx context.Context, state agent.ConversationState) error {
	if state.ID == "" {
		return errors.New("conversation id is required")
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode conversation %s: %w", state.ID, err)
	}
	if err := s.rdb.Set(ctx, version.SessionKey(state.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save conversation %s: %w", state.ID, err)
	}
	return nil
}

///////////////////////////////////////////////////////////////////////////////
// MEMORY

// MemoryStore is an in-process Store used when Redis is not configured.
// Entries expire after the TTL; every Save drops expired entries.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

type memoryEntry struct {
	state   agent.ConversationState
	expires time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{ttl: ttl, now: time.Now, entries: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Load(_ context.Context, id string) (agent.ConversationState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if !ok {
		return agent.ConversationState{}, ErrNotFound
	}
	if s.now().After(entry.expires) {
		delete(s.entries, id)
		return agent.ConversationState{}, ErrNotFound
	}
	return entry.state, nil
}

func (s *MemoryStore) Save(_ context.Context, state agent.ConversationState) error {
	if state.ID == "" {
		return errors.New("conversation id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, entry := range s.entries {
		if now.After(entry.expires) {
			delete(s.entries, id)
		}
	}
	s.entries[state.ID] = memoryEntry{state: state, expires: now.Add(s.ttl)}
	return nil
}
