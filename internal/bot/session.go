package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/YakushevDanila/tanuki-bot3/pkg/redis"
)

// Pipeline step tags. One linear pipeline per command; each step waits
// for exactly one message.
const (
	stepDate             = "add_shift/date"
	stepOverwriteConfirm = "add_shift/overwrite_confirm"
	stepStart            = "add_shift/start"
	stepEnd              = "add_shift/end"
	stepRevenueDate      = "revenue/date"
	stepRevenueAmount    = "revenue/amount"
	stepTipsDate         = "tips/date"
	stepTipsAmount       = "tips/amount"
	stepEditDate         = "edit/date"
	stepEditField        = "edit/field"
	stepEditValue        = "edit/value"
	stepProfitDate       = "profit/date"
	stepStatsStart       = "stats/start"
	stepStatsEnd         = "stats/end"
	stepExportStart      = "export/start"
	stepExportEnd        = "export/end"
)

// Session is one chat's pipeline position plus the partial fields
// accumulated so far. It is cleared on every terminal transition.
type Session struct {
	Step string            `json:"step"`
	Data map[string]string `json:"data"`
}

func newSession(step string) *Session {
	return &Session{Step: step, Data: make(map[string]string)}
}

// Sessions stores per-chat conversation state. Get returns (nil, nil)
// when the chat has no active pipeline.
type Sessions interface {
	Get(ctx context.Context, chatID int64) (*Session, error)
	Put(ctx context.Context, chatID int64, s *Session) error
	Clear(ctx context.Context, chatID int64) error
}

// ── In-memory sessions ──

type memoryEntry struct {
	session   *Session
	expiresAt time.Time
}

// MemorySessions keeps sessions in process memory with a TTL, so stale
// pipeline state does not survive an idle period.
type MemorySessions struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[int64]memoryEntry
}

// NewMemorySessions creates an in-memory session store. ttl <= 0 means
// no expiry.
func NewMemorySessions(ttl time.Duration) *MemorySessions {
	return &MemorySessions{ttl: ttl, entries: make(map[int64]memoryEntry)}
}

func (m *MemorySessions) Get(_ context.Context, chatID int64) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[chatID]
	if !ok {
		return nil, nil
	}
	if m.ttl > 0 && time.Now().After(e.expiresAt) {
		delete(m.entries, chatID)
		return nil, nil
	}
	return e.session, nil
}

func (m *MemorySessions) Put(_ context.Context, chatID int64, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[chatID] = memoryEntry{session: s, expiresAt: time.Now().Add(m.ttl)}
	return nil
}

func (m *MemorySessions) Clear(_ context.Context, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, chatID)
	return nil
}

// ── Redis-backed sessions ──

const sessionKeyPrefix = "session:"

// RedisSessions persists sessions in Redis so an in-flight pipeline
// survives a process restart. The TTL doubles as the idle expiry.
type RedisSessions struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessions creates a Redis-backed session store.
func NewRedisSessions(client *redis.Client, ttl time.Duration) *RedisSessions {
	return &RedisSessions{client: client, ttl: ttl}
}

func (r *RedisSessions) key(chatID int64) string {
	return fmt.Sprintf("%s%d", sessionKeyPrefix, chatID)
}

func (r *RedisSessions) Get(ctx context.Context, chatID int64) (*Session, error) {
	raw, err := r.client.Get(ctx, r.key(chatID))
	if errors.Is(err, redis.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}

	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	if s.Data == nil {
		s.Data = make(map[string]string)
	}
	return &s, nil
}

func (r *RedisSessions) Put(ctx context.Context, chatID int64, s *Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	return r.client.Set(ctx, r.key(chatID), string(raw), r.ttl)
}

func (r *RedisSessions) Clear(ctx context.Context, chatID int64) error {
	return r.client.Del(ctx, r.key(chatID))
}
