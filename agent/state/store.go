package state

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrSessionNotFound = errors.New("session not found")

// Store is the persistence contract used by the dialogue engine.
// Load returns a private copy; callers publish changes with Save.
type Store interface {
	Load(ctx context.Context, chatID int64) (*Session, error)
	Save(ctx context.Context, s *Session) error
}

// StoreOption customizes MemoryStore.
type StoreOption func(*MemoryStore)

func WithClock(now func() time.Time) StoreOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// MemoryStore keeps sessions for the process lifetime.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
	now      func() time.Time
}

func NewMemoryStore(opts ...StoreOption) *MemoryStore {
	s := &MemoryStore{
		sessions: make(map[int64]*Session, 64),
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *MemoryStore) Load(ctx context.Context, chatID int64) (*Session, error) {
	if chatID == 0 {
		return nil, ErrInvalidChatID
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.sessions[chatID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return st.Clone(), nil
}

func (s *MemoryStore) Save(ctx context.Context, st *Session) error {
	if err := st.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	cp := st.Clone()
	if cp.UpdatedAt.IsZero() {
		cp.UpdatedAt = s.now().UTC()
	}

	s.mu.Lock()
	s.sessions[cp.ChatID] = cp
	s.mu.Unlock()
	return nil
}

// Len is the number of chats with a session.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
