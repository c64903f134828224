package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gekabilgi/yatirimadestek-732014e5-sub001/patch"
	"github.com/gekabilgi/yatirimadestek-732014e5-sub001/types"
)

var (
	ErrSessionNotFound   = errors.New("intake session not found")
	ErrSessionIncomplete = errors.New("intake session has unset slots")
)

type sessionKeyContext struct{}

// WithSessionKey sets the chat session id used to route session storage.
func WithSessionKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, sessionKeyContext{}, key)
}

// SessionKeyFromContext gets the chat session id from the context.
func SessionKeyFromContext(ctx context.Context) (string, bool) {
	value := ctx.Value(sessionKeyContext{})
	if value == nil {
		return "", false
	}
	key, ok := value.(string)
	return key, ok && key != ""
}

// SessionStore persists intake sessions keyed by the session id in the
// context. Writes are conditional: a slot that is already set is never
// rewritten and a completed session never reverts.
type SessionStore interface {
	// LoadActive returns the most recent session for the key, or nil.
	LoadActive(ctx context.Context) (*types.IntakeSession, error)
	// Create starts a new collecting session with every slot unset.
	Create(ctx context.Context) (*types.IntakeSession, error)
	// UpdateSlots writes the provided slots that are still unset and
	// returns the stored session.
	UpdateSlots(ctx context.Context, session *types.IntakeSession, slots types.Slots) (*types.IntakeSession, error)
	// MarkCompleted flips the status once all four slots are set.
	MarkCompleted(ctx context.Context, session *types.IntakeSession) error
}

// CacheSessionStore keeps sessions in a Cache, one list per session key.
type CacheSessionStore struct {
	mu       sync.Mutex
	sessions conversationRecord[[]*types.IntakeSession]
	now      func() time.Time
}

var _ SessionStore = (*CacheSessionStore)(nil)

func NewCacheSessionStore(core Cache[[]*types.IntakeSession]) *CacheSessionStore {
	return &CacheSessionStore{
		sessions: newConversationRecord(core, sessionNamespace),
		now:      time.Now,
	}
}

func NewMemorySessionStore() *CacheSessionStore {
	return NewCacheSessionStore(NewMemoryCache[[]*types.IntakeSession]())
}

func (s *CacheSessionStore) LoadActive(ctx context.Context) (*types.IntakeSession, error) {
	if _, ok := SessionKeyFromContext(ctx); !ok {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sessions, err := s.sessions.load(ctx)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, nil
	}
	return sessions[len(sessions)-1].Clone(), nil
}

func (s *CacheSessionStore) Create(ctx context.Context) (*types.IntakeSession, error) {
	key, ok := SessionKeyFromContext(ctx)
	if !ok {
		return nil, ErrNoSessionKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sessions, err := s.sessions.load(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	session := &types.IntakeSession{
		ID:        uuid.NewString(),
		SessionID: key,
		Status:    types.StatusCollecting,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessions.save(ctx, append(sessions, session)); err != nil {
		return nil, err
	}
	return session.Clone(), nil
}

func (s *CacheSessionStore) UpdateSlots(ctx context.Context, session *types.IntakeSession, slots types.Slots) (*types.IntakeSession, error) {
	if session == nil {
		return nil, ErrSessionNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sessions, idx, err := s.find(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	next, applied, err := patch.FillSlots(sessions[idx], slots)
	if err != nil {
		return nil, fmt.Errorf("failed to fill slots: %w", err)
	}
	if len(applied) == 0 {
		return sessions[idx].Clone(), nil
	}
	next.UpdatedAt = s.now()
	sessions[idx] = next
	if err := s.sessions.save(ctx, sessions); err != nil {
		return nil, err
	}
	return next.Clone(), nil
}

func (s *CacheSessionStore) MarkCompleted(ctx context.Context, session *types.IntakeSession) error {
	if session == nil {
		return ErrSessionNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sessions, idx, err := s.find(ctx, session.ID)
	if err != nil {
		return err
	}
	stored := sessions[idx]
	if stored.Status == types.StatusCompleted {
		return nil
	}
	if !stored.AllSlotsSet() {
		return ErrSessionIncomplete
	}
	next := stored.Clone()
	next.Status = types.StatusCompleted
	next.UpdatedAt = s.now()
	sessions[idx] = next
	return s.sessions.save(ctx, sessions)
}

// find returns a copy of the session list so a failed Set leaves the cached
// list untouched.
func (s *CacheSessionStore) find(ctx context.Context, id string) ([]*types.IntakeSession, int, error) {
	sessions, err := s.sessions.load(ctx)
	if err != nil {
		return nil, -1, err
	}
	for i, session := range sessions {
		if session.ID == id {
			return append([]*types.IntakeSession(nil), sessions...), i, nil
		}
	}
	return nil, -1, ErrSessionNotFound
}
